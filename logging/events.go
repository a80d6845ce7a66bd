package logging

import (
	"context"
	"time"
)

// Operation names a cache operation for log records.
type Operation string

// Operation constants for cache operations.
const (
	OpGet     Operation = "get"
	OpOpen    Operation = "open"
	OpPut     Operation = "put"
	OpRemove  Operation = "remove"
	OpClear   Operation = "clear"
	OpEvict   Operation = "evict"
	OpScan    Operation = "scan"
	OpCompute Operation = "compute"
)

// LogCacheHit logs a cache hit event.
func LogCacheHit(ctx context.Context, logger *Logger, operation Operation, key string) {
	logger.Debug(ctx, "cache hit",
		"operation", string(operation),
		"key", key,
		"result", "hit")
}

// LogCacheMiss logs a cache miss event.
func LogCacheMiss(ctx context.Context, logger *Logger, operation Operation, key string) {
	logger.Debug(ctx, "cache miss",
		"operation", string(operation),
		"key", key,
		"result", "miss")
}

// LogCacheWrite logs a committed cache write.
func LogCacheWrite(ctx context.Context, logger *Logger, key, path string, size int64) {
	logger.Debug(ctx, "cache entry written",
		"operation", string(OpPut),
		"key", key,
		"path", path,
		"size", size)
}

// LogEviction logs an eviction event.
func LogEviction(ctx context.Context, logger *Logger, path string, size int64, reason string) {
	logger.Debug(ctx, "cache file evicted",
		"path", path,
		"size", size,
		"reason", reason)
}

// LogScan logs the result of the startup directory scan.
func LogScan(ctx context.Context, logger *Logger, dir string, files int, bytes int64, aborted bool, duration time.Duration) {
	logger.Info(ctx, "cache directory scan completed",
		"directory", dir,
		"files", files,
		"bytes", bytes,
		"aborted", aborted,
		"duration_ms", duration.Milliseconds())
}
