// Package logging provides the structured logger shared by the file cache
// packages. It wraps log/slog and offers a no-op variant so that library code
// can log unconditionally.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel represents different logging levels.
type LogLevel int

// Supported log levels, lowest first.
const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// String returns the lowercase name of the level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "debug"
	case LogLevelInfo:
		return "info"
	case LogLevelWarn:
		return "warn"
	case LogLevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Logger provides structured logging for the cache system.
// A nil *Logger is valid and discards everything.
type Logger struct {
	impl loggerImpl
}

// loggerImpl defines the internal interface for logger implementations.
type loggerImpl interface {
	log(ctx context.Context, level LogLevel, msg string, args ...any)
	with(args ...any) loggerImpl
}

// LogConfig holds configuration for the cache logger.
type LogConfig struct {
	// Level sets the minimum log level.
	Level LogLevel
	// EnableCallerInfo includes file and line number in logs.
	EnableCallerInfo bool
	// Output is where records are written. Defaults to os.Stderr.
	Output io.Writer
}

// DefaultLogConfig returns a default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            LogLevelInfo,
		EnableCallerInfo: false,
		Output:           os.Stderr,
	}
}

// NewLogger creates a new structured logger with the given configuration.
func NewLogger(config LogConfig) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:     toSlogLevel(config.Level),
		AddSource: config.EnableCallerInfo,
	})

	return &Logger{
		impl: &slogLogger{
			logger: slog.New(handler),
			level:  config.Level,
		},
	}
}

// NewNopLogger creates a no-op logger that discards all log messages.
func NewNopLogger() *Logger {
	return &Logger{impl: nopLogger{}}
}

func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs debug-level messages.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LogLevelDebug, msg, args...)
}

// Info logs info-level messages.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LogLevelInfo, msg, args...)
}

// Warn logs warning-level messages.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LogLevelWarn, msg, args...)
}

// Error logs error-level messages.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LogLevelError, msg, args...)
}

func (l *Logger) log(ctx context.Context, level LogLevel, msg string, args ...any) {
	if l == nil || l.impl == nil {
		return
	}
	l.impl.log(ctx, level, msg, args...)
}

// With returns a logger with additional context fields.
func (l *Logger) With(args ...any) *Logger {
	if l == nil || l.impl == nil {
		return l
	}
	if _, ok := l.impl.(nopLogger); ok {
		return l
	}
	return &Logger{impl: l.impl.with(args...)}
}

// WithOperation returns a logger with operation context.
func (l *Logger) WithOperation(operation string) *Logger {
	return l.With("operation", operation)
}

// WithPath returns a logger with cache file path context.
func (l *Logger) WithPath(path string) *Logger {
	return l.With("path", path)
}

// WithKey returns a logger with cache key context.
func (l *Logger) WithKey(key string) *Logger {
	return l.With("key", key)
}

// WithSize returns a logger with size context.
func (l *Logger) WithSize(size int64) *Logger {
	return l.With("size", size)
}

// WithDuration returns a logger with duration context.
func (l *Logger) WithDuration(duration time.Duration) *Logger {
	return l.With("duration", duration)
}

// slogLogger implements loggerImpl using slog.
type slogLogger struct {
	logger *slog.Logger
	level  LogLevel
	fields []any
}

func (l *slogLogger) log(ctx context.Context, level LogLevel, msg string, args ...any) {
	if level < l.level {
		return
	}

	allArgs := make([]any, len(l.fields)+len(args))
	copy(allArgs, l.fields)
	copy(allArgs[len(l.fields):], args)
	l.logger.Log(ctx, toSlogLevel(level), msg, allArgs...)
}

func (l *slogLogger) with(args ...any) loggerImpl {
	newFields := make([]any, len(l.fields)+len(args))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], args)

	return &slogLogger{
		logger: l.logger,
		level:  l.level,
		fields: newFields,
	}
}

// nopLogger discards all messages.
type nopLogger struct{}

func (nopLogger) log(context.Context, LogLevel, string, ...any) {}
func (n nopLogger) with(...any) loggerImpl                    { return n }

// ParseLogLevel parses a string log level into a LogLevel.
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}
