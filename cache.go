package filecache

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"
	"golang.org/x/sync/singleflight"

	"github.com/jmgilman/go/filecache/atime"
	"github.com/jmgilman/go/filecache/keymap"
	"github.com/jmgilman/go/filecache/logging"
	"github.com/jmgilman/go/filecache/monitor"
)

var _ monitor.Owner = (*Cache)(nil)

// tempSuffix marks files still being written.
const tempSuffix = ".tmp"

// Cache is an on-disk file cache. All methods are safe for concurrent use.
type Cache struct {
	mapper  keymap.Mapper
	fs      core.FS
	times   atime.Source
	logger  *logging.Logger
	metrics *Metrics
	touch   bool

	size     atomic.Int64
	capacity atomic.Int64

	// monitor is nil for unbounded caches.
	monitor *monitor.Monitor
	group   singleflight.Group

	// mu is held exclusively by Clear and shared by operations that change
	// which files exist.
	mu        sync.RWMutex
	closed    atomic.Bool
	closeOnce sync.Once
}

// New creates a cache over the directory of mapper. A capacity of zero
// creates an unbounded cache. If the directory holds a cache written under
// another FormatVersion, its files are deleted first.
func New(capacity int64, mapper keymap.Mapper, opts ...Option) (*Cache, error) {
	if capacity < 0 {
		return nil, platformerrors.Newf(platformerrors.CodeInvalidInput,
			"cache capacity cannot be negative: %d", capacity)
	}
	if mapper == nil {
		return nil, platformerrors.New(platformerrors.CodeInvalidInput, "cache key mapper cannot be nil")
	}

	o := applyOptions(opts)
	c := &Cache{
		mapper:  mapper,
		fs:      o.fs,
		times:   o.times,
		metrics: o.metrics,
		touch:   o.touch,
		logger:  o.logger.With("component", "file_cache", "directory", mapper.CacheDirectory()),
	}
	c.capacity.Store(capacity)

	ctx := context.Background()
	if !c.checkVersion() {
		c.logger.Info(ctx, "cache format version changed, clearing cache", "version", FormatVersion)
		if err := c.deleteFiles(ctx); err != nil {
			return nil, err
		}
		if err := c.writeVersion(); err != nil {
			return nil, err
		}
	}

	if capacity > 0 {
		c.monitor = monitor.New(c,
			monitor.WithFS(c.fs),
			monitor.WithAccessTimes(c.times),
			monitor.WithLogger(o.logger),
			monitor.WithObserver(c.metrics),
			monitor.WithFilter(c.isCacheFile),
		)
		c.monitor.Start()
	}

	c.logger.Debug(ctx, "cache opened", "capacity", capacity)
	return c, nil
}

// Size returns the total size of the tracked cache files in bytes. It is
// always zero for unbounded caches.
func (c *Cache) Size() int64 {
	return c.size.Load()
}

// Capacity returns the maximum size of the cache in bytes. Zero means
// unbounded.
func (c *Cache) Capacity() int64 {
	return c.capacity.Load()
}

// AddToCacheSize adjusts the size counter by delta bytes. The counter never
// drops below zero.
func (c *Cache) AddToCacheSize(delta int64) {
	for {
		cur := c.size.Load()
		next := cur + delta
		if next < 0 {
			next = 0
		}
		if c.size.CompareAndSwap(cur, next) {
			return
		}
	}
}

// CacheDirectory returns the directory holding the cache files.
func (c *Cache) CacheDirectory() string {
	return c.mapper.CacheDirectory()
}

// SetCapacity changes the capacity of a bounded cache and lets the monitor
// reclaim space if needed. Unbounded caches stay unbounded and negative
// values are ignored.
func (c *Cache) SetCapacity(capacity int64) {
	if c.monitor == nil || capacity < 0 {
		return
	}
	c.capacity.Store(capacity)
	c.monitor.Wake()
}

// Contains reports whether key has a cached file. Bounded caches answer from
// the monitor's index without touching the filesystem, so files that the
// startup scan has not reached yet are reported as missing.
func (c *Cache) Contains(key string) bool {
	path, err := c.mapper.MapKeyToFile(key, false)
	if err != nil {
		return false
	}
	if c.monitor != nil {
		return c.monitor.ContainsFile(path)
	}
	exists, err := c.fs.Exists(path)
	return err == nil && exists
}

// Get returns the path of the file cached for key. A hit marks the file as
// recently used.
func (c *Cache) Get(key string) (string, bool) {
	ctx := context.Background()

	path, err := c.mapper.MapKeyToFile(key, false)
	if err != nil {
		c.metrics.RecordError()
		c.logger.Warn(ctx, "failed to map cache key", "key", key, "error", err)
		return "", false
	}

	if _, err := c.fs.Stat(path); err != nil {
		c.metrics.RecordMiss()
		logging.LogCacheMiss(ctx, c.logger, logging.OpGet, key)
		return "", false
	}

	c.markAccessed(ctx, path)
	c.metrics.RecordHit()
	logging.LogCacheHit(ctx, c.logger, logging.OpGet, key)
	return path, true
}

// Open opens the file cached for key for reading. A miss returns an error
// matching ErrNotFound.
func (c *Cache) Open(key string) (fs.File, error) {
	ctx := context.Background()

	path, err := c.mapper.MapKeyToFile(key, false)
	if err != nil {
		c.metrics.RecordError()
		return nil, err
	}

	f, err := c.fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.metrics.RecordMiss()
			logging.LogCacheMiss(ctx, c.logger, logging.OpOpen, key)
			return nil, platformerrors.WrapWithContext(ErrNotFound, platformerrors.CodeNotFound,
				"cache miss", map[string]interface{}{"key": key})
		}
		c.metrics.RecordError()
		return nil, platformerrors.WrapWithContext(err, platformerrors.CodeInternal,
			"failed to open cache file", map[string]interface{}{"key": key, "path": path})
	}

	c.markAccessed(ctx, path)
	c.metrics.RecordHit()
	logging.LogCacheHit(ctx, c.logger, logging.OpOpen, key)
	return f, nil
}

// markAccessed touches path and refreshes its monitor entry. Failures only
// degrade the eviction order and are logged.
func (c *Cache) markAccessed(ctx context.Context, path string) {
	if c.touch {
		if t, ok := c.times.(atime.Toucher); ok {
			if err := t.Touch(path, time.Now()); err != nil && !errors.Is(err, core.ErrUnsupported) {
				c.logger.Debug(ctx, "failed to touch cache file", "path", path, "error", err)
			}
		}
	}
	if c.monitor != nil {
		if _, err := c.monitor.Refresh(path); err != nil {
			c.logger.Debug(ctx, "failed to refresh cache file", "path", path, "error", err)
		}
	}
}

// Remove deletes the file cached for key. It reports whether there was
// anything to remove.
func (c *Cache) Remove(key string) (bool, error) {
	path, err := c.mapper.MapKeyToFile(key, false)
	if err != nil {
		return false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	removed, err := c.removePath(path)
	if err != nil {
		c.metrics.RecordError()
		return removed, err
	}
	if removed {
		c.metrics.RecordRemoval()
		c.logger.Debug(context.Background(), "cache entry removed", "key", key, "path", path)
	}
	return removed, nil
}

// removePath untracks and deletes path. Whoever takes an entry out of the
// monitor's index releases its size, so the size is only released here when
// the entry was still tracked.
func (c *Cache) removePath(path string) (bool, error) {
	var tracked bool
	if c.monitor != nil {
		var e *monitor.Entry
		if e, tracked = c.monitor.Untrack(path); tracked {
			c.AddToCacheSize(-e.Size)
		}
	}

	err := c.fs.Remove(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return tracked, nil
	default:
		return tracked, platformerrors.WrapWithContext(err, platformerrors.CodeInternal,
			"failed to delete cache file", map[string]interface{}{"path": path})
	}
}

// Clear deletes every cache file and resets the size counter. A startup
// scan still in progress is abandoned.
func (c *Cache) Clear() error {
	ctx := context.Background()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.monitor != nil {
		c.monitor.Clear()
	}
	err := c.deleteFiles(ctx)
	c.size.Store(0)

	if err != nil {
		c.metrics.RecordError()
		return err
	}
	c.logger.Info(ctx, "cache cleared")
	return nil
}

// deleteFiles removes every cache file and leftover temporary file under
// the cache directory.
func (c *Cache) deleteFiles(ctx context.Context) error {
	dir := c.CacheDirectory()

	var paths []string
	err := c.fs.Walk(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d == nil && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			c.logger.Warn(ctx, "failed to read cache directory entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if c.isCacheFile(d.Name()) || strings.HasSuffix(d.Name(), tempSuffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return platformerrors.WrapWithContext(err, platformerrors.CodeInternal,
			"failed to list cache directory", map[string]interface{}{"directory": dir})
	}

	var failed int
	var firstErr error
	for _, path := range paths {
		if err := c.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return platformerrors.WrapWithContext(firstErr, platformerrors.CodeInternal,
			"failed to delete old cache", map[string]interface{}{
				"directory": dir,
				"failed":    failed,
			})
	}

	c.logger.Debug(ctx, "cache files deleted", "count", len(paths))
	return nil
}

func (c *Cache) isCacheFile(name string) bool {
	return keymap.IsCacheFile(name, c.mapper.Extension())
}

// Stats describes the current state of a cache.
type Stats struct {
	Directory string          `json:"directory"`
	Size      int64           `json:"size"`
	Capacity  int64           `json:"capacity"`
	Bounded   bool            `json:"bounded"`
	Files     int             `json:"files"`
	Metrics   MetricsSnapshot `json:"metrics"`
}

// Stats returns a snapshot of the cache state. Files counts the files
// tracked by the monitor and is zero for unbounded caches.
func (c *Cache) Stats() Stats {
	s := Stats{
		Directory: c.CacheDirectory(),
		Size:      c.Size(),
		Capacity:  c.Capacity(),
		Bounded:   c.monitor != nil,
		Metrics:   c.metrics.Snapshot(),
	}
	if c.monitor != nil {
		s.Files = c.monitor.Len()
	}
	return s
}

// Metrics returns the cache's metrics collector.
func (c *Cache) Metrics() *Metrics {
	return c.metrics
}

// Close stops the background reclamation goroutine. Files stay on disk.
// Writes after Close fail with ErrClosed; reads keep working. Close is
// idempotent.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.monitor != nil {
			c.monitor.Dispose()
		}
		c.logger.Debug(context.Background(), "cache closed")
	})
	return nil
}
