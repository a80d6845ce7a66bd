package filecache

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"

	"github.com/jmgilman/go/filecache/logging"
)

// Writer writes a value into the cache. The value becomes visible under its
// key only when Close succeeds. A Writer is not safe for concurrent use.
type Writer struct {
	cache   *Cache
	key     string
	path    string
	temp    string
	file    core.File
	written int64
	done    bool
}

// Create starts writing the value for key. Any value already cached for key
// is removed first.
func (c *Cache) Create(key string) (*Writer, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	path, err := c.mapper.MapKeyToFile(key, true)
	if err != nil {
		c.metrics.RecordError()
		return nil, err
	}

	c.mu.RLock()
	_, err = c.removePath(path)
	c.mu.RUnlock()
	if err != nil {
		c.metrics.RecordError()
		return nil, err
	}

	temp := path + "." + uuid.NewString() + tempSuffix
	f, err := c.fs.Create(temp)
	if err != nil {
		c.metrics.RecordError()
		return nil, platformerrors.WrapWithContext(err, platformerrors.CodeInternal,
			"failed to create cache file", map[string]interface{}{"key": key, "path": temp})
	}

	return &Writer{cache: c, key: key, path: path, temp: temp, file: f}, nil
}

// Path returns the final path of the cached file.
func (w *Writer) Path() string {
	return w.path
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.done {
		return 0, ErrWriterClosed
	}
	n, err := w.file.Write(p)
	w.written += int64(n)
	return n, err
}

// Close commits the written data under the writer's key. Calling Close
// again, or after Abort, does nothing.
func (w *Writer) Close() error {
	if w.done {
		return nil
	}
	w.done = true

	if err := w.file.Close(); err != nil {
		_ = w.cache.fs.Remove(w.temp)
		w.cache.metrics.RecordError()
		return platformerrors.WrapWithContext(err, platformerrors.CodeInternal,
			"failed to close cache file", map[string]interface{}{"key": w.key, "path": w.temp})
	}
	if err := w.cache.commit(w.temp, w.path, w.written); err != nil {
		w.cache.metrics.RecordError()
		return err
	}

	logging.LogCacheWrite(context.Background(), w.cache.logger, w.key, w.path, w.written)
	return nil
}

// Abort discards the written data. Calling Abort after Close does nothing.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true

	_ = w.file.Close()
	if err := w.cache.fs.Remove(w.temp); err != nil {
		return platformerrors.WrapWithContext(err, platformerrors.CodeInternal,
			"failed to discard cache file", map[string]interface{}{"path": w.temp})
	}
	return nil
}

// commit renames temp into place and registers the file with the monitor.
// The new size is added before the file becomes an eviction candidate, and
// the size of any entry the file replaces is released.
func (c *Cache) commit(temp, path string, size int64) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Another writer for the same key may have committed since Create.
	if _, err := c.removePath(path); err != nil {
		_ = c.fs.Remove(temp)
		return err
	}
	if err := c.fs.Rename(temp, path); err != nil {
		_ = c.fs.Remove(temp)
		return platformerrors.WrapWithContext(err, platformerrors.CodeInternal,
			"failed to move cache file into place", map[string]interface{}{"path": path})
	}
	c.metrics.RecordPut(size)

	if c.monitor == nil {
		return nil
	}

	c.AddToCacheSize(size)
	old, err := c.monitor.Track(path)
	if err != nil {
		// An untracked file would never be evicted.
		c.AddToCacheSize(-size)
		_ = c.fs.Remove(path)
		return err
	}
	if old != nil {
		c.AddToCacheSize(-old.Size)
	}
	c.monitor.Wake()
	return nil
}

// Put stores data under key.
func (c *Cache) Put(key string, data []byte) error {
	w, err := c.Create(key)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Abort()
		c.metrics.RecordError()
		return platformerrors.WrapWithContext(err, platformerrors.CodeInternal,
			"failed to write cache file", map[string]interface{}{"key": key})
	}
	return w.Close()
}

// GetOrCompute returns the path of the file cached for key, computing it
// with fn on a miss. Concurrent calls for the same key share a single
// computation. If fn fails nothing is cached.
func (c *Cache) GetOrCompute(ctx context.Context, key string, fn func(io.Writer) error) (string, error) {
	if path, ok := c.Get(key); ok {
		return path, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		path, err := c.mapper.MapKeyToFile(key, false)
		if err != nil {
			return nil, err
		}
		// A caller that just finished may have filled the entry.
		if exists, _ := c.fs.Exists(path); exists {
			return path, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, platformerrors.Wrap(err, platformerrors.CodeTimeout, "cache computation cancelled")
		}

		start := time.Now()
		w, err := c.Create(key)
		if err != nil {
			return nil, err
		}
		if err := fn(w); err != nil {
			_ = w.Abort()
			c.metrics.RecordError()
			return nil, platformerrors.WrapWithContext(err, platformerrors.CodeInternal,
				"failed to compute cache entry", map[string]interface{}{"key": key})
		}
		if err := w.Close(); err != nil {
			return nil, err
		}

		c.logger.WithOperation(string(logging.OpCompute)).WithDuration(time.Since(start)).
			Debug(ctx, "cache entry computed", "key", key)
		return w.Path(), nil
	})
	c.metrics.RecordComputation(shared)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
