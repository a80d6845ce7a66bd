package filecache

import (
	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"

	"github.com/jmgilman/go/filecache/atime"
	"github.com/jmgilman/go/filecache/logging"
)

// Option configures a Cache.
type Option func(*options)

type options struct {
	fs      core.FS
	times   atime.Source
	logger  *logging.Logger
	metrics *Metrics
	touch   bool
}

// WithFS sets the filesystem holding the cache directory. The mapper must
// have been created over the same filesystem. Defaults to the local
// filesystem.
func WithFS(fsys core.FS) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithAccessTimes sets the source of file access times. Defaults to the
// operating system for the local filesystem, and to the times reported by
// the filesystem otherwise.
func WithAccessTimes(src atime.Source) Option {
	return func(o *options) {
		o.times = src
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTouchOnAccess controls whether cache hits update the file's access
// time explicitly. It is enabled by default because many volumes are mounted
// with noatime or relatime, which would otherwise freeze the eviction order.
func WithTouchOnAccess(enabled bool) Option {
	return func(o *options) {
		o.touch = enabled
	}
}

// WithMetrics sets the metrics collector, allowing several caches to share
// one. Defaults to a new collector per cache.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func applyOptions(opts []Option) *options {
	o := &options{touch: true}
	for _, opt := range opts {
		opt(o)
	}

	if o.fs == nil {
		o.fs = billy.NewLocal()
	}
	if o.times == nil {
		if _, ok := o.fs.(*billy.LocalFS); ok {
			o.times = atime.OS{}
		} else {
			o.times = atime.FromFS{FS: o.fs}
		}
	}
	if o.logger == nil {
		o.logger = logging.NewNopLogger()
	}
	if o.metrics == nil {
		o.metrics = NewMetrics()
	}
	return o
}
