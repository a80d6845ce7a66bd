package monitor

import (
	"context"
	"sync"
	"sync/atomic"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"

	"github.com/jmgilman/go/filecache/atime"
	"github.com/jmgilman/go/filecache/logging"
)

// Owner is the cache whose directory a Monitor watches. The Monitor only
// reads the owner's size and capacity and adjusts its size counter; it never
// touches the owner's key mapping.
type Owner interface {
	// Size returns the current total size of the cache in bytes.
	Size() int64
	// Capacity returns the maximum size of the cache in bytes.
	Capacity() int64
	// AddToCacheSize adjusts the size counter by delta bytes.
	AddToCacheSize(delta int64)
	// CacheDirectory returns the directory holding the cache files.
	CacheDirectory() string
}

// Observer receives reclamation events. The Monitor checks whether its Owner
// implements Observer when none is supplied through WithObserver.
type Observer interface {
	// ObserveEviction is called after a victim has been deleted.
	ObserveEviction(path string, size int64)
	// ObserveStale is called when a candidate turned out to have been
	// accessed since it was indexed.
	ObserveStale(path string)
	// ObserveDeleteError is called when deleting a victim fails.
	ObserveDeleteError(path string, err error)
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithFS sets the filesystem used to stat, list and delete cache files.
// Defaults to the local filesystem.
func WithFS(fsys core.FS) Option {
	return func(m *Monitor) {
		m.fs = fsys
	}
}

// WithAccessTimes sets the source of file access times.
// Defaults to atime.OS.
func WithAccessTimes(src atime.Source) Option {
	return func(m *Monitor) {
		m.times = src
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// WithObserver sets the receiver of reclamation events.
func WithObserver(o Observer) Option {
	return func(m *Monitor) {
		m.observer = o
	}
}

// WithFilter restricts the startup scan to files whose base name satisfies
// keep. By default every regular file is tracked.
func WithFilter(keep func(name string) bool) Option {
	return func(m *Monitor) {
		m.filter = keep
	}
}

// Monitor tracks the files of an Owner's cache directory and deletes the
// least recently accessed ones whenever the owner exceeds its capacity.
//
// All exported methods are safe for concurrent use. The reclamation work
// runs on a single goroutine started by Start.
type Monitor struct {
	owner    Owner
	fs       core.FS
	times    atime.Source
	logger   *logging.Logger
	observer Observer
	filter   func(name string) bool

	idx *index

	// aborted is set by Clear to cut the startup scan short.
	aborted atomic.Bool

	wake      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
}

// New creates a Monitor for owner. The reclamation goroutine is not running
// until Start is called.
func New(owner Owner, opts ...Option) *Monitor {
	m := &Monitor{
		owner: owner,
		idx:   newIndex(),
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.fs == nil {
		m.fs = billy.NewLocal()
	}
	if m.times == nil {
		m.times = atime.OS{}
	}
	if m.logger == nil {
		m.logger = logging.NewNopLogger()
	}
	if m.observer == nil {
		if o, ok := owner.(Observer); ok {
			m.observer = o
		}
	}
	m.logger = m.logger.With("component", "cache_monitor", "directory", owner.CacheDirectory())

	return m
}

// Start launches the reclamation goroutine. Calling Start more than once, or
// after Dispose, has no effect.
func (m *Monitor) Start() {
	m.startOnce.Do(func() {
		select {
		case <-m.stop:
			close(m.done)
			return
		default:
		}
		m.started.Store(true)
		go m.run(context.Background())
	})
}

// AddFile starts tracking path, or refreshes its entry when its access time
// has changed. It returns false when path is already tracked with the same
// access time. If the file cannot be read the index is left untouched.
func (m *Monitor) AddFile(path string) (bool, error) {
	e, err := m.buildEntry(path)
	if err != nil {
		return false, err
	}
	if !m.idx.upsertIfChanged(e) {
		return false, nil
	}
	m.Wake()
	return true, nil
}

// Track starts tracking a file the owner has just written and returns the
// entry it replaced, if any. Unlike AddFile it always stores a fresh entry.
// The owner adds the new file's size itself and releases the replaced
// entry's size.
func (m *Monitor) Track(path string) (*Entry, error) {
	e, err := m.buildEntry(path)
	if err != nil {
		return nil, err
	}
	old := m.idx.upsert(e)
	m.Wake()
	return old, nil
}

// buildEntry reads the current access time and length of path.
func (m *Monitor) buildEntry(path string) (*Entry, error) {
	at, err := m.times.AccessTime(path)
	if err != nil {
		return nil, platformerrors.WrapWithContext(err, platformerrors.CodeInternal,
			"failed to read access time", map[string]interface{}{"path": path})
	}
	info, err := m.fs.Stat(path)
	if err != nil {
		return nil, platformerrors.WrapWithContext(err, platformerrors.CodeInternal,
			"failed to stat cache file", map[string]interface{}{"path": path})
	}
	return NewEntry(path, at, info.Size()), nil
}

// Refresh re-reads the access time of an already tracked file. Files that are
// not tracked are ignored, so a hit racing the startup scan never registers a
// file whose size the owner has not counted. It reports whether the entry
// changed.
func (m *Monitor) Refresh(path string) (bool, error) {
	if !m.idx.contains(path) {
		return false, nil
	}
	e, err := m.buildEntry(path)
	if err != nil {
		return false, err
	}
	return m.idx.replaceIfPresent(e), nil
}

// RemoveFile stops tracking path without deleting it. It reports whether an
// entry was removed.
func (m *Monitor) RemoveFile(path string) bool {
	_, ok := m.Untrack(path)
	return ok
}

// Untrack stops tracking path and returns the entry that was dropped. The
// caller becomes responsible for releasing the entry's size from the owner.
func (m *Monitor) Untrack(path string) (*Entry, bool) {
	return m.idx.remove(path)
}

// ContainsFile reports whether path is tracked.
func (m *Monitor) ContainsFile(path string) bool {
	return m.idx.contains(path)
}

// Entry returns the tracked entry for path.
func (m *Monitor) Entry(path string) (*Entry, bool) {
	return m.idx.get(path)
}

// Entries returns a snapshot of the tracked entries, oldest first.
func (m *Monitor) Entries() []*Entry {
	return m.idx.entries()
}

// Len returns the number of tracked files.
func (m *Monitor) Len() int {
	return m.idx.len()
}

// Clear forgets every tracked file and aborts a startup scan in progress.
func (m *Monitor) Clear() {
	m.aborted.Store(true)
	m.idx.clear()
}

// Wake asks the reclamation goroutine to compare size and capacity again.
// It never blocks.
func (m *Monitor) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Dispose stops the reclamation goroutine and waits for it to exit. It is
// safe to call from any goroutine and more than once.
func (m *Monitor) Dispose() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	if m.started.Load() {
		<-m.done
	}
}

// Done returns a channel that is closed once the reclamation goroutine has
// exited.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

func (m *Monitor) stopped() bool {
	select {
	case <-m.stop:
		return true
	default:
		return false
	}
}
