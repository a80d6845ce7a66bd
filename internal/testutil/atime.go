// Package testutil provides fakes and fixtures shared by the cache tests.
package testutil

import (
	"io/fs"
	"sync"
	"time"
)

// AccessTimes is an in-memory atime.Source whose times are set explicitly by
// the test. Paths without a recorded time report fs.ErrNotExist.
type AccessTimes struct {
	mu     sync.Mutex
	times  map[string]int64
	calls  int
	onRead func(call int, path string)
}

// NewAccessTimes returns an empty source.
func NewAccessTimes() *AccessTimes {
	return &AccessTimes{times: make(map[string]int64)}
}

// Set records t as the access time of path.
func (a *AccessTimes) Set(path string, t int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.times[path] = t
}

// Forget removes path, making later reads fail as if the file were gone.
func (a *AccessTimes) Forget(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.times, path)
}

// OnRead installs a hook called after every AccessTime call. The hook runs
// without the source's lock held.
func (a *AccessTimes) OnRead(hook func(call int, path string)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onRead = hook
}

// Calls returns the number of AccessTime calls so far.
func (a *AccessTimes) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// AccessTime implements atime.Source.
func (a *AccessTimes) AccessTime(path string) (int64, error) {
	a.mu.Lock()
	a.calls++
	call := a.calls
	t, ok := a.times[path]
	hook := a.onRead
	a.mu.Unlock()

	if hook != nil {
		hook(call, path)
	}
	if !ok {
		return 0, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return t, nil
}

// Touch implements atime.Toucher.
func (a *AccessTimes) Touch(path string, t time.Time) error {
	a.Set(path, t.UnixNano())
	return nil
}
