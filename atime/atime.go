// Package atime reads and updates the last-access times of cache files.
//
// Eviction ordering depends on the filesystem maintaining access times. On
// volumes mounted with noatime (or relatime, for files read repeatedly) the
// kernel will not refresh them on read, which is why the cache touches files
// explicitly on every hit through a Toucher.
package atime

import (
	"io/fs"
	"os"
	"time"

	"github.com/jmgilman/go/fs/core"
)

// Source reports the last-access time of a file in unix nanoseconds.
type Source interface {
	AccessTime(path string) (int64, error)
}

// Toucher is implemented by sources that can also set the access time.
type Toucher interface {
	Touch(path string, t time.Time) error
}

// OS reads access times directly from the operating system.
type OS struct{}

// AccessTime returns the access time recorded by the operating system.
func (OS) AccessTime(path string) (int64, error) {
	return statAccessTime(path)
}

// Touch sets the access time of path to t. The modification time is kept,
// except on platforms where AccessTime reports it, since a hit must move the
// recency key there too.
func (OS) Touch(path string, t time.Time) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mtime := info.ModTime()
	if touchSetsModTime {
		mtime = t
	}
	return os.Chtimes(path, t, mtime)
}

// FromFS derives access times from a core filesystem. Providers that do not
// expose operating system metadata (memory, remote) report the modification
// time instead.
type FromFS struct {
	FS core.ReadFS
}

// AccessTime returns the access time of path as seen through the filesystem.
func (f FromFS) AccessTime(path string) (int64, error) {
	info, err := f.FS.Stat(path)
	if err != nil {
		return 0, err
	}
	return FromFileInfo(info), nil
}

// Touch sets the access time when the filesystem supports metadata updates.
func (f FromFS) Touch(path string, t time.Time) error {
	mfs, ok := f.FS.(core.MetadataFS)
	if !ok {
		return core.ErrUnsupported
	}
	info, err := f.FS.Stat(path)
	if err != nil {
		return err
	}
	return mfs.Chtimes(path, t, info.ModTime())
}

// FromFileInfo extracts the access time from info, falling back to the
// modification time when the platform data is unavailable.
func FromFileInfo(info fs.FileInfo) int64 {
	if ns, ok := sysAccessTime(info.Sys()); ok {
		return ns
	}
	return info.ModTime().UnixNano()
}
