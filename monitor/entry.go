package monitor

import (
	"strings"

	"github.com/jmgilman/go/fs/core"
)

// Entry records one tracked cache file and the access time it had when the
// entry was built. Entries are never modified after construction; a newer
// access time always produces a new Entry that replaces the old one.
type Entry struct {
	// Path is the absolute path of the cache file.
	Path string
	// AccessTime is the file's last access time in unix nanoseconds.
	AccessTime int64
	// Size is the file length observed when the entry was built.
	Size int64
}

// NewEntry creates an entry for path.
func NewEntry(path string, accessTime, size int64) *Entry {
	return &Entry{Path: path, AccessTime: accessTime, Size: size}
}

// Length returns the current length of the file on disk.
func (e *Entry) Length(fsys core.ReadFS) (int64, error) {
	info, err := fsys.Stat(e.Path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Delete removes the file from disk.
func (e *Entry) Delete(fsys core.ManageFS) error {
	return fsys.Remove(e.Path)
}

// Compare orders entries oldest access first. Entries with equal access times
// are ordered by path so that the order is total.
func Compare(a, b *Entry) int {
	switch {
	case a.AccessTime < b.AccessTime:
		return -1
	case a.AccessTime > b.AccessTime:
		return 1
	default:
		return strings.Compare(a.Path, b.Path)
	}
}
