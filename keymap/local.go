package keymap

import (
	"os"
	"path/filepath"

	platformerrors "github.com/jmgilman/go/errors"
)

// Local maps keys to flat files directly inside the cache directory.
type Local struct {
	dir string
	ext string
}

// NewLocal creates a mapper rooted at dir, creating the directory if it does
// not exist. A relative dir is resolved against the working directory. An
// error with code UNAVAILABLE means the directory could not be created;
// callers are expected to continue without a cache.
func NewLocal(dir string, opts ...Option) (*Local, error) {
	o := applyOptions(opts)
	if dir == "" {
		return nil, platformerrors.New(platformerrors.CodeInvalidInput, "cache directory cannot be empty")
	}
	// The local filesystem is rooted at "/" while access times are read
	// through the OS, so both must see the same absolute path.
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "failed to resolve cache directory")
	}
	if err := ensureDir(o.fs, dir); err != nil {
		return nil, err
	}
	return &Local{dir: dir, ext: o.extension}, nil
}

// NewPerUser creates a Local mapper rooted at <user cache dir>/app.
func NewPerUser(app string, opts ...Option) (*Local, error) {
	if app == "" {
		return nil, platformerrors.New(platformerrors.CodeInvalidInput, "application name cannot be empty")
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeUnavailable, "failed to locate user cache directory")
	}
	return NewLocal(filepath.Join(base, app), opts...)
}

// CacheDirectory returns the root directory of the cache.
func (m *Local) CacheDirectory() string {
	return m.dir
}

// Extension returns the cache file extension.
func (m *Local) Extension() string {
	return m.ext
}

// MapKeyToFile keeps only the final segment of key. The flat layout never
// needs intermediate directories, so ensurePathExists has no effect.
func (m *Local) MapKeyToFile(key string, _ bool) (string, error) {
	return filepath.Join(m.dir, lastSegment(key)+m.ext), nil
}
