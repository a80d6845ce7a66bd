// Package keymap maps opaque cache keys to files inside a cache directory.
//
// A Mapper is a pure function of the key and its configured root; it holds
// no state beyond the directory. Three implementations are provided:
//
//   - Local keeps only the last path segment of the key as the file name.
//     Keys that share a final segment map to the same file, so callers must
//     choose collision-free final segments.
//   - PerUser is a Local mapper rooted in the user's cache directory.
//   - Digest hashes the whole key and fans files out into subdirectories,
//     which makes it collision-free at the cost of opaque file names.
package keymap

import (
	"path/filepath"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"
)

// DefaultExtension is appended to every cache file name.
const DefaultExtension = ".lztc"

// Mapper maps a cache key to the file that stores its value.
type Mapper interface {
	// CacheDirectory returns the root directory of the cache.
	// It is stable for the lifetime of the mapper.
	CacheDirectory() string

	// MapKeyToFile returns the path of the file for key. When
	// ensurePathExists is true, any intermediate directories the mapping
	// requires are created.
	MapKeyToFile(key string, ensurePathExists bool) (string, error)

	// Extension returns the file extension used for cache files.
	Extension() string
}

// Option configures a mapper.
type Option func(*options)

type options struct {
	fs        core.FS
	extension string
}

// WithFS sets the filesystem used to create directories.
// Defaults to the local filesystem.
func WithFS(fsys core.FS) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithExtension overrides DefaultExtension. A missing leading dot is added.
func WithExtension(ext string) Option {
	return func(o *options) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		o.extension = ext
	}
}

func applyOptions(opts []Option) *options {
	o := &options{extension: DefaultExtension}
	for _, opt := range opts {
		opt(o)
	}
	if o.fs == nil {
		o.fs = billy.NewLocal()
	}
	if o.extension == "" {
		o.extension = DefaultExtension
	}
	return o
}

// ensureDir creates dir when it is missing. Failure means the cache cannot be
// used at all, so it is reported as unavailable rather than as an I/O error.
func ensureDir(fsys core.FS, dir string) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return platformerrors.WrapWithContext(err, platformerrors.CodeUnavailable,
			"failed to create cache directory", map[string]interface{}{
				"directory": dir,
			})
	}
	return nil
}

// IsCacheFile reports whether a directory entry name looks like a file
// written by a mapper using ext. Temporary files and the version marker do
// not match.
func IsCacheFile(name, ext string) bool {
	if ext == "" {
		ext = DefaultExtension
	}
	return strings.HasSuffix(name, ext)
}

// lastSegment strips everything up to and including the last path separator.
func lastSegment(key string) string {
	if i := strings.LastIndexAny(key, "/"+string(filepath.Separator)); i >= 0 {
		return key[i+1:]
	}
	return key
}
