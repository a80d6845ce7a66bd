package keymap

import (
	"path/filepath"

	"github.com/jmgilman/go/fs/core"
	"github.com/opencontainers/go-digest"
)

// fanout is the number of leading hex characters used as a subdirectory.
const fanout = 2

// Digest maps each key to the sha256 digest of the whole key, stored as
// <dir>/<first two hex chars>/<hex><ext>.
type Digest struct {
	fs  core.FS
	dir string
	ext string
}

// NewDigest creates a digest mapper rooted at dir, creating the directory if
// it does not exist.
func NewDigest(dir string, opts ...Option) (*Digest, error) {
	o := applyOptions(opts)
	local, err := NewLocal(dir, opts...)
	if err != nil {
		return nil, err
	}
	return &Digest{fs: o.fs, dir: local.dir, ext: o.extension}, nil
}

// CacheDirectory returns the root directory of the cache.
func (m *Digest) CacheDirectory() string {
	return m.dir
}

// Extension returns the cache file extension.
func (m *Digest) Extension() string {
	return m.ext
}

// MapKeyToFile returns the digest path for key, creating its fan-out
// directory when ensurePathExists is set.
func (m *Digest) MapKeyToFile(key string, ensurePathExists bool) (string, error) {
	encoded := digest.FromString(key).Encoded()
	sub := filepath.Join(m.dir, encoded[:fanout])
	if ensurePathExists {
		if err := ensureDir(m.fs, sub); err != nil {
			return "", err
		}
	}
	return filepath.Join(sub, encoded+m.ext), nil
}
