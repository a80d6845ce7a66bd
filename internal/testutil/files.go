package testutil

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jmgilman/go/fs/core"
	"github.com/stretchr/testify/require"
)

// WriteFile writes size bytes to dir/name and returns the full path.
func WriteFile(t *testing.T, fsys core.FS, dir, name string, size int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, fsys.MkdirAll(dir, 0o755))
	require.NoError(t, fsys.WriteFile(path, bytes.Repeat([]byte{'x'}, size), 0o644))
	return path
}

// WriteFiles writes n files named file-000<ext>, file-001<ext>, ... of size
// bytes each and returns their paths in creation order.
func WriteFiles(t *testing.T, fsys core.FS, dir string, n, size int, ext string) []string {
	t.Helper()

	paths := make([]string, n)
	for i := range paths {
		paths[i] = WriteFile(t, fsys, dir, fmt.Sprintf("file-%03d%s", i, ext), size)
	}
	return paths
}
