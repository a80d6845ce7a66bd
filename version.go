package filecache

import (
	"path/filepath"
	"strconv"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"
)

// FormatVersion identifies the layout of cache files. A cache directory
// written under another version is cleared when opened.
const FormatVersion = 11

const (
	versionFileName = "version"

	// maxVersionFileSize bounds how much of the version file is read.
	maxVersionFileSize = 5
)

func (c *Cache) versionPath() string {
	return filepath.Join(c.CacheDirectory(), versionFileName)
}

// checkVersion reports whether the version file names FormatVersion.
// Missing, unreadable and malformed files all count as a mismatch.
func (c *Cache) checkVersion() bool {
	data, err := c.fs.ReadFile(c.versionPath())
	if err != nil {
		return false
	}
	if len(data) > maxVersionFileSize {
		data = data[:maxVersionFileSize]
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	return err == nil && v == FormatVersion
}

func (c *Cache) writeVersion() error {
	data := []byte(strconv.Itoa(FormatVersion))
	if err := c.fs.WriteFile(c.versionPath(), data, 0o644); err != nil {
		return platformerrors.WrapWithContext(err, platformerrors.CodeInternal,
			"failed to write cache version file", map[string]interface{}{
				"path": c.versionPath(),
			})
	}
	return nil
}
