//go:build !darwin && !dragonfly && !freebsd && !linux && !netbsd && !openbsd && !solaris && !windows

package atime

import "os"

// Without an access time the modification time is the recency key, so Touch
// has to move it as well.
const touchSetsModTime = true

func statAccessTime(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.ModTime().UnixNano(), nil
}

func sysAccessTime(any) (int64, bool) {
	return 0, false
}
