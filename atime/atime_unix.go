//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package atime

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

// touchSetsModTime is false where the kernel exposes a real access time.
const touchSetsModTime = false

func statAccessTime(path string) (int64, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, &fs.PathError{Op: "stat", Path: path, Err: err}
	}
	return st.Atim.Nano(), nil
}
