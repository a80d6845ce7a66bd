//go:build darwin || freebsd || netbsd

package atime

import "syscall"

func sysAccessTime(sys any) (int64, bool) {
	st, ok := sys.(*syscall.Stat_t)
	if !ok || st == nil {
		return 0, false
	}
	return st.Atimespec.Nano(), true
}
