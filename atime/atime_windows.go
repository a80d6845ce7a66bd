package atime

import (
	"os"
	"syscall"
)

const touchSetsModTime = false

func statAccessTime(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if ns, ok := sysAccessTime(info.Sys()); ok {
		return ns, nil
	}
	return info.ModTime().UnixNano(), nil
}

func sysAccessTime(sys any) (int64, bool) {
	data, ok := sys.(*syscall.Win32FileAttributeData)
	if !ok || data == nil {
		return 0, false
	}
	return data.LastAccessTime.Nanoseconds(), true
}
