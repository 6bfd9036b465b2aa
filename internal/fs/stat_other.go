//go:build !darwin && !freebsd && !linux
// +build !darwin,!freebsd,!linux

package fs

import "os"

func statKind(path string) (EntryKind, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	mode := info.Mode()
	if mode.IsDir() {
		return DirEntry, true
	}
	if mode.IsRegular() {
		return FileEntry, true
	}
	return 0, false
}
