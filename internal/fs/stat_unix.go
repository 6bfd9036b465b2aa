//go:build darwin || freebsd || linux
// +build darwin freebsd linux

package fs

import "golang.org/x/sys/unix"

func statKind(path string) (EntryKind, bool) {
	// Use "stat" rather than "lstat" so symlinks report the kind of their target
	stat := unix.Stat_t{}
	if err := unix.Stat(path, &stat); err != nil {
		return 0, false
	}
	switch uint32(stat.Mode) & unix.S_IFMT {
	case unix.S_IFDIR:
		return DirEntry, true
	case unix.S_IFREG:
		return FileEntry, true
	}

	// Sockets, devices, and pipes can't be modules
	return 0, false
}
