package fs

import (
	"errors"
	"syscall"
)

type EntryKind uint8

const (
	DirEntry  EntryKind = 1
	FileEntry EntryKind = 2
)

func (kind EntryKind) String() string {
	switch kind {
	case DirEntry:
		return "directory"
	case FileEntry:
		return "file"
	}
	return "missing"
}

type FS interface {
	// Kind reports what lives at "path". The boolean is false when nothing
	// does. This never returns an error: a path that can't be inspected is
	// treated the same as a missing one.
	Kind(path string) (EntryKind, bool)

	ReadFile(path string) (string, error)

	// Writes replace the full contents of an existing file (or create it) and
	// are visible to the next ReadFile call on any goroutine.
	WriteFile(path string, contents string) error

	// MkdirAll creates "path" and any missing parents
	MkdirAll(path string) error

	// Glob returns the absolute paths of all files under "root" matching the
	// "**"-style pattern, sorted. Directories are never returned.
	Glob(root string, pattern string) ([]string, error)

	// This is part of the interface because the mock interface used for tests
	// should not depend on file system behavior (i.e. different slashes for
	// Windows) while the real interface should.
	IsAbs(path string) bool
	Abs(path string) (string, bool)
	Dir(path string) string
	Base(path string) string
	Ext(path string) string
	Join(parts ...string) string
	Cwd() string
	Rel(base string, target string) (string, bool)
}

// IsFile is a convenience wrapper used by the resolvers. Only regular files
// (or symlinks to them) can be module targets.
func IsFile(fs FS, path string) bool {
	kind, ok := fs.Kind(path)
	return ok && kind == FileEntry
}

func IsDir(fs FS, path string) bool {
	kind, ok := fs.Kind(path)
	return ok && kind == DirEntry
}

// IsNotExist also accepts the raw errno values that the real file system
// unwraps its errors into.
func IsNotExist(err error) bool {
	return errors.Is(err, syscall.ENOENT) || errors.Is(err, syscall.ENOTDIR)
}
