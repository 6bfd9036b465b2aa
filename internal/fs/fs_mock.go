package fs

// This is a mock implementation of the "fs" module for use with tests. It does
// not actually read from the file system. Instead, it reads from a pre-specified
// map of file paths to files. Paths are always Unix-style.

import (
	"path"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
)

type mockFS struct {
	mutex         sync.RWMutex
	dirs          map[string]bool
	files         map[string]string
	absWorkingDir string
}

func MockFS(input map[string]string, absWorkingDir string) FS {
	fs := &mockFS{
		dirs:          make(map[string]bool),
		files:         make(map[string]string),
		absWorkingDir: absWorkingDir,
	}
	for k, v := range input {
		fs.addFile(k, v)
	}
	return fs
}

func (fs *mockFS) addFile(k string, contents string) {
	fs.files[k] = contents

	// Build the directory map
	for {
		kDir := path.Dir(k)
		fs.dirs[kDir] = true
		if kDir == k {
			break
		}
		k = kDir
	}
}

func (fs *mockFS) Kind(p string) (EntryKind, bool) {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()
	p = path.Clean(p)
	if _, ok := fs.files[p]; ok {
		return FileEntry, true
	}
	if fs.dirs[p] {
		return DirEntry, true
	}
	return 0, false
}

func (fs *mockFS) ReadFile(p string) (string, error) {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()
	if contents, ok := fs.files[p]; ok {
		return contents, nil
	}
	return "", syscall.ENOENT
}

func (fs *mockFS) WriteFile(p string, contents string) error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	if fs.dirs[p] {
		return syscall.EISDIR
	}
	fs.addFile(p, contents)
	return nil
}

func (fs *mockFS) MkdirAll(p string) error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	p = path.Clean(p)
	if _, ok := fs.files[p]; ok {
		return syscall.ENOTDIR
	}
	for {
		fs.dirs[p] = true
		parent := path.Dir(p)
		if parent == p {
			return nil
		}
		p = parent
	}
}

func (fs *mockFS) Glob(root string, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}

	fs.mutex.RLock()
	defer fs.mutex.RUnlock()

	var matches []string
	for file := range fs.files {
		target := file
		if !path.IsAbs(pattern) {
			rel, ok := fs.Rel(root, file)
			if !ok || rel == ".." || strings.HasPrefix(rel, "../") {
				continue
			}
			target = rel
		}
		if ok, _ := doublestar.Match(pattern, target); ok {
			matches = append(matches, file)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func (*mockFS) IsAbs(p string) bool {
	return path.IsAbs(p)
}

func (*mockFS) Abs(p string) (string, bool) {
	return path.Clean(path.Join("/", p)), true
}

func (*mockFS) Dir(p string) string {
	return path.Dir(p)
}

func (*mockFS) Base(p string) string {
	return path.Base(p)
}

func (*mockFS) Ext(p string) string {
	return path.Ext(p)
}

func (*mockFS) Join(parts ...string) string {
	return path.Clean(path.Join(parts...))
}

func (fs *mockFS) Cwd() string {
	return fs.absWorkingDir
}

func splitOnSlash(path string) (string, string) {
	if slash := strings.IndexByte(path, '/'); slash != -1 {
		return path[:slash], path[slash+1:]
	}
	return path, ""
}

func (*mockFS) Rel(base string, target string) (string, bool) {
	base = path.Clean(base)
	target = path.Clean(target)

	// Go's implementation does these checks
	if base == target {
		return ".", true
	}
	if base == "." {
		base = ""
	}

	// Go's implementation fails when this condition is false. I believe this is
	// because of this part of the contract, from Go's documentation: "An error
	// is returned if targpath can't be made relative to basepath or if knowing
	// the current working directory would be necessary to compute it."
	if (len(base) > 0 && base[0] == '/') != (len(target) > 0 && target[0] == '/') {
		return "", false
	}

	// Find the common parent directory
	for {
		bHead, bTail := splitOnSlash(base)
		tHead, tTail := splitOnSlash(target)
		if bHead != tHead {
			break
		}
		base = bTail
		target = tTail
	}

	// Stop now if base is a subpath of target
	if base == "" {
		return target, true
	}

	// Traverse up to the common parent
	commonParent := strings.Repeat("../", strings.Count(base, "/")+1)

	// Stop now if target is a subpath of base
	if target == "" {
		return commonParent[:len(commonParent)-1], true
	}

	// Otherwise, down to the parent
	return commonParent + target, true
}
