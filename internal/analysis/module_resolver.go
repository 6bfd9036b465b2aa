package analysis

import (
	"strings"

	"github.com/esmkit/esmkit/internal/config"
	"github.com/esmkit/esmkit/internal/fs"
)

// ModuleResolver is the static module-resolution service. It returns the
// absolute path of the file "specifier" refers to from "fromFile", or false
// if there is none.
type ModuleResolver interface {
	ResolveModule(specifier string, fromFile string) (string, bool)
}

// staticResolver implements classic relative resolution with JavaScript files
// allowed: the canonical extension order, then a directory "index" file. When
// the importing file is in the output tree and the target hasn't been emitted
// yet, the mirrored location in the source tree is tried and the result is
// mapped back to the path it will be emitted as.
type staticResolver struct {
	fs      fs.FS
	project *config.Project
}

func NewModuleResolver(fsys fs.FS, project *config.Project) ModuleResolver {
	return &staticResolver{fs: fsys, project: project}
}

func (r *staticResolver) ResolveModule(specifier string, fromFile string) (string, bool) {
	// Join drops the trailing slash, so remember that only an index will do
	dirOnly := isDirectorySpecifier(specifier)
	base := r.fs.Join(r.fs.Dir(fromFile), specifier)
	if target, ok := r.loadAsFileOrDirectory(base, dirOnly); ok {
		return config.OutputPathFor(target), true
	}

	project := r.project
	if project == nil || project.RootDir == project.OutDir || !project.InOutDir(r.fs, base) {
		return "", false
	}
	rel, ok := r.fs.Rel(project.OutDir, base)
	if !ok {
		return "", false
	}
	source, ok := r.loadAsFileOrDirectory(r.fs.Join(project.RootDir, rel), dirOnly)
	if !ok {
		return "", false
	}
	return project.OutputPathFor(r.fs, source)
}

// isDirectorySpecifier reports whether "specifier" can only name a directory,
// such as "..", "./lib/", or "../.."
func isDirectorySpecifier(specifier string) bool {
	return specifier == "." || specifier == ".." || strings.HasSuffix(specifier, "/") ||
		strings.HasSuffix(specifier, "/.") || strings.HasSuffix(specifier, "/..")
}

func (r *staticResolver) loadAsFileOrDirectory(base string, dirOnly bool) (string, bool) {
	if !dirOnly {
		if target, ok := r.loadAsFile(base); ok {
			return target, true
		}
	}
	if fs.IsDir(r.fs, base) {
		return r.loadAsFile(r.fs.Join(base, "index"))
	}
	return "", false
}

func (r *staticResolver) loadAsFile(base string) (string, bool) {
	for _, ext := range config.ResolveExtensions {
		candidate := base + ext
		if config.IsDeclarationFile(candidate) {
			continue
		}
		if fs.IsFile(r.fs, candidate) {
			return candidate, true
		}
	}
	return "", false
}
