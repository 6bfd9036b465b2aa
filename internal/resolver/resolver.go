package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/esmkit/esmkit/internal/config"
	"github.com/esmkit/esmkit/internal/fs"
	"github.com/esmkit/esmkit/internal/helpers"
	"github.com/esmkit/esmkit/internal/hooks"
	"github.com/esmkit/esmkit/internal/logger"
)

type SpecifierKind uint8

const (
	// A package name such as "lodash" or "@scope/pkg/sub"
	SpecifierBare SpecifierKind = iota

	// Something with a "word:" prefix such as "node:fs" or "data:..."
	SpecifierScheme

	// "./x", "../x", "." or ".."
	SpecifierRelative

	// "/x" or "C:\x"
	SpecifierAbsolutePath

	// "file:///x"
	SpecifierFileURL
)

func ClassifySpecifier(specifier string) SpecifierKind {
	switch {
	case strings.HasPrefix(specifier, "file:"):
		return SpecifierFileURL
	case IsRelative(specifier):
		return SpecifierRelative
	case isAbsolutePath(specifier):
		return SpecifierAbsolutePath
	case hasSchemePrefix(specifier):
		return SpecifierScheme
	}
	return SpecifierBare
}

func IsRelative(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// Package paths are loaded from a "node_modules" directory. Non-package paths
// are relative or absolute paths.
func IsPackagePath(specifier string) bool {
	kind := ClassifySpecifier(specifier)
	return kind == SpecifierBare || kind == SpecifierScheme
}

func isAbsolutePath(specifier string) bool {
	if strings.HasPrefix(specifier, "/") || strings.HasPrefix(specifier, "\\") {
		return true
	}

	// A Windows drive letter must be checked before the scheme pattern below
	return len(specifier) >= 3 && isLetter(specifier[0]) && specifier[1] == ':' &&
		(specifier[2] == '\\' || specifier[2] == '/')
}

func hasSchemePrefix(specifier string) bool {
	colon := strings.IndexByte(specifier, ':')
	if colon < 1 || !isLetter(specifier[0]) {
		return false
	}
	for i := 1; i < colon; i++ {
		if c := specifier[i]; !isLetter(c) && (c < '0' || c > '9') && c != '+' && c != '-' && c != '.' && c != '_' {
			return false
		}
	}
	return true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Hook is the runtime resolution hook. It holds no state across calls other
// than the file system and log handles, so it can serve any number of
// concurrent resolutions.
type Hook struct {
	fs        fs.FS
	log       logger.Log
	isWindows bool
}

func NewHook(fsys fs.FS, log logger.Log) *Hook {
	return &Hook{
		fs:        fsys,
		log:       log,
		isWindows: !fsys.IsAbs("/"),
	}
}

var _ hooks.ResolveHook = (*Hook)(nil)

func (h *Hook) Resolve(ctx context.Context, specifier string, rc hooks.ResolveContext, next hooks.NextResolve) (hooks.ResolveResult, error) {
	if resolved, ok := h.ResolveModule(specifier, rc); ok {
		return hooks.ResolveResult{URL: resolved.String(), Format: formatForURL(resolved)}, nil
	}
	return next(ctx, specifier, rc)
}

// ResolveModule is the decision half of Resolve. The boolean is false when
// the default resolver should handle the specifier instead.
func (h *Hook) ResolveModule(specifier string, rc hooks.ResolveContext) (*url.URL, bool) {
	kind := ClassifySpecifier(specifier)
	if kind == SpecifierBare || kind == SpecifierScheme {
		h.note("Deferring %q to the default resolver", specifier)
		return nil, false
	}

	base, ok := h.baseURL(rc)
	if !ok {
		h.note("Deferring %q because the parent %q is not a file URL", specifier, rc.ParentURL)
		return nil, false
	}

	target, ok := h.toFileURL(base, specifier, kind)
	if !ok {
		return nil, false
	}

	// Full specifiers are never second-guessed
	if ext := config.ExtensionOf(target.Path); ext != "" {
		if fs.IsFile(h.fs, h.filePath(target)) {
			return target, true
		}
		if parentIsDialect(rc.ParentURL) {
			if rewritten, ok := h.matchRewrittenExtension(target, ext); ok {
				return rewritten, true
			}
		}
		h.note("Deferring %q because %q does not exist", specifier, h.filePath(target))
		return nil, false
	}

	// Try the path as a file, then as a directory with an "index" file
	if !strings.HasSuffix(target.Path, "/") {
		if match, ok := MatchCandidates(h.fs, target, config.ResolveExtensions); ok {
			h.note("Resolved %q to %q", specifier, match.String())
			return match, true
		}
	}
	index := *target
	index.Path = strings.TrimSuffix(index.Path, "/") + "/index"
	index.RawPath = ""
	if match, ok := MatchCandidates(h.fs, &index, config.ResolveExtensions); ok {
		h.note("Resolved %q to %q", specifier, match.String())
		return match, true
	}

	h.note("Failed to find a file for %q", specifier)
	return nil, false
}

func (h *Hook) baseURL(rc hooks.ResolveContext) (*url.URL, bool) {
	if rc.ParentURL == "" {
		return helpers.DirURLFromFilePath(h.fs.Cwd()), true
	}
	parent, err := url.Parse(rc.ParentURL)
	if err != nil || !helpers.IsFileURL(parent) {
		return nil, false
	}
	return parent, true
}

func (h *Hook) toFileURL(base *url.URL, specifier string, kind SpecifierKind) (*url.URL, bool) {
	switch kind {
	case SpecifierRelative:
		// "." and ".." name directories
		if specifier == "." || specifier == ".." {
			specifier += "/"
		}
		ref, err := url.Parse(specifier)
		if err != nil {
			return nil, false
		}
		return base.ResolveReference(ref), true

	case SpecifierAbsolutePath:
		return helpers.FileURLFromFilePath(specifier), true

	case SpecifierFileURL:
		target, err := url.Parse(specifier)
		if err != nil || !helpers.IsFileURL(target) {
			return nil, false
		}
		return target, true
	}
	return nil, false
}

func (h *Hook) matchRewrittenExtension(target *url.URL, ext string) (*url.URL, bool) {
	exts, ok := config.RewrittenFileExtensions[ext]
	if !ok {
		return nil, false
	}
	base := *target
	base.Path = strings.TrimSuffix(base.Path, ext)
	base.RawPath = ""
	return MatchCandidates(h.fs, &base, exts)
}

func (h *Hook) filePath(u *url.URL) string {
	return helpers.FilePathFromFileURL(u, h.isWindows)
}

func (h *Hook) note(format string, args ...interface{}) {
	if h.log.AddMsg != nil {
		h.log.AddVerbose(fmt.Sprintf(format, args...))
	}
}

func parentIsDialect(parentURL string) bool {
	if parentURL == "" {
		return false
	}
	if u, err := url.Parse(parentURL); err == nil {
		parentURL = u.Path
	}
	return config.IsDialectExtension(config.ExtensionOf(parentURL))
}

func formatForURL(u *url.URL) string {
	switch config.ExtensionOf(u.Path) {
	case ".json":
		return "json"
	case ".cjs", ".cts":
		return "commonjs"
	}
	return hooks.FormatModule
}
