// Package loader implements the transform hook: it turns dialect source files
// into ES module text when the host module loader asks for them.
package loader

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
	"github.com/esmkit/esmkit/internal/transpiler"
)

// Hook is safe for concurrent use. Nothing is cached: the host loader caches
// module instances itself, so every call reads and transpiles again.
type Hook struct {
	fs         fs.FS
	log        logger.Log
	transpiler transpiler.Transpiler
	loaders    config.LoaderConfig
	isWindows  bool
}

func NewHook(fsys fs.FS, log logger.Log, t transpiler.Transpiler, loaders config.LoaderConfig) *Hook {
	return &Hook{
		fs:         fsys,
		log:        log,
		transpiler: t,
		loaders:    loaders,
		isWindows:  !fsys.IsAbs("/"),
	}
}

var _ hooks.LoadHook = (*Hook)(nil)

func (h *Hook) Load(ctx context.Context, moduleURL string, lc hooks.LoadContext, next hooks.NextLoad) (hooks.LoadResult, error) {
	path, options, ok := h.lookup(moduleURL)
	if !ok {
		return next(ctx, moduleURL, lc)
	}
	contents, err := h.fs.ReadFile(path)
	if err != nil {
		return hooks.LoadResult{}, fmt.Errorf("cannot read %q: %w", path, err)
	}
	code, err := h.transform(ctx, path, contents, options)
	if err != nil {
		return hooks.LoadResult{}, err
	}
	return hooks.LoadResult{Format: hooks.FormatModule, Source: code}, nil
}

// GetFormat is the first half of the older two-step protocol
func (h *Hook) GetFormat(ctx context.Context, moduleURL string, fc hooks.FormatContext, next hooks.NextGetFormat) (hooks.FormatResult, error) {
	if _, _, ok := h.lookup(moduleURL); !ok {
		return next(ctx, moduleURL, fc)
	}
	return hooks.FormatResult{Format: hooks.FormatModule}, nil
}

// TransformSource is the second half of the older two-step protocol. The
// source has already been read by the host.
func (h *Hook) TransformSource(ctx context.Context, source string, tc hooks.TransformContext, next hooks.NextTransformSource) (hooks.TransformResult, error) {
	path, options, ok := h.lookup(tc.URL)
	if !ok {
		return next(ctx, source, tc)
	}
	code, err := h.transform(ctx, path, source, options)
	if err != nil {
		return hooks.TransformResult{}, err
	}
	return hooks.TransformResult{Source: code}, nil
}

// The output format is always forced to ESM regardless of what the loader
// configuration says, since the result is tagged as "module".
func (h *Hook) transform(ctx context.Context, path string, contents string, options config.TransformOptions) (string, error) {
	if h.log.AddMsg != nil {
		h.log.AddVerbose(fmt.Sprintf("Transforming %q as %s", path, options.SourceDialect))
	}
	result, err := h.transpiler.Transpile(ctx, transpiler.Request{
		SourceText:     contents,
		SourceDialect:  options.SourceDialect,
		TargetFormat:   config.FormatESModule,
		TargetRuntime:  options.TargetRuntime,
		SourceMapMode:  options.SourceMapMode,
		SourceFilePath: path,
	})
	if err != nil {
		return "", err
	}
	return result.Code, nil
}

// lookup returns the file path and transform options for a module URL, or
// false if the default loader should handle it.
func (h *Hook) lookup(moduleURL string) (string, config.TransformOptions, bool) {
	path := moduleURL
	if u, err := url.Parse(moduleURL); err == nil && u.Scheme != "" {
		if !helpers.IsFileURL(u) {
			return "", config.TransformOptions{}, false
		}
		path = helpers.FilePathFromFileURL(u, h.isWindows)
	}

	// Built-in and virtual modules such as "node:fs" have no separator
	if !strings.ContainsAny(path, "/\\") {
		return "", config.TransformOptions{}, false
	}

	options, ok := h.loaders.Lookup(config.ExtensionOf(path))
	if !ok {
		return "", config.TransformOptions{}, false
	}
	return path, options, true
}
