package config

import (
	"sort"
	"sync"
)

type Dialect uint8

const (
	DialectNone Dialect = iota
	DialectTS
	DialectTSX
	DialectJSX
)

func (d Dialect) String() string {
	switch d {
	case DialectTS:
		return "ts"
	case DialectTSX:
		return "tsx"
	case DialectJSX:
		return "jsx"
	}
	return "none"
}

type Format uint8

const (
	// These are arranged such that ESM is the default zero value. The transform
	// hook forces ESM regardless, the field only exists so a configuration
	// states what it produces.
	FormatESModule Format = iota
	FormatCommonJS
)

type SourceMapMode uint8

const (
	SourceMapNone SourceMapMode = iota
	SourceMapInline
	SourceMapExternal
)

// TransformOptions is the per-extension configuration used by the transform
// hook. "TargetRuntime" is either a language level such as "es2022" or
// "esnext" or an engine with a version such as "node20".
type TransformOptions struct {
	SourceDialect Dialect
	OutputFormat  Format
	SourceMapMode SourceMapMode
	TargetRuntime string
}

const DefaultTargetRuntime = "node20"

// LoaderConfig is immutable once constructed. Every accessor returns copies so
// it can be shared freely between goroutines.
type LoaderConfig struct {
	byExt map[string]TransformOptions
}

func NewLoaderConfig(byExt map[string]TransformOptions) LoaderConfig {
	clone := make(map[string]TransformOptions, len(byExt))
	for ext, options := range byExt {
		clone[ext] = options
	}
	return LoaderConfig{byExt: clone}
}

var defaultLoaderConfig LoaderConfig
var defaultLoaderConfigOnce sync.Once

func DefaultLoaderConfig() LoaderConfig {
	defaultLoaderConfigOnce.Do(func() {
		options := func(dialect Dialect) TransformOptions {
			return TransformOptions{
				SourceDialect: dialect,
				OutputFormat:  FormatESModule,
				SourceMapMode: SourceMapInline,
				TargetRuntime: DefaultTargetRuntime,
			}
		}
		defaultLoaderConfig = NewLoaderConfig(map[string]TransformOptions{
			".ts":  options(DialectTS),
			".mts": options(DialectTS),
			".cts": options(DialectTS),
			".tsx": options(DialectTSX),
			".jsx": options(DialectJSX),
		})
	})
	return defaultLoaderConfig
}

func (c LoaderConfig) Lookup(ext string) (TransformOptions, bool) {
	options, ok := c.byExt[ext]
	return options, ok
}

func (c LoaderConfig) Extensions() []string {
	exts := make([]string, 0, len(c.byExt))
	for ext := range c.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// With returns a new configuration with "ext" overridden. The receiver is
// left untouched.
func (c LoaderConfig) With(ext string, options TransformOptions) LoaderConfig {
	next := NewLoaderConfig(c.byExt)
	next.byExt[ext] = options
	return next
}

// Without returns a new configuration in which "ext" passes through untransformed
func (c LoaderConfig) Without(ext string) LoaderConfig {
	next := NewLoaderConfig(c.byExt)
	delete(next.byExt, ext)
	return next
}

// WithTarget returns a copy with every entry retargeted
func (c LoaderConfig) WithTarget(target string) LoaderConfig {
	next := NewLoaderConfig(c.byExt)
	for ext, options := range next.byExt {
		options.TargetRuntime = target
		next.byExt[ext] = options
	}
	return next
}

// WithSourceMap returns a copy with every entry using "mode"
func (c LoaderConfig) WithSourceMap(mode SourceMapMode) LoaderConfig {
	next := NewLoaderConfig(c.byExt)
	for ext, options := range next.byExt {
		options.SourceMapMode = mode
		next.byExt[ext] = options
	}
	return next
}
