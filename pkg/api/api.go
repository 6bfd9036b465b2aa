// This API exposes the resolution hooks and the normalization pass to Go
// programs. Every call reports problems through the "Errors" and "Warnings"
// fields of its result instead of returning a Go error.
//
// Normalize example:
//
//	result := api.Normalize(ctx, api.NormalizeOptions{
//	    AbsWorkingDir: "/path/to/project",
//	})
//	for _, msg := range result.Errors {
//	    fmt.Println(msg.Text)
//	}
package api

import (
	"context"
	"io"
)

type Location struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

type Message struct {
	Text     string
	Location *Location
}

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type LogLevel uint8

const (
	LogLevelSilent LogLevel = iota
	LogLevelVerbose
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

type SourceMap uint8

const (
	SourceMapNone SourceMap = iota
	SourceMapInline
	SourceMapExternal
)

// Options shared by every call
type LogOptions struct {
	Color      StderrColor
	ErrorLimit int
	LogLevel   LogLevel

	// Where diagnostics are written. Defaults to stderr.
	Output io.Writer
}

////////////////////////////////////////////////////////////////////////////////
// Normalize API

type NormalizeOptions struct {
	LogOptions

	// The project directory. Defaults to the current working directory.
	AbsWorkingDir string

	// Defaults to the nearest "tsconfig.json" at or above the working directory
	TSConfig string

	// A "**" glob relative to the output directory. Defaults to every
	// JavaScript file.
	Pattern string

	// Print a diff of every change to DiffOutput instead of writing files
	DryRun     bool
	DiffOutput io.Writer

	Concurrency int
}

type NormalizeResult struct {
	Errors   []Message
	Warnings []Message

	FilesScanned        int
	FilesRewritten      int
	SpecifiersRewritten int
}

func Normalize(ctx context.Context, options NormalizeOptions) NormalizeResult {
	return normalizeImpl(ctx, options)
}

////////////////////////////////////////////////////////////////////////////////
// Build API

type BuildOptions struct {
	LogOptions

	AbsWorkingDir string
	TSConfig      string

	// Either a language level such as "es2022" or an engine such as "node20".
	// Defaults to the "target" in "tsconfig.json", then to "node20".
	Target string

	// Overrides such as ".js": "jsx" or ".ts": "js" (pass through)
	Loaders map[string]string

	// Run the normalization pass over the output directory afterward
	Normalize bool
}

type BuildResult struct {
	Errors   []Message
	Warnings []Message

	// Absolute paths of every file written
	OutputFiles []string

	FilesRewritten      int
	SpecifiersRewritten int
}

func Build(ctx context.Context, options BuildOptions) BuildResult {
	return buildImpl(ctx, options)
}

////////////////////////////////////////////////////////////////////////////////
// Bundle API

type BundleOptions struct {
	LogOptions

	AbsWorkingDir string
	EntryPoint    string
	Target        string
	Loaders       map[string]string
	Sourcemap     SourceMap

	// Packages that stay as imports in the output. "ExternalPackages" keeps
	// every bare package external.
	External         []string
	ExternalPackages bool

	// When empty the bundle is returned in "Contents" and nothing is written
	Outfile string
}

type BundleResult struct {
	Errors   []Message
	Warnings []Message

	Contents []byte
}

func Bundle(ctx context.Context, options BundleOptions) BundleResult {
	return bundleImpl(ctx, options)
}

////////////////////////////////////////////////////////////////////////////////
// Resolve API

type ResolveOptions struct {
	LogOptions

	AbsWorkingDir string
	Specifier     string

	// The importing file. Relative paths are resolved against the working
	// directory. When empty the specifier is resolved like an entry point.
	Importer string
}

type ResolveResult struct {
	Errors   []Message
	Warnings []Message

	// "Deferred" is true when the specifier was handed to the default
	// resolver. "URL", "Path", and "Format" are empty in that case.
	Deferred bool
	URL      string
	Path     string
	Format   string
}

func Resolve(ctx context.Context, options ResolveOptions) ResolveResult {
	return resolveImpl(ctx, options)
}
