// Package rewriter implements the normalization pass over a compiled output
// tree: every relative extensionless specifier is rewritten in place to the
// fully qualified path of the file it refers to.
package rewriter

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/esmkit/esmkit/internal/analysis"
	"github.com/esmkit/esmkit/internal/config"
	"github.com/esmkit/esmkit/internal/fs"
	"github.com/esmkit/esmkit/internal/helpers"
	"github.com/esmkit/esmkit/internal/locator"
	"github.com/esmkit/esmkit/internal/logger"
	"golang.org/x/sync/errgroup"
)

// DefaultPattern matches every JavaScript file in the output tree
const DefaultPattern = "**/*.{js,mjs,cjs}"

type Options struct {
	// Files are never written. A diff of each change is printed to DiffOutput
	// instead, if it's set.
	DryRun     bool
	DiffOutput io.Writer
	Color      bool

	// The number of files processed at once. Zero means GOMAXPROCS.
	Concurrency int
}

type Stats struct {
	FilesScanned        int
	FilesRewritten      int
	SpecifiersRewritten int
}

type Engine struct {
	fs       fs.FS
	log      logger.Log
	project  *config.Project
	analyzer *analysis.Analyzer
	options  Options

	diffMutex sync.Mutex
}

func NewEngine(fsys fs.FS, log logger.Log, project *config.Project, analyzer *analysis.Analyzer, options Options) *Engine {
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer(fsys, log, project, nil)
	}
	return &Engine{
		fs:       fsys,
		log:      log,
		project:  project,
		analyzer: analyzer,
		options:  options,
	}
}

// Normalize rewrites every file under the output root matching "pattern".
// Files are processed concurrently but each file's statements are rewritten
// one at a time in source order, and the file is written after each one. The
// first error stops the pass. Files that were already rewritten stay that way.
func (e *Engine) Normalize(ctx context.Context, pattern string) (Stats, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	files, err := e.fs.Glob(e.project.OutDir, pattern)
	if err != nil {
		return Stats{}, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	concurrency := e.options.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	var mutex sync.Mutex
	stats := Stats{FilesScanned: len(files)}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			count, err := e.normalizeFile(ctx, file)
			if count > 0 {
				mutex.Lock()
				stats.FilesRewritten++
				stats.SpecifiersRewritten += count
				mutex.Unlock()
			}
			return err
		})
	}

	err = g.Wait()
	return stats, err
}

// normalizeFile returns the number of statements rewritten
func (e *Engine) normalizeFile(ctx context.Context, file string) (int, error) {
	replacements, ok, err := e.analyzer.GetRewrites(ctx, file)
	if err != nil {
		return 0, err
	}
	if !ok || len(replacements) == 0 {
		return 0, nil
	}

	original, err := e.fs.ReadFile(file)
	if err != nil {
		return 0, fmt.Errorf("cannot read %q: %w", file, err)
	}

	contents := original
	total := 0
	applied := make(map[string]bool)
	for _, replacement := range replacements {
		// The same specifier can be imported more than once, but the first
		// replacement already rewrote every statement naming it
		if applied[replacement.SpecifierToReplace] {
			continue
		}
		applied[replacement.SpecifierToReplace] = true

		updated, count, err := locator.ReplaceAll(contents, replacement.SpecifierToReplace, replacement.SpecifierReplacement,
			func(text string, _ locator.Statement) error {
				if e.options.DryRun {
					return nil
				}
				if err := e.fs.WriteFile(file, text); err != nil {
					return fmt.Errorf("cannot write %q: %w", file, err)
				}
				return nil
			})
		contents = updated
		total += count
		if err != nil {
			return total, err
		}

		if count == 0 {
			e.log.AddWarning(nil, logger.Range{}, fmt.Sprintf(
				"No statement in %q matched %q, so it was not rewritten to %q",
				e.prettyPath(file), replacement.SpecifierToReplace, replacement.SpecifierReplacement))
		} else {
			e.log.AddVerbose(fmt.Sprintf("Rewrote %q to %q in %q (%d %s)",
				replacement.SpecifierToReplace, replacement.SpecifierReplacement, e.prettyPath(file),
				count, plural("statement", count)))
		}
	}

	if e.options.DryRun && e.options.DiffOutput != nil && contents != original {
		diff := helpers.Diff(e.prettyPath(file), original, contents, 2, e.options.Color)
		e.diffMutex.Lock()
		_, err := io.WriteString(e.options.DiffOutput, diff)
		e.diffMutex.Unlock()
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (e *Engine) prettyPath(file string) string {
	if rel, ok := e.fs.Rel(e.fs.Cwd(), file); ok {
		return helpers.ToPosixPath(rel)
	}
	return file
}

func plural(word string, count int) string {
	if count == 1 {
		return word
	}
	return word + "s"
}
