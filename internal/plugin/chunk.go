package plugin

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/esmkit/esmkit/internal/analysis"
	"github.com/esmkit/esmkit/internal/config"
	"github.com/esmkit/esmkit/internal/fs"
	"github.com/esmkit/esmkit/internal/helpers"
	"github.com/esmkit/esmkit/internal/hooks"
	"github.com/esmkit/esmkit/internal/locator"
	"github.com/esmkit/esmkit/internal/logger"
	"github.com/esmkit/esmkit/internal/resolver"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/tidwall/gjson"
)

const ChunkPluginName = "esmkit-chunk-rewrite"

// ChunkRewrite qualifies the relative specifiers left in each rendered chunk
// once esbuild has finished. It needs the metafile and the unwritten output,
// so it turns on "Metafile", turns off "Write", and writes the outputs itself
// if the build was going to. Source maps are disabled because the text is
// edited after they would have been generated.
type ChunkRewrite struct {
	FS      fs.FS
	Log     logger.Log
	Resolve hooks.ResolveHook
}

func (c ChunkRewrite) Plugin(ctx context.Context) api.Plugin {
	return api.Plugin{
		Name: ChunkPluginName,
		Setup: func(build api.PluginBuild) {
			options := build.InitialOptions
			writeOutputs := options.Write
			options.Write = false
			options.Metafile = true
			options.Sourcemap = api.SourceMapNone

			absWorkingDir := options.AbsWorkingDir
			if absWorkingDir == "" {
				absWorkingDir = c.FS.Cwd()
			}

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 {
					return api.OnEndResult{}, nil
				}
				warnings, err := c.rewriteOutputs(ctx, result, absWorkingDir)
				if err != nil {
					return api.OnEndResult{Warnings: warnings}, err
				}
				if writeOutputs {
					if err := c.writeOutputs(result.OutputFiles); err != nil {
						return api.OnEndResult{Warnings: warnings}, err
					}
				}
				return api.OnEndResult{Warnings: warnings}, nil
			})
		},
	}
}

func (c ChunkRewrite) rewriteOutputs(ctx context.Context, result *api.BuildResult, absWorkingDir string) ([]api.Message, error) {
	outputs := gjson.Get(result.Metafile, "outputs")
	var warnings []api.Message

	kept := result.OutputFiles[:0]
	for _, file := range result.OutputFiles {
		if strings.HasSuffix(file.Path, ".map") {
			continue
		}
		kept = append(kept, file)
	}
	result.OutputFiles = kept

	for i := range result.OutputFiles {
		file := &result.OutputFiles[i]
		rel, ok := c.FS.Rel(absWorkingDir, file.Path)
		if !ok {
			continue
		}
		meta := outputs.Get(gjson.Escape(helpers.ToPosixPath(rel)))
		entryPoint := meta.Get("entryPoint").String()
		if entryPoint == "" {
			continue
		}
		entryPath := c.FS.Join(absWorkingDir, entryPoint)

		code := string(file.Contents)
		applied := make(map[string]bool)
		for _, imported := range meta.Get("imports").Array() {
			// The metafile lists every import statement, but one replacement
			// already rewrites all statements naming the same specifier
			specifier := imported.Get("path").String()
			if applied[specifier] {
				continue
			}
			applied[specifier] = true
			replacement, ok, err := c.qualify(ctx, specifier, entryPath)
			if err != nil {
				return warnings, err
			}
			if !ok || replacement == specifier {
				continue
			}
			updated, count, _ := locator.ReplaceAll(code, specifier, replacement, nil)
			if count == 0 {
				warnings = append(warnings, api.Message{
					PluginName: ChunkPluginName,
					Text:       fmt.Sprintf("No statement in %q matched %q, so it was not rewritten to %q", helpers.ToPosixPath(rel), specifier, replacement),
				})
				continue
			}
			code = updated
		}
		file.Contents = []byte(code)
	}
	return warnings, nil
}

// qualify returns the fully qualified relative specifier for an import of a
// chunk whose entry point is "entryPath", or false if it's left alone.
func (c ChunkRewrite) qualify(ctx context.Context, specifier string, entryPath string) (string, bool, error) {
	switch resolver.ClassifySpecifier(specifier) {
	case resolver.SpecifierBare, resolver.SpecifierScheme:
		return "", false, nil
	case resolver.SpecifierAbsolutePath, resolver.SpecifierFileURL:
		if config.HasRecognizedExtension(specifier) {
			return "", false, nil
		}
	}

	rc := hooks.ResolveContext{ParentURL: helpers.FileURLFromFilePath(entryPath).String()}
	result, err := c.Resolve.Resolve(ctx, specifier, rc, hooks.DeferResolve)
	if hooks.IsDeferred(err) {
		c.note("Leaving %q in the output of %q because it could not be resolved", specifier, entryPath)
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	resolved, err := url.Parse(result.URL)
	if err != nil || !helpers.IsFileURL(resolved) {
		return "", false, nil
	}

	target := config.OutputPathFor(helpers.FilePathFromFileURL(resolved, !c.FS.IsAbs("/")))
	rel, ok := c.FS.Rel(c.FS.Dir(entryPath), target)
	if !ok {
		return "", false, nil
	}
	return analysis.RelativeSpecifier(rel), true, nil
}

func (c ChunkRewrite) writeOutputs(files []api.OutputFile) error {
	for _, file := range files {
		if err := c.FS.MkdirAll(c.FS.Dir(file.Path)); err != nil {
			return fmt.Errorf("cannot create directory for %q: %w", file.Path, err)
		}
		if err := c.FS.WriteFile(file.Path, string(file.Contents)); err != nil {
			return fmt.Errorf("cannot write %q: %w", file.Path, err)
		}
	}
	return nil
}

func (c ChunkRewrite) note(format string, args ...interface{}) {
	if c.Log.AddMsg != nil {
		c.Log.AddVerbose(fmt.Sprintf(format, args...))
	}
}
