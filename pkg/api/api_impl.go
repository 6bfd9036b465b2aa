package api

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/esmkit/esmkit/internal/config"
	"github.com/esmkit/esmkit/internal/fs"
	"github.com/esmkit/esmkit/internal/helpers"
	"github.com/esmkit/esmkit/internal/hooks"
	"github.com/esmkit/esmkit/internal/loader"
	"github.com/esmkit/esmkit/internal/logger"
	"github.com/esmkit/esmkit/internal/plugin"
	"github.com/esmkit/esmkit/internal/resolver"
	"github.com/esmkit/esmkit/internal/rewriter"
	"github.com/esmkit/esmkit/internal/transpiler"
	esbuild "github.com/evanw/esbuild/pkg/api"
)

////////////////////////////////////////////////////////////////////////////////
// Normalize API

func normalizeImpl(ctx context.Context, options NormalizeOptions) NormalizeResult {
	log := newLog(options.LogOptions)
	fsys := fs.RealFS()
	var result NormalizeResult

	project, err := loadProject(fsys, workingDir(fsys, options.AbsWorkingDir), options.TSConfig)
	if err != nil {
		addError(log, fsys, err)
		result.Errors, result.Warnings = convertMessages(log.Done())
		return result
	}

	timer := newTimer(options.LogOptions)
	doneNormalize := timer.Start("Normalize")
	engine := rewriter.NewEngine(fsys, log, project, nil, rewriter.Options{
		DryRun:      options.DryRun,
		DiffOutput:  options.DiffOutput,
		Color:       options.Color == ColorAlways,
		Concurrency: options.Concurrency,
	})
	stats, err := engine.Normalize(ctx, options.Pattern)
	if err != nil {
		addError(log, fsys, err)
	}
	doneNormalize()
	timer.Log(log)

	result.FilesScanned = stats.FilesScanned
	result.FilesRewritten = stats.FilesRewritten
	result.SpecifiersRewritten = stats.SpecifiersRewritten
	result.Errors, result.Warnings = convertMessages(log.Done())
	return result
}

////////////////////////////////////////////////////////////////////////////////
// Build API

func buildImpl(ctx context.Context, options BuildOptions) BuildResult {
	log := newLog(options.LogOptions)
	fsys := fs.RealFS()
	var result BuildResult
	finish := func() BuildResult {
		result.Errors, result.Warnings = convertMessages(log.Done())
		return result
	}

	project, err := loadProject(fsys, workingDir(fsys, options.AbsWorkingDir), options.TSConfig)
	if err != nil {
		addError(log, fsys, err)
		return finish()
	}

	target := options.Target
	if target == "" {
		target = project.Target
	}
	if target == "" {
		target = config.DefaultTargetRuntime
	}
	esTarget, engines, err := transpiler.ParseTarget(target)
	if err != nil {
		addError(log, fsys, err)
		return finish()
	}
	loaders, err := loaderConfig(target, config.SourceMapNone, options.Loaders)
	if err != nil {
		addError(log, fsys, err)
		return finish()
	}

	groups, err := collectEntryPoints(fsys, project, loaders)
	if err != nil {
		addError(log, fsys, err)
		return finish()
	}
	if len(groups) == 0 {
		log.AddWarning(nil, logger.Range{}, fmt.Sprintf("No source files were found in %q", prettyPath(fsys, project.RootDir)))
		return finish()
	}

	// Each group is one esbuild call because the output extension applies to
	// the whole build
	outExts := make([]string, 0, len(groups))
	for ext := range groups {
		outExts = append(outExts, ext)
	}
	sort.Strings(outExts)

	timer := newTimer(options.LogOptions)
	for _, outExt := range outExts {
		if err := ctx.Err(); err != nil {
			addError(log, fsys, err)
			break
		}
		doneEmit := timer.Start(fmt.Sprintf("Emit %q files", outExt))
		format := esbuild.FormatESModule
		if outExt == ".cjs" {
			format = esbuild.FormatCommonJS
		}
		built := esbuild.Build(esbuild.BuildOptions{
			AbsWorkingDir: project.Dir,
			EntryPoints:   groups[outExt],
			Outdir:        project.OutDir,
			Outbase:       project.RootDir,
			OutExtension:  map[string]string{".js": outExt},
			Format:        format,
			Platform:      esbuild.PlatformNode,
			Target:        esTarget,
			Engines:       engines,
			Loader:        esbuildLoaders(loaders),
			Write:         true,
			LogLevel:      esbuild.LogLevelSilent,
			Plugins: []esbuild.Plugin{plugin.ChunkRewrite{
				FS:      fsys,
				Log:     log,
				Resolve: resolver.NewHook(fsys, log),
			}.Plugin(ctx)},
		})
		addEsbuildMessages(log, logger.Error, built.Errors)
		addEsbuildMessages(log, logger.Warning, built.Warnings)
		for _, file := range built.OutputFiles {
			result.OutputFiles = append(result.OutputFiles, file.Path)
		}
		doneEmit()
	}

	if options.Normalize && !log.HasErrors() {
		doneNormalize := timer.Start("Normalize")
		engine := rewriter.NewEngine(fsys, log, project, nil, rewriter.Options{})
		stats, err := engine.Normalize(ctx, rewriter.DefaultPattern)
		if err != nil {
			addError(log, fsys, err)
		}
		result.FilesRewritten = stats.FilesRewritten
		result.SpecifiersRewritten = stats.SpecifiersRewritten
		doneNormalize()
	}
	timer.Log(log)

	sort.Strings(result.OutputFiles)
	return finish()
}

// collectEntryPoints returns the source files under the root directory keyed
// by the extension they will be emitted with
func collectEntryPoints(fsys fs.FS, project *config.Project, loaders config.LoaderConfig) (map[string][]string, error) {
	files, err := fsys.Glob(project.RootDir, "**/*")
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]string)
	for _, file := range files {
		ext := config.ExtensionOf(file)
		if ext == "" || ext == ".json" || config.IsDeclarationFile(file) ||
			helpers.IsInsideNodeModules(file) || project.InOutDir(fsys, file) {
			continue
		}
		if _, ok := loaders.Lookup(ext); !ok && !(project.AllowJS && config.IsJSExtension(ext)) {
			continue
		}
		outExt := config.ExtensionOf(config.OutputPathFor(file))
		if outExt == ".jsx" {
			outExt = ".js"
		}
		groups[outExt] = append(groups[outExt], file)
	}
	return groups, nil
}

////////////////////////////////////////////////////////////////////////////////
// Bundle API

func bundleImpl(ctx context.Context, options BundleOptions) BundleResult {
	log := newLog(options.LogOptions)
	fsys := fs.RealFS()
	var result BundleResult
	finish := func() BundleResult {
		result.Errors, result.Warnings = convertMessages(log.Done())
		return result
	}

	if options.EntryPoint == "" {
		log.AddError(nil, logger.Range{}, "Missing entry point")
		return finish()
	}

	target := options.Target
	if target == "" {
		target = config.DefaultTargetRuntime
	}
	esTarget, engines, err := transpiler.ParseTarget(target)
	if err != nil {
		addError(log, fsys, err)
		return finish()
	}

	// Each transformed file carries an inline map which esbuild then chains
	// into the map for the bundle
	sourceMap := validateSourceMap(options.Sourcemap)
	esSourceMap := esbuild.SourceMapNone
	transformMap := config.SourceMapNone
	switch sourceMap {
	case config.SourceMapInline:
		esSourceMap = esbuild.SourceMapInline
		transformMap = config.SourceMapInline
	case config.SourceMapExternal:
		if options.Outfile == "" {
			log.AddError(nil, logger.Range{}, "External source maps need an output file")
			return finish()
		}
		esSourceMap = esbuild.SourceMapLinked
		transformMap = config.SourceMapInline
	}

	loaders, err := loaderConfig(target, transformMap, options.Loaders)
	if err != nil {
		addError(log, fsys, err)
		return finish()
	}

	packages := esbuild.PackagesDefault
	if options.ExternalPackages {
		packages = esbuild.PackagesExternal
	}

	built := esbuild.Build(esbuild.BuildOptions{
		AbsWorkingDir: workingDir(fsys, options.AbsWorkingDir),
		EntryPoints:   []string{options.EntryPoint},
		Bundle:        true,
		Format:        esbuild.FormatESModule,
		Platform:      esbuild.PlatformNode,
		Target:        esTarget,
		Engines:       engines,
		Sourcemap:     esSourceMap,
		External:      options.External,
		Packages:      packages,
		Outfile:       options.Outfile,
		Write:         options.Outfile != "",
		LogLevel:      esbuild.LogLevelSilent,
		Plugins: []esbuild.Plugin{plugin.Host{
			FS:      fsys,
			Resolve: resolver.NewHook(fsys, log),
			Load:    loader.NewHook(fsys, log, transpiler.NewEsbuild(), loaders),
		}.Plugin(ctx)},
	})
	addEsbuildMessages(log, logger.Error, built.Errors)
	addEsbuildMessages(log, logger.Warning, built.Warnings)

	for _, file := range built.OutputFiles {
		if !strings.HasSuffix(file.Path, ".map") {
			result.Contents = file.Contents
			break
		}
	}
	return finish()
}

////////////////////////////////////////////////////////////////////////////////
// Resolve API

func resolveImpl(ctx context.Context, options ResolveOptions) ResolveResult {
	log := newLog(options.LogOptions)
	fsys := fs.RealFS()
	var result ResolveResult
	dir := workingDir(fsys, options.AbsWorkingDir)

	rc := hooks.ResolveContext{Conditions: []string{"node", "import"}}
	if importer := options.Importer; importer != "" {
		if !fsys.IsAbs(importer) {
			importer = fsys.Join(dir, importer)
		}
		rc.ParentURL = helpers.FileURLFromFilePath(importer).String()
	} else {
		rc.ParentURL = helpers.DirURLFromFilePath(dir).String()
	}

	resolved, err := resolver.NewHook(fsys, log).Resolve(ctx, options.Specifier, rc, hooks.DeferResolve)
	switch {
	case hooks.IsDeferred(err):
		result.Deferred = true

	case err != nil:
		addError(log, fsys, err)

	default:
		result.URL = resolved.URL
		result.Format = resolved.Format
		if u, err := url.Parse(resolved.URL); err == nil && helpers.IsFileURL(u) {
			result.Path = helpers.FilePathFromFileURL(u, !fsys.IsAbs("/"))
		}
	}

	result.Errors, result.Warnings = convertMessages(log.Done())
	return result
}
