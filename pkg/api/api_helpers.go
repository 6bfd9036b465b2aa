package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/esmkit/esmkit/internal/analysis"
	"github.com/esmkit/esmkit/internal/cli_helpers"
	"github.com/esmkit/esmkit/internal/config"
	"github.com/esmkit/esmkit/internal/fs"
	"github.com/esmkit/esmkit/internal/helpers"
	"github.com/esmkit/esmkit/internal/logger"
	"github.com/esmkit/esmkit/internal/transpiler"
	esbuild "github.com/evanw/esbuild/pkg/api"
)

func validateColor(value StderrColor) logger.StderrColor {
	switch value {
	case ColorIfTerminal:
		return logger.ColorIfTerminal
	case ColorNever:
		return logger.ColorNever
	case ColorAlways:
		return logger.ColorAlways
	default:
		panic("Invalid color")
	}
}

func validateLogLevel(value LogLevel) logger.LogLevel {
	switch value {
	case LogLevelSilent:
		return logger.LevelSilent
	case LogLevelVerbose:
		return logger.LevelVerbose
	case LogLevelInfo:
		return logger.LevelInfo
	case LogLevelWarning:
		return logger.LevelWarning
	case LogLevelError:
		return logger.LevelError
	default:
		panic("Invalid log level")
	}
}

func validateSourceMap(value SourceMap) config.SourceMapMode {
	switch value {
	case SourceMapNone:
		return config.SourceMapNone
	case SourceMapInline:
		return config.SourceMapInline
	case SourceMapExternal:
		return config.SourceMapExternal
	default:
		panic("Invalid source map")
	}
}

func newLog(options LogOptions) logger.Log {
	return logger.NewStderrLog(logger.StderrOptions{
		IncludeSource: true,
		ErrorLimit:    options.ErrorLimit,
		Color:         validateColor(options.Color),
		LogLevel:      validateLogLevel(options.LogLevel),
		Output:        options.Output,
	})
}

func convertMessages(msgs []logger.Msg) (errorMsgs []Message, warningMsgs []Message) {
	for _, msg := range msgs {
		var location *Location
		if loc := msg.Location; loc != nil {
			location = &Location{
				File:     loc.File,
				Line:     loc.Line,
				Column:   loc.Column,
				Length:   loc.Length,
				LineText: loc.LineText,
			}
		}
		converted := Message{Text: msg.Text, Location: location}
		switch msg.Kind {
		case logger.Error:
			errorMsgs = append(errorMsgs, converted)
		case logger.Warning:
			warningMsgs = append(warningMsgs, converted)
		}
	}
	return
}

// esbuild's own messages are forwarded so they're printed with everything else
func addEsbuildMessages(log logger.Log, kind logger.MsgKind, msgs []esbuild.Message) {
	for _, msg := range msgs {
		text := msg.Text
		if msg.PluginName != "" {
			text = fmt.Sprintf("[plugin %s] %s", msg.PluginName, text)
		}
		converted := logger.Msg{Kind: kind, Text: text}
		if loc := msg.Location; loc != nil {
			converted.Location = &logger.MsgLocation{
				File:     loc.File,
				Line:     loc.Line,
				Column:   loc.Column,
				Length:   loc.Length,
				LineText: loc.LineText,
			}
		}
		log.AddMsg(converted)
	}
}

// addError reports "err" with a source location when the error carries one
func addError(log logger.Log, fsys fs.FS, err error) {
	var unresolved *analysis.UnresolvedError
	var syntaxErr *transpiler.SyntaxError
	var withNote *cli_helpers.ErrorWithNote

	switch {
	case errors.As(err, &unresolved):
		suggestion := ""
		if corrected, ok := suggestSpecifier(fsys, unresolved.File, unresolved.Specifier); ok {
			suggestion = fmt.Sprintf(" (did you mean %q?)", corrected)
		}
		source, r, ok := findSpecifier(fsys, unresolved.File, unresolved.Specifier)
		if !ok {
			log.AddError(nil, logger.Range{}, err.Error()+suggestion)
			return
		}
		log.AddError(source, r, fmt.Sprintf("Could not resolve %q", unresolved.Specifier)+suggestion)

	case errors.As(err, &syntaxErr):
		addEsbuildMessages(log, logger.Error, syntaxErr.Messages)

	case errors.As(err, &withNote):
		log.AddError(nil, logger.Range{}, withNote.Error())

	default:
		log.AddError(nil, logger.Range{}, err.Error())
	}
}

func findSpecifier(fsys fs.FS, file string, specifier string) (*logger.Source, logger.Range, bool) {
	contents, err := fsys.ReadFile(file)
	if err != nil {
		return nil, logger.Range{}, false
	}
	for _, quote := range []string{"\"", "'"} {
		if i := strings.Index(contents, quote+specifier+quote); i != -1 {
			source := &logger.Source{PrettyPath: prettyPath(fsys, file), Contents: contents}
			return source, logger.Range{Loc: logger.Loc{Start: int32(i + 1)}, Len: int32(len(specifier))}, true
		}
	}
	return nil, logger.Range{}, false
}

// suggestSpecifier looks for a module next to the one "specifier" names
// whose name is off by a typo
func suggestSpecifier(fsys fs.FS, importer string, specifier string) (string, bool) {
	slash := strings.LastIndexByte(specifier, '/')
	if slash == -1 {
		return "", false
	}
	files, err := fsys.Glob(fsys.Join(fsys.Dir(importer), specifier[:slash]), "*")
	if err != nil {
		return "", false
	}
	var names []string
	for _, file := range files {
		base := fsys.Base(file)
		if ext := config.ExtensionOf(base); ext != "" && !config.IsDeclarationFile(base) {
			names = append(names, strings.TrimSuffix(base, ext))
		}
	}
	corrected, ok := helpers.MakeTypoDetector(names).MaybeCorrectTypo(specifier[slash+1:])
	if !ok {
		return "", false
	}
	return specifier[:slash+1] + corrected, true
}

func prettyPath(fsys fs.FS, path string) string {
	if rel, ok := fsys.Rel(fsys.Cwd(), path); ok && !strings.HasPrefix(rel, "..") {
		return helpers.ToPosixPath(rel)
	}
	return path
}

func workingDir(fsys fs.FS, dir string) string {
	if dir == "" {
		return fsys.Cwd()
	}
	if abs, ok := fsys.Abs(dir); ok {
		return abs
	}
	return dir
}

func loadProject(fsys fs.FS, dir string, tsconfig string) (*config.Project, error) {
	if tsconfig == "" {
		return config.FindProject(fsys, dir)
	}
	if !fsys.IsAbs(tsconfig) {
		tsconfig = fsys.Join(dir, tsconfig)
	}
	return config.LoadProject(fsys, tsconfig)
}

func loaderConfig(target string, sourceMap config.SourceMapMode, overrides map[string]string) (config.LoaderConfig, error) {
	loaders := config.DefaultLoaderConfig().WithTarget(target).WithSourceMap(sourceMap)
	loaders, errNote := cli_helpers.ApplyLoaders(loaders, overrides, target, sourceMap)
	if errNote != nil {
		return loaders, errNote
	}
	return loaders, nil
}

// Timing is only collected at the verbose log level
func newTimer(options LogOptions) *helpers.Timer {
	if options.LogLevel == LogLevelVerbose {
		return &helpers.Timer{}
	}
	return nil
}

func esbuildLoaders(loaders config.LoaderConfig) map[string]esbuild.Loader {
	result := make(map[string]esbuild.Loader)
	for _, ext := range loaders.Extensions() {
		options, _ := loaders.Lookup(ext)
		result[ext] = transpiler.LoaderFor(options.SourceDialect)
	}
	return result
}
