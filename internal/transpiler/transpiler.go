// Package transpiler wraps esbuild's transform API as the source-to-source
// service used by the transform hook and the build command.
package transpiler

import (
	"context"
	"fmt"
	"strings"

	"github.com/esmkit/esmkit/internal/config"
	"github.com/evanw/esbuild/pkg/api"
)

type Request struct {
	SourceText     string
	SourceDialect  config.Dialect
	TargetFormat   config.Format
	TargetRuntime  string
	SourceMapMode  config.SourceMapMode
	SourceFilePath string
}

type Result struct {
	Code string
	Map  string
}

type Transpiler interface {
	Transpile(ctx context.Context, request Request) (Result, error)
}

// SyntaxError carries every error message the transpiler reported for one file
type SyntaxError struct {
	File     string
	Messages []api.Message
}

func (e *SyntaxError) Error() string {
	sb := strings.Builder{}
	for i, msg := range e.Messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		if loc := msg.Location; loc != nil {
			sb.WriteString(fmt.Sprintf("%s:%d:%d: ", loc.File, loc.Line, loc.Column))
		} else if e.File != "" {
			sb.WriteString(e.File + ": ")
		}
		sb.WriteString(msg.Text)
	}
	return sb.String()
}

type esbuildTranspiler struct{}

func NewEsbuild() Transpiler {
	return esbuildTranspiler{}
}

func (esbuildTranspiler) Transpile(ctx context.Context, request Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	options := api.TransformOptions{
		Loader:     LoaderFor(request.SourceDialect),
		Format:     FormatFor(request.TargetFormat),
		Sourcemap:  SourceMapFor(request.SourceMapMode),
		Sourcefile: request.SourceFilePath,
		Platform:   api.PlatformNode,
		LogLevel:   api.LogLevelSilent,
	}
	target, engines, err := ParseTarget(request.TargetRuntime)
	if err != nil {
		return Result{}, err
	}
	options.Target = target
	options.Engines = engines

	result := api.Transform(request.SourceText, options)
	if len(result.Errors) > 0 {
		return Result{}, &SyntaxError{File: request.SourceFilePath, Messages: result.Errors}
	}
	return Result{Code: string(result.Code), Map: string(result.Map)}, nil
}

func LoaderFor(dialect config.Dialect) api.Loader {
	switch dialect {
	case config.DialectTS:
		return api.LoaderTS
	case config.DialectTSX:
		return api.LoaderTSX
	case config.DialectJSX:
		return api.LoaderJSX
	}
	return api.LoaderJS
}

func FormatFor(format config.Format) api.Format {
	if format == config.FormatCommonJS {
		return api.FormatCommonJS
	}
	return api.FormatESModule
}

func SourceMapFor(mode config.SourceMapMode) api.SourceMap {
	switch mode {
	case config.SourceMapInline:
		return api.SourceMapInline
	case config.SourceMapExternal:
		return api.SourceMapExternal
	}
	return api.SourceMapNone
}

var languageTargets = map[string]api.Target{
	"esnext": api.ESNext,
	"es5":    api.ES5,
	"es6":    api.ES2015,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
	"es2024": api.ES2024,
}

// ParseTarget accepts a language level ("es2022") or an engine with a version
// ("node20", "node18.12"). An empty string means "esnext".
func ParseTarget(text string) (api.Target, []api.Engine, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return api.ESNext, nil, nil
	}
	if target, ok := languageTargets[text]; ok {
		return target, nil, nil
	}
	if strings.HasPrefix(text, "node") {
		version := strings.TrimPrefix(text, "node")
		if version != "" && version[0] >= '0' && version[0] <= '9' {
			return api.DefaultTarget, []api.Engine{{Name: api.EngineNode, Version: version}}, nil
		}
	}
	return api.DefaultTarget, nil, fmt.Errorf("invalid target %q (expected a value such as \"es2022\" or \"node20\")", text)
}
