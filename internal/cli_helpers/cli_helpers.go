// This package contains internal CLI-related code that must be shared with
// other internal code outside of the CLI package.

package cli_helpers

import (
	"fmt"
	"strings"

	"github.com/esmkit/esmkit/internal/config"
)

type ErrorWithNote struct {
	Text string
	Note string
}

func MakeErrorWithNote(text string, note string) *ErrorWithNote {
	return &ErrorWithNote{
		Text: text,
		Note: note,
	}
}

func (e *ErrorWithNote) Error() string {
	if e.Note == "" {
		return e.Text
	}
	return e.Text + "\n" + e.Note
}

// ParseLoader parses the value of a "--loader:.ext=value" flag. The "js"
// loader means the extension is passed through without being transformed.
func ParseLoader(text string) (config.Dialect, bool, *ErrorWithNote) {
	switch text {
	case "js":
		return config.DialectNone, false, nil
	case "jsx":
		return config.DialectJSX, true, nil
	case "ts":
		return config.DialectTS, true, nil
	case "tsx":
		return config.DialectTSX, true, nil
	default:
		return config.DialectNone, false, MakeErrorWithNote(
			fmt.Sprintf("Invalid loader value: %q", text),
			"Valid values are \"js\", \"jsx\", \"ts\", or \"tsx\".",
		)
	}
}

// ApplyLoaders returns a copy of "loaders" with each "ext=value" override
// applied in order. Transformed extensions keep the existing target and
// source map settings.
func ApplyLoaders(loaders config.LoaderConfig, overrides map[string]string, target string, sourceMap config.SourceMapMode) (config.LoaderConfig, *ErrorWithNote) {
	for ext, value := range overrides {
		if !strings.HasPrefix(ext, ".") {
			return loaders, MakeErrorWithNote(
				fmt.Sprintf("Invalid file extension: %q", ext),
				"File extensions must start with a \".\" character.",
			)
		}
		dialect, transform, err := ParseLoader(value)
		if err != nil {
			return loaders, err
		}
		if !transform {
			loaders = loaders.Without(ext)
			continue
		}
		loaders = loaders.With(ext, config.TransformOptions{
			SourceDialect: dialect,
			OutputFormat:  config.FormatESModule,
			SourceMapMode: sourceMap,
			TargetRuntime: target,
		})
	}
	return loaders, nil
}
