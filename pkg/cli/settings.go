package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/esmkit/esmkit/internal/cli_helpers"
	"github.com/esmkit/esmkit/pkg/api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Settings come from command-line flags, then "ESMKIT_*" environment
// variables, then an optional "esmkit.json", "esmkit.yaml", or "esmkit.toml"
// file in the working directory, then flag defaults.
type settings struct {
	v   *viper.Viper
	dir string
	log api.LogOptions
}

const envPrefix = "ESMKIT"

func loadSettings(cmd *cobra.Command) (*settings, error) {
	// Loader keys such as ".js" contain the default "." delimiter
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	dir := v.GetString("cwd")
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot get the working directory: %w", err)
		}
		dir = cwd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	v.SetConfigName("esmkit")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("cannot read %q: %w", v.ConfigFileUsed(), err)
		}
	}

	s := &settings{v: v, dir: dir}
	if s.log.LogLevel, err = parseLogLevel(v.GetString("log-level")); err != nil {
		return nil, err
	}
	if s.log.Color, err = parseColor(v.GetString("color")); err != nil {
		return nil, err
	}
	s.log.ErrorLimit = v.GetInt("error-limit")
	s.log.Output = cmd.ErrOrStderr()
	return s, nil
}

func (s *settings) String(key string) string {
	return s.v.GetString(key)
}

func (s *settings) Bool(key string) bool {
	return s.v.GetBool(key)
}

func (s *settings) Int(key string) int {
	return s.v.GetInt(key)
}

func (s *settings) Strings(key string) []string {
	return s.v.GetStringSlice(key)
}

// Loaders returns the "--loader:.ext=value" overrides after checking that
// every value is valid
func (s *settings) Loaders() (map[string]string, error) {
	loaders := s.v.GetStringMapString("loader")
	for ext, value := range loaders {
		if _, _, err := cli_helpers.ParseLoader(value); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(ext, ".") {
			return nil, cli_helpers.MakeErrorWithNote(
				fmt.Sprintf("Invalid file extension: %q", ext),
				"File extensions must start with a \".\" character.",
			)
		}
	}
	return loaders, nil
}

// Verbose and info messages from the CLI itself only show up at those levels
func (s *settings) showInfo() bool {
	return s.log.LogLevel == api.LogLevelVerbose || s.log.LogLevel == api.LogLevelInfo
}

func parseLogLevel(text string) (api.LogLevel, error) {
	switch text {
	case "verbose":
		return api.LogLevelVerbose, nil
	case "", "info":
		return api.LogLevelInfo, nil
	case "warning":
		return api.LogLevelWarning, nil
	case "error":
		return api.LogLevelError, nil
	case "silent":
		return api.LogLevelSilent, nil
	}
	return api.LogLevelInfo, cli_helpers.MakeErrorWithNote(
		fmt.Sprintf("Invalid log level: %q", text),
		"Valid values are \"verbose\", \"info\", \"warning\", \"error\", or \"silent\".",
	)
}

func parseColor(text string) (api.StderrColor, error) {
	switch text {
	case "":
		return api.ColorIfTerminal, nil
	case "true":
		return api.ColorAlways, nil
	case "false":
		return api.ColorNever, nil
	}
	return api.ColorIfTerminal, cli_helpers.MakeErrorWithNote(
		fmt.Sprintf("Invalid color value: %q", text),
		"Valid values are \"true\" or \"false\".",
	)
}

func parseSourceMap(text string) (api.SourceMap, error) {
	switch text {
	case "", "none":
		return api.SourceMapNone, nil
	case "inline":
		return api.SourceMapInline, nil
	case "external":
		return api.SourceMapExternal, nil
	}
	return api.SourceMapNone, cli_helpers.MakeErrorWithNote(
		fmt.Sprintf("Invalid source map value: %q", text),
		"Valid values are \"none\", \"inline\", or \"external\".",
	)
}
