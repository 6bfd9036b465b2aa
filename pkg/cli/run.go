package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/esmkit/esmkit/internal/exitcode"
	"github.com/esmkit/esmkit/pkg/api"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <entry point> [-- args...]",
		Short: "Run an entry point with node without compiling the project first",
		Long: `Run an entry point with node without compiling the project first. The entry
point is bundled in memory through the resolution and transform hooks with
every package left external, then executed. Arguments after the entry point
are passed to the program.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			loaders, err := s.Loaders()
			if err != nil {
				return err
			}
			env, err := runEnvironment(s.dir, s.Strings("env-file"))
			if err != nil {
				return err
			}

			result := api.Bundle(cmd.Context(), api.BundleOptions{
				LogOptions:       s.log,
				AbsWorkingDir:    s.dir,
				EntryPoint:       args[0],
				Target:           s.String("target"),
				Loaders:          loaders,
				Sourcemap:        api.SourceMapInline,
				ExternalPackages: true,
			})
			if len(result.Errors) > 0 {
				return errReported
			}

			// Packages are resolved relative to the bundle, so it has to live
			// inside the project
			cacheDir := filepath.Join(s.dir, "node_modules", ".cache", "esmkit")
			if err := os.MkdirAll(cacheDir, 0o755); err != nil {
				return fmt.Errorf("cannot create %q: %w", cacheDir, err)
			}
			file, err := os.CreateTemp(cacheDir, "run-*.mjs")
			if err != nil {
				return err
			}
			defer os.Remove(file.Name())
			if _, err := file.Write(result.Contents); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}

			// Flag parsing stops at the entry point, so a "--" after it is still here
			programArgs := args[1:]
			if len(programArgs) > 0 && programArgs[0] == "--" {
				programArgs = programArgs[1:]
			}
			node := exec.CommandContext(cmd.Context(), s.String("node"),
				append([]string{"--enable-source-maps", file.Name()}, programArgs...)...)
			node.Dir = s.dir
			node.Env = env
			node.Stdin = cmd.InOrStdin()
			node.Stdout = cmd.OutOrStdout()
			node.Stderr = cmd.ErrOrStderr()

			err = node.Run()
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				// The program already reported its own failure
				return exitcode.Set(errReported, exitErr.ExitCode())
			}
			return err
		},
	}
	addTransformFlags(cmd)
	cmd.Flags().StringArray("env-file", nil, "load environment variables from this file (may be repeated)")
	cmd.Flags().String("node", "node", "the node executable")
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// runEnvironment returns the current environment plus the variables in each
// env file. Variables that are already set keep their value, and earlier
// files win over later ones.
func runEnvironment(dir string, envFiles []string) ([]string, error) {
	env := os.Environ()
	seen := make(map[string]bool)
	for _, path := range envFiles {
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read env file %q: %w", path, err)
		}
		keys := make([]string, 0, len(vars))
		for key := range vars {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if _, ok := os.LookupEnv(key); ok || seen[key] {
				continue
			}
			seen[key] = true
			env = append(env, key+"="+vars[key])
		}
	}
	return env, nil
}
