// Package cli implements the "esmkit" command line on top of the public API.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/esmkit/esmkit/internal/exitcode"
	"github.com/esmkit/esmkit/internal/logger"
	"github.com/spf13/cobra"
)

// Diagnostics have already been printed by the API call that failed
var errReported = errors.New("errors were reported")

// Run executes the command line and returns the process exit code
func Run(osArgs []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCommand(os.Stdout, os.Stderr)
	root.SetArgs(normalizeArgs(osArgs))
	err := root.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		logger.PrintErrorToStderr(osArgs, err.Error())
	}
	return exitcode.Get(err)
}

func NewRootCommand(stdout io.Writer, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "esmkit",
		Short: "Run and ship TypeScript as standard ES modules",
		Long: `esmkit runs TypeScript source trees directly and rewrites compiled output so
every relative import names the exact file it refers to.

Examples:
  esmkit build                   Compile "rootDir" into "outDir" with qualified imports
  esmkit normalize --dry-run     Show the rewrites "normalize" would make to "outDir"
  esmkit bundle src/main.ts      Bundle an entry point to stdout
  esmkit resolve ./utils --from src/main.ts
  esmkit run src/main.ts -- --port=8080`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return exitcode.Set(err, exitcode.Usage)
	})

	flags := root.PersistentFlags()
	flags.String("cwd", "", "the project directory (default is the current directory)")
	flags.String("tsconfig", "", "use this tsconfig.json instead of the nearest one")
	flags.String("log-level", "info", "verbose, info, warning, error, or silent")
	flags.String("color", "", "force terminal colors on or off (true or false)")
	flags.Int("error-limit", 10, "maximum error count or 0 to disable")

	root.AddCommand(
		newBuildCommand(),
		newNormalizeCommand(),
		newBundleCommand(),
		newResolveCommand(),
		newRunCommand(),
	)
	return root
}

// normalizeArgs rewrites esbuild-style "--loader:.ts=tsx" and
// "--external:pkg" flags into the "--loader=.ts=tsx" form the flag parser
// understands. Nothing after "--" is touched.
func normalizeArgs(osArgs []string) []string {
	result := make([]string, 0, len(osArgs))
	for i, arg := range osArgs {
		if arg == "--" {
			return append(result, osArgs[i:]...)
		}
		for _, name := range []string{"--loader:", "--external:"} {
			if strings.HasPrefix(arg, name) {
				arg = name[:len(name)-1] + "=" + arg[len(name):]
				break
			}
		}
		result = append(result, arg)
	}
	return result
}
