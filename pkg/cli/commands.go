package cli

import (
	"fmt"

	"github.com/esmkit/esmkit/pkg/api"
	"github.com/spf13/cobra"
)

func addTransformFlags(cmd *cobra.Command) {
	cmd.Flags().String("target", "", "a language level (es2022) or engine (node20)")
	cmd.Flags().StringToString("loader", nil, "use loader L for extension X (--loader:.X=L with L one of js, jsx, ts, tsx)")
}

func newBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the source tree into the output tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			loaders, err := s.Loaders()
			if err != nil {
				return err
			}

			result := api.Build(cmd.Context(), api.BuildOptions{
				LogOptions:    s.log,
				AbsWorkingDir: s.dir,
				TSConfig:      s.String("tsconfig"),
				Target:        s.String("target"),
				Loaders:       loaders,
				Normalize:     s.Bool("normalize"),
			})
			if len(result.Errors) > 0 {
				return errReported
			}
			if s.showInfo() {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s", count(len(result.OutputFiles), "file"))
				if result.SpecifiersRewritten > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), " and qualified %s afterward", count(result.SpecifiersRewritten, "specifier"))
				}
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			return nil
		},
	}
	addTransformFlags(cmd)
	cmd.Flags().Bool("normalize", true, "run the normalization pass over the output tree afterward")
	return cmd
}

func newNormalizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Qualify every relative import in the output tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			result := api.Normalize(cmd.Context(), api.NormalizeOptions{
				LogOptions:    s.log,
				AbsWorkingDir: s.dir,
				TSConfig:      s.String("tsconfig"),
				Pattern:       s.String("pattern"),
				DryRun:        s.Bool("dry-run"),
				DiffOutput:    cmd.OutOrStdout(),
				Concurrency:   s.Int("concurrency"),
			})
			if len(result.Errors) > 0 {
				return errReported
			}
			if s.showInfo() {
				verb := "Rewrote"
				if s.Bool("dry-run") {
					verb = "Would rewrite"
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s in %s (%s scanned)\n", verb,
					count(result.SpecifiersRewritten, "specifier"),
					count(result.FilesRewritten, "file"),
					count(result.FilesScanned, "file"))
			}
			return nil
		},
	}
	cmd.Flags().String("pattern", "", "a \"**\" glob relative to the output directory (default \"**/*.{js,mjs,cjs}\")")
	cmd.Flags().Bool("dry-run", false, "print a diff of each change instead of writing files")
	cmd.Flags().Int("concurrency", 0, "the number of files processed at once (default GOMAXPROCS)")
	return cmd
}

func newBundleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle <entry point>",
		Short: "Bundle an entry point through the resolution and transform hooks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			loaders, err := s.Loaders()
			if err != nil {
				return err
			}
			sourceMap, err := parseSourceMap(s.String("sourcemap"))
			if err != nil {
				return err
			}
			packages := s.String("packages")
			if packages != "" && packages != "bundle" && packages != "external" {
				return fmt.Errorf("invalid packages value %q (expected \"bundle\" or \"external\")", packages)
			}

			outfile := s.String("outfile")
			result := api.Bundle(cmd.Context(), api.BundleOptions{
				LogOptions:       s.log,
				AbsWorkingDir:    s.dir,
				EntryPoint:       args[0],
				Target:           s.String("target"),
				Loaders:          loaders,
				Sourcemap:        sourceMap,
				External:         s.Strings("external"),
				ExternalPackages: packages == "external",
				Outfile:          outfile,
			})
			if len(result.Errors) > 0 {
				return errReported
			}
			if outfile == "" {
				if _, err := cmd.OutOrStdout().Write(result.Contents); err != nil {
					return fmt.Errorf("failed to write to stdout: %w", err)
				}
			}
			return nil
		},
	}
	addTransformFlags(cmd)
	cmd.Flags().String("outfile", "", "write the bundle here instead of to stdout")
	cmd.Flags().String("sourcemap", "none", "none, inline, or external (needs --outfile)")
	cmd.Flags().StringArray("external", nil, "keep module M as an import (--external:M)")
	cmd.Flags().String("packages", "bundle", "bundle or external")
	return cmd
}

func newResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <specifier>",
		Short: "Print the file a specifier resolves to",
		Long: `Print the file a specifier resolves to. Specifiers that the resolution hook
leaves to the default resolver, such as package names, print "deferred".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			result := api.Resolve(cmd.Context(), api.ResolveOptions{
				LogOptions:    s.log,
				AbsWorkingDir: s.dir,
				Specifier:     args[0],
				Importer:      s.String("from"),
			})
			if len(result.Errors) > 0 {
				return errReported
			}
			if result.Deferred {
				fmt.Fprintln(cmd.OutOrStdout(), "deferred")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Path)
			if s.showInfo() {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s (%s)\n", result.URL, result.Format)
			}
			return nil
		},
	}
	cmd.Flags().String("from", "", "the importing file (default is an entry point in the working directory)")
	return cmd
}

func count(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
