// Command tabscript is the build-only CLI collaborator spec.md §1 places
// out of scope for the core engine ("CLI argument parsing, file I/O" are
// external collaborators). It exists only to give the core package a
// runnable surface; it is deliberately a one-shot `build`/`version` tool,
// not the REPL/profiler/cloud-module CLI the teacher ships.
//
// Grounded on cmd/risor/root.go and cmd/risor/main.go in the teacher: the
// same Cobra command tree shape, fatih/color + go-isatty no-color
// detection, and go-homedir default-path resolution. github.com/spf13/viper
// is not wired here (see DESIGN.md): the teacher uses it to bind a
// REPL/profiler's many environment-overridable flags to a `~/.risor.yaml`
// config file, and this CLI has no config file of its own — Cobra's plain
// flags are sufficient for `build`'s small, fixed option set.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/tabscript-lang/tabscript"
)

// version is overridden at release-build time via -ldflags.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var noColor bool

	root := &cobra.Command{
		Use:           "tabscript",
		Short:         "Transpile TabScript source to TypeScript or JavaScript",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor || !isTerminal(os.Stderr) {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored diagnostics")

	root.AddCommand(buildCmd(), versionCmd(), pluginDirCmd())
	return root
}

// isTerminal mirrors the teacher's isTerminalIO check (cmd/risor/root.go),
// narrowed to the one stream this CLI colorizes.
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func buildCmd() *cobra.Command {
	var (
		js         bool
		recover    bool
		pretty     bool
		outputPath string
	)
	cmd := &cobra.Command{
		Use:   "build [file]",
		Short: "Transpile a .tab file and print (or write) the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			src, err := os.ReadFile(filename)
			if err != nil {
				return err
			}

			ws := tabscript.Preserve
			if pretty {
				ws = tabscript.Pretty
			}
			result := tabscript.Transpile(string(src),
				tabscript.WithFilename(filename),
				tabscript.WithJS(js),
				tabscript.WithRecover(recover),
				tabscript.WithWhitespace(ws),
			)

			if len(result.Errors) > 0 {
				printErrors(cmd, result.Errors, filename, string(src))
				if !recover {
					return fmt.Errorf("%d parse error(s)", len(result.Errors))
				}
			}

			if outputPath != "" {
				return os.WriteFile(outputPath, []byte(result.Code), 0o644)
			}
			fmt.Fprint(cmd.OutOrStdout(), result.Code)
			return nil
		},
	}
	cmd.Flags().BoolVar(&js, "js", false, "emit JavaScript instead of TypeScript")
	cmd.Flags().BoolVar(&recover, "recover", false, "recover from syntax errors and emit best-effort output")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "use pretty whitespace instead of preserving the source's line layout")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write output to a file instead of stdout")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tabscript version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

// pluginDirCmd prints the default plugin search directory
// (~/.tabscript/plugins), mirroring the teacher's homedir-based config
// default (cmd/risor/root.go's initConfig).
func pluginDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugin-dir",
		Short: "Print the default plugin search directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := defaultPluginDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func defaultPluginDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return home + string(os.PathSeparator) + ".tabscript" + string(os.PathSeparator) + "plugins", nil
}

func printErrors(cmd *cobra.Command, errs []*tabscript.Error, filename, source string) {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	for _, e := range errs {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s:%d:%d: %s\n",
			red("error"), filename, e.Position.LineNumber(), e.Position.ColumnNumber(), e.Message)
	}
}
