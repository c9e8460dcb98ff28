package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vango-dev/rendertree/internal/config"
	"github.com/vango-dev/rendertree/internal/errors"
	"github.com/vango-dev/rendertree/internal/treefile"
	"github.com/vango-dev/rendertree/pkg/tree"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	strict     bool
	noColor    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "rendertree",
		Short: "Inspect and serve render tree frame sequences",
		Long: `rendertree builds frame sequences from tree documents and shows
how they are packed for consumers outside the process.

Tree documents are YAML or JSON files describing elements, text,
attributes and child components. Configuration is read from
rendertree.json, rendertree.yaml or rendertree.toml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				errors.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Configuration file (default: rendertree.* in the working directory)")
	rootCmd.PersistentFlags().BoolVar(&flags.strict, "strict", false, "Reject components that are not registered")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		inspectCmd(flags),
		layoutCmd(flags),
		serveCmd(flags),
		versionCmd(),
	)

	return rootCmd
}

// loadConfig reads the configuration named by --config, or the one in the
// working directory, or falls back to defaults.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	if flags.configPath != "" {
		return config.LoadFile(flags.configPath)
	}
	if config.Exists(".") {
		return config.Load(".")
	}
	return config.New(), nil
}

// newLogger builds the process logger from the log section.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// newRegistry returns the component registry for tree documents. The CLI has
// no component types of its own, so unknown names map to a placeholder
// unless strict is set.
func newRegistry(strict bool) *treefile.Registry {
	reg := treefile.NewRegistry()
	if !strict {
		reg.SetFallback(reflect.TypeFor[treefile.Placeholder]())
	}
	return reg
}

// buildFile parses and builds the tree document at path.
func buildFile(path string, cfg *config.Config, reg *treefile.Registry, opts ...tree.BuilderOption) (tree.Sequence, error) {
	doc, err := treefile.ParseFile(path)
	if err != nil {
		return tree.Sequence{}, err
	}
	return treefile.Build(doc, reg, append(cfg.BuilderOptions(), opts...)...)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}
