package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // path to dynir.toml
	DB      string // catalog database path

	// Dialects are extra declaration paths from the config file.
	Dialects []string

	logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Logger returns the command logger. Commands constructed without the
// root command log nowhere.
func (o *RootOptions) Logger() *zap.Logger {
	if o.logger == nil {
		return zap.NewNop()
	}
	return o.logger
}

// NewRootCommand creates the root command for the dynir CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "dynir",
		Short: "dynir - runtime-extensible IR dialects",
		Long: `Declare IR dialects at runtime, then parse, print and verify
operations against them.

Dialects are declared in .dyn text files or .cue files. Settings may be
given in a dynir.toml file next to the working directory or via --config.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if err := applyConfig(opts); err != nil {
				return err
			}
			opts.logger = newLogger(opts.Verbose)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.Logger().Sync()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default ./"+DefaultConfigFile+" if present)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "catalog database path")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewReplCommand(opts))

	return cmd
}

// applyConfig merges the config file into opts. Flags win over the file.
func applyConfig(opts *RootOptions) error {
	path := opts.Config
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			return nil
		}
		path = DefaultConfigFile
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}
	if opts.DB == "" {
		opts.DB = cfg.DB
	}
	if !opts.Verbose {
		opts.Verbose = cfg.Verbose
	}
	opts.Dialects = append(opts.Dialects, cfg.Dialects...)
	return nil
}

// newLogger returns a development logger on stderr in verbose mode and a
// no-op logger otherwise.
func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
