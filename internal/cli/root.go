package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/allot/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	EnvFile string

	// Config and Logger are set before any subcommand runs.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the allot CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "allot",
		Short: "allot - proportional purchase splits",
		Long:  "Split a purchase total across a tree of recipients, in whole pennies, with every level conserved.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "config-env", "", "load environment variables from this file")

	// Add subcommands
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewFlattenCommand(opts))
	cmd.AddCommand(NewSubmitCommand(opts))
	cmd.AddCommand(NewSubmissionsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup loads configuration and the logger. An explicit --format beats
// ALLOT_FORMAT; --verbose beats ALLOT_LOG_LEVEL.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if err := config.LoadEnv(o.EnvFile); err != nil {
		return o.setupError(cmd, err)
	}

	cfg := config.Load()
	if cmd.Flags().Changed("format") {
		cfg.Format = o.Format
	}
	if err := cfg.Validate(); err != nil {
		return o.setupError(cmd, err)
	}
	o.Format = cfg.Format
	o.Config = cfg

	level, _ := cfg.Level()
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// setupError reports a configuration failure on stderr. Subcommands
// silence cobra's own error printing.
func (o *RootOptions) setupError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return NewExitError(ExitCommandError, err.Error())
}

// ensure fills Config and Logger when a command runs without the root,
// as in tests.
func (o *RootOptions) ensure() {
	if !isValidFormat(o.Format) {
		o.Format = "text"
	}
	if o.Config == nil {
		o.Config = config.Load()
		o.Config.Format = o.Format
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
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
