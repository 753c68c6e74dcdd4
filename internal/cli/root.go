package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relmap/internal/config"
	"github.com/roach88/relmap/internal/dbcontext"
	"github.com/roach88/relmap/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string
	Database string
	Driver   string

	// Tokens overrides the save token generator (for testing).
	// If nil, defaults to dbcontext.UUIDv7Generator.
	Tokens dbcontext.TokenGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the relmap CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the root command around opts, which
// receives the parsed global flags.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relmap",
		Short: "relmap - relational mapping for plain Go structs",
		Long: `Load tables into typed collections, follow relations between records
and save added or removed records in one transaction.

The commands operate on the sample HR schema created by "relmap init".`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfig(opts, cmd); err != nil {
				return err
			}
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), opts.Verbose))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to a CUE config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "database DSN (for sqlite: file path)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", fmt.Sprintf("database driver (%s; default %s)", strings.Join(store.Drivers, "|"), store.DefaultDriver))

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewColumnsCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))

	return cmd
}

// applyConfig fills every option whose flag was not given from the
// config file, if one is named.
func applyConfig(opts *RootOptions, cmd *cobra.Command) error {
	if opts.Config == "" {
		return nil
	}
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	flags := cmd.Flags()
	if !flags.Changed("driver") {
		opts.Driver = cfg.Driver
	}
	if !flags.Changed("db") && cfg.DSN != "" {
		opts.Database = cfg.DSN
	}
	if !flags.Changed("verbose") {
		opts.Verbose = cfg.Verbose
	}
	if !flags.Changed("format") {
		opts.Format = cfg.Format
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
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
