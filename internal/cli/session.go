package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/relmap/internal/dbcontext"
	"github.com/roach88/relmap/internal/hr"
	"github.com/roach88/relmap/internal/store"
)

// openStore opens the database named by the global flags.
func openStore(opts *RootOptions) (*store.DB, error) {
	if opts.Database == "" {
		return nil, NewExitError(ExitCommandError, "no database: pass --db or set dsn in --config")
	}
	slog.Debug("opening database", "driver", opts.Driver, "dsn", opts.Database)
	db, err := store.Open(opts.Driver, opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return db, nil
}

// closeStore closes db, logging any failure.
func closeStore(db *store.DB) {
	if err := db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// openHR loads the sample model from db.
func openHR(ctx context.Context, opts *RootOptions, db *store.DB) (*hr.HR, *dbcontext.Context, error) {
	dbOpts := []dbcontext.Option{dbcontext.WithLogger(slog.Default())}
	if opts.Tokens != nil {
		dbOpts = append(dbOpts, dbcontext.WithTokenGenerator(opts.Tokens))
	}
	m, c, err := hr.Open(ctx, db, dbOpts...)
	if err != nil {
		return nil, nil, engineExitError("failed to load collections", err)
	}
	return m, c, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
