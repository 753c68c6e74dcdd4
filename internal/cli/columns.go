package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ColumnsResult lists the live columns of a table.
type ColumnsResult struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
}

func (r ColumnsResult) renderText(w io.Writer) {
	for _, c := range r.Columns {
		fmt.Fprintln(w, c)
	}
}

// NewColumnsCommand creates the columns command.
func NewColumnsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "columns <table>",
		Short: "List the columns of a table",
		Long: `List the columns the database reports for a table, in ordinal order.
These are the columns a record type can be mapped to.

Example:
  relmap columns --db ./hr.db employees`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(db)

			conn, err := db.Open(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open connection", err)
			}
			defer conn.Close()

			cols, err := conn.Columns(ctx, args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read columns", err)
			}
			return formatter(rootOpts, cmd).Success(ColumnsResult{Table: args[0], Columns: cols})
		},
	}
}
