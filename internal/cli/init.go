package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relmap/internal/hr"
)

// InitResult reports the created schema.
type InitResult struct {
	Tables int `json:"tables"`
}

func (r InitResult) renderText(w io.Writer) {
	fmt.Fprintf(w, "Created sample schema (%d tables)\n", r.Tables)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the sample HR tables",
		Long: `Create the departments, employees, projects and employees_projects
tables used by the other commands. Existing tables are left alone.

Example:
  relmap init --db ./hr.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(db)

			if err := db.ExecScript(commandContext(cmd), hr.Schema); err != nil {
				return WrapExitError(ExitCommandError, "failed to create schema", err)
			}
			return formatter(rootOpts, cmd).Success(InitResult{
				Tables: strings.Count(hr.Schema, "CREATE TABLE"),
			})
		},
	}
}
