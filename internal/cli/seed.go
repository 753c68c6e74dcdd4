package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/relmap/internal/dbcontext"
	"github.com/roach88/relmap/internal/hr"
)

// SaveView renders a dbcontext.SaveResult.
type SaveView struct {
	*dbcontext.SaveResult
}

func (v SaveView) renderText(w io.Writer) {
	fmt.Fprintf(w, "Saved changes (token %s)\n", v.Token)
	for _, c := range v.Collections {
		fmt.Fprintf(w, "  %s: %d inserted, %d deleted\n", c.Collection, c.Added, c.Removed)
	}
	fmt.Fprintf(w, "Total: %d inserted, %d deleted\n", v.Inserted, v.Deleted)
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Add the records of a fixture file and save them",
		Long: `Read a YAML fixture with departments, employees, projects and
assignments, add every record to the loaded collections and save them in
one transaction. Nothing is written if any record is rejected.

Example:
  relmap seed --db ./hr.db ./company.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := hr.LoadFixture(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load fixture", err)
			}

			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(db)

			ctx := commandContext(cmd)
			m, c, err := openHR(ctx, rootOpts, db)
			if err != nil {
				return err
			}

			added := fixture.AddTo(m)
			f := formatter(rootOpts, cmd)
			f.VerboseLog("added %d of %d fixture records", added, fixture.Len())

			res, err := c.SaveChanges(ctx)
			if err != nil {
				return engineExitError("failed to save fixture", err)
			}
			return f.Success(SaveView{res})
		},
	}
}
