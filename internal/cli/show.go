package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relmap/internal/hr"
)

// ShowResult is the department tree of the sample model.
type ShowResult struct {
	Departments []DepartmentView `json:"departments"`
	Employees   int              `json:"employees"`
	Projects    int              `json:"projects"`
}

// DepartmentView is one department with its employees.
type DepartmentView struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Employees []EmployeeView `json:"employees"`
}

// EmployeeView is one employee with the titles of its projects.
type EmployeeView struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email,omitempty"`
	Projects []string `json:"projects,omitempty"`
}

func (r ShowResult) renderText(w io.Writer) {
	for _, d := range r.Departments {
		fmt.Fprintf(w, "%s (id=%d)\n", d.Name, d.ID)
		if len(d.Employees) == 0 {
			fmt.Fprintln(w, "  (no employees)")
		}
		for _, e := range d.Employees {
			fmt.Fprintf(w, "  - %s", e.Name)
			if e.Email != "" {
				fmt.Fprintf(w, " <%s>", e.Email)
			}
			if len(e.Projects) > 0 {
				fmt.Fprintf(w, " [%s]", strings.Join(e.Projects, ", "))
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintf(w, "\n%d departments, %d employees, %d projects\n", len(r.Departments), r.Employees, r.Projects)
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show departments, employees and their projects",
		Long: `Load every collection of the sample model and print each department
with its employees. Employees list the projects they are assigned to,
reached through the employees_projects bridge.

Examples:
  relmap show --db ./hr.db
  relmap show --db ./hr.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(db)

			m, _, err := openHR(commandContext(cmd), rootOpts, db)
			if err != nil {
				return err
			}
			return formatter(rootOpts, cmd).Success(buildShowResult(m))
		},
	}
}

func buildShowResult(m *hr.HR) ShowResult {
	r := ShowResult{
		Departments: []DepartmentView{},
		Employees:   m.Employees.Len(),
		Projects:    m.Projects.Len(),
	}
	for d := range m.Departments.All() {
		view := DepartmentView{ID: d.ID, Name: d.Name, Employees: []EmployeeView{}}
		for e := range d.Employees {
			ev := EmployeeView{ID: e.ID, Name: e.Name, Email: e.Email}
			for _, p := range e.Projects() {
				ev.Projects = append(ev.Projects, p.Title)
			}
			view.Employees = append(view.Employees, ev)
		}
		r.Departments = append(r.Departments, view)
	}
	return r
}
