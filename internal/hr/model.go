package hr

import (
	"context"
	_ "embed"
	"errors"
	"iter"
	"strings"

	"github.com/roach88/relmap/internal/dbcontext"
	"github.com/roach88/relmap/internal/dbset"
	"github.com/roach88/relmap/internal/store"
)

// Schema is the DDL of the sample tables.
//
//go:embed schema.sql
var Schema string

type Department struct {
	ID        int64               `db:"id,pk" yaml:"id"`
	Name      string              `db:"name" yaml:"name" validate:"required,max=100"`
	Employees iter.Seq[*Employee] `yaml:"-"`
}

func (Department) TableName() string { return "departments" }

type Employee struct {
	ID           int64  `db:"id,pk" yaml:"id"`
	Name         string `db:"name" yaml:"name" validate:"required,max=100"`
	Email        string `db:"email" yaml:"email" validate:"omitempty,email"`
	DepartmentID int64  `db:"department_id,fk=Department" yaml:"department_id"`

	Department        *Department                `yaml:"-"`
	EmployeesProjects iter.Seq[*EmployeeProject] `yaml:"-"`
}

func (Employee) TableName() string { return "employees" }

type Project struct {
	ID                int64                      `db:"id,pk" yaml:"id"`
	Title             string                     `db:"title" yaml:"title"`
	EmployeesProjects iter.Seq[*EmployeeProject] `yaml:"-"`
}

func (Project) TableName() string { return "projects" }

// Validate rejects blank titles, which the required tag lets through.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("title must not be blank")
	}
	return nil
}

// EmployeeProject assigns an employee to a project.
type EmployeeProject struct {
	EmployeeID int64 `db:"employee_id,pk,fk=Employee" yaml:"employee_id"`
	ProjectID  int64 `db:"project_id,pk,fk=Project" yaml:"project_id"`

	Employee *Employee `yaml:"-"`
	Project  *Project  `yaml:"-"`
}

func (EmployeeProject) TableName() string { return "employees_projects" }

// HR is the sample model.
type HR struct {
	Departments       *dbset.Set[Department]
	Employees         *dbset.Set[Employee]
	Projects          *dbset.Set[Project]
	EmployeesProjects *dbset.Set[EmployeeProject]
}

// Open loads the sample model from gw.
func Open(ctx context.Context, gw store.Gateway, opts ...dbcontext.Option) (*HR, *dbcontext.Context, error) {
	var m HR
	c, err := dbcontext.Open(ctx, gw, &m, opts...)
	if err != nil {
		return nil, nil, err
	}
	return &m, c, nil
}

// Projects returns the projects e is assigned to.
func (e *Employee) Projects() []*Project {
	var out []*Project
	if e.EmployeesProjects == nil {
		return out
	}
	for link := range e.EmployeesProjects {
		out = append(out, link.Project)
	}
	return out
}
