package hr

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture lists records to add to the sample model.
type Fixture struct {
	Departments []*Department      `yaml:"departments"`
	Employees   []*Employee        `yaml:"employees"`
	Projects    []*Project         `yaml:"projects"`
	Assignments []*EmployeeProject `yaml:"assignments"`
}

// LoadFixture reads and parses a fixture YAML file.
// Unknown fields are rejected.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture parses fixture YAML.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &f, nil
}

// Len returns the number of records in f.
func (f *Fixture) Len() int {
	return len(f.Departments) + len(f.Employees) + len(f.Projects) + len(f.Assignments)
}

// AddTo adds every record of f to m and returns how many were added.
func (f *Fixture) AddTo(m *HR) int {
	n := 0
	for _, d := range f.Departments {
		if m.Departments.Add(d) {
			n++
		}
	}
	for _, e := range f.Employees {
		if m.Employees.Add(e) {
			n++
		}
	}
	for _, p := range f.Projects {
		if m.Projects.Add(p) {
			n++
		}
	}
	for _, a := range f.Assignments {
		if m.EmployeesProjects.Add(a) {
			n++
		}
	}
	return n
}
