package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relmap/internal/dbcontext"
	"github.com/roach88/relmap/internal/relation"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommandWithOptions(opts)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// newDB creates a database with the sample schema.
func newDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hr.db")
	out, err := execute(t, &RootOptions{}, "--db", path, "init")
	require.NoError(t, err)
	assert.Equal(t, "Created sample schema (4 tables)\n", out)
	return path
}

// seededDB creates a database holding testdata/company.yaml.
func seededDB(t *testing.T) string {
	t.Helper()
	path := newDB(t)
	opts := &RootOptions{Tokens: dbcontext.NewFixedGenerator("seed-1")}
	_, err := execute(t, opts, "--db", path, "seed", "testdata/company.yaml")
	require.NoError(t, err)
	return path
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestInit_Idempotent(t *testing.T) {
	path := newDB(t)
	_, err := execute(t, &RootOptions{}, "--db", path, "init")
	assert.NoError(t, err)
}

func TestMissingDatabase(t *testing.T) {
	_, err := execute(t, &RootOptions{}, "show")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no database")
}

func TestColumns(t *testing.T) {
	path := newDB(t)

	out, err := execute(t, &RootOptions{}, "--db", path, "columns", "employees")
	require.NoError(t, err)
	assert.Equal(t, "id\nname\nemail\ndepartment_id\n", out)

	_, err = execute(t, &RootOptions{}, "--db", path, "columns", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSeed_Golden(t *testing.T) {
	path := newDB(t)
	opts := &RootOptions{Tokens: dbcontext.NewFixedGenerator("seed-1")}

	out, err := execute(t, opts, "--db", path, "seed", "testdata/company.yaml")
	require.NoError(t, err)
	golden(t).Assert(t, "seed", []byte(out))
}

func TestShow_Golden(t *testing.T) {
	path := seededDB(t)

	out, err := execute(t, &RootOptions{}, "--db", path, "show")
	require.NoError(t, err)
	golden(t).Assert(t, "show", []byte(out))
}

func TestShow_JSON(t *testing.T) {
	path := seededDB(t)

	out, err := execute(t, &RootOptions{}, "--db", path, "--format", "json", "show")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   ShowResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Employees)
	require.Len(t, resp.Data.Departments, 2)
	assert.Equal(t, "Operations", resp.Data.Departments[1].Name)
	assert.Equal(t, []EmployeeView{
		{ID: 12, Name: "Carol", Email: "carol@example.com", Projects: []string{"Atlas"}},
	}, resp.Data.Departments[1].Employees)
}

func TestShow_EmptyDatabase(t *testing.T) {
	path := newDB(t)

	out, err := execute(t, &RootOptions{}, "--db", path, "show")
	require.NoError(t, err)
	assert.Equal(t, "\n0 departments, 0 employees, 0 projects\n", out)
}

func TestShow_WithoutSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")

	_, err := execute(t, &RootOptions{}, "--db", path, "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load collections")
	assert.True(t, dbcontext.IsStoreError(err))
}

func TestSeed_InvalidRecordsWriteNothing(t *testing.T) {
	path := newDB(t)

	_, err := execute(t, &RootOptions{}, "--db", path, "seed", "testdata/invalid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, dbcontext.IsValidationError(err))

	out, err := execute(t, &RootOptions{}, "--db", path, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "0 departments")
}

func TestSeed_MissingFixture(t *testing.T) {
	path := newDB(t)

	_, err := execute(t, &RootOptions{}, "--db", path, "seed", "testdata/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRemove_BridgeRecord(t *testing.T) {
	path := seededDB(t)
	opts := &RootOptions{Tokens: dbcontext.NewFixedGenerator("rm-1")}

	out, err := execute(t, opts, "--db", path, "remove", "EmployeesProjects", "10,101")
	require.NoError(t, err)
	assert.Equal(t, "Saved changes (token rm-1)\n  EmployeesProjects: 0 inserted, 1 deleted\nTotal: 0 inserted, 1 deleted\n", out)

	out, err = execute(t, &RootOptions{}, "--db", path, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "  - Alice <alice@example.com> [Atlas]\n")
}

func TestRemove_ReferencedRecordRejected(t *testing.T) {
	path := seededDB(t)

	_, err := execute(t, &RootOptions{}, "--db", path, "remove", "Departments", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, relation.IsIntegrityError(err))
}

func TestRemove_NotFound(t *testing.T) {
	path := seededDB(t)

	_, err := execute(t, &RootOptions{}, "--db", path, "remove", "Employees", "99")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no record with key 99")

	_, err = execute(t, &RootOptions{}, "--db", path, "remove", "Payroll", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown collection")
}

func TestConfigFile(t *testing.T) {
	path := seededDB(t)
	cfg := filepath.Join(t.TempDir(), "relmap.cue")
	src := "driver: \"sqlite3\"\ndsn: " + `"` + filepath.ToSlash(path) + `"` + "\nformat: \"json\"\n"
	require.NoError(t, os.WriteFile(cfg, []byte(src), 0o644))

	out, err := execute(t, &RootOptions{}, "--config", cfg, "columns", "projects")
	require.NoError(t, err)
	assert.Contains(t, out, `"columns":["id","title"]`)

	// Flags win over the file.
	out, err = execute(t, &RootOptions{}, "--config", cfg, "--format", "text", "columns", "projects")
	require.NoError(t, err)
	assert.Equal(t, "id\ntitle\n", out)
}

func TestConfigFile_Invalid(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "relmap.cue")
	require.NoError(t, os.WriteFile(cfg, []byte(`driver: "oracle"`), 0o644))

	_, err := execute(t, &RootOptions{}, "--config", cfg, "show")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
