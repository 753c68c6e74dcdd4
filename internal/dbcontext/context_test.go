package dbcontext

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relmap/internal/dbset"
	"github.com/roach88/relmap/internal/relation"
	"github.com/roach88/relmap/internal/schema"
	"github.com/roach88/relmap/internal/testutil"
)

type Department struct {
	ID        int64  `db:"id,pk"`
	Name      string `db:"name" validate:"required"`
	Employees iter.Seq[*Employee]
}

type Employee struct {
	ID           int64  `db:"id,pk"`
	Name         string `db:"name" validate:"required,max=40"`
	DepartmentID int64  `db:"department_id,fk=Department"`
	Department   *Department
	Email        string `db:"email"`
	Nickname     string `db:"-"`
}

func (e *Employee) Validate() error {
	if e.Name == "Mallory" {
		return errors.New("Mallory may not be hired")
	}
	return nil
}

type Project struct {
	ID    int64  `db:"id,pk"`
	Title string `db:"title"`
}

type HR struct {
	Departments *dbset.Set[Department]
	Employees   *dbset.Set[Employee]
	Projects    *dbset.Set[Project] `db:"projects"`
	Ignored     *dbset.Set[Project] `db:"-"`
	note        string
}

func newGateway() *testutil.Gateway {
	g := testutil.NewGateway()
	g.AddTable("Departments", []string{"id", "name"},
		[]any{int64(1), "Eng"},
		[]any{int64(2), "Ops"})
	g.AddTable("Employees", []string{"id", "name", "department_id", "hired"},
		[]any{int64(10), "Alice", int64(1), "2020"},
		[]any{int64(11), "Bob", int64(1), "2021"})
	g.AddTable("projects", []string{"id", "title"},
		[]any{int64(100), "Atlas"})
	return g
}

func openHR(t *testing.T, g *testutil.Gateway, opts ...Option) (*HR, *Context) {
	t.Helper()
	opts = append([]Option{WithTokenGenerator(NewFixedGenerator("save-1", "save-2", "save-3"))}, opts...)
	var m HR
	c, err := Open(context.Background(), g, &m, opts...)
	require.NoError(t, err)
	return &m, c
}

func find[T any](t *testing.T, s *dbset.Set[T], pred func(*T) bool) *T {
	t.Helper()
	rec, ok := s.Find(pred)
	require.True(t, ok)
	return rec
}

func employee(name string) func(*Employee) bool {
	return func(e *Employee) bool { return e.Name == name }
}

func department(name string) func(*Department) bool {
	return func(d *Department) bool { return d.Name == name }
}

func TestOpen_LoadsAndResolves(t *testing.T) {
	g := newGateway()
	m, c := openHR(t, g)

	assert.Equal(t, 2, m.Departments.Len())
	assert.Equal(t, 2, m.Employees.Len())
	assert.Equal(t, 1, m.Projects.Len())
	assert.Nil(t, m.Ignored)

	eng := find(t, m.Departments, department("Eng"))
	alice := find(t, m.Employees, employee("Alice"))
	bob := find(t, m.Employees, employee("Bob"))
	assert.Same(t, eng, alice.Department)
	assert.Equal(t, []*Employee{alice, bob}, slices.Collect(eng.Employees))

	assert.Empty(t, c.Pending())
	assert.Len(t, c.Collections(), 3)
	assert.Equal(t, 0, g.OpenConns())
	assert.Equal(t, []string{
		"open",
		"columns Departments", "fetch Departments",
		"columns Employees", "fetch Employees",
		"columns projects", "fetch projects",
	}, g.Ops())
}

func TestOpen_TagOverridesCollectionName(t *testing.T) {
	_, c := openHR(t, newGateway())

	coll, ok := c.Collection("projects")
	require.True(t, ok)
	assert.Equal(t, "projects", coll.Model().Table)

	_, ok = c.Collection("Projects")
	assert.False(t, ok)
}

func TestOpen_UnmappedColumnsAndFieldsIgnored(t *testing.T) {
	g := newGateway()
	m, _ := openHR(t, g)

	alice := find(t, m.Employees, employee("Alice"))
	assert.Empty(t, alice.Email, "email has no column")
	assert.Empty(t, alice.Nickname)
}

func TestOpen_FetchFailureIsFatal(t *testing.T) {
	g := newGateway()
	boom := errors.New("disk on fire")
	g.FailOn("fetch", "Employees", boom)

	var m HR
	c, err := Open(context.Background(), g, &m)
	require.Error(t, err)
	assert.Nil(t, c)
	assert.True(t, IsStoreError(err))
	assert.ErrorIs(t, err, boom)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "fetch", se.Op)
	assert.Equal(t, "Employees", se.Collection)

	assert.Nil(t, m.Departments, "no partial model is exposed")
	assert.Equal(t, 0, g.OpenConns())
}

func TestOpen_MissingTable(t *testing.T) {
	g := testutil.NewGateway()
	g.AddTable("Departments", []string{"id", "name"})

	var m HR
	_, err := Open(context.Background(), g, &m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table not found")
	assert.Equal(t, 0, g.OpenConns())
}

func TestOpen_MissingKeyColumn(t *testing.T) {
	g := newGateway()
	g.AddTable("Departments", []string{"name"}, []any{"Eng"})

	var m HR
	_, err := Open(context.Background(), g, &m)
	require.Error(t, err)
	assert.True(t, schema.IsSchemaError(err))
	assert.Contains(t, err.Error(), "key column id missing")
}

func TestOpen_DanglingForeignKey(t *testing.T) {
	g := newGateway()
	g.AddTable("Employees", []string{"id", "name", "department_id"},
		[]any{int64(10), "Alice", int64(7)})

	var m HR
	_, err := Open(context.Background(), g, &m)
	assert.True(t, relation.IsIntegrityError(err))
}

func TestOpen_ModelMustBeStructPointer(t *testing.T) {
	g := newGateway()

	_, err := Open(context.Background(), g, HR{})
	assert.True(t, schema.IsSchemaError(err))

	_, err = Open(context.Background(), g, (*HR)(nil))
	assert.True(t, schema.IsSchemaError(err))

	var none struct{ Name string }
	_, err = Open(context.Background(), g, &none)
	assert.True(t, schema.IsSchemaError(err))
	assert.Equal(t, 0, g.Opens())
}

func TestSaveChanges_RoundTripIsNoOp(t *testing.T) {
	g := newGateway()
	_, c := openHR(t, g)
	g.ResetOps()

	res, err := c.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "save-1", res.Token)
	assert.Zero(t, res.Inserted)
	assert.Zero(t, res.Deleted)
	assert.Empty(t, g.Ops())
}

func TestSaveChanges_InsertsThenDeletes(t *testing.T) {
	g := newGateway()
	m, c := openHR(t, g)
	g.ResetOps()

	bob := find(t, m.Employees, employee("Bob"))
	carol := &Employee{ID: 12, Name: "Carol", DepartmentID: 2, Nickname: "C"}
	m.Employees.Add(carol)
	m.Employees.Remove(bob)

	assert.Equal(t, []Pending{{Collection: "Employees", Added: 1, Removed: 1}}, c.Pending())

	res, err := c.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, []Pending{{Collection: "Employees", Added: 1, Removed: 1}}, res.Collections)

	assert.Equal(t, []string{"open", "begin", "insert Employees 1", "delete Employees 1", "commit"}, g.Ops())
	assert.Equal(t, [][]any{
		{int64(10), "Alice", int64(1), "2020"},
		{int64(12), "Carol", int64(2), nil},
	}, g.Rows("Employees"))
	assert.Equal(t, 0, g.OpenConns())

	ops := find(t, m.Departments, department("Ops"))
	assert.Same(t, ops, carol.Department)
	assert.Equal(t, []*Employee{carol}, slices.Collect(ops.Employees))
}

func TestSaveChanges_BaselineResetAfterCommit(t *testing.T) {
	g := newGateway()
	m, c := openHR(t, g)

	m.Projects.Add(&Project{ID: 101, Title: "Zephyr"})
	_, err := c.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Empty(t, c.Pending())

	g.ResetOps()
	res, err := c.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
	assert.Empty(t, g.Ops(), "saved records are not inserted twice")
}

func TestSaveChanges_AddThenRemoveIsNetZero(t *testing.T) {
	g := newGateway()
	m, c := openHR(t, g)
	g.ResetOps()

	p := &Project{ID: 101, Title: "Zephyr"}
	m.Projects.Add(p)
	m.Projects.Remove(p)

	_, err := c.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Empty(t, g.Ops())
}

func TestSaveChanges_ValidationBlocksEverything(t *testing.T) {
	g := newGateway()
	m, c := openHR(t, g)
	opens := g.Opens()

	m.Projects.Add(&Project{ID: 101, Title: "Zephyr"})
	m.Employees.Add(&Employee{ID: 12, DepartmentID: 1})
	m.Employees.Add(&Employee{ID: 13, Name: "Mallory", DepartmentID: 1})

	_, err := c.SaveChanges(context.Background())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Records, 2)
	assert.Equal(t, "Employees", ve.Records[0].Collection)
	assert.Equal(t, "12", ve.Records[0].Key)
	assert.Equal(t, []string{"Name: failed required"}, ve.Records[0].Problems)
	assert.Equal(t, []string{"Mallory may not be hired"}, ve.Records[1].Problems)

	assert.Equal(t, opens, g.Opens(), "no connection is opened")
	assert.Len(t, c.Pending(), 2, "changes stay pending")
}

func TestSaveChanges_ValidationIgnoresRelatedRecords(t *testing.T) {
	g := newGateway()
	m, c := openHR(t, g)

	// An invalid department must not be reported once per employee.
	eng := find(t, m.Departments, department("Eng"))
	eng.Name = ""

	_, err := c.SaveChanges(context.Background())
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Records, 1)
	assert.Equal(t, "Departments", ve.Records[0].Collection)
}

func TestSaveChanges_DanglingForeignKeyRejected(t *testing.T) {
	g := newGateway()
	m, c := openHR(t, g)
	g.ResetOps()

	m.Employees.Add(&Employee{ID: 12, Name: "Carol", DepartmentID: 99})

	_, err := c.SaveChanges(context.Background())
	assert.True(t, relation.IsIntegrityError(err))
	assert.Empty(t, g.Ops())
}

func TestSaveChanges_FailureRollsBackEverything(t *testing.T) {
	g := newGateway()
	m, c := openHR(t, g)
	g.ResetOps()

	boom := errors.New("constraint failed")
	g.FailOn("insert", "Employees", boom)

	m.Departments.Add(&Department{ID: 3, Name: "Legal"})
	m.Employees.Add(&Employee{ID: 12, Name: "Carol", DepartmentID: 3})
	m.Projects.Add(&Project{ID: 101, Title: "Zephyr"})

	_, err := c.SaveChanges(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "insert", se.Op)
	assert.Equal(t, "Employees", se.Collection)

	assert.Equal(t, []string{"open", "begin", "insert Departments 1", "insert Employees 1", "rollback"}, g.Ops())
	assert.Len(t, g.Rows("Departments"), 2, "first collection rolled back")
	assert.Len(t, c.Pending(), 3)
	assert.Equal(t, 0, g.OpenConns())

	// The same changes succeed once the store recovers.
	res, err := c.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)
	assert.Len(t, g.Rows("Departments"), 3)
}

func TestSaveChanges_CommitFailureKeepsChangesPending(t *testing.T) {
	g := newGateway()
	m, c := openHR(t, g)
	g.FailOn("commit", "", errors.New("lost connection"))

	m.Projects.Add(&Project{ID: 101, Title: "Zephyr"})

	_, err := c.SaveChanges(context.Background())
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "commit", se.Op)
	assert.Len(t, c.Pending(), 1)
	assert.Len(t, g.Rows("projects"), 1)
	assert.Equal(t, 0, g.OpenConns())
}

type Note struct {
	Text string `db:"text"`
}

type Notebook struct {
	Notes *dbset.Set[Note]
}

func TestSaveChanges_RemoveFromKeylessCollection(t *testing.T) {
	g := testutil.NewGateway()
	g.AddTable("Notes", []string{"text"}, []any{"hello"})

	var m Notebook
	c, err := Open(context.Background(), g, &m)
	require.NoError(t, err)

	m.Notes.Add(&Note{Text: "world"})
	_, err = c.SaveChanges(context.Background())
	require.NoError(t, err, "keyless records can be inserted")

	note := m.Notes.Items()[0]
	m.Notes.Remove(note)
	g.ResetOps()

	_, err = c.SaveChanges(context.Background())
	assert.True(t, schema.IsSchemaError(err))
	assert.Contains(t, g.Ops(), "rollback")
}

func TestSaveChanges_LogsToken(t *testing.T) {
	var buf bytes.Buffer
	g := newGateway()
	m, c := openHR(t, g, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	m.Projects.Add(&Project{ID: 101, Title: "Zephyr"})
	_, err := c.SaveChanges(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "changes saved")
	assert.Contains(t, buf.String(), "save=save-1")
}
