package testutil

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/relmap/internal/store"
)

// Table is the in-memory contents of one fake table.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Gateway is an in-memory store.Gateway that records every operation.
//
// Writes are buffered per transaction and applied to Tables on commit.
// Operations are recorded as short strings, e.g. "insert employees 2".
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Gateway struct {
	mu       sync.Mutex
	tables   map[string]*Table
	ops      []string
	opens    int
	closes   int
	failures map[string]error
}

var _ store.Gateway = (*Gateway)(nil)

// NewGateway creates an empty fake gateway.
func NewGateway() *Gateway {
	return &Gateway{
		tables:   make(map[string]*Table),
		failures: make(map[string]error),
	}
}

// AddTable creates table name with the given columns and rows.
func (g *Gateway) AddTable(name string, columns []string, rows ...[]any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tables[name] = &Table{Columns: columns, Rows: rows}
}

// Rows returns a copy of the rows of table name.
func (g *Gateway) Rows(name string) [][]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tables[name]
	if !ok {
		return nil
	}
	return slices.Clone(t.Rows)
}

// FailOn makes the next op on table fail with err. op is one of
// open, columns, fetch, begin, insert, delete, commit; table is ignored
// for open, begin and commit.
func (g *Gateway) FailOn(op, table string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[failureKey(op, table)] = err
}

// Ops returns the recorded operations in order.
func (g *Gateway) Ops() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.ops)
}

// ResetOps clears the recorded operations.
func (g *Gateway) ResetOps() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ops = nil
}

// OpenConns returns the number of connections opened and not yet closed.
func (g *Gateway) OpenConns() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opens - g.closes
}

// Opens returns the number of connections ever opened.
func (g *Gateway) Opens() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opens
}

func failureKey(op, table string) string {
	switch op {
	case "open", "begin", "commit":
		return op
	}
	return op + " " + table
}

// fail records op and returns its injected failure, if any. Callers hold mu.
func (g *Gateway) fail(op, table string, record string) error {
	g.ops = append(g.ops, record)
	key := failureKey(op, table)
	if err, ok := g.failures[key]; ok {
		delete(g.failures, key)
		return err
	}
	return nil
}

func (g *Gateway) Open(ctx context.Context) (store.Conn, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail("open", "", "open"); err != nil {
		return nil, err
	}
	g.opens++
	return &conn{g: g}, nil
}

type conn struct {
	g      *Gateway
	closed bool
}

func (c *conn) Columns(ctx context.Context, table string) ([]string, error) {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	if err := c.g.fail("columns", table, "columns "+table); err != nil {
		return nil, err
	}
	t, ok := c.g.tables[table]
	if !ok {
		return nil, fmt.Errorf("columns of %s: table not found", table)
	}
	return slices.Clone(t.Columns), nil
}

func (c *conn) FetchRows(ctx context.Context, table string, columns []string, next func() []any) error {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	if err := c.g.fail("fetch", table, "fetch "+table); err != nil {
		return err
	}
	t, ok := c.g.tables[table]
	if !ok {
		return fmt.Errorf("fetch %s: table not found", table)
	}

	idx := make([]int, len(columns))
	for i, col := range columns {
		idx[i] = slices.Index(t.Columns, col)
		if idx[i] < 0 {
			return fmt.Errorf("fetch %s: no column %s", table, col)
		}
	}

	for _, row := range t.Rows {
		targets := next()
		for i, target := range targets {
			if err := scan(target, row[idx[i]]); err != nil {
				return fmt.Errorf("fetch %s: column %s: %w", table, columns[i], err)
			}
		}
	}
	return nil
}

// scan stores v into the pointer target, converting between basic types.
func scan(target, v any) error {
	dst := reflect.ValueOf(target).Elem()
	if v == nil {
		dst.SetZero()
		return nil
	}
	src := reflect.ValueOf(v)
	if !src.Type().ConvertibleTo(dst.Type()) {
		return fmt.Errorf("cannot convert %T to %s", v, dst.Type())
	}
	dst.Set(src.Convert(dst.Type()))
	return nil
}

func (c *conn) Begin(ctx context.Context) (store.Tx, error) {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	if err := c.g.fail("begin", "", "begin"); err != nil {
		return nil, err
	}
	return &tx{g: c.g}, nil
}

func (c *conn) Close() error {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	if c.closed {
		return errors.New("connection already closed")
	}
	c.closed = true
	c.g.closes++
	return nil
}

type tx struct {
	g       *Gateway
	pending []func()
	done    bool
}

func (t *tx) Insert(ctx context.Context, table string, columns []string, rows [][]any) error {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	if err := t.g.fail("insert", table, fmt.Sprintf("insert %s %d", table, len(rows))); err != nil {
		return err
	}
	tbl, ok := t.g.tables[table]
	if !ok {
		return fmt.Errorf("insert into %s: table not found", table)
	}

	for _, row := range rows {
		full := make([]any, len(tbl.Columns))
		for i, col := range columns {
			j := slices.Index(tbl.Columns, col)
			if j < 0 {
				return fmt.Errorf("insert into %s: no column %s", table, col)
			}
			full[j] = row[i]
		}
		t.pending = append(t.pending, func() { tbl.Rows = append(tbl.Rows, full) })
	}
	return nil
}

func (t *tx) Delete(ctx context.Context, table string, keyColumns []string, keys [][]any) error {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	if err := t.g.fail("delete", table, fmt.Sprintf("delete %s %d", table, len(keys))); err != nil {
		return err
	}
	tbl, ok := t.g.tables[table]
	if !ok {
		return fmt.Errorf("delete from %s: table not found", table)
	}

	idx := make([]int, len(keyColumns))
	for i, col := range keyColumns {
		idx[i] = slices.Index(tbl.Columns, col)
		if idx[i] < 0 {
			return fmt.Errorf("delete from %s: no column %s", table, col)
		}
	}

	for _, key := range keys {
		want := render(key)
		t.pending = append(t.pending, func() {
			tbl.Rows = slices.DeleteFunc(tbl.Rows, func(row []any) bool {
				got := make([]any, len(idx))
				for i, j := range idx {
					got[i] = row[j]
				}
				return render(got) == want
			})
		})
	}
	return nil
}

// render compares values loosely so int and int64 keys match.
func render(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}

func (t *tx) Commit() error {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	if t.done {
		return errors.New("transaction already finished")
	}
	if err := t.g.fail("commit", "", "commit"); err != nil {
		return err
	}
	t.done = true
	for _, apply := range t.pending {
		apply()
	}
	return nil
}

func (t *tx) Rollback() error {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	if t.done {
		return errors.New("transaction already finished")
	}
	t.g.ops = append(t.g.ops, "rollback")
	t.done = true
	t.pending = nil
	return nil
}
