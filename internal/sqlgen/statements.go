package sqlgen

import (
	"fmt"
	"strings"
)

// Columns returns the catalog query listing a table's columns in ordinal
// order, together with its arguments.
func (d Dialect) Columns(table string) (string, []any) {
	switch d {
	case MySQL:
		return `SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		 ORDER BY ORDINAL_POSITION`, []any{table}
	case Postgres:
		return `SELECT column_name FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = $1
		 ORDER BY ordinal_position`, []any{table}
	default:
		return `SELECT name FROM pragma_table_info(?) ORDER BY cid`, []any{table}
	}
}

// Select reads the given columns of every row of table.
func (d Dialect) Select(table string, columns []string) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("select from %s: no columns", table)
	}
	return fmt.Sprintf("SELECT %s FROM %s", d.quoteAll(columns), d.Quote(table)), nil
}

// Insert inserts one row into table.
func (d Dialect) Insert(table string, columns []string) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("insert into %s: no columns", table)
	}
	params := make([]string, len(columns))
	for i := range columns {
		params[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(table),
		d.quoteAll(columns),
		strings.Join(params, ", ")), nil
}

// Delete deletes the row of table matching every key column.
func (d Dialect) Delete(table string, keyColumns []string) (string, error) {
	if len(keyColumns) == 0 {
		return "", fmt.Errorf("delete from %s: no key columns", table)
	}
	preds := make([]string, len(keyColumns))
	for i, c := range keyColumns {
		preds[i] = fmt.Sprintf("%s = %s", d.Quote(c), d.Placeholder(i+1))
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", d.Quote(table), strings.Join(preds, " AND ")), nil
}
