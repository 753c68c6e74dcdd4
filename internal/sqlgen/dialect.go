package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects placeholder style, identifier quoting and the catalog
// query used for column discovery.
type Dialect int

const (
	SQLite Dialect = iota
	MySQL
	Postgres
)

// ForDriver maps a database/sql driver name to its dialect.
func ForDriver(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres":
		return Postgres, nil
	default:
		return 0, fmt.Errorf("unsupported driver %q", driver)
	}
}

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case MySQL:
		return "mysql"
	case Postgres:
		return "postgres"
	default:
		return "dialect(" + strconv.Itoa(int(d)) + ")"
	}
}

// Placeholder returns the n-th (1-based) bind placeholder.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Quote quotes an identifier, doubling any embedded quote character.
func (d Dialect) Quote(ident string) string {
	q := `"`
	if d == MySQL {
		q = "`"
	}
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

func (d Dialect) quoteAll(idents []string) string {
	parts := make([]string, len(idents))
	for i, id := range idents {
		parts[i] = d.Quote(id)
	}
	return strings.Join(parts, ", ")
}
