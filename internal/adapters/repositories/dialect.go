package repositories

import (
	"strconv"
	"strings"
)

// SQL flavor of the underlying *sql.DB. Queries are written with "?"
// placeholders and rebound for PostgreSQL.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// rebind rewrites "?" placeholders to "$1, $2, ..." for PostgreSQL.
// Queries in this package never contain a literal "?".
func (d Dialect) rebind(q string) string {
	if d != DialectPostgres {
		return q
	}

	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
