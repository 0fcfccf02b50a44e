package zjoin

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Dialect holds the SQL differences the join planner cares about:
// placeholders, identifier quoting and how to list a table's columns.
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	QuoteChar   string

	// ColumnsQuery lists the column names of one table, in ordinal order.
	// It takes the table name as its only argument.
	ColumnsQuery string
}

// Quote quotes an identifier, doubling any embedded quote characters.
// Column aliases such as "customer.id" must be quoted because of the dot.
func (d *Dialect) Quote(ident string) string {
	return d.QuoteChar + strings.ReplaceAll(ident, d.QuoteChar, d.QuoteChar+d.QuoteChar) + d.QuoteChar
}

var (
	// DialectSQLite is the dialect for mattn/go-sqlite3.
	DialectSQLite = &Dialect{
		Name:         "sqlite3",
		Placeholder:  sq.Question,
		QuoteChar:    `"`,
		ColumnsQuery: "SELECT name FROM pragma_table_info(?) ORDER BY cid",
	}

	// DialectPostgres is the dialect for PostgreSQL through pgx.
	DialectPostgres = &Dialect{
		Name:         "postgres",
		Placeholder:  sq.Dollar,
		QuoteChar:    `"`,
		ColumnsQuery: "SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position",
	}

	// DialectMySQL is the dialect for go-sql-driver/mysql.
	DialectMySQL = &Dialect{
		Name:         "mysql",
		Placeholder:  sq.Question,
		QuoteChar:    "`",
		ColumnsQuery: "SELECT COLUMN_NAME FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION",
	}
)

// DialectFor returns the dialect registered for a database/sql driver name.
func DialectFor(driverName string) (*Dialect, bool) {
	switch driverName {
	case "sqlite3", "sqlite":
		return DialectSQLite, true
	case "postgres", "pgx":
		return DialectPostgres, true
	case "mysql":
		return DialectMySQL, true
	default:
		return nil, false
	}
}
