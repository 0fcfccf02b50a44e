package zjoin

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SchemaProvider lists the columns of a table, in ordinal order.
type SchemaProvider interface {
	ColumnsOf(ctx context.Context, table string) ([]string, error)
}

// Queryer is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DBSchema reads column listings from the database and memoizes them per
// table for the lifetime of the value. Concurrent misses for the same table
// share a single round trip.
type DBSchema struct {
	db      Queryer
	dialect *Dialect

	mu    sync.RWMutex
	cache map[string][]string
	group singleflight.Group
}

// NewDBSchema returns a schema provider backed by db.
func NewDBSchema(db Queryer, dialect *Dialect) *DBSchema {
	return &DBSchema{
		db:      db,
		dialect: dialect,
		cache:   make(map[string][]string),
	}
}

// ColumnsOf returns the column names of table.
func (s *DBSchema) ColumnsOf(ctx context.Context, table string) ([]string, error) {
	s.mu.RLock()
	cols, ok := s.cache[table]
	s.mu.RUnlock()
	if ok {
		return cols, nil
	}

	v, err, _ := s.group.Do(table, func() (any, error) {
		// A concurrent caller may have filled the cache while we waited.
		s.mu.RLock()
		cols, ok := s.cache[table]
		s.mu.RUnlock()
		if ok {
			return cols, nil
		}

		cols, err := s.load(ctx, table)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.cache[table] = cols
		s.mu.Unlock()
		return cols, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (s *DBSchema) load(ctx context.Context, table string) ([]string, error) {
	query := s.dialect.ColumnsQuery
	rows, err := s.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, WrapQueryError("COLUMNS", query, []any{table}, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, WrapQueryError("COLUMNS", query, []any{table}, err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapQueryError("COLUMNS", query, []any{table}, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("zjoin: table %s has no columns or does not exist", table)
	}
	return cols, nil
}

// Forget drops the memoized listing of table, e.g. after a migration.
func (s *DBSchema) Forget(table string) {
	s.mu.Lock()
	delete(s.cache, table)
	s.mu.Unlock()
}

// StaticSchema is a SchemaProvider over a fixed table -> columns map.
type StaticSchema map[string][]string

// ColumnsOf returns the configured columns of table.
func (s StaticSchema) ColumnsOf(_ context.Context, table string) ([]string, error) {
	cols, ok := s[table]
	if !ok {
		return nil, fmt.Errorf("zjoin: no columns configured for table %s", table)
	}
	return cols, nil
}

// modelSchema answers from the parsed model structs. It is the fallback when
// no database is configured.
type modelSchema struct{}

func (modelSchema) ColumnsOf(_ context.Context, table string) ([]string, error) {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	for _, info := range modelCache {
		if info.TableName == table {
			return info.ColumnList, nil
		}
	}
	return nil, fmt.Errorf("zjoin: no model registered for table %s", table)
}

var (
	dbSchemas   = make(map[*sql.DB]*DBSchema)
	dbSchemasMu sync.Mutex
)

// schemaForDB returns the process-wide memoizing provider for db so that
// repeated joins across queries do not list the same table twice.
func schemaForDB(db *sql.DB, dialect *Dialect) *DBSchema {
	dbSchemasMu.Lock()
	defer dbSchemasMu.Unlock()

	if s, ok := dbSchemas[db]; ok {
		return s
	}
	s := NewDBSchema(db, dialect)
	dbSchemas[db] = s
	return s
}

// ForgetColumns drops the memoized column listing of table for db.
func ForgetColumns(db *sql.DB, table string) {
	dbSchemasMu.Lock()
	s, ok := dbSchemas[db]
	dbSchemasMu.Unlock()
	if ok {
		s.Forget(table)
	}
}
