package zjoin

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
)

// ToSQL renders the select with every planned join.
func (m *Model[T]) ToSQL() (string, []any, error) {
	if m.err != nil {
		return "", nil, m.err
	}
	return m.buildSelectQuery(m.columns).ToSql()
}

func (m *Model[T]) buildSelectQuery(columns []string) sq.SelectBuilder {
	table := m.modelInfo.TableName

	cols := qualifyColumns(columns, table)
	cols = append(cols, m.plan.selects...)

	b := sq.Select(cols...).
		From(table).
		PlaceholderFormat(m.getDialect().Placeholder)

	for _, j := range m.plan.joins {
		b = j.apply(b)
	}
	for _, w := range m.plan.wheres {
		b = b.Where(w)
	}
	for _, w := range m.wheres {
		b = b.Where(w)
	}
	if len(m.orderBys) > 0 {
		b = b.OrderBy(m.orderBys...)
	}
	if m.limit > 0 {
		b = b.Limit(uint64(m.limit))
	}
	if m.offset > 0 {
		b = b.Offset(uint64(m.offset))
	}
	return b
}

// Rows executes the query and returns the flat rows keyed by column name.
// Passing columns replaces the root selection for this call only.
func (m *Model[T]) Rows(ctx context.Context, columns ...string) ([]ResultRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.queryer == nil {
		return nil, ErrNoDB
	}

	if len(columns) == 0 {
		columns = m.columns
	}
	query, args, err := m.buildSelectQuery(columns).ToSql()
	if err != nil {
		return nil, WrapQueryError("BUILD", query, args, err)
	}

	m.logger.Debug("executing join query", "table", m.modelInfo.TableName, "sql", query, "joins", len(m.plan.joins))

	rows, err := m.queryer.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, WrapQueryError("SELECT", query, args, err)
	}
	defer rows.Close()

	results, err := scanRows(rows, m.limit)
	if err != nil {
		return nil, WrapQueryError("SCAN", query, args, err)
	}
	return results, nil
}

// Materialize executes the query and folds the rows into one EntityNode
// per distinct root entity.
func (m *Model[T]) Materialize(ctx context.Context, columns ...string) ([]*EntityNode, error) {
	rows, err := m.Rows(ctx, columns...)
	if err != nil {
		return nil, err
	}
	return NewHydrator(m.modelInfo, m.plan, m.logger).Hydrate(rows), nil
}

// Get executes the query and returns the rehydrated models, joined
// relations bound to their fields.
func (m *Model[T]) Get(ctx context.Context) ([]*T, error) {
	nodes, err := m.Materialize(ctx)
	if err != nil {
		return nil, err
	}
	return Decode[T](nodes)
}

// First returns the first rehydrated model.
func (m *Model[T]) First(ctx context.Context) (*T, error) {
	q := m
	if m.plan.Empty() {
		// Clone to avoid mutating the original model's limit
		q = m.Clone()
		q.limit = 1
	}
	results, err := q.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrRecordNotFound
	}
	return results[0], nil
}

// scanRows scans sql.Rows into column -> value maps. Text reported as
// []byte is converted to string so keys compare by value.
func scanRows(rows *sql.Rows, limit int) ([]ResultRow, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	// Pre-allocate results slice based on limit or default capacity
	initialCap := limit
	if initialCap <= 0 {
		initialCap = 64
	}
	results := make([]ResultRow, 0, initialCap)

	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(ResultRow, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		results = append(results, row)
	}

	return results, rows.Err()
}
