package zjoin

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// GlobalDB is the database used by models that were not given one with SetDB.
var GlobalDB *sql.DB

// Model[T] builds a select over T's table and plans relationship joins on it.
//
// A Model is not safe for concurrent use; Clone it to derive independent
// queries.
type Model[T any] struct {
	ctx        context.Context
	db         *sql.DB
	queryer    Queryer
	dialect    *Dialect
	schema     SchemaProvider
	modelInfo  *ModelInfo
	logger     *slog.Logger
	authorizer Authorizer

	// Query Builder State
	columns  []string
	wheres   []sq.Sqlizer
	orderBys []string
	limit    int
	offset   int

	plan     *JoinPlan
	resolver *Resolver
	skipped  []string

	// column listing over a queryer that is not a *sql.DB, shared by clones
	listed *DBSchema

	// first error raised while building, returned by the executing methods
	err error
}

// New creates a new Model instance for type T.
func New[T any]() *Model[T] {
	info := ParseModel[T]()
	m := &Model[T]{
		ctx:       context.Background(),
		modelInfo: info,
		logger:    defaultLogger(),
		plan:      newJoinPlan(info.TableName),
		resolver:  NewResolver(),
	}
	if GlobalDB != nil {
		m.SetDB(GlobalDB)
	}
	return m
}

// WithContext sets the context used for schema lookups and execution.
func (m *Model[T]) WithContext(ctx context.Context) *Model[T] {
	m.ctx = ctx
	return m
}

// TableName returns the table name for the model.
func (m *Model[T]) TableName() string {
	return m.modelInfo.TableName
}

// Info returns the parsed metadata of T.
func (m *Model[T]) Info() *ModelInfo {
	return m.modelInfo
}

// SetDB sets the database for this model instance. The dialect is detected
// from the driver unless one was set explicitly.
func (m *Model[T]) SetDB(db *sql.DB) *Model[T] {
	m.db = db
	if db == nil {
		m.queryer = nil
		return m
	}
	m.queryer = db
	if m.dialect == nil {
		m.dialect = detectDialect(db)
	}
	return m
}

// SetQueryer runs the query on q, typically a *sql.Tx or *sql.Conn.
// Column listings made through q are memoized for the lifetime of the
// builder and its clones.
func (m *Model[T]) SetQueryer(q Queryer) *Model[T] {
	if db, ok := q.(*sql.DB); ok {
		return m.SetDB(db)
	}
	m.queryer = q
	m.listed = nil
	return m
}

// SetDialect overrides the detected dialect.
func (m *Model[T]) SetDialect(d *Dialect) *Model[T] {
	m.dialect = d
	return m
}

// SetSchema overrides where related table columns are listed from.
func (m *Model[T]) SetSchema(s SchemaProvider) *Model[T] {
	m.schema = s
	return m
}

// WithAuthorizer sets the predicate consulted before each new join segment.
func (m *Model[T]) WithAuthorizer(a Authorizer) *Model[T] {
	m.authorizer = a
	return m
}

// WithLogger sets the logger. A nil logger discards output.
func (m *Model[T]) WithLogger(l *slog.Logger) *Model[T] {
	if l == nil {
		l = discardLogger
	}
	m.logger = l
	return m
}

// Err returns the first error recorded while building the query.
func (m *Model[T]) Err() error {
	return m.err
}

func (m *Model[T]) fail(err error) *Model[T] {
	if m.err == nil {
		m.err = err
	}
	return m
}

// Select sets the root columns. Bare names are qualified with the table.
func (m *Model[T]) Select(columns ...string) *Model[T] {
	m.columns = append(m.columns, columns...)
	return m
}

// Where adds a predicate. A bare column with a single value is an equality;
// any other string is a raw expression with placeholders. sq.Sqlizer values
// such as sq.Eq or sq.Gt are used as they are.
func (m *Model[T]) Where(query any, args ...any) *Model[T] {
	switch q := query.(type) {
	case sq.Sqlizer:
		m.wheres = append(m.wheres, q)
	case string:
		if len(args) == 1 && isBareColumn(q) {
			m.wheres = append(m.wheres, sq.Eq{m.qualify(q): args[0]})
			break
		}
		m.wheres = append(m.wheres, sq.Expr(q, args...))
	default:
		return m.fail(fmt.Errorf("zjoin: unsupported where clause %T", query))
	}
	return m
}

// OrderBy adds an ORDER BY term.
func (m *Model[T]) OrderBy(column, direction string) *Model[T] {
	direction = strings.ToUpper(strings.TrimSpace(direction))
	if direction != "DESC" {
		direction = "ASC"
	}
	m.orderBys = append(m.orderBys, m.qualify(column)+" "+direction)
	return m
}

// Limit sets the maximum number of rows.
func (m *Model[T]) Limit(n int) *Model[T] {
	m.limit = n
	return m
}

// Offset sets the number of rows to skip.
func (m *Model[T]) Offset(n int) *Model[T] {
	m.offset = n
	return m
}

// Clone returns an independent copy of the query, join plan included.
func (m *Model[T]) Clone() *Model[T] {
	c := *m
	c.columns = slices.Clone(m.columns)
	c.wheres = slices.Clone(m.wheres)
	c.orderBys = slices.Clone(m.orderBys)
	c.plan = m.plan.clone()
	c.skipped = slices.Clone(m.skipped)
	return &c
}

// JoinRelationship joins every segment of the dotted relation path that has
// not been joined yet. With aliasRelated the columns of every segment are
// selected as "<path>.<column>" so that Materialize can nest them.
//
// A path reaching a model on a different connection is skipped and leaves
// the query unchanged; see SkippedPaths.
func (m *Model[T]) JoinRelationship(path string, joinType JoinType, asWhere, aliasRelated bool) *Model[T] {
	if m.err != nil {
		return m
	}
	p := m.planner()
	_, err := p.planJoin(m.ctx, joinRequest{
		Path:         path,
		Type:         joinType,
		AsWhere:      asWhere,
		AliasRelated: aliasRelated,
	}, m.authorizer)
	m.skipped = append(m.skipped, p.skipped...)
	if err != nil {
		return m.fail(err)
	}
	return m
}

// Join inner joins path and selects its columns.
func (m *Model[T]) Join(path string) *Model[T] {
	return m.JoinRelationship(path, JoinInner, false, true)
}

// JoinWhere inner joins path, repeating the join conditions in WHERE.
func (m *Model[T]) JoinWhere(path string) *Model[T] {
	return m.JoinRelationship(path, JoinInner, true, true)
}

// LeftJoin left joins path and selects its columns.
func (m *Model[T]) LeftJoin(path string) *Model[T] {
	return m.JoinRelationship(path, JoinLeft, false, true)
}

// LeftJoinWhere left joins path, repeating the join conditions in WHERE.
func (m *Model[T]) LeftJoinWhere(path string) *Model[T] {
	return m.JoinRelationship(path, JoinLeft, true, true)
}

// RightJoin right joins path and selects its columns.
func (m *Model[T]) RightJoin(path string) *Model[T] {
	return m.JoinRelationship(path, JoinRight, false, true)
}

// RightJoinWhere right joins path, repeating the join conditions in WHERE.
func (m *Model[T]) RightJoinWhere(path string) *Model[T] {
	return m.JoinRelationship(path, JoinRight, true, true)
}

// PlannedPaths returns every joined path prefix in planning order.
func (m *Model[T]) PlannedPaths() []string {
	return m.plan.Paths()
}

// TableForPath returns the table or alias the columns of path come from.
func (m *Model[T]) TableForPath(path string) (string, bool) {
	return m.plan.TableFor(path)
}

// Joins returns the join clauses planned so far.
func (m *Model[T]) Joins() []JoinClause {
	return m.plan.Joins()
}

// SkippedPaths returns the paths that were not joined because they cross
// connections.
func (m *Model[T]) SkippedPaths() []string {
	return slices.Clone(m.skipped)
}

// Plan exposes the join plan.
func (m *Model[T]) Plan() *JoinPlan {
	return m.plan
}

func (m *Model[T]) planner() *planner {
	return &planner{
		root:     m.modelInfo,
		plan:     m.plan,
		resolver: m.resolver,
		schema:   m.schemaProvider(),
		dialect:  m.getDialect(),
		logger:   m.logger,
	}
}

func (m *Model[T]) getDialect() *Dialect {
	if m.dialect != nil {
		return m.dialect
	}
	return DialectSQLite
}

func (m *Model[T]) schemaProvider() SchemaProvider {
	switch {
	case m.schema != nil:
		return m.schema
	case m.db != nil:
		return schemaForDB(m.db, m.getDialect())
	case m.queryer != nil:
		if m.listed == nil {
			m.listed = NewDBSchema(m.queryer, m.getDialect())
		}
		return m.listed
	default:
		return modelSchema{}
	}
}

func (m *Model[T]) qualify(column string) string {
	if !isBareColumn(column) {
		return column
	}
	return m.modelInfo.QualifiedColumn(column)
}

func isBareColumn(s string) bool {
	return s != "" && !strings.ContainsAny(s, ".( =<>!?")
}
