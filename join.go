package zjoin

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// JoinType is the SQL join direction applied to every clause of a segment.
// The zero value is an inner join.
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
)

func (t JoinType) keyword() string {
	switch t {
	case JoinLeft:
		return "LEFT JOIN"
	case JoinRight:
		return "RIGHT JOIN"
	default:
		return "INNER JOIN"
	}
}

func (t JoinType) valid() bool {
	return t == "" || t == JoinInner || t == JoinLeft || t == JoinRight
}

// JoinClause is one join operation: table [AS alias] ON left op right.
type JoinClause struct {
	Path     string // relation path that emitted the clause
	Table    string
	Alias    string
	Left     string
	Operator string
	Right    string
	Type     JoinType
	Where    bool // the ON condition is repeated as a WHERE predicate
}

// Ref is the name the joined table is referenced by in the query.
func (j JoinClause) Ref() string {
	if j.Alias != "" {
		return j.Alias
	}
	return j.Table
}

func (j JoinClause) target() string {
	if j.Alias != "" {
		return j.Table + " AS " + j.Alias
	}
	return j.Table
}

// Condition renders "left op right".
func (j JoinClause) Condition() string {
	return fmt.Sprintf("%s %s %s", j.Left, j.Operator, j.Right)
}

func (j JoinClause) String() string {
	return fmt.Sprintf("%s %s ON %s", j.Type.keyword(), j.target(), j.Condition())
}

// apply adds the clause to a squirrel select.
func (j JoinClause) apply(b sq.SelectBuilder) sq.SelectBuilder {
	rest := j.target() + " ON " + j.Condition()
	switch j.Type {
	case JoinLeft:
		return b.LeftJoin(rest)
	case JoinRight:
		return b.RightJoin(rest)
	default:
		return b.Join(rest)
	}
}

// splitPath splits a dotted relation path. An empty path yields no segments.
func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	segments := strings.Split(path, ".")
	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return segments, nil
}
