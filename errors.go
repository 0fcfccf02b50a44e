package zjoin

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases
var (
	// ErrRelationNotFound is returned when a relation method is not found on a model
	ErrRelationNotFound = errors.New("zjoin: relation not found")

	// ErrInvalidRelation is returned when a relation method returns something that is not a Relation
	ErrInvalidRelation = errors.New("zjoin: invalid relation type")

	// ErrInvalidConfig is returned when relation config is invalid
	ErrInvalidConfig = errors.New("zjoin: invalid relation config")

	// ErrUnauthorized is returned when the authorizer rejects a relation segment
	ErrUnauthorized = errors.New("zjoin: relation join not authorized")

	// ErrInvalidPath is returned for malformed dotted relation paths such as "a..b"
	ErrInvalidPath = errors.New("zjoin: invalid relation path")

	// ErrNoDB is returned when a query is executed without a database connection
	ErrNoDB = errors.New("zjoin: no database connection")

	// ErrRecordNotFound is returned when a query returns no results
	ErrRecordNotFound = errors.New("zjoin: record not found")
)

// QueryError wraps database errors with query context for better debugging
type QueryError struct {
	Query     string // The SQL query that failed
	Args      []any  // The query arguments
	Operation string // Operation type: SELECT, SCAN, COLUMNS
	Err       error  // The underlying error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("zjoin: %s failed: %v\nQuery: %s\nArgs: %s",
		e.Operation, e.Err, e.Query, formatArgs(e.Args))
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// RelationError wraps relation resolution failures with context
type RelationError struct {
	Relation  string // Name of the relation
	ModelType string // Type of the model
	Err       error  // The underlying error
}

func (e *RelationError) Error() string {
	return fmt.Sprintf("zjoin: relation '%s' error on model %s: %v",
		e.Relation, e.ModelType, e.Err)
}

func (e *RelationError) Unwrap() error {
	return e.Err
}

// AuthorizationError is returned when the authorizer rejects one segment of
// a relation path. Path is the dotted prefix up to and including the
// rejected segment.
type AuthorizationError struct {
	Path     string
	Model    string
	Relation string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("zjoin: you're not authorized to join relation '%s' (%s.%s)",
		e.Path, e.Model, e.Relation)
}

func (e *AuthorizationError) Unwrap() error {
	return ErrUnauthorized
}

// WrapQueryError wraps a database error with query context
func WrapQueryError(operation, query string, args []any, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}

	return &QueryError{
		Query:     query,
		Args:      args,
		Operation: operation,
		Err:       err,
	}
}

// WrapRelationError wraps a relation error with context
func WrapRelationError(relation, modelType string, err error) error {
	if err == nil {
		return nil
	}
	return &RelationError{
		Relation:  relation,
		ModelType: modelType,
		Err:       err,
	}
}

// IsRelationNotFound reports whether err is caused by a missing relation.
func IsRelationNotFound(err error) bool {
	return errors.Is(err, ErrRelationNotFound)
}

// IsUnauthorized reports whether err is caused by the authorizer rejecting a join.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNotFound checks if the error is ErrRecordNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) || errors.Is(err, sql.ErrNoRows)
}

// formatArgs formats query arguments for error messages
func formatArgs(args []any) string {
	if len(args) == 0 {
		return "[]"
	}

	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprintf("%v", arg)
	}

	// Limit output length
	result := "[" + strings.Join(parts, ", ") + "]"
	if len(result) > 200 {
		return result[:197] + "...]"
	}
	return result
}
