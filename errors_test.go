package zjoin

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
)

// =============================================================================
// ERROR HELPER FUNCTION TESTS
// =============================================================================

// TestIsNotFound verifies IsNotFound helper
func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"ErrRecordNotFound", ErrRecordNotFound, true},
		{"sql.ErrNoRows", sql.ErrNoRows, true},
		{"wrapped sql.ErrNoRows", WrapQueryError("SELECT", "SELECT * FROM orders", nil, sql.ErrNoRows), true},
		{"other error", errors.New("some error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsNotFound(tt.err)
			if result != tt.expected {
				t.Errorf("IsNotFound(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestIsRelationNotFound(t *testing.T) {
	if IsRelationNotFound(nil) {
		t.Error("IsRelationNotFound(nil) should be false")
	}
	if !IsRelationNotFound(WrapRelationError("posts", "User", ErrRelationNotFound)) {
		t.Error("wrapped ErrRelationNotFound should be detected")
	}
	if IsRelationNotFound(WrapRelationError("posts", "User", ErrInvalidRelation)) {
		t.Error("ErrInvalidRelation is not a missing relation")
	}
}

// =============================================================================
// QUERYERROR TESTS
// =============================================================================

// TestQueryError_Error verifies QueryError.Error method
func TestQueryError_Error(t *testing.T) {
	qe := &QueryError{
		Err:       errors.New("no such table: orders"),
		Query:     "SELECT orders.* FROM orders",
		Args:      []any{1, "a"},
		Operation: "SELECT",
	}

	errStr := qe.Error()
	for _, want := range []string{"SELECT failed", "no such table", "Query: SELECT orders.*", "Args: [1, a]"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("QueryError.Error() = %q, missing %q", errStr, want)
		}
	}
}

// TestWrapQueryError verifies WrapQueryError function
func TestWrapQueryError(t *testing.T) {
	if WrapQueryError("SELECT", "", nil, nil) != nil {
		t.Error("WrapQueryError(nil) should return nil")
	}

	originalErr := errors.New("database error")
	wrapped := WrapQueryError("SCAN", "SELECT * FROM orders", []any{1}, originalErr)

	var qe *QueryError
	if !errors.As(wrapped, &qe) {
		t.Fatal("wrapped error should be extractable as QueryError")
	}
	if qe.Operation != "SCAN" {
		t.Errorf("Operation should be SCAN, got %q", qe.Operation)
	}
	if !errors.Is(wrapped, originalErr) {
		t.Error("wrapped error should unwrap to the original")
	}
}

func TestFormatArgs_Truncates(t *testing.T) {
	args := make([]any, 100)
	for i := range args {
		args[i] = "value"
	}
	got := formatArgs(args)
	if len(got) != 201 || !strings.HasSuffix(got, "...]") {
		t.Errorf("formatArgs should truncate long output, got %d: %q", len(got), got)
	}
	if formatArgs(nil) != "[]" {
		t.Errorf("formatArgs(nil) = %q", formatArgs(nil))
	}
}

// =============================================================================
// RELATIONERROR TESTS
// =============================================================================

// TestWrapRelationError verifies WrapRelationError function
func TestWrapRelationError(t *testing.T) {
	wrapped := WrapRelationError("Posts", "User", ErrRelationNotFound)

	var re *RelationError
	if !errors.As(wrapped, &re) {
		t.Fatal("wrapped error should be extractable as RelationError")
	}
	if re.Relation != "Posts" {
		t.Errorf("Relation should be Posts, got %q", re.Relation)
	}
	if re.ModelType != "User" {
		t.Errorf("ModelType should be User, got %q", re.ModelType)
	}
	if re.Unwrap() != ErrRelationNotFound {
		t.Errorf("Unwrap should return original error, got %v", re.Unwrap())
	}
	if WrapRelationError("Posts", "User", nil) != nil {
		t.Error("WrapRelationError(nil) should return nil")
	}
}

// =============================================================================
// AUTHORIZATIONERROR TESTS
// =============================================================================

func TestAuthorizationError(t *testing.T) {
	err := error(&AuthorizationError{Path: "customer.country", Model: "Customer", Relation: "country"})

	want := "zjoin: you're not authorized to join relation 'customer.country' (Customer.country)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsUnauthorized(err) {
		t.Error("AuthorizationError should unwrap to ErrUnauthorized")
	}
}

// =============================================================================
// SENTINEL ERROR TESTS
// =============================================================================

// TestSentinelErrors verifies all sentinel errors are defined
func TestSentinelErrors(t *testing.T) {
	sentinelErrors := []struct {
		name string
		err  error
	}{
		{"ErrRelationNotFound", ErrRelationNotFound},
		{"ErrInvalidRelation", ErrInvalidRelation},
		{"ErrInvalidConfig", ErrInvalidConfig},
		{"ErrUnauthorized", ErrUnauthorized},
		{"ErrInvalidPath", ErrInvalidPath},
		{"ErrNoDB", ErrNoDB},
		{"ErrRecordNotFound", ErrRecordNotFound},
	}

	for _, se := range sentinelErrors {
		t.Run(se.name, func(t *testing.T) {
			if se.err == nil {
				t.Fatalf("%s should not be nil", se.name)
			}
			if !strings.HasPrefix(se.err.Error(), "zjoin: ") {
				t.Errorf("%s.Error() = %q, want zjoin: prefix", se.name, se.err.Error())
			}
		})
	}
}
