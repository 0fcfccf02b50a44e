package zjoin

import (
	"context"
	"database/sql"
	"testing"

	sq "github.com/Masterminds/squirrel"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// =============================================================================
// NEW TESTS
// =============================================================================

// TestNew_CreatesModelInstance verifies New creates a properly initialized Model
func TestNew_CreatesModelInstance(t *testing.T) {
	m := New[TestModel]()

	if m == nil {
		t.Fatal("New should return a non-nil Model")
	}
	if m.ctx == nil {
		t.Error("Model should have a default context")
	}
	if m.modelInfo == nil {
		t.Error("Model should have modelInfo populated")
	}
	if m.plan == nil || !m.plan.Empty() {
		t.Error("Model should start with an empty join plan")
	}
	if m.TableName() != "test_models" {
		t.Errorf("expected table test_models, got %s", m.TableName())
	}
}

// TestNew_UsesGlobalDB verifies New picks up GlobalDB and its dialect
func TestNew_UsesGlobalDB(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	old := GlobalDB
	GlobalDB = db
	defer func() { GlobalDB = old }()

	m := New[TestModel]()
	if m.db != db {
		t.Error("New should use GlobalDB")
	}
	if m.getDialect() != DialectSQLite {
		t.Errorf("expected sqlite dialect, got %s", m.getDialect().Name)
	}
}

func TestSetDB_Nil(t *testing.T) {
	m := New[TestModel]().SetDB(nil)

	if m.queryer != nil {
		t.Error("SetDB(nil) should clear the queryer")
	}
	if _, err := m.Rows(context.Background()); err != ErrNoDB {
		t.Errorf("expected ErrNoDB, got %v", err)
	}
}

func TestWithContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), contextKey("k"), "v")
	m := New[TestModel]().WithContext(ctx)

	if m.ctx.Value(contextKey("k")) != "v" {
		t.Error("WithContext should set the context")
	}
}

// =============================================================================
// WHERE TESTS
// =============================================================================

func TestWhere_Forms(t *testing.T) {
	m := New[TestModel]().
		Where("name", "John").
		Where("user_age > ?", 18).
		Where(sq.Or{sq.Eq{"test_models.id": 1}, sq.Eq{"test_models.id": 2}})

	query, args, err := m.ToSQL()
	if err != nil {
		t.Fatalf("ToSQL failed: %v", err)
	}

	expected := "SELECT test_models.* FROM test_models WHERE test_models.name = ? AND user_age > ? AND (test_models.id = ? OR test_models.id = ?)"
	if query != expected {
		t.Errorf("expected sql %q, got %q", expected, query)
	}
	if len(args) != 4 {
		t.Errorf("expected 4 args, got %v", args)
	}
}

func TestWhere_Unsupported(t *testing.T) {
	m := New[TestModel]().Where(42)
	if m.Err() == nil {
		t.Error("Where(42) should record an error")
	}
	if _, _, err := m.ToSQL(); err == nil {
		t.Error("ToSQL should return the recorded error")
	}
}

// =============================================================================
// CLONE TESTS
// =============================================================================

// TestClone_CreatesDeepCopy verifies Clone copies the builder state
func TestClone_CreatesDeepCopy(t *testing.T) {
	original := New[TestModel]().
		Select("id", "name").
		Where("name", "John").
		OrderBy("id", "ASC").
		Limit(10)

	clone := original.Clone()
	clone.Select("user_age").Where("user_age", 30).OrderBy("name", "DESC")

	if len(original.columns) != 2 {
		t.Errorf("original columns modified: %v", original.columns)
	}
	if len(original.wheres) != 1 {
		t.Errorf("original wheres modified: %d", len(original.wheres))
	}
	if len(original.orderBys) != 1 {
		t.Errorf("original orderBys modified: %v", original.orderBys)
	}
	if clone.limit != 10 {
		t.Errorf("clone should keep limit, got %d", clone.limit)
	}
}

// TestClone_CopiesContext verifies the context travels with the clone
func TestClone_CopiesContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), contextKey("k"), "v")
	clone := New[TestModel]().WithContext(ctx).Clone()

	if clone.ctx.Value(contextKey("k")) != "v" {
		t.Error("Clone should copy the context")
	}
}
