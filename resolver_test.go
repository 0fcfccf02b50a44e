package zjoin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Shelf struct {
	ID    int
	Books []Book
}

func (Shelf) BooksRelation() Relation {
	return BelongsToMany[Book]{}
}

func (Shelf) Broken() Relation { return nil }

type Book struct {
	ID int
}

func TestResolve_Defaults(t *testing.T) {
	orders := ParseModel[Order]()
	customers := ParseModel[Customer]()

	tests := []struct {
		name       string
		parent     *ModelInfo
		relation   string
		kind       RelationKind
		localKey   string
		foreignKey string
	}{
		{"belongs to", orders, "customer", KindDirectOwned, "customer_id", "id"},
		{"belongs to with key", orders, "reviewer", KindDirectOwned, "reviewer_id", "id"},
		{"has many", orders, "items", KindDirectMany, "id", "order_id"},
		{"has one", customers, "address", KindDirectOwned, "id", "customer_id"},
		{"pivot", orders, "tags", KindPivot, "id", "id"},
		{"through", customers, "items", KindThroughMany, "id", "order_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := NewResolver().Resolve(tt.parent, tt.relation)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, spec.Kind)
			assert.Equal(t, tt.localKey, spec.LocalKey)
			assert.Equal(t, tt.foreignKey, spec.ForeignKey)
			assert.Same(t, tt.parent, spec.Parent)
		})
	}
}

func TestResolve_PivotKeys(t *testing.T) {
	spec, err := NewResolver().Resolve(ParseModel[Order](), "tags")
	require.NoError(t, err)

	assert.Equal(t, "order_tags", spec.PivotTable)
	assert.Equal(t, "order_id", spec.PivotParentKey)
	assert.Equal(t, "tag_id", spec.PivotRelatedKey)
	assert.Equal(t, "tags", spec.Related.TableName)
	assert.Equal(t, "Tags", spec.Field)
}

func TestResolve_ThroughKeys(t *testing.T) {
	spec, err := NewResolver().Resolve(ParseModel[Customer](), "items")
	require.NoError(t, err)

	require.NotNil(t, spec.Through)
	assert.Equal(t, "orders", spec.Through.TableName)
	assert.Equal(t, "customer_id", spec.FirstKey)
	assert.Equal(t, "id", spec.ThroughLocalKey)
	assert.Equal(t, "order_id", spec.SecondKey)
	assert.True(t, spec.Kind.IsCollection())
}

func TestResolve_NameVariants(t *testing.T) {
	info := ParseModel[Order]()
	for _, name := range []string{"customer", "Customer", "CustomerRelation"} {
		spec, err := NewResolver().Resolve(info, name)
		require.NoError(t, err, name)
		assert.Equal(t, "Customer", spec.Field, name)
		assert.Equal(t, name, spec.Name, name)
	}
}

func TestResolve_Memoized(t *testing.T) {
	r := NewResolver()
	info := ParseModel[Order]()

	a, err := r.Resolve(info, "items")
	require.NoError(t, err)
	b, err := r.Resolve(info, "items")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestResolve_NotFound(t *testing.T) {
	_, err := NewResolver().Resolve(ParseModel[Order](), "warehouse")
	assert.True(t, errors.Is(err, ErrRelationNotFound))

	var relErr *RelationError
	require.ErrorAs(t, err, &relErr)
	assert.Equal(t, "Order", relErr.ModelType)
}

func TestResolve_PivotWithoutTable(t *testing.T) {
	_, err := NewResolver().Resolve(ParseModel[Shelf](), "books")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestResolve_NilRelation(t *testing.T) {
	_, err := NewResolver().Resolve(ParseModel[Shelf](), "Broken")
	assert.ErrorIs(t, err, ErrInvalidRelation)
}

func TestRelationSpec_CrossSource(t *testing.T) {
	r := NewResolver()

	spec, err := r.Resolve(ParseModel[Order](), "auditLogs")
	require.NoError(t, err)
	assert.True(t, spec.CrossSource())

	spec, err = r.Resolve(ParseModel[Order](), "customer")
	require.NoError(t, err)
	assert.False(t, spec.CrossSource())
}

func TestRelationKind(t *testing.T) {
	tests := []struct {
		kind       RelationKind
		collection bool
		joins      int
	}{
		{KindDirectOwned, false, 1},
		{KindDirectMany, true, 1},
		{KindPivot, true, 2},
		{KindThroughOne, false, 2},
		{KindThroughMany, true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.collection, tt.kind.IsCollection())
			assert.Equal(t, tt.joins, tt.kind.JoinCount())
		})
	}
	assert.Equal(t, "RelationKind(42)", RelationKind(42).String())
}
