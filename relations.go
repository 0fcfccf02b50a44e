package zjoin

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/iancoleman/strcase"
)

// RelationType defines the declared type of relationship between two models.
type RelationType string

const (
	// RelationHasOne represents a one-to-one relationship where the current
	// model owns a single related record.
	RelationHasOne RelationType = "HasOne"

	// RelationHasMany represents a one-to-many relationship where the current
	// model owns multiple related records.
	RelationHasMany RelationType = "HasMany"

	// RelationBelongsTo represents an inverse one-to-one or one-to-many
	// relationship where the current model references a parent record.
	RelationBelongsTo RelationType = "BelongsTo"

	// RelationBelongsToMany represents a many-to-many relationship between
	// two models, connected through a pivot table.
	RelationBelongsToMany RelationType = "BelongsToMany"

	// RelationHasOneThrough reaches a single distant record through an
	// intermediate model.
	RelationHasOneThrough RelationType = "HasOneThrough"

	// RelationHasManyThrough reaches many distant records through an
	// intermediate model.
	RelationHasManyThrough RelationType = "HasManyThrough"
)

// HasOne defines a HasOne relation.
// ForeignKey is the column on R pointing back at the parent, LocalKey the
// parent column it references (defaults to the parent primary key).
type HasOne[R any] struct {
	ForeignKey string
	LocalKey   string
}

// HasMany defines a HasMany relation.
type HasMany[R any] struct {
	ForeignKey string
	LocalKey   string
}

// BelongsTo defines a BelongsTo relation.
// ForeignKey is the column on the parent, OwnerKey the referenced column on R.
type BelongsTo[R any] struct {
	ForeignKey string
	OwnerKey   string
}

// BelongsToMany defines a BelongsToMany relation.
type BelongsToMany[R any] struct {
	PivotTable string
	ForeignKey string // pivot column referencing the parent
	RelatedKey string // pivot column referencing R
	LocalKey   string // parent column, defaults to the parent primary key
	RelatedPK  string // R column, defaults to the R primary key
}

// HasOneThrough defines a relation to a single R reached through M.
//
//	parent.LocalKey = M.FirstKey
//	M.SecondLocalKey = R.SecondKey
type HasOneThrough[R any, M any] struct {
	FirstKey       string
	SecondKey      string
	LocalKey       string
	SecondLocalKey string
}

// HasManyThrough defines a relation to many R reached through M.
type HasManyThrough[R any, M any] struct {
	FirstKey       string
	SecondKey      string
	LocalKey       string
	SecondLocalKey string
}

// Relation interface allows us to handle generics uniformly.
type Relation interface {
	RelationType() RelationType
	NewRelated() any
}

// ThroughRelation is implemented by relations traversing an intermediate model.
type ThroughRelation interface {
	Relation
	NewThrough() any
}

func (HasOne[R]) RelationType() RelationType { return RelationHasOne }
func (HasOne[R]) NewRelated() any            { return new(R) }

func (HasMany[R]) RelationType() RelationType { return RelationHasMany }
func (HasMany[R]) NewRelated() any            { return new(R) }

func (BelongsTo[R]) RelationType() RelationType { return RelationBelongsTo }
func (BelongsTo[R]) NewRelated() any            { return new(R) }

func (BelongsToMany[R]) RelationType() RelationType { return RelationBelongsToMany }
func (BelongsToMany[R]) NewRelated() any            { return new(R) }

func (HasOneThrough[R, M]) RelationType() RelationType { return RelationHasOneThrough }
func (HasOneThrough[R, M]) NewRelated() any            { return new(R) }
func (HasOneThrough[R, M]) NewThrough() any            { return new(M) }

func (HasManyThrough[R, M]) RelationType() RelationType { return RelationHasManyThrough }
func (HasManyThrough[R, M]) NewRelated() any            { return new(R) }
func (HasManyThrough[R, M]) NewThrough() any            { return new(M) }

// relationDescriptor is the raw relationship read off a model: the config
// value returned by the relation method plus the names it was found under.
type relationDescriptor struct {
	Name   string // segment name as requested
	Method string // relation method name
	Field  string // struct field that receives the loaded relation
	Config Relation
}

// relationshipOn looks up the relation method for name on the model and
// calls it on a zero value. "customer", "Customer" and "CustomerRelation"
// all resolve to the same method.
func relationshipOn(info *ModelInfo, name string) (*relationDescriptor, error) {
	candidates := []string{name, name + "Relation"}
	if camel := strcase.ToCamel(name); camel != name {
		candidates = append(candidates, camel, camel+"Relation")
	}

	for _, method := range candidates {
		idx, ok := info.RelationMethods[method]
		if !ok {
			continue
		}

		ptr := reflect.New(info.Type)
		retVals := ptr.Method(idx).Call(nil)
		if len(retVals) == 0 {
			return nil, WrapRelationError(name, info.Name(), ErrInvalidRelation)
		}

		rel, ok := retVals[0].Interface().(Relation)
		if !ok {
			return nil, WrapRelationError(name, info.Name(),
				fmt.Errorf("%w: method %s returned %s", ErrInvalidRelation, method, retVals[0].Type()))
		}

		return &relationDescriptor{
			Name:   name,
			Method: method,
			Field:  strings.TrimSuffix(method, "Relation"),
			Config: rel,
		}, nil
	}

	return nil, WrapRelationError(name, info.Name(), ErrRelationNotFound)
}

func relatedInfo(rel Relation) *ModelInfo {
	return ParseModelType(reflect.TypeOf(rel.NewRelated()))
}
