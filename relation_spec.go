package zjoin

import (
	"fmt"
	"reflect"
	"sync"
)

// RelationKind classifies a relationship by how it is joined and how its
// rows are folded back into the object graph.
type RelationKind int

const (
	// KindDirectOwned is a single related record reached by one join
	// (BelongsTo, HasOne).
	KindDirectOwned RelationKind = iota + 1
	// KindDirectMany is a collection reached by one join (HasMany).
	KindDirectMany
	// KindPivot is a many-to-many collection joined through a pivot table.
	KindPivot
	// KindThroughOne is a single record reached through an intermediate model.
	KindThroughOne
	// KindThroughMany is a collection reached through an intermediate model.
	KindThroughMany
)

func (k RelationKind) String() string {
	switch k {
	case KindDirectOwned:
		return "DirectOwned"
	case KindDirectMany:
		return "DirectMany"
	case KindPivot:
		return "Pivot"
	case KindThroughOne:
		return "ThroughOne"
	case KindThroughMany:
		return "ThroughMany"
	default:
		return fmt.Sprintf("RelationKind(%d)", int(k))
	}
}

// IsCollection reports whether the relation materializes as an ordered
// collection rather than a single child.
func (k RelationKind) IsCollection() bool {
	switch k {
	case KindDirectMany, KindPivot, KindThroughMany:
		return true
	default:
		return false
	}
}

// JoinCount is the number of join clauses a segment of this kind emits.
func (k RelationKind) JoinCount() int {
	switch k {
	case KindPivot, KindThroughOne, KindThroughMany:
		return 2
	default:
		return 1
	}
}

// RelationSpec is the resolved metadata of one relationship segment.
//
// Key columns are stored unqualified; the planner qualifies them with the
// table or alias each side is joined under. LocalKey is a column of the
// parent, ForeignKey a column of the related model.
type RelationSpec struct {
	Name     string // segment name as requested
	Field    string // struct field receiving the relation
	Kind     RelationKind
	Declared RelationType

	Parent  *ModelInfo
	Related *ModelInfo

	LocalKey   string
	ForeignKey string

	// Pivot
	PivotTable      string
	PivotParentKey  string
	PivotRelatedKey string

	// Through: parent.LocalKey = Through.FirstKey,
	// Through.ThroughLocalKey = Related.SecondKey
	Through         *ModelInfo
	FirstKey        string
	SecondKey       string
	ThroughLocalKey string
}

// CrossSource reports whether the parent and related models live on
// different connections.
func (s *RelationSpec) CrossSource() bool {
	if s.Parent.Connection != s.Related.Connection {
		return true
	}
	return s.Through != nil && s.Through.Connection != s.Parent.Connection
}

type specKey struct {
	typ  reflect.Type
	name string
}

// Resolver turns relation declarations into RelationSpecs. Results are
// memoized per (model type, relation name) so that one query always sees
// the same spec for the same segment.
type Resolver struct {
	mu    sync.Mutex
	specs map[specKey]*RelationSpec
}

// NewResolver returns an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{specs: make(map[specKey]*RelationSpec)}
}

// Resolve returns the RelationSpec for relation name declared on parent.
func (r *Resolver) Resolve(parent *ModelInfo, name string) (*RelationSpec, error) {
	key := specKey{typ: parent.Type, name: name}

	r.mu.Lock()
	defer r.mu.Unlock()

	if spec, ok := r.specs[key]; ok {
		return spec, nil
	}

	desc, err := relationshipOn(parent, name)
	if err != nil {
		return nil, err
	}

	spec, err := buildSpec(parent, desc)
	if err != nil {
		return nil, WrapRelationError(name, parent.Name(), err)
	}

	r.specs[key] = spec
	return spec, nil
}

func buildSpec(parent *ModelInfo, desc *relationDescriptor) (*RelationSpec, error) {
	rel := desc.Config
	spec := &RelationSpec{
		Name:     desc.Name,
		Field:    desc.Field,
		Declared: rel.RelationType(),
		Parent:   parent,
		Related:  relatedInfo(rel),
	}

	switch rel.RelationType() {
	case RelationBelongsTo:
		keys := keysOf(rel)
		spec.Kind = KindDirectOwned
		spec.LocalKey = or(keys["ForeignKey"], singularKey(desc.Field))
		spec.ForeignKey = or(keys["OwnerKey"], spec.Related.PrimaryKey)

	case RelationHasOne, RelationHasMany:
		keys := keysOf(rel)
		spec.Kind = KindDirectOwned
		if rel.RelationType() == RelationHasMany {
			spec.Kind = KindDirectMany
		}
		spec.LocalKey = or(keys["LocalKey"], parent.PrimaryKey)
		spec.ForeignKey = or(keys["ForeignKey"], singularKey(parent.TableName))

	case RelationBelongsToMany:
		keys := keysOf(rel)
		if keys["PivotTable"] == "" {
			return nil, fmt.Errorf("%w: BelongsToMany requires PivotTable", ErrInvalidConfig)
		}
		spec.Kind = KindPivot
		spec.PivotTable = keys["PivotTable"]
		spec.LocalKey = or(keys["LocalKey"], parent.PrimaryKey)
		spec.ForeignKey = or(keys["RelatedPK"], spec.Related.PrimaryKey)
		spec.PivotParentKey = or(keys["ForeignKey"], singularKey(parent.TableName))
		spec.PivotRelatedKey = or(keys["RelatedKey"], singularKey(spec.Related.TableName))

	case RelationHasOneThrough, RelationHasManyThrough:
		through, ok := rel.(ThroughRelation)
		if !ok {
			return nil, fmt.Errorf("%w: %T does not declare an intermediate model", ErrInvalidConfig, rel)
		}
		keys := keysOf(rel)
		spec.Kind = KindThroughOne
		if rel.RelationType() == RelationHasManyThrough {
			spec.Kind = KindThroughMany
		}
		spec.Through = ParseModelType(reflect.TypeOf(through.NewThrough()))
		spec.LocalKey = or(keys["LocalKey"], parent.PrimaryKey)
		spec.FirstKey = or(keys["FirstKey"], singularKey(parent.TableName))
		spec.ThroughLocalKey = or(keys["SecondLocalKey"], spec.Through.PrimaryKey)
		spec.SecondKey = or(keys["SecondKey"], singularKey(spec.Through.TableName))
		spec.ForeignKey = spec.SecondKey

	default:
		return nil, fmt.Errorf("%w: unsupported relation type %s", ErrInvalidRelation, rel.RelationType())
	}

	return spec, nil
}

// keysOf reads the string fields of a relation config struct.
func keysOf(rel Relation) map[string]string {
	keys := make(map[string]string)
	val := reflect.ValueOf(rel)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		if val.Field(i).Kind() == reflect.String {
			keys[typ.Field(i).Name] = val.Field(i).String()
		}
	}
	return keys
}

func or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
