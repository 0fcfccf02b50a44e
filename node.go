package zjoin

import "slices"

// ResultRow is one flat result row keyed by column name. Related columns
// are keyed by "<path>.<column>".
type ResultRow = map[string]any

// EntityNode is one rehydrated entity together with the relations that
// were joined below it.
type EntityNode struct {
	Model      *ModelInfo
	Attributes map[string]any
	Relations  map[string]*RelationValue

	order []string // relation names in first-seen order
}

// RelationValue holds a joined relation: a single child (possibly nil when
// an outer join matched nothing) or an ordered collection.
type RelationValue struct {
	Name  string
	Field string
	Kind  RelationKind
	Many  bool
	One   *EntityNode
	Items []*EntityNode
}

func newNode(model *ModelInfo, attrs map[string]any) *EntityNode {
	if attrs == nil {
		attrs = make(map[string]any)
	}
	return &EntityNode{
		Model:      model,
		Attributes: attrs,
		Relations:  make(map[string]*RelationValue),
	}
}

// Key returns the value of the node's primary key column.
func (n *EntityNode) Key() any {
	if n.Model == nil {
		return n.Attributes["id"]
	}
	return n.Attributes[n.Model.PrimaryKey]
}

// Get returns an attribute by column name.
func (n *EntityNode) Get(column string) (any, bool) {
	v, ok := n.Attributes[column]
	return v, ok
}

// One returns the single child joined under relation, or nil.
func (n *EntityNode) One(relation string) *EntityNode {
	rv, ok := n.Relations[relation]
	if !ok || rv.Many {
		return nil
	}
	return rv.One
}

// Many returns the children joined under relation in first-seen order.
func (n *EntityNode) Many(relation string) []*EntityNode {
	rv, ok := n.Relations[relation]
	if !ok || !rv.Many {
		return nil
	}
	return slices.Clone(rv.Items)
}

// RelationNames returns the names of the populated relations in the order
// they were first attached.
func (n *EntityNode) RelationNames() []string {
	return slices.Clone(n.order)
}

// Map flattens the node and its relations into nested maps. A missing
// singleton is nil and a collection is always a slice.
func (n *EntityNode) Map() map[string]any {
	if n == nil {
		return nil
	}
	out := make(map[string]any, len(n.Attributes)+len(n.Relations))
	for k, v := range n.Attributes {
		out[k] = v
	}
	for _, name := range n.order {
		rv := n.Relations[name]
		if rv.Many {
			items := make([]map[string]any, 0, len(rv.Items))
			for _, item := range rv.Items {
				items = append(items, item.Map())
			}
			out[name] = items
			continue
		}
		if rv.One == nil {
			out[name] = nil
			continue
		}
		out[name] = rv.One.Map()
	}
	return out
}

func (n *EntityNode) attach(spec *RelationSpec) *RelationValue {
	if rv, ok := n.Relations[spec.Name]; ok {
		return rv
	}
	rv := &RelationValue{
		Name:  spec.Name,
		Field: spec.Field,
		Kind:  spec.Kind,
		Many:  spec.Kind.IsCollection(),
	}
	n.Relations[spec.Name] = rv
	n.order = append(n.order, spec.Name)
	return rv
}

// find returns the collection member whose key equals key.
func (rv *RelationValue) find(key any) *EntityNode {
	for _, item := range rv.Items {
		if compareIDs(item.Key(), key) {
			return item
		}
	}
	return nil
}
