package zjoin

import (
	"log/slog"
	"strings"
)

// Hydrator folds the flat rows of a joined query back into a graph of
// EntityNodes, one root per distinct root key.
type Hydrator struct {
	root   *ModelInfo
	plan   *JoinPlan
	logger *slog.Logger
}

// NewHydrator returns a Hydrator for rows produced by a query on root
// planned with plan. A nil plan means no relation was joined.
func NewHydrator(root *ModelInfo, plan *JoinPlan, logger *slog.Logger) *Hydrator {
	if plan == nil {
		plan = newJoinPlan(root.TableName)
	}
	if logger == nil {
		logger = discardLogger
	}
	return &Hydrator{root: root, plan: plan, logger: logger}
}

// Hydrate returns the root entities in the order their key was first seen.
func (h *Hydrator) Hydrate(rows []ResultRow) []*EntityNode {
	if h.plan.Empty() {
		out := make([]*EntityNode, 0, len(rows))
		for _, row := range rows {
			own, _ := splitRow(row)
			out = append(out, newNode(h.root, own))
		}
		return out
	}

	arena := make(map[string]*EntityNode)
	var out []*EntityNode

	for i, row := range rows {
		key, ok := keyString(row[h.root.PrimaryKey])
		if !ok {
			h.logger.Debug("skipping row without root key",
				"row", i, "table", h.root.TableName, "key", h.root.PrimaryKey)
			continue
		}

		own, nested := splitRow(row)

		root, seen := arena[key]
		if !seen {
			root = newNode(h.root, own)
			arena[key] = root
			out = append(out, root)
		}

		for _, path := range h.plan.Paths() {
			h.walk(root, path, nested)
		}
	}

	return out
}

// walk descends from root along path, creating or reusing one child per
// segment.
func (h *Hydrator) walk(root *EntityNode, path string, nested map[string]any) {
	node := root
	level := nested
	segments := h.plan.Segments(path)

	for i, name := range segments {
		spec, ok := h.plan.Spec(strings.Join(segments[:i+1], "."))
		if !ok {
			return
		}

		level, _ = level[name].(map[string]any)
		attrs, present := leaves(level)

		rv := node.attach(spec)

		if !rv.Many {
			if rv.One == nil {
				if !present {
					return
				}
				rv.One = newNode(spec.Related, attrs)
			}
			node = rv.One
			continue
		}

		if !present {
			return
		}
		child := rv.find(attrs[spec.Related.PrimaryKey])
		if child == nil {
			child = newNode(spec.Related, attrs)
			rv.Items = append(rv.Items, child)
		}
		node = child
	}
}

// splitRow separates the columns without a dot from the dotted ones, the
// latter nested by path segment.
func splitRow(row ResultRow) (map[string]any, map[string]any) {
	own := make(map[string]any, len(row))
	nested := make(map[string]any)

	for col, v := range row {
		if !strings.Contains(col, ".") {
			own[col] = v
			continue
		}
		parts := strings.Split(col, ".")
		setNested(nested, parts, v)
	}
	return own, nested
}

func setNested(m map[string]any, parts []string, v any) {
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	last := parts[len(parts)-1]
	if _, isMap := m[last].(map[string]any); isMap {
		return
	}
	m[last] = v
}

// leaves returns the scalar values of one nesting level. present is false
// when the level has no columns or every column is NULL, which is how an
// outer join reports a missing child.
func leaves(level map[string]any) (map[string]any, bool) {
	attrs := make(map[string]any, len(level))
	present := false
	for k, v := range level {
		if _, isMap := v.(map[string]any); isMap {
			continue
		}
		attrs[k] = v
		if v != nil {
			present = true
		}
	}
	return attrs, present
}
