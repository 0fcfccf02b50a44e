package zjoin

import (
	"maps"
	"slices"
)

// JoinPlan is the join state accumulated by one query builder. Every dotted
// path prefix is planned at most once.
type JoinPlan struct {
	segments    map[string][]string      // path -> relation names composing it
	specs       map[string]*RelationSpec // path -> resolved spec of its last segment
	pathToTable map[string]string        // path -> table or alias of its related model
	order       []string                 // paths in planning order

	joins   []JoinClause
	wheres  []string // "as where" predicates
	selects []string // aliased relation columns
	aliased map[string]bool
	tables  map[string]bool // table names and aliases already in FROM/JOIN
}

func newJoinPlan(rootTable string) *JoinPlan {
	return &JoinPlan{
		segments:    make(map[string][]string),
		specs:       make(map[string]*RelationSpec),
		pathToTable: make(map[string]string),
		aliased:     make(map[string]bool),
		tables:      map[string]bool{rootTable: true},
	}
}

// clone returns a deep copy used to roll a call back.
func (p *JoinPlan) clone() *JoinPlan {
	c := &JoinPlan{
		segments:    make(map[string][]string, len(p.segments)),
		specs:       maps.Clone(p.specs),
		pathToTable: maps.Clone(p.pathToTable),
		order:       slices.Clone(p.order),
		joins:       slices.Clone(p.joins),
		wheres:      slices.Clone(p.wheres),
		selects:     slices.Clone(p.selects),
		aliased:     maps.Clone(p.aliased),
		tables:      maps.Clone(p.tables),
	}
	for k, v := range p.segments {
		c.segments[k] = slices.Clone(v)
	}
	return c
}

// Planned reports whether path has been joined.
func (p *JoinPlan) Planned(path string) bool {
	_, ok := p.segments[path]
	return ok
}

// Paths returns the planned paths in the order they were planned.
func (p *JoinPlan) Paths() []string {
	return slices.Clone(p.order)
}

// Segments returns the relation names composing a planned path.
func (p *JoinPlan) Segments(path string) []string {
	return slices.Clone(p.segments[path])
}

// Spec returns the RelationSpec of the last segment of a planned path.
func (p *JoinPlan) Spec(path string) (*RelationSpec, bool) {
	s, ok := p.specs[path]
	return s, ok
}

// TableFor returns the table or alias holding the columns of path.
func (p *JoinPlan) TableFor(path string) (string, bool) {
	t, ok := p.pathToTable[path]
	return t, ok
}

// Joins returns the emitted join clauses in order.
func (p *JoinPlan) Joins() []JoinClause {
	return slices.Clone(p.joins)
}

// Empty reports whether nothing has been joined.
func (p *JoinPlan) Empty() bool {
	return len(p.order) == 0
}

func (p *JoinPlan) record(path string, segments []string, spec *RelationSpec, table string) {
	p.segments[path] = slices.Clone(segments)
	p.specs[path] = spec
	p.pathToTable[path] = table
	p.order = append(p.order, path)
}

// claim returns the name a table is joined under: the table itself the
// first time, the alias afterwards.
func (p *JoinPlan) claim(table, alias string) string {
	if !p.tables[table] {
		p.tables[table] = true
		return ""
	}
	p.tables[alias] = true
	return alias
}
