package zjoin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// joinRequest is one JoinRelationship call.
type joinRequest struct {
	Path         string
	Type         JoinType
	AsWhere      bool
	AliasRelated bool
}

// planner turns dotted relation paths into join clauses on a JoinPlan.
type planner struct {
	root     *ModelInfo
	plan     *JoinPlan
	resolver *Resolver
	schema   SchemaProvider
	dialect  *Dialect
	logger   *slog.Logger

	// paths skipped for crossing data sources; the plan itself keeps no trace of them
	skipped []string
}

// planJoin walks req.Path segment by segment and emits the joins of every
// segment not planned yet. It reports applied=false when the path crosses
// data sources, in which case the plan is left as it was before the call.
func (p *planner) planJoin(ctx context.Context, req joinRequest, authorize Authorizer) (applied bool, err error) {
	segments, err := splitPath(req.Path)
	if err != nil {
		return false, err
	}
	if len(segments) == 0 {
		return false, nil
	}
	if req.Type == "" {
		req.Type = JoinInner
	}
	if !req.Type.valid() {
		return false, fmt.Errorf("zjoin: unknown join type %q", req.Type)
	}

	before := p.plan.clone()

	base := p.root
	baseRef := p.root.TableName

	for i, name := range segments {
		path := strings.Join(segments[:i+1], ".")

		if p.plan.Planned(path) {
			spec, _ := p.plan.Spec(path)
			base = spec.Related
			baseRef, _ = p.plan.TableFor(path)
			continue
		}

		if !authorize.allows(ctx, base, name) {
			return false, &AuthorizationError{Path: path, Model: base.Name(), Relation: name}
		}

		spec, err := p.resolver.Resolve(base, name)
		if err != nil {
			return false, err
		}

		if spec.CrossSource() {
			*p.plan = *before
			p.skipped = append(p.skipped, req.Path)
			p.logger.Warn("skipping cross-source relation join",
				"path", req.Path,
				"relation", path,
				"parent", spec.Parent.Name(),
				"parent_connection", spec.Parent.Connection,
				"related", spec.Related.Name(),
				"related_connection", spec.Related.Connection,
			)
			return false, nil
		}

		ref := p.emit(path, spec, baseRef, req)
		p.plan.record(path, segments[:i+1], spec, ref)

		base, baseRef = spec.Related, ref
	}

	if req.AliasRelated {
		for i := range segments {
			if err := p.selectRelated(ctx, strings.Join(segments[:i+1], ".")); err != nil {
				return false, err
			}
		}
	}

	return true, nil
}

// emit appends the join clauses of one segment and returns the name the
// related table is referenced by.
func (p *planner) emit(path string, spec *RelationSpec, parentRef string, req joinRequest) string {
	alias := strings.ReplaceAll(path, ".", "__")
	relAlias := p.plan.claim(spec.Related.TableName, alias)
	relRef := or(relAlias, spec.Related.TableName)

	switch spec.Kind {
	case KindDirectOwned, KindDirectMany:
		p.add(req, JoinClause{
			Path:  path,
			Table: spec.Related.TableName,
			Alias: relAlias,
			Left:  relRef + "." + spec.ForeignKey,
			Right: parentRef + "." + spec.LocalKey,
		})

	case KindPivot:
		pivotAlias := p.plan.claim(spec.PivotTable, alias+"__pivot")
		pivotRef := or(pivotAlias, spec.PivotTable)
		p.add(req, JoinClause{
			Path:  path,
			Table: spec.PivotTable,
			Alias: pivotAlias,
			Left:  parentRef + "." + spec.LocalKey,
			Right: pivotRef + "." + spec.PivotParentKey,
		})
		p.add(req, JoinClause{
			Path:  path,
			Table: spec.Related.TableName,
			Alias: relAlias,
			Left:  relRef + "." + spec.ForeignKey,
			Right: pivotRef + "." + spec.PivotRelatedKey,
		})

	case KindThroughOne, KindThroughMany:
		throughAlias := p.plan.claim(spec.Through.TableName, alias+"__through")
		throughRef := or(throughAlias, spec.Through.TableName)
		p.add(req, JoinClause{
			Path:  path,
			Table: spec.Through.TableName,
			Alias: throughAlias,
			Left:  throughRef + "." + spec.FirstKey,
			Right: parentRef + "." + spec.LocalKey,
		})
		p.add(req, JoinClause{
			Path:  path,
			Table: spec.Related.TableName,
			Alias: relAlias,
			Left:  throughRef + "." + spec.ThroughLocalKey,
			Right: relRef + "." + spec.SecondKey,
		})
	}

	return relRef
}

func (p *planner) add(req joinRequest, j JoinClause) {
	j.Operator = "="
	j.Type = req.Type
	j.Where = req.AsWhere
	p.plan.joins = append(p.plan.joins, j)
	if j.Where {
		p.plan.wheres = append(p.plan.wheres, j.Condition())
	}
	p.logger.Debug("planned relation join", "path", j.Path, "join", j.String())
}

// selectRelated adds every column of the related table of a planned path,
// aliased as "<path>.<column>", so that rows can be folded back into nested
// models.
func (p *planner) selectRelated(ctx context.Context, path string) error {
	if p.plan.aliased[path] {
		return nil
	}
	spec, _ := p.plan.Spec(path)
	ref, _ := p.plan.TableFor(path)

	cols, err := p.schema.ColumnsOf(ctx, spec.Related.TableName)
	if err != nil {
		return err
	}

	for _, col := range cols {
		p.plan.selects = append(p.plan.selects,
			ref+"."+col+" AS "+p.dialect.Quote(path+"."+col))
	}
	p.plan.aliased[path] = true
	return nil
}

// qualifyColumns prefixes every bare column with table. Expressions and
// already qualified columns are left alone.
func qualifyColumns(columns []string, table string) []string {
	if len(columns) == 0 {
		return []string{table + ".*"}
	}

	out := make([]string, len(columns))
	for i, col := range columns {
		if strings.ContainsAny(col, ".( ") {
			out[i] = col
			continue
		}
		out[i] = table + "." + col
	}
	return out
}
