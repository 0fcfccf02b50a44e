package zjoin

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/table"
)

// PlanTable renders the planned joins as a text table.
func (p *JoinPlan) PlanTable() string {
	w := table.NewWriter()
	w.AppendHeader(table.Row{"#", "Path", "Kind", "Join", "Table", "On", "As Where"})
	for i, j := range p.joins {
		kind := ""
		if spec, ok := p.specs[j.Path]; ok {
			kind = spec.Kind.String()
		}
		w.AppendRow(table.Row{i + 1, j.Path, kind, j.Type.keyword(), j.target(), j.Condition(), j.Where})
	}
	return w.Render()
}

// PrintPlan prints the root table, the planned joins and the aliased
// relation columns.
func (m *Model[T]) PrintPlan() {
	fmt.Printf("Table: %s (%s)\n", m.modelInfo.TableName, m.getDialect().Name)
	if m.plan.Empty() {
		fmt.Println("no relations joined")
		return
	}
	fmt.Println(m.plan.PlanTable())
	if len(m.plan.selects) > 0 {
		fmt.Printf("Selected: %s\n", strings.Join(m.plan.selects, ", "))
	}
	if len(m.skipped) > 0 {
		fmt.Printf("Skipped (cross-source): %s\n", strings.Join(m.skipped, ", "))
	}
	fmt.Println("")
}
