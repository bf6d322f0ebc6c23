package tables

import (
	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
)

// xrefsTable: RO cache shape, dual-direction pushdown on from_ea/to_ea
// (spec §4.B pushdown table "xrefs | to_ea / from_ea | = | Use
// xrefs_to/xrefs_from primitives"). Without either constraint the
// table still materializes the full edge set, subject to policy
// (spec §4.C "without a pushdown this table MAY still materialize").
// Duplicate (from_ea,to_ea,type) rows are preserved, not deduplicated
// (spec §9 open question; see DESIGN.md).
func (r *Registry) xrefsTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "from_ea", SQLType: "INTEGER", Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}},
		{Name: "to_ea", SQLType: "INTEGER", Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}},
		{Name: "type", SQLType: "TEXT"},
		{Name: "is_code", SQLType: "INTEGER"},
	}
	const (
		cFromEA = iota
		cToEA
	)

	return &vtab.TableSpec{
		Name:          "xrefs",
		Shape:         vtab.ShapeCache,
		Columns:       cols,
		EstimatedRows: int64(r.Adapter.Qty(workspace.KindXref)),
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			fromVal, haveFrom := args.Value(cFromEA)
			toVal, haveTo := args.Value(cToEA)
			var rows []vtab.Row
			err := r.Adapter.ForEach(workspace.KindXref, func(e any) bool {
				x := e.(workspace.Xref)
				if haveFrom && workspace.EA(fromVal.(int64)) != x.FromEA {
					return true
				}
				if haveTo && workspace.EA(toVal.(int64)) != x.ToEA {
					return true
				}
				isCode := int64(0)
				if x.IsCode {
					isCode = 1
				}
				rows = append(rows, vtab.Row{int64(x.FromEA), int64(x.ToEA), x.Type, isCode})
				return true
			})
			return rows, err
		},
	}
}
