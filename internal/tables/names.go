package tables

import (
	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// namesTable: cache shape, the workspace enumerates names rather than
// indexing them (spec §3 "Name: (ea, name). INS, RW(name), DEL"; §4.B
// cache-shape rule "used when the workspace enumerates rather than
// indexes").
func (r *Registry) namesTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "ea", SQLType: "INTEGER", Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}},
		{Name: "name", SQLType: "TEXT", Writable: true},
	}
	const (
		cEA = iota
		cName
	)

	return &vtab.TableSpec{
		Name:          "names",
		Shape:         vtab.ShapeCache,
		Columns:       cols,
		EstimatedRows: int64(r.Adapter.Qty(workspace.KindName)),
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			var rows []vtab.Row
			if v, ok := args.Value(cEA); ok {
				ea := workspace.EA(v.(int64))
				if n, err := r.Adapter.NameAt(ea); err == nil {
					rows = append(rows, vtab.Row{int64(n.EA), n.Name})
				}
				return rows, nil
			}
			err := r.Adapter.ForEach(workspace.KindName, func(e any) bool {
				n := e.(workspace.Name)
				rows = append(rows, vtab.Row{int64(n.EA), n.Name})
				return true
			})
			return rows, err
		},
		RowID: func(row vtab.Row) int64 { return row[cEA].(int64) },
		Mutate: func(m vtab.Mutation) (int64, error) {
			switch m.Kind {
			case vtab.MutationInsert:
				return r.withUndo("insert", "names", func() (int64, error) {
					ea, ok := requireInt64(m.Values, cEA)
					if !ok {
						return 0, errs.New("names.insert", errs.InvalidArgument, nil)
					}
					name, _ := requireString(m.Values, cName)
					if err := r.Adapter.SetName(workspace.EA(ea), name); err != nil {
						return 0, err
					}
					return ea, nil
				})
			case vtab.MutationUpdate:
				return r.withUndo("update", "names", func() (int64, error) {
					name, ok := requireString(m.Values, cName)
					if !ok {
						return m.OldRowID, nil
					}
					return m.OldRowID, r.Adapter.SetName(workspace.EA(m.OldRowID), name)
				})
			case vtab.MutationDelete:
				return r.withUndo("delete", "names", func() (int64, error) {
					return 0, r.Adapter.DeleteName(workspace.EA(m.OldRowID))
				})
			default:
				return 0, errs.New("names.mutate", errs.Internal, nil)
			}
		},
	}
}
