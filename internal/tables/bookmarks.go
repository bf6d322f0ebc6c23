package tables

import (
	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// bookmarksTable: cache shape with full CRUD (spec §3 "Bookmark:
// (slot, ea, description). Slot is 0..N-1. INS (slot optional ->
// auto-assign), RW(description), DEL").
func (r *Registry) bookmarksTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "slot", SQLType: "INTEGER"},
		{Name: "ea", SQLType: "INTEGER"},
		{Name: "description", SQLType: "TEXT", Writable: true},
	}
	const (
		cSlot = iota
		cEA
		cDescription
	)

	return &vtab.TableSpec{
		Name:          "bookmarks",
		Shape:         vtab.ShapeCache,
		Columns:       cols,
		EstimatedRows: int64(r.Adapter.Qty(workspace.KindBookmark)),
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			var rows []vtab.Row
			err := r.Adapter.ForEach(workspace.KindBookmark, func(e any) bool {
				b := e.(workspace.Bookmark)
				rows = append(rows, vtab.Row{int64(b.Slot), int64(b.EA), b.Description})
				return true
			})
			return rows, err
		},
		RowID: func(row vtab.Row) int64 { return row[cSlot].(int64) },
		Mutate: func(m vtab.Mutation) (int64, error) {
			switch m.Kind {
			case vtab.MutationInsert:
				return r.withUndo("insert", "bookmarks", func() (int64, error) {
					ea, ok := requireInt64(m.Values, cEA)
					if !ok {
						return 0, errs.New("bookmarks.insert", errs.InvalidArgument, nil)
					}
					desc, _ := requireString(m.Values, cDescription)
					var slot *int
					if v, ok := requireInt64(m.Values, cSlot); ok {
						s := int(v)
						slot = &s
					}
					b, err := r.Adapter.CreateBookmark(slot, workspace.EA(ea), desc)
					if err != nil {
						return 0, err
					}
					return int64(b.Slot), nil
				})
			case vtab.MutationUpdate:
				return r.withUndo("update", "bookmarks", func() (int64, error) {
					desc, ok := requireString(m.Values, cDescription)
					if !ok {
						return m.OldRowID, nil
					}
					return m.OldRowID, r.Adapter.SetBookmarkDescription(int(m.OldRowID), desc)
				})
			case vtab.MutationDelete:
				return r.withUndo("delete", "bookmarks", func() (int64, error) {
					return 0, r.Adapter.DeleteBookmark(int(m.OldRowID))
				})
			default:
				return 0, errs.New("bookmarks.mutate", errs.Internal, nil)
			}
		},
	}
}
