package tables

import (
	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
)

// stringsTable: RO cache shape (spec §3 "String: ... RO; a side-effect
// function may rebuild the string list" — the rebuild itself lives in
// sqlfuncs.rebuild_strings, which calls Adapter.RebuildStrings).
func (r *Registry) stringsTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "ea", SQLType: "INTEGER"},
		{Name: "length", SQLType: "INTEGER"},
		{Name: "type", SQLType: "TEXT"},
		{Name: "width", SQLType: "INTEGER"},
		{Name: "layout", SQLType: "TEXT"},
		{Name: "encoding", SQLType: "TEXT"},
		{Name: "content", SQLType: "TEXT"},
	}
	return &vtab.TableSpec{
		Name:          "strings",
		Shape:         vtab.ShapeCache,
		Columns:       cols,
		EstimatedRows: int64(r.Adapter.Qty(workspace.KindString)),
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			var rows []vtab.Row
			err := r.Adapter.ForEach(workspace.KindString, func(e any) bool {
				s := e.(workspace.StringItem)
				rows = append(rows, vtab.Row{
					int64(s.EA), int64(s.Length), s.Type, int64(s.Width), s.Layout, s.Encoding, s.Content,
				})
				return true
			})
			return rows, err
		},
	}
}
