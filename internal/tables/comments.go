package tables

import (
	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// commentsTable: cache shape (spec §3 "Comment: (ea, comment,
// repeatable_comment). INS, RW(comment, repeatable_comment), DEL").
// An address may carry both a plain and a repeatable comment, so the
// rowid packs (ea, repeatable) rather than using ea alone.
func (r *Registry) commentsTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "ea", SQLType: "INTEGER"},
		{Name: "comment", SQLType: "TEXT", Writable: true},
		{Name: "repeatable_comment", SQLType: "INTEGER", Writable: true},
	}
	const (
		cEA = iota
		cComment
		cRepeatable
	)

	return &vtab.TableSpec{
		Name:          "comments",
		Shape:         vtab.ShapeCache,
		Columns:       cols,
		EstimatedRows: int64(r.Adapter.Qty(workspace.KindComment)),
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			var rows []vtab.Row
			err := r.Adapter.ForEach(workspace.KindComment, func(e any) bool {
				c := e.(workspace.Comment)
				rep := int64(0)
				if c.Repeatable {
					rep = 1
				}
				rows = append(rows, vtab.Row{int64(c.EA), c.Comment, rep})
				return true
			})
			return rows, err
		},
		RowID: func(row vtab.Row) int64 { return encodeCommentRowID(row[cEA].(int64), row[cRepeatable].(int64) == 1) },
		Mutate: func(m vtab.Mutation) (int64, error) {
			switch m.Kind {
			case vtab.MutationInsert:
				return r.withUndo("insert", "comments", func() (int64, error) {
					ea, ok := requireInt64(m.Values, cEA)
					if !ok {
						return 0, errs.New("comments.insert", errs.InvalidArgument, nil)
					}
					text, _ := requireString(m.Values, cComment)
					rep, _ := requireInt64(m.Values, cRepeatable)
					repeatable := rep == 1
					if err := r.Adapter.SetComment(workspace.EA(ea), text, repeatable); err != nil {
						return 0, err
					}
					return encodeCommentRowID(ea, repeatable), nil
				})
			case vtab.MutationUpdate:
				return r.withUndo("update", "comments", func() (int64, error) {
					ea, repeatable := decodeCommentRowID(m.OldRowID)
					text, ok := requireString(m.Values, cComment)
					if !ok {
						return m.OldRowID, nil
					}
					return m.OldRowID, r.Adapter.SetComment(workspace.EA(ea), text, repeatable)
				})
			case vtab.MutationDelete:
				return r.withUndo("delete", "comments", func() (int64, error) {
					ea, repeatable := decodeCommentRowID(m.OldRowID)
					return 0, r.Adapter.DeleteComment(workspace.EA(ea), repeatable)
				})
			default:
				return 0, errs.New("comments.mutate", errs.Internal, nil)
			}
		},
	}
}

func encodeCommentRowID(ea int64, repeatable bool) int64 {
	r := int64(0)
	if repeatable {
		r = 1
	}
	return ea<<1 | r
}

func decodeCommentRowID(rowid int64) (ea int64, repeatable bool) {
	return rowid >> 1, rowid&1 == 1
}
