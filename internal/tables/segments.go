package tables

import (
	"context"

	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// segmentsTable: index shape (spec §4.C "segments: index shape"). No
// INS — §3 lists RW(name, class, perm) and DEL only.
func (r *Registry) segmentsTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "start_ea", SQLType: "INTEGER"},
		{Name: "end_ea", SQLType: "INTEGER"},
		{Name: "name", SQLType: "TEXT", Writable: true},
		{Name: "class", SQLType: "TEXT", Writable: true},
		{Name: "perm", SQLType: "INTEGER", Writable: true},
	}
	const (
		cStartEA = iota
		cEndEA
		cName
		cClass
		cPerm
	)

	toRow := func(s workspace.Segment) vtab.Row {
		return vtab.Row{int64(s.StartEA), int64(s.EndEA), s.Name, s.Class, int64(s.Perm)}
	}

	return &vtab.TableSpec{
		Name:    "segments",
		Shape:   vtab.ShapeIndex,
		Columns: cols,
		Count: func(ctx context.Context) (int, error) {
			return r.Adapter.Qty(workspace.KindSegment), nil
		},
		AtIndex: func(ctx context.Context, i int) (vtab.Row, error) {
			e, err := r.Adapter.AtIndex(workspace.KindSegment, i)
			if err != nil {
				return nil, err
			}
			s, ok := e.(workspace.Segment)
			if !ok {
				return nil, errs.New("segments.AtIndex", errs.Internal, nil)
			}
			return toRow(s), nil
		},
		RowID: func(row vtab.Row) int64 { return row[cStartEA].(int64) },
		Mutate: func(m vtab.Mutation) (int64, error) {
			switch m.Kind {
			case vtab.MutationUpdate:
				return r.withUndo("update", "segments", func() (int64, error) {
					startEA := workspace.EA(m.OldRowID)
					if name, ok := requireString(m.Values, cName); ok {
						if err := r.Adapter.SetSegmentName(startEA, name); err != nil {
							return 0, err
						}
					}
					if class, ok := requireString(m.Values, cClass); ok {
						if err := r.Adapter.SetSegmentClass(startEA, class); err != nil {
							return 0, err
						}
					}
					if perm, ok := requireInt64(m.Values, cPerm); ok {
						if err := r.Adapter.SetSegmentPerm(startEA, int(perm)); err != nil {
							return 0, err
						}
					}
					return m.OldRowID, nil
				})
			case vtab.MutationDelete:
				return r.withUndo("delete", "segments", func() (int64, error) {
					return 0, r.Adapter.DeleteSegment(workspace.EA(m.OldRowID))
				})
			default:
				return 0, errs.New("segments.insert", errs.Unsupported, nil)
			}
		},
	}
}
