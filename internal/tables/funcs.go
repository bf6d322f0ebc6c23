package tables

import (
	"context"

	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// funcsTable: index shape (spec §4.C "funcs: index shape"). The
// prototype classification columns (return_is_ptr, return_is_integral,
// return_is_void) are always NULL: workspace.Function carries no link
// to a prototype type to classify.
func (r *Registry) funcsTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "ea", SQLType: "INTEGER"},
		{Name: "name", SQLType: "TEXT", Writable: true},
		{Name: "size", SQLType: "INTEGER"},
		{Name: "end_ea", SQLType: "INTEGER"},
		{Name: "flags", SQLType: "INTEGER", Writable: true},
		{Name: "return_type", SQLType: "TEXT"},
		{Name: "arg_count", SQLType: "INTEGER"},
		{Name: "calling_conv", SQLType: "TEXT"},
		{Name: "return_is_ptr", SQLType: "INTEGER"},
		{Name: "return_is_integral", SQLType: "INTEGER"},
		{Name: "return_is_void", SQLType: "INTEGER"},
	}
	const (
		cEA = iota
		cName
		cSize
		cEndEA
		cFlags
		cReturnType
		cArgCount
		cCallingConv
		cReturnIsPtr
		cReturnIsIntegral
		cReturnIsVoid
	)

	toRow := func(f workspace.Function) vtab.Row {
		row := make(vtab.Row, len(cols))
		row[cEA] = int64(f.EA)
		row[cName] = f.Name
		row[cSize] = int64(f.Size)
		row[cEndEA] = int64(f.EndEA)
		row[cFlags] = int64(f.Flags)
		if f.ReturnType != nil {
			row[cReturnType] = *f.ReturnType
		}
		if f.ArgCount != nil {
			row[cArgCount] = int64(*f.ArgCount)
		}
		if f.CallingConv != nil {
			row[cCallingConv] = *f.CallingConv
		}
		// Without a bound type system the prototype-classification
		// columns stay NULL rather than guessing (spec §4.C).
		return row
	}

	return &vtab.TableSpec{
		Name:    "funcs",
		Shape:   vtab.ShapeIndex,
		Columns: cols,
		Count: func(ctx context.Context) (int, error) {
			return r.Adapter.Qty(workspace.KindFunction), nil
		},
		AtIndex: func(ctx context.Context, i int) (vtab.Row, error) {
			e, err := r.Adapter.AtIndex(workspace.KindFunction, i)
			if err != nil {
				return nil, err
			}
			f, ok := e.(workspace.Function)
			if !ok {
				return nil, errs.New("funcs.AtIndex", errs.Internal, nil)
			}
			return toRow(f), nil
		},
		RowID: func(row vtab.Row) int64 { return row[cEA].(int64) },
		Mutate: func(m vtab.Mutation) (int64, error) {
			switch m.Kind {
			case vtab.MutationInsert:
				return r.withUndo("insert", "funcs", func() (int64, error) {
					ea, ok := requireInt64(m.Values, cEA)
					if !ok {
						return 0, errs.New("funcs.insert", errs.InvalidArgument, nil)
					}
					var endEA *workspace.EA
					if v, ok := requireInt64(m.Values, cEndEA); ok {
						e := workspace.EA(v)
						endEA = &e
					}
					var name *string
					if v, ok := requireString(m.Values, cName); ok {
						name = &v
					}
					f, err := r.Adapter.CreateFunction(workspace.EA(ea), endEA, name)
					if err != nil {
						return 0, err
					}
					return int64(f.EA), nil
				})
			case vtab.MutationUpdate:
				return r.withUndo("update", "funcs", func() (int64, error) {
					ea := workspace.EA(m.OldRowID)
					if name, ok := requireString(m.Values, cName); ok {
						if err := r.Adapter.RenameFunction(ea, name); err != nil {
							return 0, err
						}
					}
					if flags, ok := requireInt64(m.Values, cFlags); ok {
						if err := r.Adapter.SetFunctionFlags(ea, uint32(flags)); err != nil {
							return 0, err
						}
					}
					return m.OldRowID, nil
				})
			case vtab.MutationDelete:
				return r.withUndo("delete", "funcs", func() (int64, error) {
					return 0, r.Adapter.DeleteFunction(workspace.EA(m.OldRowID))
				})
			default:
				return 0, errs.New("funcs.mutate", errs.Internal, nil)
			}
		},
	}
}
