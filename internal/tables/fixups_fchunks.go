package tables

import (
	"context"

	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// fixupsTable: RO index shape (spec §3 "Fixup / fchunk / ...: RO metadata").
func (r *Registry) fixupsTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "ea", SQLType: "INTEGER"},
		{Name: "type", SQLType: "TEXT"},
		{Name: "target", SQLType: "INTEGER"},
	}
	return &vtab.TableSpec{
		Name:    "fixups",
		Shape:   vtab.ShapeIndex,
		Columns: cols,
		Count: func(ctx context.Context) (int, error) {
			return r.Adapter.Qty(workspace.KindFixup), nil
		},
		AtIndex: func(ctx context.Context, i int) (vtab.Row, error) {
			e, err := r.Adapter.AtIndex(workspace.KindFixup, i)
			if err != nil {
				return nil, err
			}
			fx, ok := e.(workspace.Fixup)
			if !ok {
				return nil, errs.New("fixups.AtIndex", errs.Internal, nil)
			}
			return vtab.Row{int64(fx.EA), fx.Type, int64(fx.Target)}, nil
		},
	}
}

// fchunksTable: RO index shape, one row per tail chunk of a (possibly
// chunked) function.
func (r *Registry) fchunksTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "func_ea", SQLType: "INTEGER"},
		{Name: "start_ea", SQLType: "INTEGER"},
		{Name: "end_ea", SQLType: "INTEGER"},
	}
	return &vtab.TableSpec{
		Name:    "fchunks",
		Shape:   vtab.ShapeIndex,
		Columns: cols,
		Count: func(ctx context.Context) (int, error) {
			return r.Adapter.Qty(workspace.KindFChunk), nil
		},
		AtIndex: func(ctx context.Context, i int) (vtab.Row, error) {
			e, err := r.Adapter.AtIndex(workspace.KindFChunk, i)
			if err != nil {
				return nil, err
			}
			c, ok := e.(workspace.FChunk)
			if !ok {
				return nil, errs.New("fchunks.AtIndex", errs.Internal, nil)
			}
			return vtab.Row{int64(c.FuncEA), int64(c.StartEA), int64(c.EndEA)}, nil
		},
	}
}
