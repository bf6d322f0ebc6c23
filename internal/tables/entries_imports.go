package tables

import (
	"context"

	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// entriesTable: RO index shape (spec §3 "Entry: (ordinal, ea, name). RO").
func (r *Registry) entriesTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "ordinal", SQLType: "INTEGER"},
		{Name: "ea", SQLType: "INTEGER"},
		{Name: "name", SQLType: "TEXT"},
	}
	return &vtab.TableSpec{
		Name:    "entries",
		Shape:   vtab.ShapeIndex,
		Columns: cols,
		Count: func(ctx context.Context) (int, error) {
			return r.Adapter.Qty(workspace.KindEntry), nil
		},
		AtIndex: func(ctx context.Context, i int) (vtab.Row, error) {
			e, err := r.Adapter.AtIndex(workspace.KindEntry, i)
			if err != nil {
				return nil, err
			}
			entry, ok := e.(workspace.Entry)
			if !ok {
				return nil, errs.New("entries.AtIndex", errs.Internal, nil)
			}
			return vtab.Row{int64(entry.Ordinal), int64(entry.EA), entry.Name}, nil
		},
	}
}

// importsTable: RO index shape (spec §3 "Import: (ea, name, module,
// ordinal). RO").
func (r *Registry) importsTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "ea", SQLType: "INTEGER"},
		{Name: "name", SQLType: "TEXT"},
		{Name: "module", SQLType: "TEXT"},
		{Name: "ordinal", SQLType: "INTEGER"},
	}
	return &vtab.TableSpec{
		Name:    "imports",
		Shape:   vtab.ShapeIndex,
		Columns: cols,
		Count: func(ctx context.Context) (int, error) {
			return r.Adapter.Qty(workspace.KindImport), nil
		},
		AtIndex: func(ctx context.Context, i int) (vtab.Row, error) {
			e, err := r.Adapter.AtIndex(workspace.KindImport, i)
			if err != nil {
				return nil, err
			}
			im, ok := e.(workspace.Import)
			if !ok {
				return nil, errs.New("imports.AtIndex", errs.Internal, nil)
			}
			return vtab.Row{int64(im.EA), im.Name, im.Module, int64(im.Ordinal)}, nil
		},
	}
}
