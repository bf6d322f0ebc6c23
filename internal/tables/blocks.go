package tables

import (
	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// blocksTable: RO cache shape, func_ea pushdown is mandatory (spec
// §4.B pushdown table "blocks | func_ea | = | Build one function's
// basic-block graph only").
func (r *Registry) blocksTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "func_ea", SQLType: "INTEGER", Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}, Required: true},
		{Name: "start_ea", SQLType: "INTEGER"},
		{Name: "end_ea", SQLType: "INTEGER"},
		{Name: "size", SQLType: "INTEGER"},
	}
	const cFuncEA = 0

	return &vtab.TableSpec{
		Name:    "blocks",
		Shape:   vtab.ShapeCache,
		Columns: cols,
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			v, ok := args.Value(cFuncEA)
			if !ok {
				return nil, errs.New("blocks.scan", errs.ConstraintRequired, nil)
			}
			funcEA := workspace.EA(v.(int64))
			blocks, err := r.Adapter.BasicBlocks(args.Ctx, funcEA)
			if err != nil {
				return nil, err
			}
			rows := make([]vtab.Row, len(blocks))
			for i, b := range blocks {
				rows[i] = vtab.Row{int64(b.FuncEA), int64(b.StartEA), int64(b.EndEA), int64(b.Size)}
			}
			return rows, nil
		},
	}
}
