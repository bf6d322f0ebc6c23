package tables

import (
	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
)

// functionsFor resolves the set of functions a disasm_* table should
// walk: just the constrained one if func_ea was given, else every
// function (no Required flag on these two tables — spec §4.B's
// mandatory-pushdown list names only instructions/blocks/the
// decompiler family/jump_entities).
func (r *Registry) functionsFor(args vtab.FilterArgs, col int) ([]workspace.Function, error) {
	if v, ok := args.Value(col); ok {
		f, err := r.Adapter.FuncContaining(workspace.EA(v.(int64)))
		if err != nil {
			return nil, err
		}
		return []workspace.Function{*f}, nil
	}
	n := r.Adapter.Qty(workspace.KindFunction)
	out := make([]workspace.Function, 0, n)
	for i := 0; i < n; i++ {
		e, err := r.Adapter.AtIndex(workspace.KindFunction, i)
		if err != nil {
			continue
		}
		out = append(out, e.(workspace.Function))
	}
	return out, nil
}

// disasmCallsTable: RO cache shape, one row per call instruction found
// while walking a function's instructions. target_ea is resolved
// best-effort from the call operand's textual rendering (see
// parseHexOperand) since the adapter doesn't expose resolved branch
// targets as structured data.
func (r *Registry) disasmCallsTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "func_ea", SQLType: "INTEGER", Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}},
		{Name: "ea", SQLType: "INTEGER"},
		{Name: "target_ea", SQLType: "INTEGER"},
		{Name: "target_text", SQLType: "TEXT"},
	}
	const cFuncEA = 0

	return &vtab.TableSpec{
		Name:    "disasm_calls",
		Shape:   vtab.ShapeCache,
		Columns: cols,
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			funcs, err := r.functionsFor(args, cFuncEA)
			if err != nil {
				return nil, err
			}
			var rows []vtab.Row
			for _, f := range funcs {
				for _, in := range walkFunctionInstructions(r.Adapter, &f) {
					if !isCallMnemonic(in.Mnemonic) || len(in.Operands) == 0 {
						continue
					}
					row := vtab.Row{int64(f.EA), int64(in.EA), nil, in.Operands[0]}
					if target, ok := parseHexOperand(in.Operands[0]); ok {
						row[2] = int64(target)
					}
					rows = append(rows, row)
				}
			}
			return rows, nil
		},
	}
}

// disasmLoopsTable: RO cache shape. A loop is reported for every
// branch instruction whose resolved target lies at or before its own
// address within the same function — the standard assembly-level
// back-edge heuristic used in the absence of a full control-flow
// graph with edge data (see blocksTable, which only exposes block
// extents, not successor edges).
func (r *Registry) disasmLoopsTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "func_ea", SQLType: "INTEGER", Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}},
		{Name: "start_ea", SQLType: "INTEGER"},
		{Name: "end_ea", SQLType: "INTEGER"},
	}
	const cFuncEA = 0

	return &vtab.TableSpec{
		Name:    "disasm_loops",
		Shape:   vtab.ShapeCache,
		Columns: cols,
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			funcs, err := r.functionsFor(args, cFuncEA)
			if err != nil {
				return nil, err
			}
			var rows []vtab.Row
			for _, f := range funcs {
				for _, in := range walkFunctionInstructions(r.Adapter, &f) {
					if !isBranchMnemonic(in.Mnemonic) || isCallMnemonic(in.Mnemonic) || len(in.Operands) == 0 {
						continue
					}
					target, ok := parseHexOperand(in.Operands[0])
					if !ok || target > in.EA || target < f.EA || target >= f.EndEA {
						continue
					}
					rows = append(rows, vtab.Row{int64(f.EA), int64(target), int64(in.EA)})
				}
			}
			return rows, nil
		},
	}
}
