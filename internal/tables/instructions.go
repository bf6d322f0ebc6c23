package tables

import (
	"strconv"

	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// instructionsTable: cache shape, func_ea pushdown is mandatory (spec
// §3 names the column func_ea; §4.B's prose pushdown table calls the
// same constraint "func_addr" — same column, informal name there).
// DELETE converts the target address to unexplored bytes rather than
// removing a row the table doesn't own the identity of.
func (r *Registry) instructionsTable() *vtab.TableSpec {
	const maxOperands = 6
	cols := []vtab.Column{
		{Name: "ea", SQLType: "INTEGER"},
		{Name: "func_ea", SQLType: "INTEGER", Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}, Required: true},
		{Name: "itype", SQLType: "INTEGER"},
		{Name: "mnemonic", SQLType: "TEXT"},
		{Name: "size", SQLType: "INTEGER"},
		{Name: "disasm", SQLType: "TEXT"},
	}
	for i := 0; i < maxOperands; i++ {
		cols = append(cols, vtab.Column{Name: "operand" + strconv.Itoa(i), SQLType: "TEXT"})
	}
	const (
		cEA = iota
		cFuncEA
		cIType
		cMnemonic
		cSize
		cDisasm
		cOperand0
	)

	return &vtab.TableSpec{
		Name:    "instructions",
		Shape:   vtab.ShapeCache,
		Columns: cols,
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			v, ok := args.Value(cFuncEA)
			if !ok {
				return nil, errs.New("instructions.scan", errs.ConstraintRequired, nil)
			}
			f, err := r.Adapter.FuncContaining(workspace.EA(v.(int64)))
			if err != nil {
				return nil, err
			}
			insns := walkFunctionInstructions(r.Adapter, f)
			rows := make([]vtab.Row, len(insns))
			for i, in := range insns {
				row := make(vtab.Row, len(cols))
				row[cEA] = int64(in.EA)
				row[cFuncEA] = int64(f.EA)
				row[cIType] = int64(in.IType)
				row[cMnemonic] = in.Mnemonic
				row[cSize] = int64(in.Size)
				disasm, err := r.Adapter.DisassembleLine(in.EA)
				if err == nil {
					row[cDisasm] = disasm
				}
				for k := 0; k < maxOperands && k < len(in.Operands); k++ {
					row[cOperand0+k] = in.Operands[k]
				}
				rows[i] = row
			}
			return rows, nil
		},
		RowID: func(row vtab.Row) int64 { return row[cEA].(int64) },
		Mutate: func(m vtab.Mutation) (int64, error) {
			if m.Kind != vtab.MutationDelete {
				return 0, errs.New("instructions.mutate", errs.Unsupported, nil)
			}
			return r.withUndo("delete", "instructions", func() (int64, error) {
				return 0, r.Adapter.DeleteInstruction(workspace.EA(m.OldRowID))
			})
		},
	}
}
