package tables

import (
	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// requireFuncAddr resolves the func_addr constraint shared by
// pseudocode/ctree/ctree_lvars/ctree_call_args, honoring the test-only
// AllowUnconstrainedDecompile escape hatch (spec §9 open question;
// decision recorded in DESIGN.md) by decompiling every function when
// it's set and no constraint was given.
func (r *Registry) requireFuncAddr(args vtab.FilterArgs, col int, table string) ([]*workspace.Decompiled, error) {
	// Cache off means every read re-decompiles instead of reusing the
	// host's cached result (spec §4.G); mirrors sqlfuncs.decompile's
	// force wiring for the same knob.
	force := !r.Settings.CacheEnabled()
	if v, ok := args.Value(col); ok {
		d, err := r.Adapter.Decompile(args.Ctx, workspace.EA(v.(int64)), force)
		if err != nil {
			return nil, err
		}
		return []*workspace.Decompiled{d}, nil
	}
	if !r.Settings.AllowUnconstrainedDecompile {
		return nil, errs.New(table+".scan", errs.ConstraintRequired, nil)
	}
	n := r.Adapter.Qty(workspace.KindFunction)
	var all []*workspace.Decompiled
	for i := 0; i < n; i++ {
		e, err := r.Adapter.AtIndex(workspace.KindFunction, i)
		if err != nil {
			continue
		}
		f := e.(workspace.Function)
		d, err := r.Adapter.Decompile(args.Ctx, f.EA, force)
		if err != nil {
			continue
		}
		all = append(all, d)
	}
	return all, nil
}

// pseudocodeTable: cache shape, func_addr mandatory pushdown (spec
// §4.C "pseudocode: constraint-pushdown on func_addr is mandatory").
// UPDATE rewrites the decompiler comment attached to the anchor ea.
func (r *Registry) pseudocodeTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "func_addr", SQLType: "INTEGER", Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}, Required: true},
		{Name: "line_num", SQLType: "INTEGER"},
		{Name: "line", SQLType: "TEXT"},
		{Name: "ea", SQLType: "INTEGER"},
		{Name: "comment", SQLType: "TEXT", Writable: true},
		{Name: "comment_placement", SQLType: "TEXT", Writable: true},
	}
	const (
		cFuncAddr = iota
		cLineNum
		cLine
		cEA
		cComment
		cPlacement
	)

	return &vtab.TableSpec{
		Name:    "pseudocode",
		Shape:   vtab.ShapeCache,
		Columns: cols,
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			decs, err := r.requireFuncAddr(args, cFuncAddr, "pseudocode")
			if err != nil {
				return nil, err
			}
			var rows []vtab.Row
			for _, d := range decs {
				for _, l := range d.Lines {
					row := make(vtab.Row, len(cols))
					row[cFuncAddr] = int64(l.FuncEA)
					row[cLineNum] = int64(l.LineNum)
					row[cLine] = l.Line
					if l.EA != nil {
						row[cEA] = int64(*l.EA)
					}
					if l.Comment != nil {
						row[cComment] = *l.Comment
					}
					row[cPlacement] = l.CommentPlacement.String()
					rows = append(rows, row)
				}
			}
			return rows, nil
		},
		Mutate: func(m vtab.Mutation) (int64, error) {
			if m.Kind != vtab.MutationUpdate {
				return 0, errs.New("pseudocode.mutate", errs.Unsupported, nil)
			}
			return r.withUndo("update", "pseudocode", func() (int64, error) {
				funcAddr, ok1 := requireInt64(m.Values, cFuncAddr)
				ea, ok2 := requireInt64(m.Values, cEA)
				text, _ := requireString(m.Values, cComment)
				placementStr, _ := requireString(m.Values, cPlacement)
				placement, ok := workspace.ParsePlacement(placementStr)
				if !ok {
					placement = workspace.PlacementSemi
				}
				if !ok1 || !ok2 {
					return 0, errs.New("pseudocode.update", errs.InvalidArgument, nil)
				}
				return 0, r.Adapter.SetPseudoComment(workspace.EA(funcAddr), workspace.EA(ea), text, placement)
			})
		},
	}
}

// ctreeTable: RO, one row per AST node (spec §4.C "ctree: each row is
// one AST node").
func (r *Registry) ctreeTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "func_addr", SQLType: "INTEGER", Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}, Required: true},
		{Name: "item_id", SQLType: "INTEGER"},
		{Name: "is_expr", SQLType: "INTEGER"},
		{Name: "op_name", SQLType: "TEXT"},
		{Name: "ea", SQLType: "INTEGER"},
		{Name: "parent_id", SQLType: "INTEGER"},
		{Name: "depth", SQLType: "INTEGER"},
		{Name: "x_id", SQLType: "INTEGER"},
		{Name: "y_id", SQLType: "INTEGER"},
		{Name: "z_id", SQLType: "INTEGER"},
		{Name: "var_idx", SQLType: "INTEGER"},
		{Name: "var_name", SQLType: "TEXT"},
		{Name: "obj_ea", SQLType: "INTEGER"},
		{Name: "obj_name", SQLType: "TEXT"},
		{Name: "num_value", SQLType: "INTEGER"},
		{Name: "str_value", SQLType: "TEXT"},
	}
	const cFuncAddr = 0

	return &vtab.TableSpec{
		Name:    "ctree",
		Shape:   vtab.ShapeCache,
		Columns: cols,
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			decs, err := r.requireFuncAddr(args, cFuncAddr, "ctree")
			if err != nil {
				return nil, err
			}
			var rows []vtab.Row
			for _, d := range decs {
				for _, n := range d.Ast {
					row := make(vtab.Row, len(cols))
					row[cFuncAddr] = int64(n.FuncEA)
					row[1] = int64(n.ItemID)
					row[2] = boolToInt64(n.IsExpr)
					row[3] = n.OpName
					if n.EA != nil {
						row[4] = int64(*n.EA)
					}
					row[5] = int64(n.ParentID)
					row[6] = int64(n.Depth)
					if n.XID != nil {
						row[7] = int64(*n.XID)
					}
					if n.YID != nil {
						row[8] = int64(*n.YID)
					}
					if n.ZID != nil {
						row[9] = int64(*n.ZID)
					}
					if n.VarIdx != nil {
						row[10] = int64(*n.VarIdx)
					}
					if n.VarName != nil {
						row[11] = *n.VarName
					}
					if n.ObjEA != nil {
						row[12] = int64(*n.ObjEA)
					}
					if n.ObjName != nil {
						row[13] = *n.ObjName
					}
					if n.NumValue != nil {
						row[14] = *n.NumValue
					}
					if n.StrValue != nil {
						row[15] = *n.StrValue
					}
					rows = append(rows, row)
				}
			}
			return rows, nil
		},
	}
}

// ctreeLvarsTable: writable columns name/type; a write may force
// re-decompilation on next read of the same function (spec §4.C).
func (r *Registry) ctreeLvarsTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "func_addr", SQLType: "INTEGER", Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}, Required: true},
		{Name: "idx", SQLType: "INTEGER"},
		{Name: "name", SQLType: "TEXT", Writable: true},
		{Name: "type", SQLType: "TEXT", Writable: true},
		{Name: "size", SQLType: "INTEGER"},
		{Name: "is_arg", SQLType: "INTEGER"},
		{Name: "is_stk_var", SQLType: "INTEGER"},
		{Name: "stkoff", SQLType: "INTEGER"},
	}
	const (
		cFuncAddr = iota
		cIdx
		cName
		cType
		cSize
		cIsArg
		cIsStkVar
		cStkOff
	)

	return &vtab.TableSpec{
		Name:    "ctree_lvars",
		Shape:   vtab.ShapeCache,
		Columns: cols,
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			decs, err := r.requireFuncAddr(args, cFuncAddr, "ctree_lvars")
			if err != nil {
				return nil, err
			}
			var rows []vtab.Row
			for _, d := range decs {
				for _, lv := range d.Lvars {
					rows = append(rows, vtab.Row{
						int64(lv.FuncEA), int64(lv.Idx), lv.Name, lv.Type, int64(lv.Size),
						boolToInt64(lv.IsArg), boolToInt64(lv.IsStkVar), lv.StkOff,
					})
				}
			}
			return rows, nil
		},
		Mutate: func(m vtab.Mutation) (int64, error) {
			if m.Kind != vtab.MutationUpdate {
				return 0, errs.New("ctree_lvars.mutate", errs.Unsupported, nil)
			}
			return r.withUndo("update", "ctree_lvars", func() (int64, error) {
				funcAddr, ok1 := requireInt64(m.Values, cFuncAddr)
				idx, ok2 := requireInt64(m.Values, cIdx)
				if !ok1 || !ok2 {
					return 0, errs.New("ctree_lvars.update", errs.InvalidArgument, nil)
				}
				if name, ok := requireString(m.Values, cName); ok {
					if err := r.Adapter.SetLvarName(workspace.EA(funcAddr), int(idx), name); err != nil {
						return 0, err
					}
				}
				if typ, ok := requireString(m.Values, cType); ok {
					if err := r.Adapter.SetLvarType(workspace.EA(funcAddr), int(idx), typ); err != nil {
						return 0, err
					}
				}
				return 0, nil
			})
		},
	}
}

// ctreeCallArgsTable: RO, one row per argument of one call-site in a
// function's ctree.
func (r *Registry) ctreeCallArgsTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "func_addr", SQLType: "INTEGER", Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}, Required: true},
		{Name: "call_id", SQLType: "INTEGER"},
		{Name: "arg_index", SQLType: "INTEGER"},
		{Name: "expr", SQLType: "TEXT"},
		{Name: "type", SQLType: "TEXT"},
	}
	const cFuncAddr = 0

	return &vtab.TableSpec{
		Name:    "ctree_call_args",
		Shape:   vtab.ShapeCache,
		Columns: cols,
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			decs, err := r.requireFuncAddr(args, cFuncAddr, "ctree_call_args")
			if err != nil {
				return nil, err
			}
			var rows []vtab.Row
			for _, d := range decs {
				for _, c := range d.Calls {
					rows = append(rows, vtab.Row{int64(c.FuncEA), int64(c.CallID), int64(c.ArgIndex), c.Expr, c.Type})
				}
			}
			return rows, nil
		},
	}
}
