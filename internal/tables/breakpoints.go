package tables

import (
	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// breakpointsTable: full CRUD, cache shape. Defaults on INSERT are
// type=sw, enabled=1, size=0, group="" (spec §4.C "breakpoints: full
// CRUD; defaults are type=sw, enabled=1, size=0, group=\"\"").
func (r *Registry) breakpointsTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "bptid", SQLType: "INTEGER"},
		{Name: "ea", SQLType: "INTEGER", Writable: true},
		{Name: "enabled", SQLType: "INTEGER", Writable: true},
		{Name: "type", SQLType: "INTEGER", Writable: true},
		{Name: "type_name", SQLType: "TEXT"},
		{Name: "size", SQLType: "INTEGER", Writable: true},
		{Name: "flags", SQLType: "INTEGER", Writable: true},
		{Name: "pass_count", SQLType: "INTEGER", Writable: true},
		{Name: "condition", SQLType: "TEXT", Writable: true},
		{Name: "loc_type", SQLType: "TEXT", Writable: true},
		{Name: "module", SQLType: "TEXT", Writable: true},
		{Name: "symbol", SQLType: "TEXT", Writable: true},
		{Name: "offset", SQLType: "INTEGER", Writable: true},
		{Name: "source_file", SQLType: "TEXT", Writable: true},
		{Name: "source_line", SQLType: "INTEGER", Writable: true},
		{Name: "group", SQLType: "TEXT", Writable: true},
	}
	const (
		cBptID = iota
		cEA
		cEnabled
		cType
		cTypeName
		cSize
		cFlags
		cPassCount
		cCondition
		cLocType
		cModule
		cSymbol
		cOffset
		cSourceFile
		cSourceLine
		cGroup
	)

	toRow := func(b workspace.Breakpoint) vtab.Row {
		row := make(vtab.Row, len(cols))
		row[cBptID] = b.BptID
		row[cEA] = int64(b.EA)
		row[cEnabled] = boolToInt64(b.Enabled)
		row[cType] = int64(b.Type)
		row[cTypeName] = b.Type.String()
		row[cSize] = int64(b.Size)
		row[cFlags] = int64(b.Flags)
		row[cPassCount] = int64(b.PassCount)
		row[cCondition] = b.Condition
		row[cLocType] = b.LocType
		if b.Module != nil {
			row[cModule] = *b.Module
		}
		if b.Symbol != nil {
			row[cSymbol] = *b.Symbol
		}
		if b.Offset != nil {
			row[cOffset] = *b.Offset
		}
		if b.SourceFile != nil {
			row[cSourceFile] = *b.SourceFile
		}
		if b.SourceLine != nil {
			row[cSourceLine] = int64(*b.SourceLine)
		}
		row[cGroup] = b.Group
		return row
	}

	fromValues := func(existing workspace.Breakpoint, values map[int]any) (workspace.Breakpoint, error) {
		bp := existing
		if v, ok := requireInt64(values, cEA); ok {
			bp.EA = workspace.EA(v)
		}
		if v, ok := values[cEnabled]; ok {
			bp.Enabled = truthy(v)
		}
		if v, ok := requireInt64(values, cType); ok {
			t, ok := workspace.ParseBreakpointType(int(v))
			if !ok {
				return bp, errs.Newf("breakpoints.mutate", errs.InvalidArgument, "bad type: %d", v)
			}
			bp.Type = t
		}
		if v, ok := requireInt64(values, cSize); ok {
			bp.Size = int(v)
		}
		if v, ok := requireInt64(values, cFlags); ok {
			bp.Flags = uint32(v)
		}
		if v, ok := requireInt64(values, cPassCount); ok {
			bp.PassCount = int(v)
		}
		if v, ok := requireString(values, cCondition); ok {
			bp.Condition = v
		}
		if v, ok := requireString(values, cLocType); ok {
			bp.LocType = v
		}
		if v, ok := requireString(values, cModule); ok {
			bp.Module = &v
		}
		if v, ok := requireString(values, cSymbol); ok {
			bp.Symbol = &v
		}
		if v, ok := requireInt64(values, cOffset); ok {
			bp.Offset = &v
		}
		if v, ok := requireString(values, cSourceFile); ok {
			bp.SourceFile = &v
		}
		if v, ok := requireInt64(values, cSourceLine); ok {
			line := int(v)
			bp.SourceLine = &line
		}
		if v, ok := requireString(values, cGroup); ok {
			bp.Group = v
		}
		return bp, nil
	}

	return &vtab.TableSpec{
		Name:          "breakpoints",
		Shape:         vtab.ShapeCache,
		Columns:       cols,
		EstimatedRows: int64(r.Adapter.Qty(workspace.KindBreakpoint)),
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			var rows []vtab.Row
			err := r.Adapter.ForEach(workspace.KindBreakpoint, func(e any) bool {
				rows = append(rows, toRow(e.(workspace.Breakpoint)))
				return true
			})
			return rows, err
		},
		RowID: func(row vtab.Row) int64 { return row[cBptID].(int64) },
		Mutate: func(m vtab.Mutation) (int64, error) {
			switch m.Kind {
			case vtab.MutationInsert:
				return r.withUndo("insert", "breakpoints", func() (int64, error) {
					bp := workspace.Breakpoint{Enabled: true, Type: workspace.BptSoftware, Size: 0, Group: ""}
					bp, err := fromValues(bp, m.Values)
					if err != nil {
						return 0, err
					}
					created, err := r.Adapter.CreateBreakpoint(bp)
					if err != nil {
						return 0, err
					}
					return created.BptID, nil
				})
			case vtab.MutationUpdate:
				return r.withUndo("update", "breakpoints", func() (int64, error) {
					var current *workspace.Breakpoint
					r.Adapter.ForEach(workspace.KindBreakpoint, func(e any) bool {
						b := e.(workspace.Breakpoint)
						if b.BptID == m.OldRowID {
							current = &b
							return false
						}
						return true
					})
					if current == nil {
						return 0, errs.New("breakpoints.update", errs.NotFound, nil)
					}
					bp, err := fromValues(*current, m.Values)
					if err != nil {
						return 0, err
					}
					return m.OldRowID, r.Adapter.UpdateBreakpoint(bp)
				})
			case vtab.MutationDelete:
				return r.withUndo("delete", "breakpoints", func() (int64, error) {
					return 0, r.Adapter.DeleteBreakpoint(m.OldRowID)
				})
			default:
				return 0, errs.New("breakpoints.mutate", errs.Internal, nil)
			}
		},
	}
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func truthy(v any) bool {
	switch n := v.(type) {
	case int64:
		return n != 0
	case int:
		return n != 0
	case bool:
		return n
	default:
		return false
	}
}
