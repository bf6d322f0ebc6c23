package tables

import (
	"context"

	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// typesTable: index shape, full CRUD (spec §3 "Type: (ordinal, name,
// size, kind). INS, RW, DEL").
func (r *Registry) typesTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "ordinal", SQLType: "INTEGER"},
		{Name: "name", SQLType: "TEXT", Writable: true},
		{Name: "size", SQLType: "INTEGER", Writable: true},
		{Name: "kind", SQLType: "TEXT", Writable: true},
	}
	const (
		cOrdinal = iota
		cName
		cSize
		cKind
	)

	kindOf := func(s string) (workspace.TypeKind, bool) {
		switch s {
		case "struct":
			return workspace.TypeStruct, true
		case "union":
			return workspace.TypeUnion, true
		case "enum":
			return workspace.TypeEnum, true
		case "typedef":
			return workspace.TypeTypedef, true
		case "func":
			return workspace.TypeFunc, true
		default:
			return 0, false
		}
	}

	return &vtab.TableSpec{
		Name:    "types",
		Shape:   vtab.ShapeIndex,
		Columns: cols,
		Count: func(ctx context.Context) (int, error) {
			return r.Adapter.Qty(workspace.KindType), nil
		},
		AtIndex: func(ctx context.Context, i int) (vtab.Row, error) {
			e, err := r.Adapter.AtIndex(workspace.KindType, i)
			if err != nil {
				return nil, err
			}
			t, ok := e.(workspace.TypeDef)
			if !ok {
				return nil, errs.New("types.AtIndex", errs.Internal, nil)
			}
			return vtab.Row{int64(t.Ordinal), t.Name, int64(t.Size), t.Kind.String()}, nil
		},
		RowID: func(row vtab.Row) int64 { return row[cOrdinal].(int64) },
		Mutate: func(m vtab.Mutation) (int64, error) {
			switch m.Kind {
			case vtab.MutationInsert:
				return r.withUndo("insert", "types", func() (int64, error) {
					ordinal, ok := requireInt64(m.Values, cOrdinal)
					if !ok {
						return 0, errs.New("types.insert", errs.InvalidArgument, nil)
					}
					name, _ := requireString(m.Values, cName)
					size, _ := requireInt64(m.Values, cSize)
					kindStr, _ := requireString(m.Values, cKind)
					kind, ok := kindOf(kindStr)
					if !ok {
						return 0, errs.Newf("types.insert", errs.InvalidArgument, "bad kind: %q", kindStr)
					}
					t, err := r.Adapter.CreateType(workspace.TypeDef{Ordinal: int(ordinal), Name: name, Size: uint64(size), Kind: kind})
					if err != nil {
						return 0, err
					}
					return int64(t.Ordinal), nil
				})
			case vtab.MutationUpdate:
				return r.withUndo("update", "types", func() (int64, error) {
					t := workspace.TypeDef{Ordinal: int(m.OldRowID)}
					if v, ok := requireString(m.Values, cName); ok {
						t.Name = v
					}
					if v, ok := requireInt64(m.Values, cSize); ok {
						t.Size = uint64(v)
					}
					if v, ok := requireString(m.Values, cKind); ok {
						kind, ok := kindOf(v)
						if !ok {
							return 0, errs.Newf("types.update", errs.InvalidArgument, "bad kind: %q", v)
						}
						t.Kind = kind
					}
					return m.OldRowID, r.Adapter.UpdateType(t)
				})
			case vtab.MutationDelete:
				return r.withUndo("delete", "types", func() (int64, error) {
					return 0, r.Adapter.DeleteType(int(m.OldRowID))
				})
			default:
				return 0, errs.New("types.mutate", errs.Internal, nil)
			}
		},
	}
}

// typeMembersTable: cache shape, optional type_ordinal pushdown.
// Supports INSERT only: UPDATE and DELETE both fail with Unsupported.
func (r *Registry) typeMembersTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "type_ordinal", SQLType: "INTEGER", Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}},
		{Name: "member_name", SQLType: "TEXT", Writable: true},
		{Name: "offset", SQLType: "INTEGER", Writable: true},
		{Name: "size", SQLType: "INTEGER", Writable: true},
		{Name: "member_type", SQLType: "TEXT", Writable: true},
		{Name: "flags", SQLType: "INTEGER", Writable: true},
	}
	const (
		cTypeOrdinal = iota
		cMemberName
		cOffset
		cSize
		cMemberType
		cFlags
	)

	toRow := func(m workspace.TypeMember) vtab.Row {
		return vtab.Row{int64(m.TypeOrdinal), m.MemberName, int64(m.Offset), int64(m.Size), m.MemberType, int64(m.Flags)}
	}

	return &vtab.TableSpec{
		Name:    "types_members",
		Shape:   vtab.ShapeCache,
		Columns: cols,
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			var rows []vtab.Row
			if v, ok := args.Value(cTypeOrdinal); ok {
				members, err := r.Adapter.TypeMembers(int(v.(int64)))
				if err != nil {
					return nil, err
				}
				for _, m := range members {
					rows = append(rows, toRow(m))
				}
				return rows, nil
			}
			n := r.Adapter.Qty(workspace.KindType)
			for i := 0; i < n; i++ {
				e, err := r.Adapter.AtIndex(workspace.KindType, i)
				if err != nil {
					continue
				}
				t := e.(workspace.TypeDef)
				members, err := r.Adapter.TypeMembers(t.Ordinal)
				if err != nil {
					return nil, err
				}
				for _, m := range members {
					rows = append(rows, toRow(m))
				}
			}
			return rows, nil
		},
		Mutate: func(m vtab.Mutation) (int64, error) {
			switch m.Kind {
			case vtab.MutationInsert:
				return r.withUndo("insert", "types_members", func() (int64, error) {
					ord, ok := requireInt64(m.Values, cTypeOrdinal)
					name, ok2 := requireString(m.Values, cMemberName)
					if !ok || !ok2 {
						return 0, errs.New("types_members.insert", errs.InvalidArgument, nil)
					}
					off, _ := requireInt64(m.Values, cOffset)
					size, _ := requireInt64(m.Values, cSize)
					memberType, _ := requireString(m.Values, cMemberType)
					flags, _ := requireInt64(m.Values, cFlags)
					_, err := r.Adapter.CreateTypeMember(workspace.TypeMember{
						TypeOrdinal: int(ord), MemberName: name, Offset: uint64(off),
						Size: uint64(size), MemberType: memberType, Flags: uint32(flags),
					})
					return 0, err
				})
			case vtab.MutationDelete:
				return r.withUndo("delete", "types_members", func() (int64, error) {
					return 0, errs.New("types_members.delete", errs.Unsupported, nil)
				})
			default:
				return 0, errs.New("types_members.mutate", errs.Unsupported, nil)
			}
		},
	}
}

// enumValuesTable: cache shape, optional type_ordinal pushdown.
// Supports INSERT only: UPDATE and DELETE both fail with Unsupported.
func (r *Registry) enumValuesTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "type_ordinal", SQLType: "INTEGER", Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}},
		{Name: "value_name", SQLType: "TEXT", Writable: true},
		{Name: "value", SQLType: "INTEGER", Writable: true},
		{Name: "comment", SQLType: "TEXT", Writable: true},
	}
	const (
		cTypeOrdinal = iota
		cValueName
		cValue
		cComment
	)

	toRow := func(v workspace.EnumValue) vtab.Row {
		return vtab.Row{int64(v.TypeOrdinal), v.ValueName, v.Value, v.Comment}
	}

	return &vtab.TableSpec{
		Name:    "types_enum_values",
		Shape:   vtab.ShapeCache,
		Columns: cols,
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			var rows []vtab.Row
			if v, ok := args.Value(cTypeOrdinal); ok {
				values, err := r.Adapter.EnumValues(int(v.(int64)))
				if err != nil {
					return nil, err
				}
				for _, ev := range values {
					rows = append(rows, toRow(ev))
				}
				return rows, nil
			}
			n := r.Adapter.Qty(workspace.KindType)
			for i := 0; i < n; i++ {
				e, err := r.Adapter.AtIndex(workspace.KindType, i)
				if err != nil {
					continue
				}
				t := e.(workspace.TypeDef)
				values, err := r.Adapter.EnumValues(t.Ordinal)
				if err != nil {
					return nil, err
				}
				for _, ev := range values {
					rows = append(rows, toRow(ev))
				}
			}
			return rows, nil
		},
		Mutate: func(m vtab.Mutation) (int64, error) {
			switch m.Kind {
			case vtab.MutationInsert:
				return r.withUndo("insert", "types_enum_values", func() (int64, error) {
					ord, ok := requireInt64(m.Values, cTypeOrdinal)
					name, ok2 := requireString(m.Values, cValueName)
					if !ok || !ok2 {
						return 0, errs.New("types_enum_values.insert", errs.InvalidArgument, nil)
					}
					value, _ := requireInt64(m.Values, cValue)
					comment, _ := requireString(m.Values, cComment)
					_, err := r.Adapter.CreateEnumValue(workspace.EnumValue{
						TypeOrdinal: int(ord), ValueName: name, Value: value, Comment: comment,
					})
					return 0, err
				})
			case vtab.MutationDelete:
				return r.withUndo("delete", "types_enum_values", func() (int64, error) {
					return 0, errs.New("types_enum_values.delete", errs.Unsupported, nil)
				})
			default:
				return 0, errs.New("types_enum_values.mutate", errs.Unsupported, nil)
			}
		},
	}
}

// funcArgsTable: RO cache shape, optional type_ordinal pushdown (spec
// §3 "Function-arg row: ... RO").
func (r *Registry) funcArgsTable() *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "type_ordinal", SQLType: "INTEGER", Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}},
		{Name: "arg_index", SQLType: "INTEGER"},
		{Name: "arg_name", SQLType: "TEXT"},
		{Name: "arg_type", SQLType: "TEXT"},
		{Name: "calling_conv", SQLType: "TEXT"},
		{Name: "is_ptr", SQLType: "INTEGER"},
		{Name: "is_integral", SQLType: "INTEGER"},
		{Name: "is_void", SQLType: "INTEGER"},
		{Name: "resolved_is_ptr", SQLType: "INTEGER"},
		{Name: "resolved_is_integral", SQLType: "INTEGER"},
		{Name: "base_type", SQLType: "TEXT"},
		{Name: "resolved_base_type", SQLType: "TEXT"},
		{Name: "ptr_depth", SQLType: "INTEGER"},
		{Name: "resolved_ptr_depth", SQLType: "INTEGER"},
	}
	const cTypeOrdinal = 0

	toRow := func(a workspace.FuncArg) vtab.Row {
		return vtab.Row{
			int64(a.TypeOrdinal), int64(a.ArgIndex), a.ArgName, a.ArgType, a.CallingConv,
			boolToInt64(a.IsPtr), boolToInt64(a.IsIntegral), boolToInt64(a.IsVoid),
			boolToInt64(a.ResolvedIsPtr), boolToInt64(a.ResolvedIsIntegral),
			a.BaseType, a.ResolvedBaseType, int64(a.PtrDepth), int64(a.ResolvedPtrDepth),
		}
	}

	return &vtab.TableSpec{
		Name:    "types_func_args",
		Shape:   vtab.ShapeCache,
		Columns: cols,
		Scan: func(args vtab.FilterArgs) ([]vtab.Row, error) {
			var rows []vtab.Row
			if v, ok := args.Value(cTypeOrdinal); ok {
				fargs, err := r.Adapter.FuncArgs(int(v.(int64)))
				if err != nil {
					return nil, err
				}
				for _, a := range fargs {
					rows = append(rows, toRow(a))
				}
				return rows, nil
			}
			n := r.Adapter.Qty(workspace.KindType)
			for i := 0; i < n; i++ {
				e, err := r.Adapter.AtIndex(workspace.KindType, i)
				if err != nil {
					continue
				}
				t := e.(workspace.TypeDef)
				if t.Kind != workspace.TypeFunc {
					continue
				}
				fargs, err := r.Adapter.FuncArgs(t.Ordinal)
				if err != nil {
					return nil, err
				}
				for _, a := range fargs {
					rows = append(rows, toRow(a))
				}
			}
			return rows, nil
		},
	}
}
