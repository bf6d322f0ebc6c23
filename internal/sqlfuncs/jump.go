package sqlfuncs

import (
	"strconv"
	"strings"

	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// jumpEntity is one row of the jump_entities/jump_search/jump_query
// result set (spec §4.D "jump_entities ... columns (name, kind,
// address, ordinal, parent_name, full_name)").
type jumpEntity struct {
	Name       string
	Kind       string
	Address    *int64
	Ordinal    *int
	ParentName string
	FullName   string
}

func matches(name, pattern, mode string) bool {
	if pattern == "" {
		return false
	}
	n, p := strings.ToLower(name), strings.ToLower(pattern)
	if mode == "prefix" {
		return strings.HasPrefix(n, p)
	}
	return strings.Contains(n, p)
}

// collectJumpEntities walks the deterministic union spec §4.D names:
// functions, labels, segments, structs/unions/enums, their members and
// enum values, in that declared order. max bounds how many matches it
// collects before returning early (-1 means unbounded); this is the
// "stops source iteration early" half of spec.md §1(d)'s TVF
// requirement, mirrored from search.go's searchFirst pattern of
// returning false from an iteration callback to stop walking sources
// that have already produced enough rows.
func collectJumpEntities(a workspace.Adapter, pattern, mode string, max int64) ([]jumpEntity, error) {
	var out []jumpEntity
	if pattern == "" {
		return out, nil
	}
	full := func() bool { return max >= 0 && int64(len(out)) >= max }

	funcEAs := map[workspace.EA]bool{}
	nFuncs := a.Qty(workspace.KindFunction)
	for i := 0; i < nFuncs && !full(); i++ {
		e, err := a.AtIndex(workspace.KindFunction, i)
		if err != nil {
			continue
		}
		fn := e.(workspace.Function)
		funcEAs[fn.EA] = true
		if matches(fn.Name, pattern, mode) {
			addr := int64(fn.EA)
			out = append(out, jumpEntity{Name: fn.Name, Kind: "function", Address: &addr, FullName: fn.Name})
		}
	}
	if full() {
		return out, nil
	}

	err := a.ForEach(workspace.KindName, func(e any) bool {
		nm := e.(workspace.Name)
		if funcEAs[nm.EA] {
			return true
		}
		if matches(nm.Name, pattern, mode) {
			addr := int64(nm.EA)
			out = append(out, jumpEntity{Name: nm.Name, Kind: "label", Address: &addr, FullName: nm.Name})
		}
		return !full()
	})
	if err != nil {
		return nil, err
	}
	if full() {
		return out, nil
	}

	nSegs := a.Qty(workspace.KindSegment)
	for i := 0; i < nSegs && !full(); i++ {
		e, err := a.AtIndex(workspace.KindSegment, i)
		if err != nil {
			continue
		}
		seg := e.(workspace.Segment)
		if matches(seg.Name, pattern, mode) {
			addr := int64(seg.StartEA)
			out = append(out, jumpEntity{Name: seg.Name, Kind: "segment", Address: &addr, FullName: seg.Name})
		}
	}
	if full() {
		return out, nil
	}

	nTypes := a.Qty(workspace.KindType)
	var types []workspace.TypeDef
	for i := 0; i < nTypes && !full(); i++ {
		e, err := a.AtIndex(workspace.KindType, i)
		if err != nil {
			continue
		}
		t := e.(workspace.TypeDef)
		// jump_entities' kind set is {struct, union, enum, ...}
		// (spec §4.D) — typedef/func prototypes aren't jump targets.
		if t.Kind != workspace.TypeStruct && t.Kind != workspace.TypeUnion && t.Kind != workspace.TypeEnum {
			continue
		}
		types = append(types, t)
		if matches(t.Name, pattern, mode) {
			ord := t.Ordinal
			out = append(out, jumpEntity{Name: t.Name, Kind: t.Kind.String(), Ordinal: &ord, FullName: t.Name})
		}
	}

	for _, t := range types {
		if full() {
			break
		}
		members, err := a.TypeMembers(t.Ordinal)
		if err != nil {
			continue
		}
		for _, m := range members {
			if full() {
				break
			}
			if matches(m.MemberName, pattern, mode) {
				ord := t.Ordinal
				fullName := t.Name + "." + m.MemberName
				out = append(out, jumpEntity{Name: m.MemberName, Kind: "member", Ordinal: &ord, ParentName: t.Name, FullName: fullName})
			}
		}
		if full() || t.Kind != workspace.TypeEnum {
			continue
		}
		vals, err := a.EnumValues(t.Ordinal)
		if err != nil {
			continue
		}
		for _, v := range vals {
			if full() {
				break
			}
			if matches(v.ValueName, pattern, mode) {
				ord := t.Ordinal
				fullName := t.Name + "." + v.ValueName
				out = append(out, jumpEntity{Name: v.ValueName, Kind: "enum_member", Ordinal: &ord, ParentName: t.Name, FullName: fullName})
			}
		}
	}

	return out, nil
}

func (f *Funcs) jumpSearch(pattern string, mode string, limit int64, offset int64) (string, error) {
	rows, err := f.jumpRows(pattern, mode, limit, offset)
	if err != nil {
		return "", err
	}
	return marshalJSON(rows)
}

func (f *Funcs) jumpRows(pattern, mode string, limit, offset int64) ([]jumpEntity, error) {
	all, err := collectJumpEntities(f.Adapter, pattern, mode, boundedMax(limit, offset))
	if err != nil {
		return nil, err
	}
	if offset > 0 {
		if offset >= int64(len(all)) {
			return nil, nil
		}
		all = all[offset:]
	}
	if limit >= 0 && limit < int64(len(all)) {
		all = all[:limit]
	}
	return all, nil
}

// boundedMax turns a (limit, offset) pair into the max-matches bound
// collectJumpEntities needs to stop early while still collecting
// enough rows to honor both: -1 (unbounded) only when limit itself is
// unbounded.
func boundedMax(limit, offset int64) int64 {
	if limit < 0 {
		return -1
	}
	if offset < 0 {
		offset = 0
	}
	return limit + offset
}

// jumpQuery returns the SQL text that would produce the same rows as
// jump_search with the same arguments (spec §4.D): a literal query
// against the jump_entities TVF.
func (f *Funcs) jumpQuery(pattern string, mode string, limit int64, offset int64) string {
	return "SELECT name, kind, address, ordinal, parent_name, full_name FROM jump_entities(" +
		sqlQuote(pattern) + ", " + sqlQuote(mode) + ") LIMIT " + strconv.FormatInt(limit, 10) +
		" OFFSET " + strconv.FormatInt(offset, 10)
}

func sqlQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// jumpEntitiesTable is the TVF form of jumpSearch (spec §4.D
// "jump_entities(pattern, mode) — a TVF"). pattern/mode are hidden
// constant-argument columns with mandatory EQ pushdown (spec §4.B
// pushdown table "jump_entities's pattern+mode").
func jumpEntitiesTable(a workspace.Adapter) *vtab.TableSpec {
	cols := []vtab.Column{
		{Name: "name", SQLType: "TEXT"},
		{Name: "kind", SQLType: "TEXT"},
		{Name: "address", SQLType: "INTEGER"},
		{Name: "ordinal", SQLType: "INTEGER"},
		{Name: "parent_name", SQLType: "TEXT"},
		{Name: "full_name", SQLType: "TEXT"},
		{Name: "pattern", SQLType: "TEXT", Hidden: true, Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}, Required: true},
		{Name: "mode", SQLType: "TEXT", Hidden: true, Pushdown: map[vtab.Op]bool{vtab.OpEQ: true}, Required: true},
	}
	const (
		cName = iota
		cKind
		cAddress
		cOrdinal
		cParentName
		cFullName
		cPattern
		cMode
	)

	return &vtab.TableSpec{
		Name:    "jump_entities",
		Shape:   vtab.ShapeTVF,
		Columns: cols,
		TVFIterate: func(args vtab.FilterArgs) (vtab.RowIterator, error) {
			patternVal, ok1 := args.Value(cPattern)
			modeVal, ok2 := args.Value(cMode)
			if !ok1 || !ok2 {
				return nil, errs.New("jump_entities.filter", errs.ConstraintRequired, nil)
			}
			pattern, _ := patternVal.(string)
			mode, _ := modeVal.(string)
			entities, err := collectJumpEntities(a, pattern, mode, boundedMax(args.Limit, args.Offset))
			if err != nil {
				return nil, err
			}
			if args.Offset > 0 {
				if args.Offset >= int64(len(entities)) {
					entities = nil
				} else {
					entities = entities[args.Offset:]
				}
			}
			limit := args.Limit
			if limit < 0 || limit > int64(len(entities)) {
				limit = int64(len(entities))
			}
			rows := make([]vtab.Row, 0, limit)
			for _, e := range entities {
				if int64(len(rows)) >= limit {
					break
				}
				row := make(vtab.Row, len(cols))
				row[cName] = e.Name
				row[cKind] = e.Kind
				if e.Address != nil {
					row[cAddress] = *e.Address
				}
				if e.Ordinal != nil {
					row[cOrdinal] = int64(*e.Ordinal)
				}
				row[cParentName] = e.ParentName
				row[cFullName] = e.FullName
				row[cPattern] = pattern
				row[cMode] = mode
				rows = append(rows, row)
			}
			return vtab.NewSliceIterator(rows), nil
		},
	}
}
