package vtab

import (
	"fmt"
	"strconv"
	"strings"
)

// Constraint mirrors one entry of sqlite3.InfoConstraint: a candidate
// predicate the planner is offering to push down.
type Constraint struct {
	Column int
	Op     Op
	Usable bool
}

// OrderBy mirrors one entry of sqlite3.InfoOrderBy.
type OrderBy struct {
	Column int
	Desc   bool
}

// Plan is the result of matching a table's declared pushdown
// capability against the constraints SQLite's planner offers at
// xBestIndex time.
type Plan struct {
	// Used[i] reports whether Constraint[i] was consumed.
	Used []bool
	// ArgColumns[j]/ArgOps[j] describe the column+predicate that
	// argv[j] will carry at xFilter time (j is 0-based, in the order
	// constraints were consumed).
	ArgColumns []int
	ArgOps     []Op
	// IdxStr encodes ArgColumns/ArgOps so Filter (which only receives
	// idxStr back from SQLite) can recover them without shared state.
	IdxStr string
	// EstimatedCost/EstimatedRows feed the planner's join-order choice;
	// lower cost for a table whose Required pushdown was satisfied,
	// an order of magnitude higher for an unconstrained scan of a
	// table that declares one Required.
	EstimatedCost float64
	EstimatedRows int64
	// MissingRequired is set when a column declared Required+Pushdown
	// was not constrained; the table layer turns this into
	// errs.ConstraintRequired at Filter time unless policy overrides
	// it (spec §4.B, §9 Open Questions).
	MissingRequired bool
}

// LimitColumn is the sentinel column SQLite pairs with OpLimit/
// OpOffset constraints (real iColumn is always -2 for both; Op tells
// them apart). BuildPlan threads them through Used/ArgColumns/IdxStr
// like any other constraint so BuildFilterValues hands them back
// keyed the same way; no real table column index is ever negative, so
// this can never collide.
const LimitColumn = -2

// BuildPlan implements the constraint-pushdown contract of spec §4.B:
// for each constraint the planner offers, consult the column's
// declared Pushdown set; if it matches and the constraint is usable,
// accept it. Required-but-unmatched columns degrade the plan. LIMIT/
// OFFSET constraints (spec §1(d), §4.D jump_entities "stops source
// iteration early") are always accepted when usable, independent of
// any column's declared Pushdown set.
func BuildPlan(spec *TableSpec, csts []Constraint, _ []OrderBy, cacheRows int64) Plan {
	var plan Plan
	plan.Used = make([]bool, len(csts))

	satisfied := map[int]bool{}
	for i, c := range csts {
		if !c.Usable {
			continue
		}
		if c.Op == OpLimit || c.Op == OpOffset {
			plan.Used[i] = true
			plan.ArgColumns = append(plan.ArgColumns, LimitColumn)
			plan.ArgOps = append(plan.ArgOps, c.Op)
			continue
		}
		if c.Column < 0 || c.Column >= len(spec.Columns) {
			continue
		}
		col := spec.Columns[c.Column]
		if col.Pushdown == nil || !col.Pushdown[c.Op] {
			continue
		}
		plan.Used[i] = true
		plan.ArgColumns = append(plan.ArgColumns, c.Column)
		plan.ArgOps = append(plan.ArgOps, c.Op)
		satisfied[c.Column] = true
	}
	plan.IdxStr = EncodeIdxStr(plan.ArgColumns, plan.ArgOps)

	var missingRequired []string
	for i, col := range spec.Columns {
		if col.Required && !satisfied[i] {
			missingRequired = append(missingRequired, col.Name)
		}
	}
	plan.MissingRequired = len(missingRequired) > 0

	switch {
	case plan.MissingRequired:
		// A full scan is possible but explicitly discouraged: spec.md
		// §4.B table lists these as "error (or full-database,
		// explicitly warned)" / "must decompile every function".
		plan.EstimatedCost = 1e9
		plan.EstimatedRows = cacheRowsOr(cacheRows, 1_000_000)
	case len(plan.ArgColumns) > 0:
		plan.EstimatedCost = 10
		plan.EstimatedRows = 1
	default:
		plan.EstimatedCost = 1000
		plan.EstimatedRows = cacheRowsOr(cacheRows, 1000)
	}
	return plan
}

func cacheRowsOr(v, fallback int64) int64 {
	if v > 0 {
		return v
	}
	return fallback
}

// EncodeIdxStr serializes (column,op) pairs as "col:op,col:op,...".
func EncodeIdxStr(cols []int, ops []Op) string {
	parts := make([]string, len(cols))
	for i := range cols {
		parts[i] = fmt.Sprintf("%d:%d", cols[i], int(ops[i]))
	}
	return strings.Join(parts, ",")
}

// DecodeIdxStr parses the output of EncodeIdxStr back into parallel
// column/op slices.
func DecodeIdxStr(s string) (cols []int, ops []Op, err error) {
	if s == "" {
		return nil, nil, nil
	}
	for _, part := range strings.Split(s, ",") {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, nil, fmt.Errorf("vtab: malformed idxStr segment %q", part)
		}
		col, err := strconv.Atoi(kv[0])
		if err != nil {
			return nil, nil, fmt.Errorf("vtab: malformed idxStr column %q: %w", kv[0], err)
		}
		opv, err := strconv.Atoi(kv[1])
		if err != nil {
			return nil, nil, fmt.Errorf("vtab: malformed idxStr op %q: %w", kv[1], err)
		}
		cols = append(cols, col)
		ops = append(ops, Op(opv))
	}
	return cols, ops, nil
}

// BuildFilterValues zips argv (as delivered to xFilter) against the
// decoded (cols,ops) to produce the column-index-keyed value map a
// TableSpec callback consumes. Only OpEQ/OpIN carry a single bound
// value per spec.md's required pushdowns; OpGT/OpLT are matched the
// same way (range tables may inspect Values[col] against their own
// comparison semantics — the framework does not interpret ordering).
func BuildFilterValues(cols []int, argv []any) map[int]any {
	values := make(map[int]any, len(cols))
	for i, c := range cols {
		if c == LimitColumn {
			continue // LIMIT/OFFSET, recovered separately via ExtractLimitOffset
		}
		if i < len(argv) {
			values[c] = argv[i]
		}
	}
	return values
}

// ExtractLimitOffset recovers the LIMIT/OFFSET values BuildPlan
// accepted, out of the same (cols, ops, argv) triple BuildFilterValues
// consumes. Both share LimitColumn, so Op (not column) tells them
// apart. limit is -1 when SQLite didn't push a LIMIT down; offset is 0
// when it didn't push an OFFSET down.
func ExtractLimitOffset(cols []int, ops []Op, argv []any) (limit, offset int64) {
	limit, offset = -1, 0
	for i, c := range cols {
		if c != LimitColumn || i >= len(argv) || i >= len(ops) {
			continue
		}
		v, ok := argv[i].(int64)
		if !ok {
			continue
		}
		switch ops[i] {
		case OpLimit:
			limit = v
		case OpOffset:
			offset = v
		}
	}
	return limit, offset
}
