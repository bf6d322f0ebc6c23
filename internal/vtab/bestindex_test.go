package vtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instructionsSpec() *TableSpec {
	return &TableSpec{
		Name:  "instructions",
		Shape: ShapeCache,
		Columns: []Column{
			{Name: "ea", SQLType: "INTEGER"},
			{Name: "func_addr", SQLType: "INTEGER", Pushdown: map[Op]bool{OpEQ: true}, Required: true},
			{Name: "mnemonic", SQLType: "TEXT"},
		},
	}
}

func TestBuildPlanAcceptsRequiredPushdown(t *testing.T) {
	spec := instructionsSpec()
	csts := []Constraint{{Column: 1, Op: OpEQ, Usable: true}}
	plan := BuildPlan(spec, csts, nil, 0)

	require.True(t, plan.Used[0])
	assert.False(t, plan.MissingRequired)
	assert.Equal(t, []int{1}, plan.ArgColumns)
	assert.Equal(t, float64(10), plan.EstimatedCost)
}

func TestBuildPlanFlagsMissingRequired(t *testing.T) {
	spec := instructionsSpec()
	plan := BuildPlan(spec, nil, nil, 0)

	assert.True(t, plan.MissingRequired)
	assert.Equal(t, float64(1e9), plan.EstimatedCost)
}

func TestBuildPlanIgnoresUnusableConstraint(t *testing.T) {
	spec := instructionsSpec()
	csts := []Constraint{{Column: 1, Op: OpEQ, Usable: false}}
	plan := BuildPlan(spec, csts, nil, 0)

	assert.False(t, plan.Used[0])
	assert.True(t, plan.MissingRequired)
}

func TestBuildPlanIgnoresUnrecognizedOp(t *testing.T) {
	spec := instructionsSpec()
	// func_addr only recognizes '=', not '>'.
	csts := []Constraint{{Column: 1, Op: OpGT, Usable: true}}
	plan := BuildPlan(spec, csts, nil, 0)

	assert.False(t, plan.Used[0])
}

func TestEncodeDecodeIdxStrRoundTrip(t *testing.T) {
	cols := []int{1, 3}
	ops := []Op{OpEQ, OpIN}

	s := EncodeIdxStr(cols, ops)
	gotCols, gotOps, err := DecodeIdxStr(s)
	require.NoError(t, err)
	assert.Equal(t, cols, gotCols)
	assert.Equal(t, ops, gotOps)
}

func TestDecodeIdxStrEmpty(t *testing.T) {
	cols, ops, err := DecodeIdxStr("")
	require.NoError(t, err)
	assert.Nil(t, cols)
	assert.Nil(t, ops)
}

func TestBuildFilterValues(t *testing.T) {
	values := BuildFilterValues([]int{1, 3}, []any{int64(0x401000), "ascii"})
	assert.Equal(t, int64(0x401000), values[1])
	assert.Equal(t, "ascii", values[3])
}

func TestBuildPlanAcceptsLimitOffset(t *testing.T) {
	spec := instructionsSpec()
	csts := []Constraint{
		{Column: LimitColumn, Op: OpLimit, Usable: true},
		{Column: LimitColumn, Op: OpOffset, Usable: true},
	}
	plan := BuildPlan(spec, csts, nil, 0)

	require.True(t, plan.Used[0])
	require.True(t, plan.Used[1])
	assert.Equal(t, []int{LimitColumn, LimitColumn}, plan.ArgColumns)
	assert.Equal(t, []Op{OpLimit, OpOffset}, plan.ArgOps)
}

func TestBuildPlanIgnoresUnusableLimitOffset(t *testing.T) {
	spec := instructionsSpec()
	csts := []Constraint{{Column: LimitColumn, Op: OpLimit, Usable: false}}
	plan := BuildPlan(spec, csts, nil, 0)

	assert.False(t, plan.Used[0])
}

func TestExtractLimitOffsetDistinguishesByOp(t *testing.T) {
	cols := []int{LimitColumn, LimitColumn, 1}
	ops := []Op{OpLimit, OpOffset, OpEQ}
	argv := []any{int64(5), int64(10), int64(0x401000)}

	limit, offset := ExtractLimitOffset(cols, ops, argv)
	assert.Equal(t, int64(5), limit)
	assert.Equal(t, int64(10), offset)

	values := BuildFilterValues(cols, argv)
	assert.Equal(t, int64(0x401000), values[1])
	_, hasLimitKey := values[LimitColumn]
	assert.False(t, hasLimitKey)
}

func TestExtractLimitOffsetDefaultsWhenAbsent(t *testing.T) {
	limit, offset := ExtractLimitOffset(nil, nil, nil)
	assert.Equal(t, int64(-1), limit)
	assert.Equal(t, int64(0), offset)
}

func TestXrefsDualDirectionPushdown(t *testing.T) {
	spec := &TableSpec{
		Name:  "xrefs",
		Shape: ShapeCache,
		Columns: []Column{
			{Name: "from_ea", SQLType: "INTEGER", Pushdown: map[Op]bool{OpEQ: true}},
			{Name: "to_ea", SQLType: "INTEGER", Pushdown: map[Op]bool{OpEQ: true}},
			{Name: "type", SQLType: "TEXT"},
			{Name: "is_code", SQLType: "INTEGER"},
		},
	}
	// Neither from_ea nor to_ea is Required: xrefs may still materialize
	// without a pushdown, subject to policy (spec §4.C).
	plan := BuildPlan(spec, nil, nil, 500)
	assert.False(t, plan.MissingRequired)
	assert.Equal(t, int64(500), plan.EstimatedRows)

	plan = BuildPlan(spec, []Constraint{{Column: 1, Op: OpEQ, Usable: true}}, nil, 500)
	assert.True(t, plan.Used[0])
	assert.Equal(t, float64(10), plan.EstimatedCost)
}
