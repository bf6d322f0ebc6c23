package tables

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allthingsida/idasql/internal/policy"
	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
	"github.com/allthingsida/idasql/internal/workspace/memstub"
)

func newTestRegistry() (*Registry, *memstub.Adapter) {
	a := memstub.New()
	return NewRegistry(a, policy.Default()), a
}

func TestAllReturnsEveryTable(t *testing.T) {
	r, _ := newTestRegistry()
	specs := r.All()
	assert.Len(t, specs, 24)
	seen := map[string]bool{}
	for _, s := range specs {
		assert.False(t, seen[s.Name], "duplicate table name %q", s.Name)
		seen[s.Name] = true
	}
}

func TestSegmentsUpdatePerm(t *testing.T) {
	r, a := newTestRegistry()
	a.AddSegment(workspace.Segment{StartEA: 0x1000, EndEA: 0x2000, Name: ".text", Class: "CODE", Perm: 5})
	spec := r.segmentsTable()
	rowid, err := spec.Mutate(vtab.Mutation{
		Kind:     vtab.MutationUpdate,
		OldRowID: 0x1000,
		Values:   map[int]any{4: int64(7)}, // perm column index
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0x1000), rowid)

	row, err := spec.AtIndex(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), row[4])
}

func TestSegmentsInsertUnsupported(t *testing.T) {
	r, _ := newTestRegistry()
	spec := r.segmentsTable()
	_, err := spec.Mutate(vtab.Mutation{Kind: vtab.MutationInsert})
	require.Error(t, err)
	assert.Equal(t, errs.Unsupported, errs.KindOf(err))
}

func TestNamesCacheScanHonorsEqPushdown(t *testing.T) {
	r, a := newTestRegistry()
	a.AddFunction(workspace.Function{EA: 0x400000, Name: "main", EndEA: 0x400010})
	a.SetName(0x500000, "g_counter")
	spec := r.namesTable()

	rows, err := spec.Scan(vtab.FilterArgs{Values: map[int]any{0: int64(0x500000)}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "g_counter", rows[0][1])

	all, err := spec.Scan(vtab.FilterArgs{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBlocksRequiresFuncEA(t *testing.T) {
	r, _ := newTestRegistry()
	spec := r.blocksTable()
	_, err := spec.Scan(vtab.FilterArgs{Ctx: context.Background()})
	require.Error(t, err)
	assert.Equal(t, errs.ConstraintRequired, errs.KindOf(err))
}

func TestBlocksScanReturnsSeededBlocks(t *testing.T) {
	r, a := newTestRegistry()
	a.AddBasicBlock(workspace.BasicBlock{FuncEA: 0x400000, StartEA: 0x400000, EndEA: 0x400010, Size: 0x10})
	a.AddBasicBlock(workspace.BasicBlock{FuncEA: 0x400000, StartEA: 0x400010, EndEA: 0x400020, Size: 0x10})
	spec := r.blocksTable()
	rows, err := spec.Scan(vtab.FilterArgs{Ctx: context.Background(), Values: map[int]any{0: int64(0x400000)}})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestBreakpointsInsertDefaultsAndDelete(t *testing.T) {
	r, _ := newTestRegistry()
	spec := r.breakpointsTable()
	rowid, err := spec.Mutate(vtab.Mutation{
		Kind:   vtab.MutationInsert,
		Values: map[int]any{1: int64(0x401000)}, // ea column
	})
	require.NoError(t, err)
	assert.NotZero(t, rowid)

	rows, err := spec.Scan(vtab.FilterArgs{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0][2])                     // enabled default
	assert.Equal(t, int64(workspace.BptSoftware), rows[0][3]) // type default
	assert.Equal(t, "software", rows[0][4])                   // type_name default

	_, err = spec.Mutate(vtab.Mutation{Kind: vtab.MutationDelete, OldRowID: rowid})
	require.NoError(t, err)
	rows, err = spec.Scan(vtab.FilterArgs{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestXrefsDualDirectionScan(t *testing.T) {
	r, a := newTestRegistry()
	a.AddXref(workspace.Xref{FromEA: 0x1000, ToEA: 0x2000, Type: "call", IsCode: true})
	a.AddXref(workspace.Xref{FromEA: 0x1010, ToEA: 0x2000, Type: "call", IsCode: true})
	spec := r.xrefsTable()

	rows, err := spec.Scan(vtab.FilterArgs{Values: map[int]any{1: int64(0x2000)}})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = spec.Scan(vtab.FilterArgs{Values: map[int]any{0: int64(0x1000)}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(0x2000), rows[0][1])
}

func TestPseudocodeRequiresFuncAddrUnlessAllowed(t *testing.T) {
	r, a := newTestRegistry()
	a.AddFunction(workspace.Function{EA: 0x400000, Name: "main", EndEA: 0x400010})
	a.SetDecompiled(0x400000, &workspace.Decompiled{Lines: []workspace.PseudoLine{
		{FuncEA: 0x400000, LineNum: 0, Line: "int main() {"},
	}})
	spec := r.pseudocodeTable()

	_, err := spec.Scan(vtab.FilterArgs{Ctx: context.Background()})
	require.Error(t, err)
	assert.Equal(t, errs.ConstraintRequired, errs.KindOf(err))

	r.Settings.AllowUnconstrainedDecompile = true
	rows, err := spec.Scan(vtab.FilterArgs{Ctx: context.Background()})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCommentsRowIDRoundTrip(t *testing.T) {
	r, _ := newTestRegistry()
	spec := r.commentsTable()
	rowid, err := spec.Mutate(vtab.Mutation{
		Kind: vtab.MutationInsert,
		Values: map[int]any{
			0: int64(0x401000),
			1: "entry point",
			2: int64(1),
		},
	})
	require.NoError(t, err)

	rows, err := spec.Scan(vtab.FilterArgs{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, spec.RowID(rows[0]), rowid)
}

func TestBatchPolicyCoalescesUndoHandles(t *testing.T) {
	r, a := newTestRegistry()
	require.True(t, r.Settings.Set("batch", true))
	spec := r.bookmarksTable()

	for i := 0; i < 3; i++ {
		_, err := spec.Mutate(vtab.Mutation{
			Kind:   vtab.MutationInsert,
			Values: map[int]any{1: int64(0x1000 + i), 2: "note"},
		})
		require.NoError(t, err)
	}
	assert.Len(t, a.UndoLabels(), 1, "batched mutations should share one undo handle")

	require.NoError(t, r.FlushBatch())
	_, err := spec.Mutate(vtab.Mutation{
		Kind:   vtab.MutationInsert,
		Values: map[int]any{1: int64(0x2000), 2: "note"},
	})
	require.NoError(t, err)
	assert.Len(t, a.UndoLabels(), 2, "a new statement (after FlushBatch) opens its own handle")
}

func TestBatchDisabledOpensOnePerMutation(t *testing.T) {
	r, a := newTestRegistry()
	spec := r.bookmarksTable()

	for i := 0; i < 3; i++ {
		_, err := spec.Mutate(vtab.Mutation{
			Kind:   vtab.MutationInsert,
			Values: map[int]any{1: int64(0x1000 + i), 2: "note"},
		})
		require.NoError(t, err)
	}
	assert.Len(t, a.UndoLabels(), 3)
}
