package sqlfuncs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allthingsida/idasql/internal/vtab"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/memstub"
)

// countingAdapter wraps an Adapter and counts how many times
// AtIndex(KindFunction, ...) is called, so tests can confirm
// collectJumpEntities actually stops walking sources early instead of
// just slicing the result afterward.
type countingAdapter struct {
	workspace.Adapter
	funcAtIndexCalls int
}

func (c *countingAdapter) AtIndex(kind workspace.Kind, i int) (any, error) {
	if kind == workspace.KindFunction {
		c.funcAtIndexCalls++
	}
	return c.Adapter.AtIndex(kind, i)
}

func seedManyMatchingFuncs(a *memstub.Adapter, n int) {
	for i := 0; i < n; i++ {
		a.AddFunction(workspace.Function{EA: workspace.EA(0x400000 + i*0x10), Name: fmt.Sprintf("fn_%d", i), EndEA: workspace.EA(0x400000 + i*0x10 + 8)})
	}
}

func TestCollectJumpEntitiesStopsEarlyOnMax(t *testing.T) {
	a := memstub.New()
	seedManyMatchingFuncs(a, 100)
	counting := &countingAdapter{Adapter: a}

	out, err := collectJumpEntities(counting, "fn", "contains", 3)
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.Equal(t, 3, counting.funcAtIndexCalls, "collectJumpEntities should stop walking functions once max matches are collected")
}

func TestCollectJumpEntitiesUnboundedWalksEverything(t *testing.T) {
	a := memstub.New()
	seedManyMatchingFuncs(a, 10)
	counting := &countingAdapter{Adapter: a}

	out, err := collectJumpEntities(counting, "fn", "contains", -1)
	require.NoError(t, err)
	assert.Len(t, out, 10)
	assert.Equal(t, 10, counting.funcAtIndexCalls)
}

func TestJumpEntitiesTableHonorsLimitAndOffset(t *testing.T) {
	a := memstub.New()
	seedManyMatchingFuncs(a, 20)
	spec := jumpEntitiesTable(a)

	patternIdx, modeIdx := spec.ColumnIndex("pattern"), spec.ColumnIndex("mode")

	iter, err := spec.TVFIterate(vtab.FilterArgs{
		Values: map[int]any{patternIdx: "fn", modeIdx: "contains"},
		Limit:  5,
		Offset: 2,
	})
	require.NoError(t, err)
	defer iter.Close()

	var names []string
	for {
		row, ok, err := iter.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		names = append(names, row[spec.ColumnIndex("name")].(string))
	}
	assert.Len(t, names, 5)
	assert.Equal(t, "fn_2", names[0])
}

func TestJumpRowsBoundedMax(t *testing.T) {
	f, a := newTestFuncs()
	seedManyMatchingFuncs(a, 20)

	rows, err := f.jumpRows("fn", "contains", 4, 1)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "fn_1", rows[0].Name)
}
