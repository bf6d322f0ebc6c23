package memstub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/errs"
)

func TestFuncContaining(t *testing.T) {
	a := New()
	a.AddFunction(workspace.Function{EA: 0x1000, Name: "main", Size: 0x20, EndEA: 0x1020})

	f, err := a.FuncContaining(0x1010)
	require.NoError(t, err)
	assert.Equal(t, "main", f.Name)

	_, err = a.FuncContaining(0x2000)
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestSetNameUniqueness(t *testing.T) {
	a := New()
	require.NoError(t, a.SetName(0x1000, "foo"))
	err := a.SetName(0x2000, "foo")
	assert.True(t, errs.Is(err, errs.WorkspaceError))
}

func TestBookmarkSlotAutoAssign(t *testing.T) {
	a := New()
	b1, err := a.CreateBookmark(nil, 0x1000, "first")
	require.NoError(t, err)
	assert.Equal(t, 0, b1.Slot)

	b2, err := a.CreateBookmark(nil, 0x2000, "second")
	require.NoError(t, err)
	assert.Equal(t, 1, b2.Slot)
}

func TestSearchBytesWildcardAndAlternative(t *testing.T) {
	a := New()
	a.SetBytes(0x1000, []byte{0xCC, 0xCC, 0xCC})
	a.SetBytes(0x2000, []byte{0x90, 0x41, 0x90})

	var hits []workspace.EA
	err := a.SearchBytes(context.Background(), workspace.SearchPattern{Raw: "CC CC CC"}, nil, func(ea workspace.EA) bool {
		hits = append(hits, ea)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []workspace.EA{0x1000}, hits)

	hits = nil
	err = a.SearchBytes(context.Background(), workspace.SearchPattern{Raw: "90 ? 90"}, nil, func(ea workspace.EA) bool {
		hits = append(hits, ea)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []workspace.EA{0x2000}, hits)

	hits = nil
	err = a.SearchBytes(context.Background(), workspace.SearchPattern{Raw: "( CC 90 )"}, nil, func(ea workspace.EA) bool {
		hits = append(hits, ea)
		return true
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []workspace.EA{0x1000, 0x1001, 0x1002, 0x2000, 0x2002}, hits)
}

func TestSearchBytesStopsEarly(t *testing.T) {
	a := New()
	a.SetBytes(0x1000, []byte{0xCC})
	a.SetBytes(0x1001, []byte{0xCC})
	a.SetBytes(0x1002, []byte{0xCC})

	count := 0
	err := a.SearchBytes(context.Background(), workspace.SearchPattern{Raw: "CC"}, nil, func(ea workspace.EA) bool {
		count++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRebuildStringsFiltersByMinLength(t *testing.T) {
	a := New()
	a.AddString(workspace.StringItem{EA: 0x1000, Length: 3, Type: "ascii"})
	a.AddString(workspace.StringItem{EA: 0x2000, Length: 10, Type: "ascii"})

	require.NoError(t, a.RebuildStrings(5, 1))
	assert.Equal(t, 1, len(a.strItems))
	assert.Equal(t, workspace.EA(0x2000), a.strItems[0].EA)
}

func TestUndoLabelsRecorded(t *testing.T) {
	a := New()
	_, err := a.OpenUndo("insert names")
	require.NoError(t, err)
	assert.Equal(t, []string{"insert names"}, a.UndoLabels())
}
