package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/memstub"
)

func TestOpenQueryScalarHex(t *testing.T) {
	a := memstub.New()
	sess, err := Open(a)
	require.NoError(t, err)
	defer sess.Close()

	s, err := sess.Scalar(context.Background(), "SELECT hex(4096)")
	require.NoError(t, err)
	assert.Equal(t, "0x1000", s)
}

func TestQuerySegmentsTable(t *testing.T) {
	a := memstub.New()
	a.AddSegment(workspace.Segment{StartEA: 0x1000, EndEA: 0x2000, Name: ".text", Class: "CODE", Perm: 5})
	sess, err := Open(a)
	require.NoError(t, err)
	defer sess.Close()

	r := sess.Query(context.Background(), "SELECT name FROM segments WHERE perm & 1 = 1")
	require.True(t, r.Success, r.Error)
	require.Equal(t, 1, r.RowCount())
	assert.Equal(t, ".text", r.Rows[0][0])
}

func TestQueryFailureSurfacesInResult(t *testing.T) {
	a := memstub.New()
	sess, err := Open(a)
	require.NoError(t, err)
	defer sess.Close()

	r := sess.Query(context.Background(), "SELECT * FROM nonexistent_table")
	assert.False(t, r.Success)
	assert.NotEmpty(t, r.Error)
}

func TestCallersViewJoinsXrefs(t *testing.T) {
	a := memstub.New()
	a.AddXref(workspace.Xref{FromEA: 0x1000, ToEA: 0x2000, Type: "call", IsCode: true})
	sess, err := Open(a)
	require.NoError(t, err)
	defer sess.Close()

	r := sess.Query(context.Background(), "SELECT callee_ea, caller_ea FROM callers")
	require.True(t, r.Success, r.Error)
	require.Equal(t, 1, r.RowCount())
}

func TestExecuteStreamsRows(t *testing.T) {
	a := memstub.New()
	a.AddFunction(workspace.Function{EA: 0x400000, Name: "main", EndEA: 0x400010})
	a.AddFunction(workspace.Function{EA: 0x400010, Name: "helper", EndEA: 0x400020})
	sess, err := Open(a)
	require.NoError(t, err)
	defer sess.Close()

	var names []string
	err = sess.Execute(context.Background(), "SELECT name FROM funcs ORDER BY ea", func(cols []string, row []any) bool {
		names = append(names, row[0].(string))
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "helper"}, names)
}
