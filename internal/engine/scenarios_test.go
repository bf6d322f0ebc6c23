package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/memstub"
)

// TestScenarioS1CodeSegmentExists mirrors spec §8 S1: a code segment
// (perm bit 0x1 set) is always present.
func TestScenarioS1CodeSegmentExists(t *testing.T) {
	a := memstub.New()
	a.AddSegment(workspace.Segment{StartEA: 0x1000, EndEA: 0x2000, Name: ".text", Class: "CODE", Perm: 5})
	sess, err := Open(a)
	require.NoError(t, err)
	defer sess.Close()

	n, err := sess.Scalar(context.Background(), "SELECT COUNT(*) FROM segments WHERE perm & 1 = 1")
	require.NoError(t, err)
	assert.Equal(t, "1", n)
}

// TestScenarioS2BreakpointInsertReadsTypeName mirrors spec §8 S2.
func TestScenarioS2BreakpointInsertReadsTypeName(t *testing.T) {
	a := memstub.New()
	sess, err := Open(a)
	require.NoError(t, err)
	defer sess.Close()

	ctx := context.Background()
	r := sess.Query(ctx, "INSERT INTO breakpoints(ea, type, size) VALUES (0x401000, 1, 4)")
	require.True(t, r.Success, r.Error)

	r = sess.Query(ctx, "SELECT type_name, size FROM breakpoints WHERE ea=0x401000")
	require.True(t, r.Success, r.Error)
	require.Equal(t, 1, r.RowCount())
	assert.Equal(t, "hardware_write", r.Rows[0][0])
	assert.EqualValues(t, 4, r.Rows[0][1])
}

// TestInvariant6NamesRoundTrip mirrors spec §8 invariant 6: insert,
// update, then delete a name and confirm it reads back empty.
func TestInvariant6NamesRoundTrip(t *testing.T) {
	a := memstub.New()
	sess, err := Open(a)
	require.NoError(t, err)
	defer sess.Close()

	ctx := context.Background()
	const ea = 0x401500
	require.True(t, sess.Query(ctx, "INSERT INTO names (ea, name) VALUES (?, ?)", ea, "X").Success)
	require.True(t, sess.Query(ctx, "UPDATE names SET name='Y' WHERE ea=?", ea).Success)
	require.True(t, sess.Query(ctx, "DELETE FROM names WHERE ea=?", ea).Success)

	r := sess.Query(ctx, "SELECT name FROM names WHERE ea=?", ea)
	require.True(t, r.Success, r.Error)
	assert.Equal(t, 0, r.RowCount())
}

// TestInvariant7BreakpointsCountRoundTrips mirrors spec §8 invariant 7.
func TestInvariant7BreakpointsCountRoundTrips(t *testing.T) {
	a := memstub.New()
	sess, err := Open(a)
	require.NoError(t, err)
	defer sess.Close()

	ctx := context.Background()
	before, err := sess.Scalar(ctx, "SELECT COUNT(*) FROM breakpoints")
	require.NoError(t, err)

	const ea = 0x402000
	require.True(t, sess.Query(ctx, "INSERT INTO breakpoints(ea) VALUES (?)", ea).Success)
	require.True(t, sess.Query(ctx, "DELETE FROM breakpoints WHERE ea=?", ea).Success)

	after, err := sess.Scalar(ctx, "SELECT COUNT(*) FROM breakpoints")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// TestInvariant8FuncNameUpdateIsIdempotent mirrors spec §8 invariant 8.
func TestInvariant8FuncNameUpdateIsIdempotent(t *testing.T) {
	a := memstub.New()
	a.AddFunction(workspace.Function{EA: 0x400000, Name: "orig", EndEA: 0x400010})
	sess, err := Open(a)
	require.NoError(t, err)
	defer sess.Close()

	ctx := context.Background()
	apply := func() string {
		require.True(t, sess.Query(ctx, "UPDATE funcs SET name='M' WHERE ea=0x400000").Success)
		r := sess.Query(ctx, "SELECT name FROM funcs WHERE ea=0x400000")
		require.True(t, r.Success, r.Error)
		return r.Rows[0][0].(string)
	}

	once := apply()
	twice := apply()
	assert.Equal(t, once, twice)
	assert.Equal(t, "M", twice)
}
