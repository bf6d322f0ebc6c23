package sqlfuncs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allthingsida/idasql/internal/policy"
	"github.com/allthingsida/idasql/internal/workspace"
	"github.com/allthingsida/idasql/internal/workspace/memstub"
)

// forceSpyAdapter records the force flag every Decompile call carried,
// so tests can confirm the cache policy knob actually changes it
// instead of being a no-op getter.
type forceSpyAdapter struct {
	workspace.Adapter
	forces []bool
}

func (s *forceSpyAdapter) Decompile(ctx context.Context, ea workspace.EA, force bool) (*workspace.Decompiled, error) {
	s.forces = append(s.forces, force)
	return s.Adapter.Decompile(ctx, ea, force)
}

func TestDecompileHonorsCachePolicy(t *testing.T) {
	a := memstub.New()
	a.SetDecompiled(0x1000, &workspace.Decompiled{Lines: []workspace.PseudoLine{{FuncEA: 0x1000, LineNum: 0, Line: "return;"}}})
	spy := &forceSpyAdapter{Adapter: a}
	settings := policy.Default()
	f := New(spy, settings)

	_, err := f.decompile(0x1000)
	require.NoError(t, err)
	require.Len(t, spy.forces, 1)
	assert.False(t, spy.forces[0], "cache enabled: decompile(ea) should not force a re-decompile")

	ok := settings.Set("cache", false)
	require.True(t, ok)

	_, err = f.decompile(0x1000)
	require.NoError(t, err)
	require.Len(t, spy.forces, 2)
	assert.True(t, spy.forces[1], "cache disabled: every decompile should force a fresh result")

	_, err = f.decompileForce(0x1000, 1)
	require.NoError(t, err)
	require.Len(t, spy.forces, 3)
	assert.True(t, spy.forces[2], "an explicit force=1 must still force regardless of cache policy")
}
