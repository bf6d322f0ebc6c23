package memstub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allthingsida/idasql/internal/workspace"
)

func TestParseSnapshotSeedsAdapter(t *testing.T) {
	const doc = `{
		"functions": [{"EA": 4194304, "Name": "main", "EndEA": 4194320}],
		"segments": [{"StartEA": 4194304, "EndEA": 4194400, "Name": ".text", "Class": "CODE", "Perm": 5}],
		"names": [{"EA": 4194320, "Name": "g_counter"}],
		"comments": [{"EA": 4194304, "Comment": "entry", "Repeatable": false}],
		"bytes": {"0x401000": [144, 204, 204]}
	}`

	a, err := ParseSnapshot([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, 1, a.Qty(workspace.KindFunction))
	assert.Equal(t, 1, a.Qty(workspace.KindSegment))

	n, err := a.NameAt(0x400010)
	require.NoError(t, err)
	assert.Equal(t, "g_counter", n.Name)

	c, err := a.CommentAt(0x400000, false)
	require.NoError(t, err)
	assert.Equal(t, "entry", c.Comment)

	bs, err := a.Bytes(0x401000, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x90, 0xCC, 0xCC}, bs)
}

func TestParseSnapshotRejectsBadAddress(t *testing.T) {
	_, err := ParseSnapshot([]byte(`{"bytes": {"not-hex": [1]}}`))
	assert.Error(t, err)
}

func TestParseSnapshotEmptyIsValid(t *testing.T) {
	a, err := ParseSnapshot([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 0, a.Qty(workspace.KindFunction))
}
