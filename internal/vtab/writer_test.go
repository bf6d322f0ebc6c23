package vtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allthingsida/idasql/internal/workspace/errs"
)

func namesSpec() *TableSpec {
	return &TableSpec{
		Name:  "names",
		Shape: ShapeCache,
		Columns: []Column{
			{Name: "ea", SQLType: "INTEGER"},
			{Name: "name", SQLType: "TEXT", Writable: true},
		},
	}
}

func TestDecodeMutationDelete(t *testing.T) {
	m, err := decodeMutation(namesSpec(), []interface{}{int64(0x1000)})
	require.NoError(t, err)
	assert.Equal(t, MutationDelete, m.Kind)
	assert.Equal(t, int64(0x1000), m.OldRowID)
}

func TestDecodeMutationInsert(t *testing.T) {
	m, err := decodeMutation(namesSpec(), []interface{}{nil, nil, int64(0x1000), "foo"})
	require.NoError(t, err)
	assert.Equal(t, MutationInsert, m.Kind)
	assert.Nil(t, m.NewRowID)
	assert.Equal(t, int64(0x1000), m.Values[0])
	assert.Equal(t, "foo", m.Values[1])
}

func TestDecodeMutationInsertWithExplicitRowid(t *testing.T) {
	m, err := decodeMutation(namesSpec(), []interface{}{nil, int64(7), int64(0x1000), "foo"})
	require.NoError(t, err)
	require.NotNil(t, m.NewRowID)
	assert.Equal(t, int64(7), *m.NewRowID)
}

func TestDecodeMutationUpdate(t *testing.T) {
	m, err := decodeMutation(namesSpec(), []interface{}{int64(0x1000), int64(0x1000), int64(0x1000), "bar"})
	require.NoError(t, err)
	assert.Equal(t, MutationUpdate, m.Kind)
	assert.Equal(t, int64(0x1000), m.OldRowID)
	assert.Equal(t, "bar", m.Values[1])
}

func TestDecodeMutationUpdateOmitsNullColumns(t *testing.T) {
	m, err := decodeMutation(namesSpec(), []interface{}{int64(0x1000), int64(0x1000), nil, "bar"})
	require.NoError(t, err)
	_, hasEA := m.Values[0]
	assert.False(t, hasEA, "NULL column value should be omitted, not zero-valued")
	assert.Equal(t, "bar", m.Values[1])
}

func TestDecodeMutationWrongArity(t *testing.T) {
	_, err := decodeMutation(namesSpec(), []interface{}{nil, nil, int64(0x1000)})
	assert.True(t, errs.Is(err, errs.Internal))
}
