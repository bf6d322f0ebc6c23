package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringBasic(t *testing.T) {
	c, err := ParseString(`
database: sample.i64
cache: false
export_tables:
  - funcs
  - segments
log_level: debug
`)
	require.NoError(t, err)
	assert.Equal(t, "sample.i64", c.Database)
	require.NotNil(t, c.Cache)
	assert.False(t, *c.Cache)
	assert.Equal(t, []string{"funcs", "segments"}, c.ExportTables)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestParseStringEmpty(t *testing.T) {
	c, err := ParseString("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, c)
}

func TestParseStringUnknownFieldRejected(t *testing.T) {
	_, err := ParseString("not_a_real_field: true\n")
	assert.Error(t, err)
}

func TestLoadEmptyPathIsEmpty(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, c)
}

func TestMergeOverridesWin(t *testing.T) {
	yes := true
	base := Config{Database: "base.i64", LogLevel: "info"}
	override := Config{Database: "override.i64", Cache: &yes}

	merged := Merge(base, override)
	assert.Equal(t, "override.i64", merged.Database)
	assert.Equal(t, "info", merged.LogLevel)
	require.NotNil(t, merged.Cache)
	assert.True(t, *merged.Cache)
}
