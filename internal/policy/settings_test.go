package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	s := Default()
	assert.True(t, s.CacheEnabled())
	assert.True(t, s.UndoEnabled())
	assert.False(t, s.BatchEnabled())
}

func TestSetUnknownKeyRejected(t *testing.T) {
	s := Default()
	assert.False(t, s.Set("bogus", true))
}

func TestSetTogglesKnownKeys(t *testing.T) {
	s := Default()
	assert.True(t, s.Set("undo", false))
	assert.False(t, s.UndoEnabled())

	assert.True(t, s.Set("batch", true))
	assert.True(t, s.BatchEnabled())
}
