package util

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformSlice(t *testing.T) {
	in := []int64{1, 2, 3}
	out := TransformSlice(in, func(n int64) string { return strconv.FormatInt(n, 10) })
	assert.Equal(t, []string{"1", "2", "3"}, out)
}

func TestTransformSliceEmpty(t *testing.T) {
	out := TransformSlice([]int64(nil), func(n int64) string { return "x" })
	assert.Empty(t, out)
}
