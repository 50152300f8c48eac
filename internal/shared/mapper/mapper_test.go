package mapper

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapSlice(t *testing.T) {
	assert.Nil(t, MapSlice[int, string](nil, strconv.Itoa))
	assert.Equal(t, []string{}, MapSlice([]int{}, strconv.Itoa))
	assert.Equal(t, []string{"1", "2"}, MapSlice([]int{1, 2}, strconv.Itoa))
}

func TestMapSlicePtrSkipsNil(t *testing.T) {
	one, three := 1, 3
	got := MapSlicePtr([]*int{&one, nil, &three}, func(v *int) string { return strconv.Itoa(*v) })
	assert.Equal(t, []string{"1", "3"}, got)
	assert.Nil(t, MapSlicePtr[int, string](nil, func(v *int) string { return "" }))
}
