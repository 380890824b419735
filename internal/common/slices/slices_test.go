package slices

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	toString := func(val int) string { return fmt.Sprintf("%d", val) }
	input := []int{1, 3, 5, 7, 9}
	expectedOutput := []string{"1", "3", "5", "7", "9"}

	output := Map(input, toString)
	assert.Equal(t, expectedOutput, output)
}

func TestMapEmptyList(t *testing.T) {
	toString := func(val int) string { return fmt.Sprintf("%d", val) }
	input := []int{}
	expectedOutput := []string{}

	output := Map(input, toString)
	assert.Equal(t, expectedOutput, output)
}

func TestMapNilList(t *testing.T) {
	toString := func(val int) string { return fmt.Sprintf("%d", val) }
	var input []int = nil

	output := Map(input, toString)
	assert.Nil(t, output)
}

func TestFilter(t *testing.T) {
	isEven := func(val int) bool { return val%2 == 0 }
	assert.Equal(t, []int{2, 4}, Filter([]int{1, 2, 3, 4, 5}, isEven))
	assert.Equal(t, []int{}, Filter([]int{1, 3}, isEven))
	assert.Nil(t, Filter([]int(nil), isEven))
}

func TestIndices(t *testing.T) {
	notNaN := func(v float64) bool { return !math.IsNaN(v) }
	assert.Equal(t, []int{0, 2}, Indices([]float64{1, math.NaN(), 3}, notNaN))
	assert.Equal(t, []int{}, Indices([]float64{}, notNaN))
}

func TestGroupByFunc(t *testing.T) {
	s := []int{1, 2, 3, 4, 5}
	expected := map[bool][]int{
		true:  {2, 4},
		false: {1, 3, 5},
	}
	assert.Equal(t, expected, GroupByFunc(s, func(e int) bool { return e%2 == 0 }))
}

func TestArgMin(t *testing.T) {
	tests := map[string]struct {
		s        []float64
		expected int
	}{
		"single":           {s: []float64{4}, expected: 0},
		"first smallest":   {s: []float64{1, 2, 3}, expected: 0},
		"last smallest":    {s: []float64{3, 2, 1}, expected: 2},
		"tie picks lowest": {s: []float64{2, 1, 1}, expected: 1},
		"skips NaN":        {s: []float64{math.NaN(), 5, 3}, expected: 2},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ArgMin(tc.s))
		})
	}
}

func TestFill(t *testing.T) {
	assert.Equal(t, []string{"a", "a"}, Fill("a", 2))
}
