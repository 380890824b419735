package linalg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestColumnMeanStd(t *testing.T) {
	m := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})
	means, stds := ColumnMeanStd(m)
	assert.InDeltaSlice(t, []float64{2.5, 10}, means, 1e-12)
	// Population estimator: sqrt(1.25)
	assert.InDeltaSlice(t, []float64{math.Sqrt(1.25), 0}, stds, 1e-12)
}

func TestStandardize(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{
		1, 5,
		2, 7,
		3, 9,
	})
	means, stds := ColumnMeanStd(m)
	z := Standardize(m, means, stds)

	zMeans, zStds := ColumnMeanStd(z)
	assert.InDeltaSlice(t, []float64{0, 0}, zMeans, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 1}, zStds, 1e-12)
	// Input is not modified.
	assert.Equal(t, 1.0, m.At(0, 0))
}

func TestStandardize_ZeroVariance(t *testing.T) {
	m := mat.NewDense(2, 1, []float64{3, 3})
	means, stds := ColumnMeanStd(m)
	z := Standardize(m, means, stds)
	assert.True(t, math.IsNaN(z.At(0, 0)))
}

func TestSortedEigenSym(t *testing.T) {
	s := mat.NewSymDense(3, []float64{
		2, 0, 0,
		0, 5, 0,
		0, 0, 1,
	})
	values, vectors, err := SortedEigenSym(s)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5, 2, 1}, values, 1e-12)

	expectedAxes := []int{1, 0, 2}
	col := make([]float64, 3)
	for j, axis := range expectedAxes {
		mat.Col(col, j, vectors)
		assert.InDelta(t, 1, math.Abs(col[axis]), 1e-12)
		assert.InDelta(t, 1, floats.Norm(col, 2), 1e-12)
	}
}

func TestSortedEigenSym_Orthonormal(t *testing.T) {
	s := mat.NewSymDense(3, []float64{
		4, 1, 0.5,
		1, 3, 0.2,
		0.5, 0.2, 2,
	})
	values, vectors, err := SortedEigenSym(s)
	require.NoError(t, err)
	assert.True(t, values[0] >= values[1] && values[1] >= values[2])

	var gram mat.Dense
	gram.Mul(vectors.T(), vectors)
	assert.True(t, mat.EqualApprox(&gram, eye(3), 1e-10))

	// A v = lambda v for each pair.
	col := make([]float64, 3)
	for j := 0; j < 3; j++ {
		mat.Col(col, j, vectors)
		v := mat.NewVecDense(3, col)
		var av mat.VecDense
		av.MulVec(s, v)
		expected := mat.NewVecDense(3, nil)
		expected.ScaleVec(values[j], v)
		assert.True(t, mat.EqualApprox(&av, expected, 1e-10))
	}
}

func TestOrientBySign(t *testing.T) {
	tests := map[string]struct {
		input    []float64
		expected []float64
	}{
		"already positive": {input: []float64{0.1, 0.9, -0.2}, expected: []float64{0.1, 0.9, -0.2}},
		"flipped":          {input: []float64{0.1, -0.9, 0.2}, expected: []float64{-0.1, 0.9, -0.2}},
		"empty":            {input: []float64{}, expected: []float64{}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			OrientBySign(tc.input)
			assert.Equal(t, tc.expected, tc.input)
		})
	}
}

func TestSquaredDistance(t *testing.T) {
	assert.Equal(t, 25.0, SquaredDistance([]float64{0, 0}, []float64{3, 4}))
	assert.Equal(t, 0.0, SquaredDistance([]float64{1, 2, 3}, []float64{1, 2, 3}))
}

func TestMaxAbs(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, -7, 3, 2})
	assert.Equal(t, 7.0, MaxAbs(m))
}

func eye(n int) *mat.Dense {
	rv := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		rv.Set(i, i, 1)
	}
	return rv
}
