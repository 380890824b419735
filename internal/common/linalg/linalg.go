package linalg

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ColumnMeanStd returns the mean and population standard deviation of each column of m.
func ColumnMeanStd(m mat.Matrix) (means, stds []float64) {
	r, c := m.Dims()
	means = make([]float64, c)
	stds = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		mean, variance := stat.PopMeanVariance(col, nil)
		means[j] = mean
		stds[j] = math.Sqrt(variance)
	}
	return means, stds
}

// Standardize returns a copy of m with every column shifted by means and divided by stds.
// A zero entry in stds produces Inf or NaN values in that column.
func Standardize(m mat.Matrix, means, stds []float64) *mat.Dense {
	r, c := m.Dims()
	rv := mat.NewDense(r, c, nil)
	rv.Apply(func(i, j int, v float64) float64 {
		return (v - means[j]) / stds[j]
	}, m)
	return rv
}

// SortedEigenSym computes the eigendecomposition of the symmetric matrix s and returns the eigenvalues in
// descending order together with a matrix whose columns are the matching unit-norm eigenvectors.
func SortedEigenSym(s mat.Symmetric) ([]float64, *mat.Dense, error) {
	var es mat.EigenSym
	if ok := es.Factorize(s, true); !ok {
		return nil, nil, errors.New("eigendecomposition failed to converge")
	}
	values := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// EigenSym returns ascending values; stable sort keeps equal eigenvalues in factorisation order.
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] > values[order[b]]
	})

	sortedValues := make([]float64, n)
	sortedVectors := mat.NewDense(n, n, nil)
	col := make([]float64, n)
	for dst, src := range order {
		sortedValues[dst] = values[src]
		mat.Col(col, src, &vectors)
		sortedVectors.SetCol(dst, col)
	}
	return sortedValues, sortedVectors, nil
}

// OrientBySign flips v in-place so that its entry with the largest magnitude is positive.
// Eigenvectors are only defined up to sign; this picks a deterministic representative.
func OrientBySign(v []float64) {
	largest := 0
	for i := range v {
		if math.Abs(v[i]) > math.Abs(v[largest]) {
			largest = i
		}
	}
	if len(v) > 0 && v[largest] < 0 {
		for i := range v {
			v[i] = -v[i]
		}
	}
}

// SquaredDistance returns the squared euclidean distance between a and b, which must have equal length.
func SquaredDistance(a, b []float64) float64 {
	var d float64
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}

// MaxAbs returns the largest absolute value of any element of m.
func MaxAbs(m mat.Matrix) float64 {
	r, c := m.Dims()
	var rv float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := math.Abs(m.At(i, j)); v > rv {
				rv = v
			}
		}
	}
	return rv
}
