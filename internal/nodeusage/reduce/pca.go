package reduce

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/nodeusage/nodeusage/internal/common/linalg"
	"github.com/nodeusage/nodeusage/internal/common/usageerrors"
)

// PCA is a principal component analysis fitted to a data matrix.
type PCA struct {
	// Column means of the fitted data; subtracted before projecting.
	Means []float64
	// One unit-norm principal axis per row, ordered by decreasing eigenvalue.
	// Each axis is oriented so that its largest-magnitude entry is positive.
	Components *mat.Dense
	// Covariance eigenvalues of the retained components.
	Eigenvalues []float64
	// Covariance eigenvalues of all components; used as the denominator of ExplainedVarianceRatio.
	AllEigenvalues []float64
	// Share of total variance captured by each retained component.
	ExplainedVarianceRatio []float64
}

// FitPCA computes the first numComponents principal components of x.
// The covariance matrix uses an n-1 denominator. Eigenvalues that are negative due to rounding are clamped to zero.
func FitPCA(x mat.Matrix, numComponents int) (*PCA, error) {
	r, c := x.Dims()
	if r < 2 {
		return nil, errors.WithStack(&usageerrors.ErrInvalidArgument{
			Name:    "rows",
			Value:   r,
			Message: "principal components require at least two rows",
		})
	}
	if numComponents < 1 || numComponents > c {
		return nil, errors.WithStack(&usageerrors.ErrInvalidArgument{
			Name:    "numComponents",
			Value:   numComponents,
			Message: "must be between 1 and the number of columns",
		})
	}

	means := make([]float64, c)
	col := make([]float64, r)
	for j := range means {
		mat.Col(col, j, x)
		means[j] = stat.Mean(col, nil)
	}

	cov := mat.NewSymDense(c, nil)
	stat.CovarianceMatrix(cov, x, nil)
	values, vectors, err := linalg.SortedEigenSym(cov)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if v < 0 {
			values[i] = 0
		}
	}

	total := floats.Sum(values)
	rv := &PCA{
		Means:                  means,
		Components:             mat.NewDense(numComponents, c, nil),
		Eigenvalues:            append([]float64(nil), values[:numComponents]...),
		AllEigenvalues:         values,
		ExplainedVarianceRatio: make([]float64, numComponents),
	}
	axis := make([]float64, c)
	for i := 0; i < numComponents; i++ {
		mat.Col(axis, i, vectors)
		linalg.OrientBySign(axis)
		rv.Components.SetRow(i, axis)
		if total > 0 {
			rv.ExplainedVarianceRatio[i] = values[i] / total
		}
	}
	return rv, nil
}

// Transform projects the rows of x onto the principal components.
func (p *PCA) Transform(x mat.Matrix) *mat.Dense {
	r, c := x.Dims()
	centred := mat.NewDense(r, c, nil)
	centred.Apply(func(_, j int, v float64) float64 {
		return v - p.Means[j]
	}, x)
	var rv mat.Dense
	rv.Mul(centred, p.Components.T())
	return &rv
}

// NumComponents returns the number of retained components.
func (p *PCA) NumComponents() int {
	r, _ := p.Components.Dims()
	return r
}
