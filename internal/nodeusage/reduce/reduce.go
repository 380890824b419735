// Package reduce standardizes the node feature matrix, projects it onto its first two principal components
// and clusters the standardized rows with k-means.
package reduce

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/nodeusage/nodeusage/internal/common/linalg"
	"github.com/nodeusage/nodeusage/internal/common/usagecontext"
	"github.com/nodeusage/nodeusage/internal/nodeusage/derive"
)

// ProjectionComponents is the number of principal components kept for the projection.
const ProjectionComponents = 2

type Outcome int

const (
	Computed Outcome = iota
	InsufficientData
)

func (o Outcome) String() string {
	switch o {
	case Computed:
		return "computed"
	case InsufficientData:
		return "insufficient data"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

type Options struct {
	// Fewest complete rows for which a reduction is computed.
	MinRows int
	// Fraction of the largest projected coordinate used to scale biplot arrows.
	BiplotScale float64
	KMeans      KMeansOptions
}

func DefaultOptions() Options {
	return Options{
		MinRows:     5,
		BiplotScale: 0.8,
		KMeans:      DefaultKMeansOptions(),
	}
}

// Result of a reduction. Only Outcome, CompleteRows and RequiredRows are set when Outcome is InsufficientData.
type Result struct {
	Outcome Outcome
	// Positions, in the input rows, of the rows that had every feature. Row i of every matrix below is CompleteRows[i].
	CompleteRows []int
	// Minimum number of complete rows needed.
	RequiredRows int
	// Column statistics used for standardization.
	Means []float64
	Stds  []float64
	// Features that had zero variance; their standardized column is all zeros.
	DegenerateFeatures []string
	Standardized       *mat.Dense
	PCA                *PCA
	// n×2 coordinates of the standardized rows in the plane of the first two components.
	Projection *mat.Dense
	Clusters   *KMeansResult
	Biplot     Biplot
}

// Reduce runs standardization, PCA and k-means over the complete rows.
// Too few complete rows is not an error: the result is returned with Outcome InsufficientData.
func Reduce(ctx *usagecontext.Context, rows []derive.Row, opts Options) (*Result, error) {
	if err := opts.KMeans.Validate(); err != nil {
		return nil, err
	}
	required := max(opts.MinRows, opts.KMeans.Clusters, 2)

	x, complete := FeatureMatrix(rows)
	rv := &Result{CompleteRows: complete, RequiredRows: required}
	if len(complete) < required {
		ctx.Infof("only %d of %d rows have all features; at least %d are needed for reduction", len(complete), len(rows), required)
		rv.Outcome = InsufficientData
		return rv, nil
	}
	if dropped := len(rows) - len(complete); dropped > 0 {
		ctx.Infof("excluding %d rows with missing features from reduction", dropped)
	}

	means, stds := linalg.ColumnMeanStd(x)
	scale := make([]float64, len(stds))
	for j, s := range stds {
		scale[j] = s
		if s == 0 {
			scale[j] = 1
			rv.DegenerateFeatures = append(rv.DegenerateFeatures, FeatureNames[j])
		}
	}
	if len(rv.DegenerateFeatures) > 0 {
		ctx.Warnf("features %v have zero variance; their standardized values are all zero", rv.DegenerateFeatures)
	}
	rv.Means = means
	rv.Stds = stds
	rv.Standardized = linalg.Standardize(x, means, scale)

	pca, err := FitPCA(rv.Standardized, ProjectionComponents)
	if err != nil {
		return nil, err
	}
	rv.PCA = pca
	rv.Projection = pca.Transform(rv.Standardized)

	clusters, err := KMeans(rv.Standardized, opts.KMeans)
	if err != nil {
		return nil, err
	}
	rv.Clusters = clusters
	rv.Biplot = NewBiplot(pca.Components, rv.Projection, FeatureLabels, opts.BiplotScale)
	rv.Outcome = Computed

	ctx.WithField("inertia", clusters.Inertia).
		WithField("iterations", clusters.Iterations).
		Debugf("reduced %d rows; explained variance ratio %v", len(complete), pca.ExplainedVarianceRatio)
	return rv, nil
}
