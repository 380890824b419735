// Package summary computes descriptive statistics of node utilization: its overall distribution, its
// distribution within each lifespan bin, and how it relates to lifespan.
package summary

import (
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/nodeusage/nodeusage/internal/common/slices"
	"github.com/nodeusage/nodeusage/internal/nodeusage/binning"
	"github.com/nodeusage/nodeusage/internal/nodeusage/derive"
)

// Percentiles reported for every distribution, as fractions.
var Percentiles = []float64{0.05, 0.25, 0.75, 0.95}

// Whiskers extend to the furthest value within WhiskerRange × IQR of the box.
const WhiskerRange = 1.5

type Percentile struct {
	P     float64
	Value float64
}

// Distribution describes a sample. Every statistic is NaN when Count is zero.
type Distribution struct {
	Count       int
	Mean        float64
	StdDev      float64
	Min         float64
	Median      float64
	Max         float64
	Percentiles []Percentile
}

// BoxStats are the statistics drawn by a box plot of one group.
type BoxStats struct {
	Label        string
	Count        int
	Q1           float64
	Median       float64
	Q3           float64
	LowerWhisker float64
	UpperWhisker float64
	Outliers     int
}

// Relationship is a least-squares fit of y = Intercept + Slope·x.
type Relationship struct {
	N           int
	Correlation float64
	Intercept   float64
	Slope       float64
	RSquared    float64
}

type NodeUtilization struct {
	NodeID         string
	UtilizationPct float64
	ActiveSpanDays float64
}

type Summary struct {
	Records     int
	Utilization Distribution
	// Utilization box statistics per lifespan bin, in bin display order.
	ByLifespan []BoxStats
	// Utilization as a function of lifespan.
	LifespanVsUtilization Relationship
	// Most utilized nodes, highest first.
	Top []NodeUtilization
}

// Summarise computes the summary of the derived table. bins must have one entry per row.
func Summarise(t *derive.Table, bins binning.Assignment, topN int) *Summary {
	utilization := t.Utilizations()
	rv := &Summary{
		Records:               len(t.Rows),
		Utilization:           Describe(utilization),
		LifespanVsUtilization: Relate(t.Lifespans(), utilization),
		Top:                   TopByUtilization(t.Rows, topN),
	}
	groups := bins.Groups()
	for _, label := range bins.Labels() {
		values := slices.Map(groups[label], func(i int) float64 { return utilization[i] })
		rv.ByLifespan = append(rv.ByLifespan, Box(label, values))
	}
	return rv
}

// Describe summarises xs, ignoring NaN values.
// Median and percentiles are Sample.Quantile values, the R8 estimator of go-moremath.
func Describe(xs []float64) Distribution {
	sample := stats.Sample{Xs: finite(xs)}
	rv := Distribution{Count: len(sample.Xs)}
	if rv.Count == 0 {
		nan := math.NaN()
		rv.Mean, rv.StdDev, rv.Min, rv.Median, rv.Max = nan, nan, nan, nan, nan
		for _, p := range Percentiles {
			rv.Percentiles = append(rv.Percentiles, Percentile{P: p, Value: nan})
		}
		return rv
	}
	sample.Sort()
	rv.Mean = sample.Mean()
	rv.StdDev = sample.StdDev()
	rv.Min, rv.Max = sample.Bounds()
	rv.Median = sample.Quantile(0.5)
	for _, p := range Percentiles {
		rv.Percentiles = append(rv.Percentiles, Percentile{P: p, Value: sample.Quantile(p)})
	}
	return rv
}

// Box computes box plot statistics of xs, ignoring NaN values. Quartiles use linear interpolation between
// closest ranks, the same rule used for lifespan binning.
func Box(label string, xs []float64) BoxStats {
	values := finite(xs)
	rv := BoxStats{Label: label, Count: len(values)}
	if rv.Count == 0 {
		nan := math.NaN()
		rv.Q1, rv.Median, rv.Q3, rv.LowerWhisker, rv.UpperWhisker = nan, nan, nan, nan, nan
		return rv
	}
	sort.Float64s(values)
	rv.Q1 = binning.Quantile(values, 0.25)
	rv.Median = binning.Quantile(values, 0.5)
	rv.Q3 = binning.Quantile(values, 0.75)

	iqr := rv.Q3 - rv.Q1
	lowerFence := rv.Q1 - WhiskerRange*iqr
	upperFence := rv.Q3 + WhiskerRange*iqr
	rv.LowerWhisker = rv.Q1
	rv.UpperWhisker = rv.Q3
	for _, v := range values {
		if v < lowerFence || v > upperFence {
			rv.Outliers++
			continue
		}
		rv.LowerWhisker = math.Min(rv.LowerWhisker, v)
		rv.UpperWhisker = math.Max(rv.UpperWhisker, v)
	}
	return rv
}

// Relate fits y against x over the pairs where both are present.
// With fewer than two pairs, or no spread in x, every statistic except N is NaN.
func Relate(x, y []float64) Relationship {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	rv := Relationship{N: len(xs)}
	nan := math.NaN()
	if rv.N < 2 || stat.Variance(xs, nil) == 0 {
		rv.Correlation, rv.Intercept, rv.Slope, rv.RSquared = nan, nan, nan, nan
		return rv
	}
	rv.Intercept, rv.Slope = stat.LinearRegression(xs, ys, nil, false)
	rv.RSquared = stat.RSquared(xs, ys, nil, rv.Intercept, rv.Slope)
	if stat.Variance(ys, nil) == 0 {
		rv.Correlation = nan
	} else {
		rv.Correlation = stat.Correlation(xs, ys, nil)
	}
	return rv
}

// TopByUtilization returns the n rows with the highest utilization. Rows without a utilization are skipped
// and ties keep table order.
func TopByUtilization(rows []derive.Row, n int) []NodeUtilization {
	candidates := slices.Filter(rows, func(r derive.Row) bool { return !math.IsNaN(r.UtilizationPct) })
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].UtilizationPct > candidates[j].UtilizationPct
	})
	if n < len(candidates) {
		candidates = candidates[:max(n, 0)]
	}
	return slices.Map(candidates, func(r derive.Row) NodeUtilization {
		return NodeUtilization{NodeID: r.NodeID, UtilizationPct: r.UtilizationPct, ActiveSpanDays: r.ActiveSpanDays}
	})
}

func finite(xs []float64) []float64 {
	return slices.Filter(xs, func(v float64) bool { return !math.IsNaN(v) })
}
