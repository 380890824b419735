// Package binning splits records into lifespan quartiles.
//
// Cut points are the 25th, 50th and 75th percentiles of active_span_days, computed with linear interpolation
// between closest ranks. Bins are right-closed:
//
//	Q1: x <= c1
//	Q2: c1 < x <= c2
//	Q3: c2 < x <= c3
//	Q4: x > c3
//
// Duplicate cut points are allowed; the bins between equal cut points are then simply empty.
// When fewer than minRows lifespans are available no quartiles are computed and every record
// with a lifespan is assigned to the single fallback bin.
package binning

import (
	"math"
	"sort"

	"github.com/nodeusage/nodeusage/internal/common/slices"
)

// MinRows is the default and smallest allowed number of lifespans for which quartiles are computed.
const MinRows = 4

const (
	FallbackLabel = "Overall"
	UnbinnedLabel = "Unbinned"
)

// QuartileLabels are the display labels of the four lifespan bins, shortest first.
var QuartileLabels = [4]string{"Q1 (shortest)", "Q2 (short)", "Q3 (long)", "Q4 (longest)"}

type Kind int

const (
	// The record has no lifespan and belongs to no bin.
	Unbinned Kind = iota
	// The record is in one of the four quartile bins.
	Binned
	// Too few records to compute quartiles; the record is in the fallback bin.
	Fallback
)

// Bin is the lifespan group of a single record.
type Bin struct {
	Kind Kind
	// 1 to 4; only set when Kind is Binned.
	Quartile int
}

func (b Bin) Label() string {
	switch b.Kind {
	case Binned:
		return QuartileLabels[b.Quartile-1]
	case Fallback:
		return FallbackLabel
	default:
		return UnbinnedLabel
	}
}

// Assignment is the result of binning a column of lifespans.
type Assignment struct {
	// One entry per input value, in input order.
	Bins []Bin
	// Cut points c1 <= c2 <= c3; nil when the fallback bin was used.
	Cuts []float64
}

func (a Assignment) IsFallback() bool {
	return a.Cuts == nil
}

// Labels returns the labels of the bins in use, in display order.
func (a Assignment) Labels() []string {
	if a.IsFallback() {
		return []string{FallbackLabel}
	}
	return QuartileLabels[:]
}

// Counts returns the number of records per label. Every label returned by Labels is present, possibly with a zero count.
func (a Assignment) Counts() map[string]int {
	rv := make(map[string]int)
	for _, label := range a.Labels() {
		rv[label] = 0
	}
	for _, b := range a.Bins {
		if b.Kind != Unbinned {
			rv[b.Label()]++
		}
	}
	return rv
}

// Groups returns the indices of the records in each bin, keyed by label.
func (a Assignment) Groups() map[string][]int {
	binned := slices.Indices(a.Bins, func(b Bin) bool { return b.Kind != Unbinned })
	return slices.GroupByFunc(binned, func(i int) string { return a.Bins[i].Label() })
}

// Assign bins each value. NaN values are left Unbinned.
// minRows below MinRows is raised to MinRows.
func Assign(values []float64, minRows int) Assignment {
	present := slices.Filter(values, func(v float64) bool { return !math.IsNaN(v) })
	bins := make([]Bin, len(values))

	if len(present) < max(minRows, MinRows) {
		for i, v := range values {
			if !math.IsNaN(v) {
				bins[i] = Bin{Kind: Fallback}
			}
		}
		return Assignment{Bins: bins}
	}

	sorted := append([]float64(nil), present...)
	sort.Float64s(sorted)
	cuts := []float64{
		Quantile(sorted, 0.25),
		Quantile(sorted, 0.50),
		Quantile(sorted, 0.75),
	}
	for i, v := range values {
		if !math.IsNaN(v) {
			bins[i] = Bin{Kind: Binned, Quartile: quartileOf(v, cuts)}
		}
	}
	return Assignment{Bins: bins, Cuts: cuts}
}

func quartileOf(v float64, cuts []float64) int {
	for i, c := range cuts {
		if v <= c {
			return i + 1
		}
	}
	return len(cuts) + 1
}

// Quantile returns the p-quantile of an ascending, NaN-free slice, interpolating linearly between the two
// closest ranks (h = (n-1)p). Panics if sorted is empty.
func Quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		panic("quantile of empty slice")
	}
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	if i < 0 {
		return sorted[0]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
