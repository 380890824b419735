package reduce

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/nodeusage/nodeusage/internal/nodeusage/derive"
	"github.com/nodeusage/nodeusage/internal/nodeusage/records"
)

// Feature columns used for reduction, in matrix column order.
var (
	FeatureNames  = []string{"active_span_days", "utilization_pct", "start_offset"}
	FeatureLabels = []string{"Lifespan (days)", "Utilization (%)", "Start (day)"}
)

const numFeatures = 3

// FeatureVector returns the reduction features of row and whether all of them are present.
func FeatureVector(row derive.Row) ([]float64, bool) {
	v := []float64{row.ActiveSpanDays, row.UtilizationPct, row.StartOffsetDays}
	if !row.Has(records.FieldActiveSpanDays) {
		return v, false
	}
	for _, x := range v {
		if math.IsNaN(x) {
			return v, false
		}
	}
	return v, true
}

// FeatureMatrix builds the n×3 feature matrix of the complete rows.
// The second return value maps matrix rows back to positions in rows.
func FeatureMatrix(rows []derive.Row) (*mat.Dense, []int) {
	var data []float64
	var index []int
	for i, row := range rows {
		v, ok := FeatureVector(row)
		if !ok {
			continue
		}
		data = append(data, v...)
		index = append(index, i)
	}
	if len(index) == 0 {
		return nil, nil
	}
	return mat.NewDense(len(index), numFeatures, data), index
}
