package summary

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeusage/nodeusage/internal/nodeusage/binning"
	"github.com/nodeusage/nodeusage/internal/nodeusage/derive"
	"github.com/nodeusage/nodeusage/internal/nodeusage/records"
)

func TestDescribe(t *testing.T) {
	d := Describe([]float64{4, 1, math.NaN(), 3, 2, 5})
	assert.Equal(t, 5, d.Count)
	assert.InDelta(t, 3, d.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(2.5), d.StdDev, 1e-12)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 5.0, d.Max)
	assert.InDelta(t, 3, d.Median, 1e-12)
	require.Len(t, d.Percentiles, len(Percentiles))
	for i, p := range d.Percentiles {
		assert.Equal(t, Percentiles[i], p.P)
		assert.GreaterOrEqual(t, p.Value, d.Min)
		assert.LessOrEqual(t, p.Value, d.Max)
	}
}

func TestDescribe_PercentilesUseR8(t *testing.T) {
	d := Describe([]float64{5, 3, 1, 4, 2})
	expected := []Percentile{
		{P: 0.05, Value: 1},
		{P: 0.25, Value: 5.0 / 3},
		{P: 0.75, Value: 13.0 / 3},
		{P: 0.95, Value: 5},
	}
	require.Len(t, d.Percentiles, len(expected))
	for i, p := range d.Percentiles {
		assert.Equal(t, expected[i].P, p.P)
		assert.InDelta(t, expected[i].Value, p.Value, 1e-12, "p%.0f", 100*p.P)
	}
	assert.InDelta(t, 3, d.Median, 1e-12)
}

func TestDescribe_Empty(t *testing.T) {
	d := Describe([]float64{math.NaN()})
	assert.Equal(t, 0, d.Count)
	assert.True(t, math.IsNaN(d.Mean))
	assert.True(t, math.IsNaN(d.Median))
	for _, p := range d.Percentiles {
		assert.True(t, math.IsNaN(p.Value))
	}
}

func TestBox(t *testing.T) {
	tests := map[string]struct {
		values   []float64
		expected BoxStats
	}{
		"no outliers": {
			values: []float64{1, 2, 3, 4, 5},
			expected: BoxStats{
				Label: "g", Count: 5, Q1: 2, Median: 3, Q3: 4,
				LowerWhisker: 1, UpperWhisker: 5,
			},
		},
		"high outlier": {
			values: []float64{10, 11, 12, 13, 100},
			expected: BoxStats{
				Label: "g", Count: 5, Q1: 11, Median: 12, Q3: 13,
				LowerWhisker: 10, UpperWhisker: 13, Outliers: 1,
			},
		},
		"nan ignored": {
			values: []float64{7, math.NaN()},
			expected: BoxStats{
				Label: "g", Count: 1, Q1: 7, Median: 7, Q3: 7,
				LowerWhisker: 7, UpperWhisker: 7,
			},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Box("g", tc.values))
		})
	}
}

func TestBox_Empty(t *testing.T) {
	b := Box("empty", nil)
	assert.Equal(t, 0, b.Count)
	assert.True(t, math.IsNaN(b.Median))
}

func TestRelate(t *testing.T) {
	x := []float64{1, 2, 3, 4, math.NaN()}
	y := []float64{3, 5, 7, 9, 100}
	r := Relate(x, y)
	assert.Equal(t, 4, r.N)
	assert.InDelta(t, 1, r.Intercept, 1e-9)
	assert.InDelta(t, 2, r.Slope, 1e-9)
	assert.InDelta(t, 1, r.RSquared, 1e-9)
	assert.InDelta(t, 1, r.Correlation, 1e-9)
}

func TestRelate_Degenerate(t *testing.T) {
	r := Relate([]float64{1}, []float64{2})
	assert.Equal(t, 1, r.N)
	assert.True(t, math.IsNaN(r.Slope))

	r = Relate([]float64{3, 3, 3}, []float64{1, 2, 3})
	assert.Equal(t, 3, r.N)
	assert.True(t, math.IsNaN(r.Correlation))

	r = Relate([]float64{1, 2, 3}, []float64{5, 5, 5})
	assert.InDelta(t, 0, r.Slope, 1e-12)
	assert.True(t, math.IsNaN(r.Correlation))
}

func TestTopByUtilization(t *testing.T) {
	rows := []derive.Row{
		{Record: records.Record{NodeID: "a", ActiveSpanDays: 300}, UtilizationPct: 10},
		{Record: records.Record{NodeID: "b", ActiveSpanDays: 310}, UtilizationPct: 90},
		{Record: records.Record{NodeID: "c", ActiveSpanDays: 320}, UtilizationPct: math.NaN()},
		{Record: records.Record{NodeID: "d", ActiveSpanDays: 330}, UtilizationPct: 50},
		{Record: records.Record{NodeID: "e", ActiveSpanDays: 340}, UtilizationPct: 90},
	}
	top := TopByUtilization(rows, 3)
	assert.Equal(t, []NodeUtilization{
		{NodeID: "b", UtilizationPct: 90, ActiveSpanDays: 310},
		{NodeID: "e", UtilizationPct: 90, ActiveSpanDays: 340},
		{NodeID: "d", UtilizationPct: 50, ActiveSpanDays: 330},
	}, top)

	assert.Len(t, TopByUtilization(rows, 10), 4)
	assert.Empty(t, TopByUtilization(rows, 0))
	// Input order is untouched.
	assert.Equal(t, "a", rows[0].NodeID)
}

func TestSummarise(t *testing.T) {
	table := &derive.Table{}
	for i, span := range []float64{300, 310, 320, 330, 340, 350, 360, 370} {
		table.Rows = append(table.Rows, derive.Row{
			Record:         records.Record{NodeID: string(rune('a' + i)), ActiveSpanDays: span},
			UtilizationPct: float64(10 * (i + 1)),
		})
	}
	bins := binning.Assign(table.Lifespans(), binning.MinRows)
	s := Summarise(table, bins, 2)

	assert.Equal(t, 8, s.Records)
	assert.Equal(t, 8, s.Utilization.Count)
	assert.InDelta(t, 45, s.Utilization.Mean, 1e-9)
	require.Len(t, s.ByLifespan, 4)
	for i, box := range s.ByLifespan {
		assert.Equal(t, binning.QuartileLabels[i], box.Label)
		assert.Equal(t, 2, box.Count)
	}
	assert.InDelta(t, 15, s.ByLifespan[0].Median, 1e-9)
	assert.InDelta(t, 75, s.ByLifespan[3].Median, 1e-9)
	assert.InDelta(t, 1, s.LifespanVsUtilization.Correlation, 1e-9)
	assert.InDelta(t, 1, s.LifespanVsUtilization.Slope, 1e-9)
	require.Len(t, s.Top, 2)
	assert.Equal(t, "h", s.Top[0].NodeID)
	assert.Equal(t, "g", s.Top[1].NodeID)
}

func TestSummarise_Fallback(t *testing.T) {
	table := &derive.Table{Rows: []derive.Row{
		{Record: records.Record{NodeID: "a", ActiveSpanDays: 300}, UtilizationPct: 20},
		{Record: records.Record{NodeID: "b", ActiveSpanDays: 400}, UtilizationPct: 40},
	}}
	s := Summarise(table, binning.Assign(table.Lifespans(), binning.MinRows), 5)
	require.Len(t, s.ByLifespan, 1)
	assert.Equal(t, binning.FallbackLabel, s.ByLifespan[0].Label)
	assert.Equal(t, 2, s.ByLifespan[0].Count)
	assert.InDelta(t, 30, s.ByLifespan[0].Median, 1e-9)
}
