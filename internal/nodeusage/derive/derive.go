// Package derive adds the computed per-record metrics used by the binning and reduction stages.
package derive

import (
	"math"

	"github.com/nodeusage/nodeusage/internal/nodeusage/records"
)

const (
	HoursPerDay   = 24.0
	SecondsPerDay = 86400.0
)

// Row is a record together with its derived metrics.
// Derived values are NaN when an input they depend on is missing.
type Row struct {
	records.Record
	// Share of the day the node was active, as a percentage.
	UtilizationPct float64
	// Days between the earliest start in the table and this node's start.
	StartOffsetDays float64
}

type Table struct {
	Rows []Row
	// Earliest start_epoch among records that have one. Only meaningful when HasStart is true.
	MinStartEpoch int64
	HasStart      bool
}

// UtilizationPct converts average active hours per day into a utilization percentage.
func UtilizationPct(avgHoursPerDay float64) float64 {
	return avgHoursPerDay / HoursPerDay * 100
}

// Derive computes utilization and start offset for every record of t, preserving order.
func Derive(t *records.Table) *Table {
	rv := &Table{Rows: make([]Row, len(t.Records))}
	for _, r := range t.Records {
		if !r.Has(records.FieldStartEpoch) {
			continue
		}
		if !rv.HasStart || r.StartEpoch < rv.MinStartEpoch {
			rv.MinStartEpoch = r.StartEpoch
			rv.HasStart = true
		}
	}
	for i, r := range t.Records {
		row := Row{
			Record:          r,
			UtilizationPct:  math.NaN(),
			StartOffsetDays: math.NaN(),
		}
		if r.Has(records.FieldAvgHoursPerDay) {
			row.UtilizationPct = UtilizationPct(r.AvgHoursPerDay)
		}
		if r.Has(records.FieldStartEpoch) {
			row.StartOffsetDays = float64(r.StartEpoch-rv.MinStartEpoch) / SecondsPerDay
		}
		rv.Rows[i] = row
	}
	return rv
}

// Lifespans returns active_span_days for each row, NaN where missing.
func (t *Table) Lifespans() []float64 {
	rv := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		if row.Has(records.FieldActiveSpanDays) {
			rv[i] = row.ActiveSpanDays
		} else {
			rv[i] = math.NaN()
		}
	}
	return rv
}

// Utilizations returns UtilizationPct for each row.
func (t *Table) Utilizations() []float64 {
	rv := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		rv[i] = row.UtilizationPct
	}
	return rv
}
