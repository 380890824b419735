package records

// Field identifies one of the numeric columns of a Record.
type Field uint8

const (
	FieldAvgHoursPerDay Field = 1 << iota
	FieldActiveSpanDays
	FieldStartEpoch
	FieldEndEpoch
)

// Column names of the node activity table.
const (
	ColumnNodeID         = "node_id"
	ColumnAvgHoursPerDay = "avg_hours_per_day"
	ColumnActiveSpanDays = "active_span_days"
	ColumnStartEpoch     = "start_epoch"
	ColumnEndEpoch       = "end_epoch"
)

// RequiredColumns lists the columns every input table must have, in their canonical order.
var RequiredColumns = []string{
	ColumnNodeID,
	ColumnAvgHoursPerDay,
	ColumnActiveSpanDays,
	ColumnStartEpoch,
	ColumnEndEpoch,
}

// Record is one row of the activity table: a single node observed over its lifespan.
// Numeric cells that were empty in the input are flagged in Missing; float fields hold NaN in that case.
type Record struct {
	NodeID         string
	AvgHoursPerDay float64
	ActiveSpanDays float64
	StartEpoch     int64
	EndEpoch       int64
	Missing        Field
}

// Has reports whether the record carries a value for f.
func (r Record) Has(f Field) bool {
	return r.Missing&f == 0
}

// Table is the in-memory record store. It is never modified after loading.
type Table struct {
	// Where the records were read from; used in log and error messages.
	Source  string
	Records []Record
}

func (t *Table) Len() int {
	return len(t.Records)
}

// Anomalies counts values that are accepted but fall outside their meaningful range.
type Anomalies struct {
	// avg_hours_per_day outside [0, 24]
	HoursOutOfRange int
	// end_epoch < start_epoch
	EndBeforeStart int
}

func (a Anomalies) Any() bool {
	return a.HoursOutOfRange > 0 || a.EndBeforeStart > 0
}

// Anomalies inspects the table for out-of-range values. Such records are kept as they are.
func (t *Table) Anomalies() Anomalies {
	var rv Anomalies
	for _, r := range t.Records {
		if r.Has(FieldAvgHoursPerDay) && (r.AvgHoursPerDay < 0 || r.AvgHoursPerDay > 24) {
			rv.HoursOutOfRange++
		}
		if r.Has(FieldStartEpoch) && r.Has(FieldEndEpoch) && r.EndEpoch < r.StartEpoch {
			rv.EndBeforeStart++
		}
	}
	return rv
}
