package records

import (
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/nodeusage/nodeusage/internal/common/usageerrors"
	"github.com/nodeusage/nodeusage/internal/common/util"
)

const defaultDelimiter = ','

// Tokens treated as an empty cell, compared case-insensitively.
var missingTokens = []string{"", "na", "nan", "null", "<nil>"}

type LoadOptions struct {
	// Field delimiter; defaults to ','.
	Delimiter rune
}

// Load reads the activity table at path.
// Returns ErrInputUnavailable if the file cannot be opened and ErrInputMalformed if its contents cannot be used.
func Load(path string, opts LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(&usageerrors.ErrInputUnavailable{Path: path, Message: err.Error()})
	}
	defer util.CloseResource(path, f)
	return Read(path, f, opts)
}

// Read parses an activity table from r. source names the input in errors.
func Read(source string, r io.Reader, opts LoadOptions) (*Table, error) {
	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = defaultDelimiter
	}

	// Every column is loaded as text; numeric conversion happens below so that bad cells can be reported
	// individually instead of silently turning a whole column into strings.
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.WithDelimiter(delimiter),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, errors.WithStack(&usageerrors.ErrInputMalformed{
			Path:    source,
			Message: "table could not be parsed",
			Cause:   df.Err,
		})
	}

	if missing := missingColumns(df.Names()); len(missing) > 0 {
		return nil, errors.WithStack(&usageerrors.ErrInputMalformed{Path: source, MissingColumns: missing})
	}
	if df.Nrow() == 0 {
		return nil, errors.WithStack(&usageerrors.ErrInputMalformed{Path: source, Message: "table has no rows"})
	}

	nodeIDs := df.Col(ColumnNodeID).Records()
	hours := df.Col(ColumnAvgHoursPerDay).Records()
	spans := df.Col(ColumnActiveSpanDays).Records()
	starts := df.Col(ColumnStartEpoch).Records()
	ends := df.Col(ColumnEndEpoch).Records()

	var result *multierror.Error
	rv := make([]Record, df.Nrow())
	for i := range rv {
		// Line numbers are 1-based and the header occupies line 1.
		line := i + 2
		rec := Record{NodeID: strings.TrimSpace(nodeIDs[i])}

		var err error
		if rec.AvgHoursPerDay, err = parseFloatCell(hours[i]); err != nil {
			result = multierror.Append(result, cellError(line, ColumnAvgHoursPerDay, hours[i], err))
		} else if math.IsNaN(rec.AvgHoursPerDay) {
			rec.Missing |= FieldAvgHoursPerDay
		}

		if rec.ActiveSpanDays, err = parseFloatCell(spans[i]); err != nil {
			result = multierror.Append(result, cellError(line, ColumnActiveSpanDays, spans[i], err))
		} else if math.IsNaN(rec.ActiveSpanDays) {
			rec.Missing |= FieldActiveSpanDays
		}

		var ok bool
		if rec.StartEpoch, ok, err = parseEpochCell(starts[i]); err != nil {
			result = multierror.Append(result, cellError(line, ColumnStartEpoch, starts[i], err))
		} else if !ok {
			rec.Missing |= FieldStartEpoch
		}

		if rec.EndEpoch, ok, err = parseEpochCell(ends[i]); err != nil {
			result = multierror.Append(result, cellError(line, ColumnEndEpoch, ends[i], err))
		} else if !ok {
			rec.Missing |= FieldEndEpoch
		}

		rv[i] = rec
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, errors.WithStack(&usageerrors.ErrInputMalformed{
			Path:    source,
			Message: "table contains non-numeric values",
			Cause:   err,
		})
	}
	return &Table{Source: source, Records: rv}, nil
}

func missingColumns(names []string) []string {
	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
	}
	var missing []string
	for _, required := range RequiredColumns {
		if !present[required] {
			missing = append(missing, required)
		}
	}
	return missing
}

func isMissing(cell string) bool {
	cell = strings.ToLower(strings.TrimSpace(cell))
	for _, token := range missingTokens {
		if cell == token {
			return true
		}
	}
	return false
}

// parseFloatCell returns NaN for an empty cell.
func parseFloatCell(cell string) (float64, error) {
	if isMissing(cell) {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return v, nil
}

// parseEpochCell accepts integers as well as integral-valued decimals such as "1211524407.0".
// The bool result is false for an empty cell.
func parseEpochCell(cell string) (int64, bool, error) {
	if isMissing(cell) {
		return 0, false, nil
	}
	cell = strings.TrimSpace(cell)
	if v, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return v, true, nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false, errors.WithStack(err)
	}
	if math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false, errors.Errorf("%v is not a whole number of seconds", f)
	}
	return int64(f), true, nil
}

func cellError(line int, column, value string, cause error) error {
	return errors.WithMessagef(cause, "line %d, column %s: cannot use %q", line, column, value)
}
