package aggregate

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/nodeusage/nodeusage/internal/nodeusage/records"
)

// WriteTable writes nodes in the format read by records.Load.
func WriteTable(w io.Writer, nodes []NodeActivity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(records.RequiredColumns); err != nil {
		return errors.WithStack(err)
	}
	for _, n := range nodes {
		row := []string{
			n.NodeID,
			strconv.FormatFloat(n.AvgHoursPerDay, 'f', 4, 64),
			strconv.FormatFloat(n.SpanDays, 'f', 2, 64),
			strconv.FormatInt(n.StartEpoch, 10),
			strconv.FormatInt(n.EndEpoch, 10),
		}
		if err := cw.Write(row); err != nil {
			return errors.WithStack(err)
		}
	}
	cw.Flush()
	return errors.WithStack(cw.Error())
}
