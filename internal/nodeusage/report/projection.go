package report

import (
	"bytes"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"

	"github.com/nodeusage/nodeusage/internal/nodeusage/derive"
	"github.com/nodeusage/nodeusage/internal/nodeusage/reduce"
)

// Columns of the projection table.
const (
	ColumnNodeID  = "node_id"
	ColumnPC1     = "pc1"
	ColumnPC2     = "pc2"
	ColumnCluster = "cluster"
)

// ProjectionFrame returns one row per reduced record: its node id, coordinates on the first two components
// and cluster label.
func ProjectionFrame(rows []derive.Row, result *reduce.Result) (dataframe.DataFrame, error) {
	if result == nil || result.Outcome != reduce.Computed {
		return dataframe.DataFrame{}, errors.New("no computed reduction to export")
	}
	n := len(result.CompleteRows)
	ids := make([]string, n)
	pc1 := make([]float64, n)
	pc2 := make([]float64, n)
	clusters := make([]int, n)
	for i, idx := range result.CompleteRows {
		ids[i] = rows[idx].NodeID
		pc1[i] = result.Projection.At(i, 0)
		pc2[i] = result.Projection.At(i, 1)
		clusters[i] = result.Clusters.Labels[i]
	}
	df := dataframe.New(
		series.New(ids, series.String, ColumnNodeID),
		series.New(pc1, series.Float, ColumnPC1),
		series.New(pc2, series.Float, ColumnPC2),
		series.New(clusters, series.Int, ColumnCluster),
	)
	if df.Err != nil {
		return df, errors.WithStack(df.Err)
	}
	return df, nil
}

// WriteProjection overwrites path with the projection table as CSV.
func WriteProjection(path string, rows []derive.Row, result *reduce.Result) error {
	df, err := ProjectionFrame(rows, result)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := df.WriteCSV(&buf); err != nil {
		return errors.WithStack(err)
	}
	return writeFileAtomic(path, buf.Bytes())
}
