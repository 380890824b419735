package report

import (
	"fmt"
	"strings"

	"github.com/nodeusage/nodeusage/internal/common/util"
	"github.com/nodeusage/nodeusage/internal/nodeusage/reduce"
	"github.com/nodeusage/nodeusage/internal/nodeusage/summary"
)

func newTable() *util.TabbedStringBuilder {
	return util.NewTabbedStringBuilder(1, 1, 2, ' ', 0)
}

// FormatSummary renders the descriptive statistics of a run for the console.
func FormatSummary(s *summary.Summary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Records: %d\n", s.Records))

	sb.WriteString("\nUtilization (%)\n")
	d := s.Utilization
	dist := newTable()
	header := []any{"count", "mean", "std", "min"}
	values := []any{d.Count, d.Mean, d.StdDev, d.Min}
	for _, p := range d.Percentiles {
		header = append(header, fmt.Sprintf("p%.0f", p.P*100))
		values = append(values, p.Value)
	}
	header = append(header, "median", "max")
	values = append(values, d.Median, d.Max)
	dist.WriteRow(header...)
	dist.WriteRow(values...)
	sb.WriteString(dist.String())

	sb.WriteString("\nUtilization by lifespan\n")
	boxes := newTable()
	boxes.WriteRow("bin", "count", "q1", "median", "q3", "whisker_low", "whisker_high", "outliers")
	for _, b := range s.ByLifespan {
		boxes.WriteRow(b.Label, b.Count, b.Q1, b.Median, b.Q3, b.LowerWhisker, b.UpperWhisker, b.Outliers)
	}
	sb.WriteString(boxes.String())

	sb.WriteString("\nLifespan vs utilization\n")
	r := s.LifespanVsUtilization
	rel := newTable()
	rel.WriteRow("n", "correlation", "intercept", "slope", "r_squared")
	rel.WriteRow(r.N, r.Correlation, r.Intercept, fmt.Sprintf("%.4f", r.Slope), r.RSquared)
	sb.WriteString(rel.String())

	if len(s.Top) > 0 {
		sb.WriteString("\nTop nodes by utilization\n")
		top := newTable()
		top.WriteRow("node_id", "utilization_pct", "active_span_days")
		for _, n := range s.Top {
			top.WriteRow(n.NodeID, n.UtilizationPct, n.ActiveSpanDays)
		}
		sb.WriteString(top.String())
	}
	return sb.String()
}

// FormatReduction renders the outcome of the reduction stage for the console.
func FormatReduction(result *reduce.Result) string {
	if result.Outcome != reduce.Computed {
		return fmt.Sprintf("Reduction: %s (%d complete rows, %d required)\n",
			result.Outcome, len(result.CompleteRows), result.RequiredRows)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Reduction: %s over %d rows\n", result.Outcome, len(result.CompleteRows)))
	t := newTable()
	t.WriteRow("component", "eigenvalue", "explained_variance_ratio")
	for i, ev := range result.PCA.Eigenvalues {
		t.WriteRow(fmt.Sprintf("PC%d", i+1), fmt.Sprintf("%.4f", ev), fmt.Sprintf("%.4f", result.PCA.ExplainedVarianceRatio[i]))
	}
	sb.WriteString(t.String())
	sb.WriteString(fmt.Sprintf("Clusters: sizes %v, inertia %.4f, %d iterations\n",
		result.Clusters.Sizes(), result.Clusters.Inertia, result.Clusters.Iterations))
	return sb.String()
}
