package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeusage/nodeusage/internal/common/logging"
	"github.com/nodeusage/nodeusage/internal/common/usagecontext"
	"github.com/nodeusage/nodeusage/internal/common/usageerrors"
	"github.com/nodeusage/nodeusage/internal/nodeusage/binning"
	"github.com/nodeusage/nodeusage/internal/nodeusage/configuration"
	"github.com/nodeusage/nodeusage/internal/nodeusage/metrics"
	"github.com/nodeusage/nodeusage/internal/nodeusage/reduce"
	"github.com/nodeusage/nodeusage/internal/nodeusage/report"
)

const header = "node_id,avg_hours_per_day,active_span_days,start_epoch,end_epoch"

type node struct {
	id       string
	hours    float64
	spanDays float64
	startDay int
}

func (n node) line() string {
	start := n.startDay * 86400
	end := start + int(n.spanDays*86400)
	return fmt.Sprintf("%s,%g,%g,%d,%d", n.id, n.hours, n.spanDays, start, end)
}

func testContext() *usagecontext.Context {
	return usagecontext.New(context.Background(), logrus.NewEntry(logging.NullLogger))
}

// setup writes nodes as the input table in a fresh directory and returns a default configuration reading it.
func setup(t *testing.T, lines ...string) configuration.Configuration {
	dir := t.TempDir()
	input := filepath.Join(dir, "results.csv")
	require.NoError(t, os.WriteFile(input, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	v, err := configuration.NewViper("")
	require.NoError(t, err)
	c, err := configuration.Load(v)
	require.NoError(t, err)
	c.Input.Path = input
	c.Output.Dir = filepath.Join(dir, "out")
	return c
}

func lines(nodes ...node) []string {
	rv := []string{header}
	for _, n := range nodes {
		rv = append(rv, n.line())
	}
	return rv
}

func eightNodes() []node {
	return []node{
		{id: "n1", hours: 1.2, spanDays: 300, startDay: 0},
		{id: "n2", hours: 2.9, spanDays: 320, startDay: 40},
		{id: "n3", hours: 7.2, spanDays: 345, startDay: 10},
		{id: "n4", hours: 1.9, spanDays: 360, startDay: 120},
		{id: "n5", hours: 13.2, spanDays: 410, startDay: 15},
		{id: "n6", hours: 14.4, spanDays: 450, startDay: 200},
		{id: "n7", hours: 4.8, spanDays: 520, startDay: 65},
		{id: "n8", hours: 21.6, spanDays: 700, startDay: 5},
	}
}

func run(t *testing.T, c configuration.Configuration) (*Result, error) {
	return New(c, metrics.New()).Run(testContext())
}

func TestRun_Computed(t *testing.T) {
	c := setup(t, lines(eightNodes()...)...)
	c.Output.MetricsTextfile = filepath.Join(c.Output.Dir, "nodeusage.prom")

	result, err := run(t, c)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 8, result.Table.Len())
	assert.False(t, result.Bins.IsFallback())
	assert.Equal(t, reduce.Computed, result.Reduction.Outcome)
	assert.Len(t, result.Summary.Top, 5)

	assert.Equal(t, filepath.Join(c.Output.Dir, "pca_stats.txt"), result.ReportPath)
	assert.Equal(t, filepath.Join(c.Output.Dir, "pca_projection.csv"), result.ProjectionPath)
	for _, path := range []string{result.ReportPath, result.ProjectionPath, result.MetricsPath} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}

	content, err := os.ReadFile(result.ReportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), report.PCAReportTitle))
}

func TestRun_Deterministic(t *testing.T) {
	c := setup(t, lines(eightNodes()...)...)
	first, err := run(t, c)
	require.NoError(t, err)
	firstReport, err := os.ReadFile(first.ReportPath)
	require.NoError(t, err)

	second, err := run(t, c)
	require.NoError(t, err)
	secondReport, err := os.ReadFile(second.ReportPath)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Reduction.Clusters.Labels, second.Reduction.Clusters.Labels)
	assert.Equal(t, firstReport, secondReport)
	if diff := cmp.Diff(first.Summary, second.Summary, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("summary differs between runs (-first +second):\n%s", diff)
	}
}

func TestRun_NoProjectionFile(t *testing.T) {
	c := setup(t, lines(eightNodes()...)...)
	c.Output.ProjectionFile = ""
	result, err := run(t, c)
	require.NoError(t, err)
	assert.Empty(t, result.ProjectionPath)
	assert.NotEmpty(t, result.ReportPath)
}

// Three records: one fallback bin and no reduction.
func TestRun_ScenarioA(t *testing.T) {
	c := setup(t, lines(eightNodes()[:3]...)...)

	// Output of an earlier, larger run.
	require.NoError(t, os.MkdirAll(c.Output.Dir, 0o755))
	stale := filepath.Join(c.Output.Dir, c.Output.ReportFile)
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))

	result, err := run(t, c)
	require.NoError(t, err)
	for _, b := range result.Bins.Bins {
		assert.Equal(t, binning.FallbackLabel, b.Label())
	}
	assert.Equal(t, reduce.InsufficientData, result.Reduction.Outcome)
	assert.Empty(t, result.ReportPath)
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	require.NotNil(t, result.Summary)
	assert.Equal(t, 3, result.Summary.Utilization.Count)
}

// Twenty records all active twelve hours a day.
func TestRun_ScenarioB(t *testing.T) {
	var nodes []node
	for i := 0; i < 20; i++ {
		nodes = append(nodes, node{id: fmt.Sprintf("n%02d", i), hours: 12.0, spanDays: float64(300 + 7*i), startDay: i * 3})
	}
	c := setup(t, lines(nodes...)...)
	result, err := run(t, c)
	require.NoError(t, err)
	for _, row := range result.Derived.Rows {
		assert.Equal(t, 50.0, row.UtilizationPct)
	}
	assert.Equal(t, reduce.Computed, result.Reduction.Outcome)
	assert.Equal(t, []string{"utilization_pct"}, result.Reduction.DegenerateFeatures)
}

// Identical records apart from one with a far longer lifespan.
func TestRun_ScenarioC(t *testing.T) {
	var nodes []node
	for i := 0; i < 7; i++ {
		nodes = append(nodes, node{id: fmt.Sprintf("n%d", i), hours: 6, spanDays: 320, startDay: 0})
	}
	nodes = append(nodes, node{id: "outlier", hours: 6, spanDays: 5000, startDay: 0})
	c := setup(t, lines(nodes...)...)

	result, err := run(t, c)
	require.NoError(t, err)
	assert.Equal(t, binning.Bin{Kind: binning.Binned, Quartile: 4}, result.Bins.Bins[7])
	require.Equal(t, reduce.Computed, result.Reduction.Outcome)

	z := result.Reduction.Standardized
	outlier := math.Abs(z.At(7, 0))
	for i := 0; i < 7; i++ {
		assert.Less(t, math.Abs(z.At(i, 0)), outlier)
	}
	assert.Len(t, result.Reduction.Clusters.Labels, 8)
}

// The input has no avg_hours_per_day column.
func TestRun_ScenarioD(t *testing.T) {
	c := setup(t,
		"node_id,active_span_days,start_epoch,end_epoch",
		"n1,300,0,25920000",
	)
	result, err := run(t, c)
	require.Error(t, err)
	assert.Nil(t, result)

	var e *usageerrors.ErrInputMalformed
	require.True(t, errors.As(err, &e))
	assert.Equal(t, []string{"avg_hours_per_day"}, e.MissingColumns)

	_, statErr := os.Stat(c.Output.Dir)
	assert.True(t, os.IsNotExist(statErr), "nothing is written")
}

func TestRun_InputUnavailable(t *testing.T) {
	c := setup(t, header)
	c.Input.Path = filepath.Join(t.TempDir(), "absent.csv")
	_, err := run(t, c)
	assert.Equal(t, usageerrors.ExitInputUnavailable, usageerrors.ExitCodeFromError(err))
}

func TestRun_MissingValuesAreExcluded(t *testing.T) {
	l := lines(eightNodes()...)
	l = append(l, "gap,,400,0,34560000", "nostart,3,400,,34560000")
	c := setup(t, l...)

	result, err := run(t, c)
	require.NoError(t, err)
	assert.Equal(t, 10, result.Table.Len())
	assert.Equal(t, reduce.Computed, result.Reduction.Outcome)
	assert.Len(t, result.Reduction.CompleteRows, 8)
	assert.Equal(t, 10, result.Summary.Records)
	assert.Equal(t, 9, result.Summary.Utilization.Count)
}
