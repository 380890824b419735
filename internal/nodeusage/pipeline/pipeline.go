// Package pipeline runs the analysis stages in order: load, derive, bin, summarise, reduce and report.
// Stages run sequentially and each consumes the complete output of the previous one.
package pipeline

import (
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/nodeusage/nodeusage/internal/common/usagecontext"
	"github.com/nodeusage/nodeusage/internal/common/util"
	"github.com/nodeusage/nodeusage/internal/nodeusage/binning"
	"github.com/nodeusage/nodeusage/internal/nodeusage/configuration"
	"github.com/nodeusage/nodeusage/internal/nodeusage/derive"
	"github.com/nodeusage/nodeusage/internal/nodeusage/metrics"
	"github.com/nodeusage/nodeusage/internal/nodeusage/records"
	"github.com/nodeusage/nodeusage/internal/nodeusage/reduce"
	"github.com/nodeusage/nodeusage/internal/nodeusage/report"
	"github.com/nodeusage/nodeusage/internal/nodeusage/summary"
)

// Result holds the output of every stage of a run.
type Result struct {
	RunID     string
	Table     *records.Table
	Derived   *derive.Table
	Bins      binning.Assignment
	Summary   *summary.Summary
	Reduction *reduce.Result
	// Paths of the files written by the run; empty if the file was not written.
	ReportPath     string
	ProjectionPath string
	MetricsPath    string
}

type Pipeline struct {
	config  configuration.Configuration
	metrics *metrics.Metrics
}

func New(config configuration.Configuration, m *metrics.Metrics) *Pipeline {
	return &Pipeline{config: config, metrics: m}
}

// Run executes one analysis. An error is returned only for fatal conditions: the input cannot be read or is
// malformed, or an output cannot be written. Too little data for quartiles or for the reduction is reported
// through the result instead.
func (p *Pipeline) Run(ctx *usagecontext.Context) (*Result, error) {
	rv := &Result{RunID: util.NewRunID()}
	ctx = usagecontext.WithLogField(ctx, "runId", rv.RunID)
	p.metrics.ReportRun(rv.RunID)

	err := p.stage(ctx, metrics.StageLoad, func(ctx *usagecontext.Context) error {
		table, err := records.Load(p.config.Input.Path, records.LoadOptions{Delimiter: p.config.Input.Delimiter})
		if err != nil {
			return err
		}
		anomalies := table.Anomalies()
		if anomalies.HoursOutOfRange > 0 {
			ctx.Warnf("%d records have avg_hours_per_day outside [0, 24]; keeping them as they are", anomalies.HoursOutOfRange)
		}
		if anomalies.EndBeforeStart > 0 {
			ctx.Warnf("%d records end before they start; keeping them as they are", anomalies.EndBeforeStart)
		}
		p.metrics.ReportLoad(table.Len(), anomalies.HoursOutOfRange, anomalies.EndBeforeStart)
		ctx.Infof("loaded %d records from %s", table.Len(), table.Source)
		rv.Table = table
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = p.stage(ctx, metrics.StageDerive, func(ctx *usagecontext.Context) error {
		rv.Derived = derive.Derive(rv.Table)
		return nil
	})

	_ = p.stage(ctx, metrics.StageBin, func(ctx *usagecontext.Context) error {
		rv.Bins = binning.Assign(rv.Derived.Lifespans(), p.config.Analysis.MinQuartileRows)
		if rv.Bins.IsFallback() {
			ctx.Infof("too few lifespans for quartiles; all records are binned as %q", binning.FallbackLabel)
		}
		if unbinned := len(rv.Bins.Bins) - sumCounts(rv.Bins.Counts()); unbinned > 0 {
			ctx.Warnf("%d records have no active_span_days and are not binned", unbinned)
		}
		p.metrics.ReportBins(rv.Bins)
		return nil
	})

	_ = p.stage(ctx, metrics.StageSummarise, func(ctx *usagecontext.Context) error {
		rv.Summary = summary.Summarise(rv.Derived, rv.Bins, p.config.Analysis.TopN)
		return nil
	})

	err = p.stage(ctx, metrics.StageReduce, func(ctx *usagecontext.Context) error {
		result, err := reduce.Reduce(ctx, rv.Derived.Rows, p.config.ReduceOptions())
		if err != nil {
			return err
		}
		p.metrics.ReportReduction(result)
		rv.Reduction = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, metrics.StageReport, func(ctx *usagecontext.Context) error {
		return p.writeOutputs(ctx, rv)
	})
	if err != nil {
		return nil, err
	}

	if path := p.config.Output.MetricsTextfile; path != "" {
		if err := p.metrics.WriteTextfile(path); err != nil {
			return nil, errors.WithMessagef(err, "writing metrics to %s", path)
		}
		rv.MetricsPath = path
	}
	return rv, nil
}

func (p *Pipeline) writeOutputs(ctx *usagecontext.Context, rv *Result) error {
	reportPath := filepath.Join(p.config.Output.Dir, p.config.Output.ReportFile)
	projectionPath := ""
	if p.config.Output.ProjectionFile != "" {
		projectionPath = filepath.Join(p.config.Output.Dir, p.config.Output.ProjectionFile)
	}

	if rv.Reduction.Outcome != reduce.Computed {
		// Outputs of an earlier run no longer describe this input.
		if err := report.RemoveStale(reportPath, projectionPath); err != nil {
			return errors.WithMessage(err, "removing outputs of a previous run")
		}
		ctx.Infof("reduction skipped: %d complete rows, %d required", len(rv.Reduction.CompleteRows), rv.Reduction.RequiredRows)
		return nil
	}

	if err := report.WritePCAReport(reportPath, rv.Reduction); err != nil {
		return errors.WithMessagef(err, "writing PCA report to %s", reportPath)
	}
	rv.ReportPath = reportPath
	ctx.Infof("PCA report written to %s", reportPath)

	if projectionPath != "" {
		if err := report.WriteProjection(projectionPath, rv.Derived.Rows, rv.Reduction); err != nil {
			return errors.WithMessagef(err, "writing projection to %s", projectionPath)
		}
		rv.ProjectionPath = projectionPath
		ctx.Infof("projection written to %s", projectionPath)
	}
	return nil
}

// stage runs f with a stage-scoped logger and records how long it took.
func (p *Pipeline) stage(ctx *usagecontext.Context, name string, f func(*usagecontext.Context) error) error {
	start := time.Now()
	err := f(usagecontext.WithLogField(ctx, "stage", name))
	p.metrics.ReportStageDuration(name, time.Since(start))
	return err
}

func sumCounts(counts map[string]int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}
