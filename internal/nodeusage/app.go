// Package nodeusage implements the commands of the nodeusage CLI.
package nodeusage

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/nodeusage/nodeusage/internal/common/usagecontext"
	"github.com/nodeusage/nodeusage/internal/common/usageerrors"
	"github.com/nodeusage/nodeusage/internal/common/util"
	"github.com/nodeusage/nodeusage/internal/nodeusage/aggregate"
	"github.com/nodeusage/nodeusage/internal/nodeusage/build"
	"github.com/nodeusage/nodeusage/internal/nodeusage/configuration"
	"github.com/nodeusage/nodeusage/internal/nodeusage/metrics"
	"github.com/nodeusage/nodeusage/internal/nodeusage/pipeline"
	"github.com/nodeusage/nodeusage/internal/nodeusage/report"
)

type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the application's output.
	Out io.Writer
}

// Params holds all user-customizable parameters.
// They can be provided on the command line, through the environment or in a config file.
type Params struct {
	Config configuration.Configuration
}

// New instantiates an App writing to standard out.
func New() *App {
	return &App{
		Params: &Params{},
		Out:    os.Stdout,
	}
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return nil
}

// Analyze runs the analysis pipeline over the configured input and prints the summary to the app output.
func (a *App) Analyze(ctx *usagecontext.Context) (*pipeline.Result, error) {
	result, err := pipeline.New(a.Params.Config, metrics.New()).Run(ctx)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(a.Out, report.FormatSummary(result.Summary))
	fmt.Fprintln(a.Out, report.FormatReduction(result.Reduction))
	if result.ReportPath != "" {
		fmt.Fprintf(a.Out, "PCA report: %s\n", result.ReportPath)
	}
	if result.ProjectionPath != "" {
		fmt.Fprintf(a.Out, "Projection: %s\n", result.ProjectionPath)
	}
	return result, nil
}

// Aggregate reduces the event trace at input to a node activity table written to output,
// or to the app output if output is empty.
func (a *App) Aggregate(ctx *usagecontext.Context, input, output string) (aggregate.Stats, error) {
	f, err := os.Open(input)
	if err != nil {
		return aggregate.Stats{}, errors.WithStack(&usageerrors.ErrInputUnavailable{
			Path:    input,
			Message: err.Error(),
		})
	}
	defer util.CloseResource("event trace", f)

	ctx = usagecontext.WithLogField(ctx, "source", input)
	nodes, stats, err := aggregate.Aggregate(ctx, input, f, a.Params.Config.AggregateOptions())
	if err != nil {
		return stats, err
	}
	if stats.Malformed > 0 {
		ctx.Warnf("skipped %d malformed lines", stats.Malformed)
	}
	ctx.Infof("kept %d of %d nodes from %d lines", stats.Kept, stats.Nodes, stats.Lines)

	if output == "" {
		if err := aggregate.WriteTable(a.Out, nodes); err != nil {
			return stats, err
		}
	} else {
		out, err := os.Create(output)
		if err != nil {
			return stats, errors.WithMessagef(err, "creating %s", output)
		}
		defer util.CloseResource("node activity table", out)
		if err := aggregate.WriteTable(out, nodes); err != nil {
			return stats, errors.WithMessagef(err, "writing %s", output)
		}
		ctx.Infof("node activity table written to %s", output)
	}

	if path := a.Params.Config.Output.MetricsTextfile; path != "" {
		m := metrics.New()
		m.ReportAggregation(stats)
		if err := m.WriteTextfile(path); err != nil {
			return stats, errors.WithMessagef(err, "writing metrics to %s", path)
		}
	}
	return stats, nil
}
