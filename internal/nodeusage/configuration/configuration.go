package configuration

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nodeusage/nodeusage/internal/common/logging"
	"github.com/nodeusage/nodeusage/internal/nodeusage/aggregate"
	"github.com/nodeusage/nodeusage/internal/nodeusage/reduce"
)

type Configuration struct {
	Logging logging.Config
	// Where the node activity table is read from
	Input InputConfig
	// Where run outputs are written
	Output OutputConfig
	// Parameters of the binning, summary and reduction stages
	Analysis AnalysisConfig
	// Parameters of k-means clustering
	KMeans KMeansConfig
	// Parameters of the event trace aggregation
	Aggregate AggregateConfig
}

type InputConfig struct {
	// Path of the node activity table.
	Path string `validate:"required"`
	// Field delimiter of the table.
	Delimiter rune `validate:"required"`
}

type OutputConfig struct {
	// Directory the report and projection files are written to.
	Dir string `validate:"required"`
	// File name of the PCA statistics report.
	ReportFile string `validate:"required"`
	// File name of the projection table. Not written if empty.
	ProjectionFile string
	// Path of a Prometheus textfile to write run metrics to. Not written if empty.
	MetricsTextfile string
}

type AnalysisConfig struct {
	// Fewest records with a lifespan for which quartiles are computed.
	MinQuartileRows int `validate:"gte=4"`
	// Fewest complete records for which PCA and clustering are computed.
	MinReductionRows int `validate:"gte=2"`
	// Biplot arrows are scaled to this fraction of the largest projected coordinate.
	BiplotScale float64 `validate:"gt=0"`
	// Number of most utilized nodes listed in the summary.
	TopN int `validate:"gte=0"`
}

type KMeansConfig struct {
	Clusters      int `validate:"gte=1"`
	Seed          int64
	Restarts      int     `validate:"gte=1"`
	MaxIterations int     `validate:"gte=1"`
	Tolerance     float64 `validate:"gte=0"`
}

type AggregateConfig struct {
	// Field delimiter of the event trace; "space" splits on runs of whitespace.
	Delimiter rune `validate:"required"`
	// Unit of the trace timestamps.
	TimestampUnit time.Duration `validate:"gt=0"`
	// Event type whose intervals count as activity.
	ActiveEventType string `validate:"required"`
	MinLifespanDays float64 `validate:"gte=0"`
	MinHoursPerDay  float64 `validate:"gte=0"`
	MergeOverlaps   bool
	Strict          bool
}

func (c Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterStructValidation(AnalysisValidation, Configuration{})
	return validate.Struct(c)
}

// AnalysisValidation checks constraints spanning several sections.
func AnalysisValidation(sl validator.StructLevel) {
	c := sl.Current().Interface().(Configuration)
	if c.Analysis.MinReductionRows < c.KMeans.Clusters {
		sl.ReportError(c.Analysis.MinReductionRows, "Analysis.MinReductionRows", "MinReductionRows", "gtecsfield", "KMeans.Clusters")
	}
}

// ReduceOptions returns the reduction stage options described by c.
func (c Configuration) ReduceOptions() reduce.Options {
	return reduce.Options{
		MinRows:     c.Analysis.MinReductionRows,
		BiplotScale: c.Analysis.BiplotScale,
		KMeans: reduce.KMeansOptions{
			Clusters:      c.KMeans.Clusters,
			Seed:          c.KMeans.Seed,
			Restarts:      c.KMeans.Restarts,
			MaxIterations: c.KMeans.MaxIterations,
			Tolerance:     c.KMeans.Tolerance,
		},
	}
}

// AggregateOptions returns the event trace aggregation options described by c.
func (c Configuration) AggregateOptions() aggregate.Options {
	return aggregate.Options{
		Delimiter:       c.Aggregate.Delimiter,
		TimestampUnit:   c.Aggregate.TimestampUnit,
		ActiveEventType: c.Aggregate.ActiveEventType,
		MinLifespanDays: c.Aggregate.MinLifespanDays,
		MinHoursPerDay:  c.Aggregate.MinHoursPerDay,
		MergeOverlaps:   c.Aggregate.MergeOverlaps,
		Strict:          c.Aggregate.Strict,
	}
}
