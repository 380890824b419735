package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nodeusage/nodeusage/internal/nodeusage/aggregate"
	"github.com/nodeusage/nodeusage/internal/nodeusage/binning"
	"github.com/nodeusage/nodeusage/internal/nodeusage/reduce"
)

// Metrics holds the gauges describing a single run. Each instance owns its registry, so runs never share state.
type Metrics struct {
	registry *prometheus.Registry

	runInfo                *prometheus.GaugeVec
	stageDuration          *prometheus.GaugeVec
	recordsLoaded          prometheus.Gauge
	recordsComplete        prometheus.Gauge
	recordAnomalies        *prometheus.GaugeVec
	binSize                *prometheus.GaugeVec
	reductionOutcome       *prometheus.GaugeVec
	explainedVarianceRatio *prometheus.GaugeVec
	eigenvalue             *prometheus.GaugeVec
	clusterSize            *prometheus.GaugeVec
	inertia                prometheus.Gauge
	kmeansIterations       prometheus.Gauge
	aggregateLines         *prometheus.GaugeVec
	aggregateNodes         *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "run_info",
				Help: "Always 1; labelled with the id of the run",
			},
			[]string{runIDLabel},
		),
		stageDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "stage_duration_seconds",
				Help: "Wall-clock time spent in each pipeline stage",
			},
			[]string{stageLabel},
		),
		recordsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "records_loaded",
				Help: "Number of records read from the input table",
			},
		),
		recordsComplete: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "records_complete",
				Help: "Number of records with every reduction feature present",
			},
		),
		recordAnomalies: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "record_anomalies",
				Help: "Number of records with out-of-range values, by kind",
			},
			[]string{kindLabel},
		),
		binSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "lifespan_bin_records",
				Help: "Number of records in each lifespan bin",
			},
			[]string{binLabel},
		),
		reductionOutcome: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "reduction_outcome",
				Help: "1 for the outcome of the reduction stage, 0 otherwise",
			},
			[]string{outcomeLabel},
		),
		explainedVarianceRatio: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "pca_explained_variance_ratio",
				Help: "Share of variance explained by each retained principal component",
			},
			[]string{componentLabel},
		),
		eigenvalue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "pca_eigenvalue",
				Help: "Covariance eigenvalue of each retained principal component",
			},
			[]string{componentLabel},
		),
		clusterSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "kmeans_cluster_size",
				Help: "Number of records in each cluster",
			},
			[]string{clusterLabel},
		),
		inertia: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "kmeans_inertia",
				Help: "Sum of squared distances from each record to its cluster centroid",
			},
		),
		kmeansIterations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "kmeans_iterations",
				Help: "Lloyd iterations used by the selected k-means restart",
			},
		),
		aggregateLines: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "aggregate_lines",
				Help: "Number of event trace lines, by what happened to them",
			},
			[]string{resultLabel},
		),
		aggregateNodes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "aggregate_nodes",
				Help: "Number of nodes seen in the event trace, and the number kept",
			},
			[]string{resultLabel},
		),
	}
	m.registry.MustRegister(
		m.runInfo,
		m.stageDuration,
		m.recordsLoaded,
		m.recordsComplete,
		m.recordAnomalies,
		m.binSize,
		m.reductionOutcome,
		m.explainedVarianceRatio,
		m.eigenvalue,
		m.clusterSize,
		m.inertia,
		m.kmeansIterations,
		m.aggregateLines,
		m.aggregateNodes,
	)
	return m
}

// Registry returns the registry holding every metric of the run.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ReportRun(runID string) {
	m.runInfo.WithLabelValues(runID).Set(1)
}

func (m *Metrics) ReportStageDuration(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

func (m *Metrics) ReportLoad(records, hoursOutOfRange, endBeforeStart int) {
	m.recordsLoaded.Set(float64(records))
	m.recordAnomalies.WithLabelValues("hours_out_of_range").Set(float64(hoursOutOfRange))
	m.recordAnomalies.WithLabelValues("end_before_start").Set(float64(endBeforeStart))
}

func (m *Metrics) ReportBins(a binning.Assignment) {
	for label, count := range a.Counts() {
		m.binSize.WithLabelValues(label).Set(float64(count))
	}
}

func (m *Metrics) ReportReduction(result *reduce.Result) {
	m.recordsComplete.Set(float64(len(result.CompleteRows)))
	for _, o := range []reduce.Outcome{reduce.Computed, reduce.InsufficientData} {
		v := 0.0
		if o == result.Outcome {
			v = 1
		}
		m.reductionOutcome.WithLabelValues(o.String()).Set(v)
	}
	if result.Outcome != reduce.Computed {
		return
	}
	for i, ratio := range result.PCA.ExplainedVarianceRatio {
		component := fmt.Sprintf("PC%d", i+1)
		m.explainedVarianceRatio.WithLabelValues(component).Set(ratio)
		m.eigenvalue.WithLabelValues(component).Set(result.PCA.Eigenvalues[i])
	}
	for cluster, size := range result.Clusters.Sizes() {
		m.clusterSize.WithLabelValues(strconv.Itoa(cluster)).Set(float64(size))
	}
	m.inertia.Set(result.Clusters.Inertia)
	m.kmeansIterations.Set(float64(result.Clusters.Iterations))
}

func (m *Metrics) ReportAggregation(stats aggregate.Stats) {
	m.aggregateLines.WithLabelValues("total").Set(float64(stats.Lines))
	m.aggregateLines.WithLabelValues("event").Set(float64(stats.Events))
	m.aggregateLines.WithLabelValues("skipped").Set(float64(stats.Skipped))
	m.aggregateLines.WithLabelValues("malformed").Set(float64(stats.Malformed))
	m.aggregateNodes.WithLabelValues("seen").Set(float64(stats.Nodes))
	m.aggregateNodes.WithLabelValues("kept").Set(float64(stats.Kept))
}

// WriteTextfile writes every metric to path in the Prometheus text format, for collection by a node exporter
// textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return errors.WithStack(prometheus.WriteToTextfile(path, m.registry))
}
