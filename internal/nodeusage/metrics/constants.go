package metrics

const (

	// common prefix for all metric names
	prefix = "nodeusage_"

	// Prometheus Labels
	stageLabel     = "stage"
	componentLabel = "component"
	clusterLabel   = "cluster"
	binLabel       = "bin"
	outcomeLabel   = "outcome"
	runIDLabel     = "run_id"
	kindLabel      = "kind"
	resultLabel    = "result"

	// Stage names
	StageLoad      = "load"
	StageDerive    = "derive"
	StageBin       = "bin"
	StageSummarise = "summarise"
	StageReduce    = "reduce"
	StageReport    = "report"
	StageAggregate = "aggregate"
)
