package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nodeusage/nodeusage/internal/nodeusage"
)

// Reduce a raw event trace to the node activity table read by analyze.
func aggregateCmd(app *nodeusage.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate TRACE",
		Short: "Aggregate a node event trace into a node activity table.",
		Long: `Aggregate a node event trace into a node activity table.

Each trace line holds component_id, node_name, event_type, event_start_time and event_end_time.
Only active events count. Nodes observed for too short a span or active too few hours a day are dropped.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			_, err = app.Aggregate(contextFrom(cmd), args[0], output)
			return err
		},
	}

	cmd.Flags().StringP("output", "o", "", "Path of the node activity table. Written to stdout if empty.")
	cmd.Flags().String("timestamp-unit", "1s", "Unit of the trace timestamps, e.g. 1s or 1ms.")
	cmd.Flags().Bool("strict", false, "Fail on malformed lines instead of skipping them.")
	cmd.Flags().String("metrics-textfile", "", "Write aggregation metrics in Prometheus text format to this path.")

	return cmd
}
