package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nodeusage/nodeusage/internal/common/usagecontext"
	"github.com/nodeusage/nodeusage/internal/nodeusage"
)

// Run the analysis over a node activity table.
// Prints the summary and writes the PCA report and projection.
func analyzeCmd(app *nodeusage.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarise node utilization by lifespan and reduce it with PCA and k-means.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := app.Analyze(contextFrom(cmd))
			return err
		},
	}

	cmd.Flags().StringP("input", "i", "results.csv", "Node activity table to analyse.")
	cmd.Flags().String("delimiter", ",", `Field delimiter of the table; "tab" and "space" are accepted.`)
	cmd.Flags().StringP("output-dir", "o", ".", "Directory the PCA report and projection are written to.")
	cmd.Flags().String("metrics-textfile", "", "Write run metrics in Prometheus text format to this path.")
	cmd.Flags().Int("clusters", 3, "Number of k-means clusters.")
	cmd.Flags().Int64("seed", 42, "Seed of the k-means initialisation.")
	cmd.Flags().Int("min-rows", 5, "Fewest complete records for which the reduction is computed.")
	cmd.Flags().Int("top", 5, "Number of most utilized nodes to list.")

	return cmd
}

func contextFrom(cmd *cobra.Command) *usagecontext.Context {
	return usagecontext.FromContext(cmd.Context())
}
