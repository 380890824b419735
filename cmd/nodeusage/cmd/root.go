package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nodeusage/nodeusage/internal/nodeusage"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodeusage",
		Short: "nodeusage analyses how long nodes live and how heavily they are used.",
		Long: `nodeusage analyses how long nodes live and how heavily they are used.

Persistent config can be saved in a config file so it doesn't have to be specified every command.

Example structure:
input:
  path: results.csv
output:
  dir: out
kmeans:
  clusters: 3

The location of this file can be passed in using the --config argument.
If not provided, $HOME/.nodeusage.yaml is used if it exists.
Every key can also be set through the environment, e.g. NODEUSAGE_KMEANS_SEED=7.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addPersistentFlags(cmd)

	cmd.AddCommand(
		versionCmd(nodeusage.New()),
		analyzeCmd(nodeusage.New()),
		aggregateCmd(nodeusage.New()),
	)

	return cmd
}

// Print version info and exit.
func versionCmd(app *nodeusage.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Out = cmd.OutOrStdout()
			return app.Version()
		},
	}
	return cmd
}
