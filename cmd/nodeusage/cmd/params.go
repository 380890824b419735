package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nodeusage/nodeusage/internal/common/logging"
	"github.com/nodeusage/nodeusage/internal/nodeusage"
	"github.com/nodeusage/nodeusage/internal/nodeusage/configuration"
)

const configFlag = "config"

// Config keys set by each flag. Flags not listed here are read by the command itself.
var flagKeys = map[string]string{
	"log-level":        "logging.level",
	"log-format":       "logging.format",
	"input":            "input.path",
	"delimiter":        "input.delimiter",
	"output-dir":       "output.dir",
	"metrics-textfile": "output.metricsTextfile",
	"clusters":         "kmeans.clusters",
	"seed":             "kmeans.seed",
	"min-rows":         "analysis.minReductionRows",
	"top":              "analysis.topN",
	"timestamp-unit":   "aggregate.timestampUnit",
	"strict":           "aggregate.strict",
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(configFlag, "", "Path of a YAML, JSON or TOML config file.")
	cmd.PersistentFlags().String("log-level", "info", "Log level: trace, debug, info, warn or error.")
	cmd.PersistentFlags().String("log-format", "plain", "Log format: plain, text or json.")
}

// initParams loads the configuration from defaults, the config file, the environment and the flags of cmd,
// in increasing order of precedence, and stores it in app.
func initParams(cmd *cobra.Command, app *nodeusage.App) error {
	configFile, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return errors.WithStack(err)
	}
	v, err := configuration.NewViper(configFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	c, err := configuration.Load(v)
	if err != nil {
		return err
	}
	if err := logging.Configure(c.Logging, cmd.ErrOrStderr()); err != nil {
		return err
	}
	app.Params.Config = c
	app.Out = cmd.OutOrStdout()
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
