package configuration

import (
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/nodeusage/nodeusage/internal/common/config"
	"github.com/nodeusage/nodeusage/internal/common/usageerrors"
)

// EnvPrefix is prepended to environment variables overriding config keys, e.g. NODEUSAGE_KMEANS_SEED.
const EnvPrefix = "NODEUSAGE"

// SetDefaults registers the default value of every config key with v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "plain")

	v.SetDefault("input.path", "results.csv")
	v.SetDefault("input.delimiter", ",")

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.reportFile", "pca_stats.txt")
	v.SetDefault("output.projectionFile", "pca_projection.csv")
	v.SetDefault("output.metricsTextfile", "")

	v.SetDefault("analysis.minQuartileRows", 4)
	v.SetDefault("analysis.minReductionRows", 5)
	v.SetDefault("analysis.biplotScale", 0.8)
	v.SetDefault("analysis.topN", 5)

	v.SetDefault("kmeans.clusters", 3)
	v.SetDefault("kmeans.seed", 42)
	v.SetDefault("kmeans.restarts", 10)
	v.SetDefault("kmeans.maxIterations", 300)
	v.SetDefault("kmeans.tolerance", 1e-4)

	v.SetDefault("aggregate.delimiter", ",")
	v.SetDefault("aggregate.timestampUnit", "1s")
	v.SetDefault("aggregate.activeEventType", "1")
	v.SetDefault("aggregate.minLifespanDays", 300)
	v.SetDefault("aggregate.minHoursPerDay", 1)
	v.SetDefault("aggregate.mergeOverlaps", true)
	v.SetDefault("aggregate.strict", false)
}

// DefaultConfigName is the config file looked up in the home directory when none is given, e.g. ~/.nodeusage.yaml.
const DefaultConfigName = ".nodeusage"

// NewViper returns a viper instance with defaults registered and environment overrides enabled.
// If configFile is non-empty it is read as well; otherwise a config file in the home directory is read if one exists.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		path, err := homedir.Expand(configFile)
		if err != nil {
			return nil, invalidConfigFile(configFile, err)
		}
		v.SetConfigFile(path)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			// Without a home directory there is no default config file to read.
			return v, nil
		}
		v.AddConfigPath(home)
		v.SetConfigName(DefaultConfigName)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Only returned when looking for the default file, which users don't have to provide.
			return v, nil
		}
		return nil, invalidConfigFile(configFile, err)
	}
	return v, nil
}

func invalidConfigFile(path string, err error) error {
	return errors.WithStack(&usageerrors.ErrInvalidArgument{
		Name:    "config",
		Value:   path,
		Message: err.Error(),
	})
}

// Load decodes and validates the configuration held by v. Validation failures are logged per field.
func Load(v *viper.Viper) (Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c, config.CustomHooks...); err != nil {
		return c, errors.WithStack(&usageerrors.ErrInvalidArgument{
			Name:    "config",
			Value:   v.ConfigFileUsed(),
			Message: err.Error(),
		})
	}
	if err := expandPaths(&c); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		config.LogValidationErrors(err)
		return c, errors.WithStack(&usageerrors.ErrInvalidArgument{
			Name:    "config",
			Value:   v.ConfigFileUsed(),
			Message: err.Error(),
		})
	}
	if err := c.Logging.Validate(); err != nil {
		return c, errors.WithStack(&usageerrors.ErrInvalidArgument{
			Name:    "logging",
			Value:   c.Logging,
			Message: err.Error(),
		})
	}
	return c, nil
}

// expandPaths replaces a leading ~ in the configured paths with the home directory.
func expandPaths(c *Configuration) error {
	for _, path := range []*string{&c.Input.Path, &c.Output.Dir, &c.Output.MetricsTextfile} {
		expanded, err := homedir.Expand(*path)
		if err != nil {
			return errors.WithStack(&usageerrors.ErrInvalidArgument{
				Name:    "path",
				Value:   *path,
				Message: err.Error(),
			})
		}
		*path = expanded
	}
	return nil
}
