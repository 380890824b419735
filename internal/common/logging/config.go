package logging

import (
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type LogFormat string

const (
	FormatPlain LogFormat = "plain"
	FormatText  LogFormat = "text"
	FormatJSON  LogFormat = "json"
)

var validLogFormats = map[LogFormat]bool{
	FormatPlain: true,
	FormatText:  true,
	FormatJSON:  true,
}

// Config defines logging configuration for the command line.
type Config struct {
	// Log level, e.g. info, debug etc
	Level string `mapstructure:"level"`
	// Logging format: plain (message only), text or json
	Format LogFormat `mapstructure:"format"`
}

func DefaultConfig() Config {
	return Config{Level: "info", Format: FormatPlain}
}

func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.Level); err != nil {
		return errors.WithStack(err)
	}
	return validateLogFormat(c.Format)
}

func validateLogFormat(f LogFormat) error {
	if !validLogFormats[f] {
		formats := maps.Keys(validLogFormats)
		slices.Sort(formats)
		return errors.Errorf("unknown log format: %s.  Valid formats are %s", f, formats)
	}
	return nil
}

func formatterFor(f LogFormat) log.Formatter {
	switch LogFormat(strings.ToLower(string(f))) {
	case FormatJSON:
		return &log.JSONFormatter{}
	case FormatText:
		return &log.TextFormatter{FullTimestamp: true}
	default:
		return new(CommandLineFormatter)
	}
}
