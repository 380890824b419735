package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// ConfigureCommandLineLogging sets up the standard logger for interactive use: message-only output on stdout.
func ConfigureCommandLineLogging() {
	log.SetFormatter(new(CommandLineFormatter))
	log.SetOutput(os.Stdout)
}

// Configure applies c to the standard logger. Output goes to out, or stdout if out is nil.
func Configure(c Config, out io.Writer) error {
	if err := c.Validate(); err != nil {
		return err
	}
	level, _ := log.ParseLevel(c.Level)
	if out == nil {
		out = os.Stdout
	}
	log.SetLevel(level)
	log.SetFormatter(formatterFor(c.Format))
	log.SetOutput(out)
	return nil
}
