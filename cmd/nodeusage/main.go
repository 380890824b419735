package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/nodeusage/nodeusage/cmd/nodeusage/cmd"
	"github.com/nodeusage/nodeusage/internal/common/app"
	"github.com/nodeusage/nodeusage/internal/common/logging"
	"github.com/nodeusage/nodeusage/internal/common/usageerrors"
)

// Config is handled by cmd/params.go
func main() {
	logging.ConfigureCommandLineLogging()
	ctx, cancel := app.CreateContextWithShutdown()
	err := cmd.RootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		logging.WithStacktrace(log.NewEntry(log.StandardLogger()), err).Error(logging.TopmostWithCause(err))
		os.Exit(usageerrors.ExitCodeFromError(err))
	}
}
