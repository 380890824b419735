package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/nodeusage/nodeusage/internal/common/usagecontext"
)

// CreateContextWithShutdown returns a context that will report done when SIGINT or SIGTERM is received.
// The returned cancel func releases the signal handler.
func CreateContextWithShutdown() (*usagecontext.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(c)
		select {
		case sig := <-c:
			log.Warnf("Received %s, stopping", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return usagecontext.New(ctx, log.NewEntry(log.StandardLogger())), cancel
}
