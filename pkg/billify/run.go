package billify

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"billify.site/pkg/billify/logging"
)

const shutDownTimeout = 30 * time.Second

// Run starts the HTTP server and blocks until it stops. SIGINT and SIGTERM trigger a
// graceful shutdown.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopped := make(chan struct{})

	go func() {
		defer close(stopped)

		<-ctx.Done()

		shutdownCtx, done := context.WithTimeout(context.Background(), shutDownTimeout)
		defer done()

		_ = a.Shutdown(shutdownCtx)
	}()

	a.httpServer.run()

	if ctx.Err() != nil {
		<-stopped
	}
}

// Shutdown stops the HTTP server, closes the datasources, flushes pending spans and the
// logger.
func (a *App) Shutdown(ctx context.Context) error {
	err := errors.Join(a.httpServer.shutdown(ctx), a.container.Close(), shutdownTracer(ctx, a.tracerProvider))

	if err != nil {
		a.container.Errorf("error while shutting down: %v", err)
	} else {
		a.container.Logf("application shutdown complete")
	}

	return errors.Join(err, logging.Shutdown())
}
