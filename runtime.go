package slate

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/slateops/slate/service/event"
	"github.com/slateops/slate/service/executor"
)

// Runtime owns the long-running parts of the service: the execution worker
// pool, the event listener and the HTTP gateway.
type Runtime struct {
	executor        *executor.Service
	events          *event.Listener
	server          *http.Server
	shutdownTimeout time.Duration
}

// Start launches the execution workers, the event listener and the HTTP
// listener. It blocks until the listener stops.
func (r *Runtime) Start(ctx context.Context) error {
	r.executor.Start(ctx)
	r.events.Start(ctx)
	log.Printf("slate: listening on %s", r.server.Addr)
	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops the listener and drains the workers.
func (r *Runtime) Shutdown(ctx context.Context) error {
	timeout := r.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := r.server.Shutdown(shutdownCtx)
	r.executor.Shutdown()
	r.events.Stop()
	return err
}

// Handler exposes the gateway router, used when embedding the service in an
// existing HTTP server.
func (r *Runtime) Handler() http.Handler { return r.server.Handler }
