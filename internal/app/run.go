package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Run listens on the configured address and serves until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.HTTPAddr)
	if err != nil {
		_ = a.Close()
		return fmt.Errorf("listen %s: %w", a.cfg.HTTPAddr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves the router on ln until ctx is done. Shutdown happens in order:
// the pipeline drains first so /readyz reports draining while chunks finish,
// then the HTTP server stops, then the app is closed.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Printf("listening on %s", ln.Addr())
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		_ = a.Close()
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	a.logger.Printf("shutting down")

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), positiveOr(a.cfg.DrainTimeout, 30*time.Second))
	if err := a.Drain(drainCtx); err != nil {
		a.logger.Printf("drain: %v", err)
	}
	cancelDrain()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), positiveOr(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if closeErr := a.Close(); err == nil {
		err = closeErr
	}
	return err
}

func positiveOr(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
