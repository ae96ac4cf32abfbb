package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/lattice/internal/config"
	httpAdapter "github.com/aretw0/lattice/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

// NewHTTPHandler exposes the stack's sessions over HTTP, with /metrics
// when metrics are enabled.
func NewHTTPHandler(stack *Stack, logger *slog.Logger) http.Handler {
	opts := []httpAdapter.Option{httpAdapter.WithLogger(logger)}
	if stack.Metrics != nil {
		opts = append(opts, httpAdapter.WithMetrics(stack.Metrics.Handler()))
	}
	return httpAdapter.NewHandler(stack.Sessions, opts...)
}

// WatchTemplates logs every change to the template library until ctx is
// done. Templates are reread on each lookup, so logging is all a change needs.
func (s *Stack) WatchTemplates(ctx context.Context, logger *slog.Logger) error {
	if s.Templates == nil {
		return nil
	}
	changes, err := s.Templates.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for name := range changes {
			logger.Info("Template changed", "template", name)
		}
	}()
	return nil
}

// RunServe starts the HTTP server and blocks until ctx is done. Open
// editors are flushed before it returns.
func RunServe(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	stack, err := Build(cfg, logger)
	if err != nil {
		return err
	}

	if err := stack.WatchTemplates(ctx, logger); err != nil {
		logger.Warn("Template hot reload disabled", "err", err)
	}

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: NewHTTPHandler(stack, logger),
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting lattice server", "address", srv.Addr, "store", cfg.Store.Kind)
		serverErrors <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Start shutdown")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			_ = srv.Close()
		}
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := stack.Close(closeCtx); err != nil {
		logger.Error("Failed to flush pages", "err", err)
		runErr = errors.Join(runErr, err)
	}
	logger.Info("Lattice server stopped")
	return runErr
}
