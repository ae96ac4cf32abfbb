package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/lattice/internal/config"
	"github.com/aretw0/lattice/pkg/adapters/mcp"
)

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// NewMCPServer exposes the stack's sessions as MCP tools.
func NewMCPServer(stack *Stack, logger *slog.Logger) *mcp.Server {
	opts := []mcp.Option{mcp.WithLogger(logger)}
	if stack.Templates != nil {
		opts = append(opts, mcp.WithTemplates(stack.Templates))
	}
	return mcp.NewServer(stack.Sessions, opts...)
}

// RunMCP serves the MCP adapter on transport until the client disconnects
// (stdio) or ctx is done (sse).
func RunMCP(ctx context.Context, cfg config.Config, transport string, port int, logger *slog.Logger) error {
	if transport != TransportStdio && transport != TransportSSE {
		return fmt.Errorf("unknown transport %q (supported: %s, %s)", transport, TransportStdio, TransportSSE)
	}

	stack, err := Build(cfg, logger)
	if err != nil {
		return err
	}
	srv := NewMCPServer(stack, logger)
	if err := stack.WatchTemplates(ctx, logger); err != nil {
		logger.Warn("Template hot reload disabled", "err", err)
	}

	var runErr error
	switch transport {
	case TransportStdio:
		logger.Info("Starting lattice MCP server (stdio)")
		runErr = srv.ServeStdio()
	case TransportSSE:
		logger.Info("Starting lattice MCP server (SSE)", "port", port)
		if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := stack.Close(closeCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	logger.Info("MCP server stopped")
	return runErr
}
