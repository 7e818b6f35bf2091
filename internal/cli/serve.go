package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/server"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 15 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the footprint HTTP API",
		Long: `Starts an HTTP server exposing:

  POST /api/calculate    full activity input, returns the report as JSON
  POST /api/vehicle      one trip, returns {data:{attributes:{carbon_kg}}}
  POST /api/electricity  electricity usage, same response shape
  GET  /health           liveness and whether an API key is loaded
  GET  /metrics          Prometheus metrics`,
		Example: `  # Listen on the configured address (default :3000)
  footprint serve

  # Listen elsewhere
  footprint serve --address 127.0.0.1:8080`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFromContext(cmd.Context())
			if cmd.Flags().Changed("address") {
				cfg.Server.Address = address
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address (default from config, :3000)")
	return cmd
}

func runServe(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	calc, err := newCalculator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building estimator: %w", err)
	}

	mux := http.NewServeMux()
	server.NewHandler(calc, cfg.Estimator.Configured()).RegisterRoutes(mux)

	srv := server.NewServer(cfg.Server, server.WithLogging(baseLogger, server.WithCORS(mux)))

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Ctx(ctx).
			Str("address", cfg.Server.Address).
			Bool("api_key_loaded", cfg.Estimator.Configured()).
			Msg("server listening")
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	logger.Info().Ctx(ctx).Msg("shutting down")
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
