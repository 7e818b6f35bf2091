package cli

import (
	"context"

	"github.com/rshade/footprint/internal/climatiq"
	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/engine"
	"github.com/rshade/footprint/internal/estimate"
	"github.com/rshade/footprint/internal/router"
)

// newAdapter builds the external estimator adapter. The capability is only
// set when a credential is configured, so Configured reports false rather
// than holding a typed nil.
func newAdapter(cfg *config.Config) *estimate.Adapter {
	var capability estimate.Capability
	if cfg.Estimator.Configured() {
		capability = climatiq.NewClient(climatiq.Config{
			APIKey:      cfg.Estimator.APIKey,
			Endpoint:    cfg.Estimator.Endpoint,
			DataVersion: cfg.Estimator.DataVersion,
			Timeout:     cfg.Estimator.Timeout,
		})
	}
	return estimate.NewAdapter(capability, estimate.AdapterConfig{SendRegion: cfg.Estimator.SendRegion})
}

// newRouter builds the routing table for cfg against adapter's catalog.
func newRouter(cfg *config.Config, adapter *estimate.Adapter) (*router.Router, error) {
	return router.New(
		router.WithConfig(cfg.Routing),
		router.WithCatalog(adapter),
		router.WithCapability(adapter.Configured()),
	)
}

// newCalculator wires the full estimation pipeline from cfg.
func newCalculator(ctx context.Context, cfg *config.Config, opts ...engine.Option) (*engine.Calculator, error) {
	adapter := newAdapter(cfg)
	r, err := newRouter(cfg, adapter)
	if err != nil {
		return nil, err
	}
	r.LogTable(ctx)

	base := []engine.Option{
		engine.WithConcurrency(cfg.Engine.Concurrency),
		engine.WithCallTimeout(cfg.Estimator.Timeout),
		engine.WithRetry(cfg.Estimator.MaxRetries, cfg.Estimator.RetryBackoff),
	}
	return engine.New(r, estimate.NewLocal(nil), adapter, append(base, opts...)...), nil
}
