// Package server exposes footprint calculations over HTTP.
package server

import (
	"net/http"

	"github.com/rshade/footprint/internal/config"
)

// NewServer creates an *http.Server for handler using the configured
// address and timeouts.
func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
