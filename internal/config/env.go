package config

import (
	"fmt"
	"strings"
	"time"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey          = "FOOTPRINT_API_KEY"
	EnvLegacyAPIKey    = "CLIMATIQ_API_KEY"
	EnvAPIURL          = "FOOTPRINT_API_URL"
	EnvLogLevel        = "FOOTPRINT_LOG_LEVEL"
	EnvLogFormat       = "FOOTPRINT_LOG_FORMAT"
	EnvHTTPAddress     = "FOOTPRINT_HTTP_ADDRESS"
	EnvExternalTimeout = "FOOTPRINT_EXTERNAL_TIMEOUT"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays environment variables onto cfg. FOOTPRINT_API_KEY wins
// over the legacy CLIMATIQ_API_KEY.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvLegacyAPIKey); ok {
		cfg.Estimator.APIKey = v
	}
	if v, ok := get(EnvAPIKey); ok {
		cfg.Estimator.APIKey = v
	}
	if v, ok := get(EnvAPIURL); ok {
		cfg.Estimator.Endpoint = v
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v, ok := get(EnvLogFormat); ok {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v, ok := get(EnvHTTPAddress); ok {
		cfg.Server.Address = v
	}
	if v, ok := get(EnvExternalTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvExternalTimeout, err)
		}
		cfg.Estimator.Timeout = d
	}
	return nil
}
