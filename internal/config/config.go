// Package config loads footprint configuration from defaults, an optional
// YAML file and FOOTPRINT_* environment variables.
//
// The resulting Config is passed explicitly to the components that need it;
// there is no package-level configuration state.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
//
// YAML Location: ~/.footprint/config.yaml (or $FOOTPRINT_HOME/config.yaml)
//
// Example:
//
//	estimator:
//	  api_key: sk_live_...
//	  timeout: 5s
//	  max_retries: 1
//	routing:
//	  external_modes: [car, flightShort]
//	  unconfigured_policy: fail
//	server:
//	  address: ":8080"
type Config struct {
	Estimator EstimatorConfig `yaml:"estimator" json:"estimator"`
	Routing   RoutingConfig   `yaml:"routing"   json:"routing"`
	Engine    EngineConfig    `yaml:"engine"    json:"engine"`
	Server    ServerConfig    `yaml:"server"    json:"server"`
	Output    OutputConfig    `yaml:"output"    json:"output"`
	Logging   LoggingConfig   `yaml:"logging"   json:"logging"`

	// path is the file the configuration was read from, if any.
	path string
}

// EngineConfig bounds the calculation fan-out.
type EngineConfig struct {
	// Concurrency is the maximum number of in-flight external calls.
	Concurrency int `yaml:"concurrency" json:"concurrency"`
}

// ServerConfig configures the HTTP surface started by `footprint serve`.
type ServerConfig struct {
	Address      string        `yaml:"address"       json:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"  json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"  json:"idle_timeout"`
}

// OutputConfig sets CLI rendering defaults.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"`
}

// Defaults.
const (
	DefaultEndpoint       = "https://api.climatiq.io/data/v1/estimate"
	DefaultDataVersion    = "^21"
	DefaultTimeout        = 10 * time.Second
	DefaultRetryBackoff   = 250 * time.Millisecond
	DefaultConcurrency    = 4
	DefaultAddress        = ":3000"
	DefaultOutputFormat   = "table"
	MaxRetries            = 3
	MaxConcurrency        = 64
	configFileName        = "config.yaml"
	configDirName         = ".footprint"
	defaultReadTimeout    = 15 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultIdleTimeout    = 60 * time.Second
	PolicyLocal           = "local"
	PolicyFail            = "fail"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
	DefaultServeLogFormat = "json"
)

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Estimator: EstimatorConfig{
			Endpoint:     DefaultEndpoint,
			DataVersion:  DefaultDataVersion,
			Timeout:      DefaultTimeout,
			RetryBackoff: DefaultRetryBackoff,
		},
		Routing: RoutingConfig{
			ExternalModes:      []string{"car"},
			UnconfiguredPolicy: PolicyLocal,
		},
		Engine: EngineConfig{Concurrency: DefaultConcurrency},
		Server: ServerConfig{
			Address:      DefaultAddress,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
			IdleTimeout:  defaultIdleTimeout,
		},
		Output: OutputConfig{DefaultFormat: DefaultOutputFormat},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Path returns the file the configuration was loaded from, or "".
func (c *Config) Path() string { return c.path }

// GetConfigDir returns $FOOTPRINT_HOME, else ~/.footprint.
func GetConfigDir() (string, error) {
	if home := os.Getenv("FOOTPRINT_HOME"); home != "" {
		return home, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, configDirName), nil
}

// DefaultPath returns the config file path used when --config is not given.
func DefaultPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load builds a Config from defaults, the YAML file at path and the process
// environment, then validates it. An empty path selects DefaultPath, and a
// missing default file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		err := ShallowMergeYAML(cfg, path)
		switch {
		case err == nil:
			cfg.path = path
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, err
		}
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every structural problem in c.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Estimator.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Routing.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Engine.Concurrency < 1 || c.Engine.Concurrency > MaxConcurrency {
		errs = append(errs, fmt.Errorf("engine.concurrency must be between 1 and %d, got %d",
			MaxConcurrency, c.Engine.Concurrency))
	}
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address must not be empty"))
	}
	switch c.Output.DefaultFormat {
	case "table", "json", "ndjson":
	default:
		errs = append(errs, fmt.Errorf("output.default_format must be table, json or ndjson, got %q",
			c.Output.DefaultFormat))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Redacted returns a copy of c safe to print.
func (c *Config) Redacted() *Config {
	cp := *c
	cp.Routing.ExternalModes = append([]string(nil), c.Routing.ExternalModes...)
	if cp.Estimator.APIKey != "" {
		cp.Estimator.APIKey = redactedKey
	}
	return &cp
}

const redactedKey = "********"

// YAML renders c as YAML.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshalling config: %w", err)
	}
	return out, nil
}
