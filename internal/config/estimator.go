package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/Masterminds/semver/v3"
)

// EstimatorConfig configures the external estimation capability.
type EstimatorConfig struct {
	// APIKey is the bearer credential. Empty means no external capability.
	APIKey string `yaml:"api_key" json:"api_key"`

	// Endpoint is the estimate URL.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// DataVersion is the dataset version constraint sent with every request,
	// e.g. "^21". Must parse as a semver constraint.
	DataVersion string `yaml:"data_version" json:"data_version"`

	// Timeout bounds each external call, including retries' individual attempts.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// MaxRetries is the number of additional attempts after a transport failure.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// RetryBackoff is the pause before each retry.
	RetryBackoff time.Duration `yaml:"retry_backoff" json:"retry_backoff"`

	// SendRegion forwards the electricity grid region to the capability.
	SendRegion bool `yaml:"send_region" json:"send_region"`
}

// Configured reports whether a credential is present.
func (e EstimatorConfig) Configured() bool {
	return e.APIKey != ""
}

// DataVersionConstraint parses DataVersion.
func (e EstimatorConfig) DataVersionConstraint() (*semver.Constraints, error) {
	c, err := semver.NewConstraint(e.DataVersion)
	if err != nil {
		return nil, fmt.Errorf("estimator.data_version %q: %w", e.DataVersion, err)
	}
	return c, nil
}

// Validate checks the estimator section.
func (e EstimatorConfig) Validate() error {
	var errs []error
	u, err := url.Parse(e.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("estimator.endpoint must be an http(s) URL, got %q", e.Endpoint))
	}
	if _, cErr := e.DataVersionConstraint(); cErr != nil {
		errs = append(errs, cErr)
	}
	if e.Timeout <= 0 {
		errs = append(errs, errors.New("estimator.timeout must be positive"))
	}
	if e.MaxRetries < 0 || e.MaxRetries > MaxRetries {
		errs = append(errs, fmt.Errorf("estimator.max_retries must be between 0 and %d, got %d",
			MaxRetries, e.MaxRetries))
	}
	if e.RetryBackoff < 0 {
		errs = append(errs, errors.New("estimator.retry_backoff must not be negative"))
	}
	return errors.Join(errs...)
}
