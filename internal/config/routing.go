package config

import (
	"errors"
	"fmt"

	"github.com/rshade/footprint/internal/activity"
)

// RoutingConfig decides which records may be estimated externally.
//
// Example:
//
//	routing:
//	  external_modes: [car]
//	  external_electricity: true
//	  unconfigured_policy: local
type RoutingConfig struct {
	// ExternalModes lists trip modes sent to the external capability.
	// Default is [car].
	ExternalModes []string `yaml:"external_modes" json:"external_modes"`

	// ExternalElectricity sends electricity usage to the external capability.
	// Default is true if not specified.
	ExternalElectricity *bool `yaml:"external_electricity,omitempty" json:"external_electricity,omitempty"`

	// UnconfiguredPolicy applies when a record would go external but no
	// credential is configured:
	//   - local: estimate it with the local factor table
	//   - fail: report it as a configuration_missing failure
	UnconfiguredPolicy string `yaml:"unconfigured_policy" json:"unconfigured_policy"`
}

// ExternalElectricityEnabled returns whether electricity may go external.
// Returns true if ExternalElectricity is nil (default behavior).
func (r RoutingConfig) ExternalElectricityEnabled() bool {
	if r.ExternalElectricity == nil {
		return true
	}
	return *r.ExternalElectricity
}

// Policy returns UnconfiguredPolicy, defaulting to PolicyLocal.
func (r RoutingConfig) Policy() string {
	if r.UnconfiguredPolicy == "" {
		return PolicyLocal
	}
	return r.UnconfiguredPolicy
}

// Modes returns ExternalModes as trip modes.
func (r RoutingConfig) Modes() []activity.TripMode {
	out := make([]activity.TripMode, 0, len(r.ExternalModes))
	for _, m := range r.ExternalModes {
		out = append(out, activity.TripMode(m))
	}
	return out
}

// Validate checks the routing section. Mode names must match exactly; an
// unknown name here is a typo, not user input to be defaulted.
func (r RoutingConfig) Validate() error {
	var errs []error
	for i, m := range r.ExternalModes {
		if !activity.IsTripMode(m) {
			errs = append(errs, fmt.Errorf("routing.external_modes[%d]: unknown trip mode %q", i, m))
		}
	}
	switch r.Policy() {
	case PolicyLocal, PolicyFail:
	default:
		errs = append(errs, fmt.Errorf("routing.unconfigured_policy must be %q or %q, got %q",
			PolicyLocal, PolicyFail, r.UnconfiguredPolicy))
	}
	return errors.Join(errs...)
}
