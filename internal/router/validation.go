package router

import (
	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/config"
)

// ValidationResult contains the results of routing validation.
type ValidationResult struct {
	// Valid is true if no errors were found. Warnings do not affect validity.
	Valid    bool                `json:"valid"`
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
}

// ValidationError represents a blocking validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationWarning represents a non-blocking warning.
type ValidationWarning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks cfg against the catalog and credential state without
// building a router. It reports the same problems New would reject as
// errors, plus warnings for configurations that are legal but probably not
// what the user meant.
func Validate(cfg config.RoutingConfig, catalog Catalog, configured bool) ValidationResult {
	result := ValidationResult{
		Valid:    true,
		Errors:   make([]ValidationError, 0),
		Warnings: make([]ValidationWarning, 0),
	}

	if err := cfg.Validate(); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{Field: "routing", Message: err.Error()})
		return result
	}

	for _, m := range cfg.Modes() {
		if catalog == nil || !catalog.Supports(activity.CategoryTrip, string(m)) {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   "routing.external_modes",
				Message: "no external mapping for trip mode " + string(m),
			})
		}
	}

	wantsExternal := len(cfg.ExternalModes) > 0 || cfg.ExternalElectricityEnabled()
	if wantsExternal && !configured {
		msg := "no API key configured; external records will use the local factor table"
		if cfg.Policy() == config.PolicyFail {
			msg = "no API key configured; external records will be reported as failures"
		}
		result.Warnings = append(result.Warnings, ValidationWarning{Field: "estimator.api_key", Message: msg})
	}
	if configured && !wantsExternal {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "routing",
			Message: "API key configured but no records are routed externally",
		})
	}
	return result
}
