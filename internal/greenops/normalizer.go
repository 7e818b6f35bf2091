// Package greenops holds carbon-mass arithmetic shared by the estimators and
// the presentation layer: unit normalization to kilograms, fixed-precision
// rounding, number formatting and relatable equivalencies.
package greenops

import (
	"math"
	"strings"
)

func unitFactor(unit string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "g", "gco2e":
		return GramsToKg, true
	case "kg", "kgco2e", "":
		return KgToKg, true
	case "t", "tco2e", "tonne", "tonnes":
		return TonsToKg, true
	case "lb", "lbs", "lbco2e":
		return PoundsToKg, true
	default:
		return 0, false
	}
}

// NormalizeToKg converts a carbon mass in unit to kilograms. An empty unit
// is read as kilograms. Matching is case-insensitive.
func NormalizeToKg(value float64, unit string) (float64, error) {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, ErrCalculationOverflow
	}
	if value < 0 {
		return 0, ErrNegativeValue
	}
	factor, ok := unitFactor(unit)
	if !ok {
		return 0, ErrInvalidUnit
	}
	result := value * factor
	if math.IsInf(result, 0) {
		return 0, ErrCalculationOverflow
	}
	return result, nil
}

// IsRecognizedUnit reports whether NormalizeToKg accepts unit.
func IsRecognizedUnit(unit string) bool {
	_, ok := unitFactor(unit)
	return ok
}

// Round rounds v half away from zero to the given number of decimals.
// Values too large to scale are returned unchanged; at that magnitude they
// carry no fractional digits anyway.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	scaled := v * p
	if math.IsInf(scaled, 0) {
		return v
	}
	return math.Round(scaled) / p
}

// SaturatingSum adds values in order, holding the result at
// ±math.MaxFloat64 instead of overflowing to infinity.
func SaturatingSum(values ...float64) float64 {
	var total float64
	for _, v := range values {
		total += v
		switch {
		case math.IsInf(total, 1):
			total = math.MaxFloat64
		case math.IsInf(total, -1):
			total = -math.MaxFloat64
		}
	}
	return total
}

// RoundKg rounds a stored kg value to StoragePrecision.
func RoundKg(v float64) float64 {
	return Round(v, StoragePrecision)
}
