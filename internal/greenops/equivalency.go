package greenops

import (
	"fmt"
	"math"
)

// EquivalencyType is a category of relatable comparison.
type EquivalencyType int

const (
	// EquivalencyMilesDriven compares to miles in an average passenger car.
	EquivalencyMilesDriven EquivalencyType = iota
	// EquivalencySmartphonesCharged compares to full smartphone charges.
	EquivalencySmartphonesCharged
	// EquivalencyTreeSeedlings compares to seedlings grown for ten years.
	EquivalencyTreeSeedlings
)

// String returns the label used in JSON output.
func (e EquivalencyType) String() string {
	switch e {
	case EquivalencyMilesDriven:
		return "miles_driven"
	case EquivalencySmartphonesCharged:
		return "smartphones_charged"
	case EquivalencyTreeSeedlings:
		return "tree_seedlings"
	default:
		return fmt.Sprintf("EquivalencyType(%d)", int(e))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e EquivalencyType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EquivalencyType) UnmarshalText(b []byte) error {
	for _, t := range []EquivalencyType{EquivalencyMilesDriven, EquivalencySmartphonesCharged, EquivalencyTreeSeedlings} {
		if t.String() == string(b) {
			*e = t
			return nil
		}
	}
	return fmt.Errorf("%w: unknown equivalency type %q", ErrInvalidEquivalency, b)
}

// EquivalencyResult is one computed comparison.
type EquivalencyResult struct {
	Type           EquivalencyType `json:"type"`
	Value          float64         `json:"value"`
	FormattedValue string          `json:"formattedValue"`
	Label          string          `json:"label"`
}

// Equivalency is the set of comparisons for one kg total.
type Equivalency struct {
	InputKg     float64             `json:"inputKg"`
	Results     []EquivalencyResult `json:"results,omitempty"`
	DisplayText string              `json:"displayText,omitempty"`
	CompactText string              `json:"compactText,omitempty"`
}

// IsEmpty reports whether no comparisons were produced.
func (e Equivalency) IsEmpty() bool { return len(e.Results) == 0 }

// Calculate computes equivalencies for kg CO2e. Totals below
// MinEquivalencyThresholdKg produce an empty result and no error.
func Calculate(kg float64) (Equivalency, error) {
	if math.IsInf(kg, 0) || math.IsNaN(kg) {
		return Equivalency{}, ErrCalculationOverflow
	}
	if kg < 0 {
		return Equivalency{}, ErrNegativeValue
	}
	if kg < MinEquivalencyThresholdKg {
		return Equivalency{InputKg: kg}, nil
	}

	miles := kg / EPAMilesDrivenFactor
	phones := kg / EPASmartphoneChargeFactor
	trees := kg / EPATreeSeedlingFactor
	if math.IsInf(miles, 0) || math.IsInf(phones, 0) || math.IsInf(trees, 0) {
		return Equivalency{}, ErrCalculationOverflow
	}

	milesText := formatEquivalency(miles)
	phonesText := formatEquivalency(phones)

	return Equivalency{
		InputKg: kg,
		Results: []EquivalencyResult{
			{Type: EquivalencyMilesDriven, Value: miles, FormattedValue: milesText, Label: "miles driven"},
			{Type: EquivalencySmartphonesCharged, Value: phones, FormattedValue: phonesText, Label: "smartphones charged"},
			{Type: EquivalencyTreeSeedlings, Value: trees, FormattedValue: FormatFloat(trees, 1), Label: "tree seedlings grown for 10 years"},
		},
		DisplayText: fmt.Sprintf("Equivalent to driving ~%s miles or charging ~%s smartphones", milesText, phonesText),
		CompactText: fmt.Sprintf("(≈ %s mi, %s phones)", milesText, phonesText),
	}, nil
}

func formatEquivalency(v float64) string {
	if v >= LargeNumberThreshold {
		return FormatLarge(v)
	}
	return FormatNumber(int64(math.Round(v)))
}
