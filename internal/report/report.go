// Package report turns a calculation Snapshot into what a person reads:
// the tip for the day, an impact level, a percentage breakdown,
// personalized suggestions and relatable equivalencies.
//
// Every value here is derived; nothing feeds back into the totals.
package report

import (
	"fmt"
	"time"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/engine"
	"github.com/rshade/footprint/internal/greenops"
)

// Daily tip texts, selected by total kg with strict comparisons.
const (
	TipHigh     = "Big day. Consider combining trips and dialing back high-impact purchases."
	TipModerate = "Nice work. Try a car-free errand or lowering A/C a notch."
	TipLow      = "Great job! Keep up the low-impact habits."
)

// Tip thresholds in kg CO2e.
const (
	TipHighAboveKg     = 20.0
	TipModerateAboveKg = 10.0
)

// Tip returns the canned tip for a daily total. Exactly 20 kg is moderate
// and exactly 10 kg is low.
func Tip(totalKg float64) string {
	switch {
	case totalKg > TipHighAboveKg:
		return TipHigh
	case totalKg > TipModerateAboveKg:
		return TipModerate
	default:
		return TipLow
	}
}

// ImpactLevel grades a daily total.
type ImpactLevel string

// Impact levels.
const (
	ImpactLow      ImpactLevel = "Low Impact"
	ImpactModerate ImpactLevel = "Moderate Impact"
	ImpactHigh     ImpactLevel = "High Impact"
)

// Impact returns the level for totalKg: below 10 is low, below 20 moderate.
func Impact(totalKg float64) ImpactLevel {
	switch {
	case totalKg < 10:
		return ImpactLow
	case totalKg < 20:
		return ImpactModerate
	default:
		return ImpactHigh
	}
}

// Percent returns part/total*100, or 0 when total is not positive.
func Percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}

// DailyAverageKg is the average American's daily footprint.
const DailyAverageKg = 16.0

// CompareToAverage describes totalKg relative to DailyAverageKg.
func CompareToAverage(totalKg float64) string {
	if totalKg < DailyAverageKg {
		return "You're doing better than average! Keep it up."
	}
	return "There's room for improvement. Check out the tips below to reduce your impact."
}

// Share is one category's slice of the total.
type Share struct {
	Category string  `json:"category"`
	Kg       float64 `json:"kg"`
	Percent  float64 `json:"percent"`
}

// Summary is everything a renderer needs for one snapshot.
type Summary struct {
	ID            string               `json:"id"`
	Timestamp     time.Time            `json:"timestamp"`
	Totals        engine.Totals        `json:"totals"`
	Impact        ImpactLevel          `json:"impact"`
	Tip           string               `json:"tip"`
	VersusAverage string               `json:"versusAverage"`
	Breakdown     []Share              `json:"breakdown"`
	Suggestions   []Suggestion         `json:"suggestions"`
	Equivalency   greenops.Equivalency `json:"equivalency"`
	Details       engine.Details       `json:"details"`
	Failures      []engine.Failure     `json:"failures"`
	Partial       bool                 `json:"partial"`
}

// Build derives a Summary from snap.
func Build(snap *engine.Snapshot) Summary {
	if snap == nil {
		snap = engine.Aggregate(nil)
	}
	t := snap.Totals
	eq, err := greenops.Calculate(t.TotalKg)
	if err != nil {
		eq = greenops.Equivalency{InputKg: t.TotalKg}
	}

	return Summary{
		ID:            snap.ID,
		Timestamp:     snap.Timestamp,
		Totals:        t,
		Impact:        Impact(t.TotalKg),
		Tip:           Tip(t.TotalKg),
		VersusAverage: CompareToAverage(t.TotalKg),
		Breakdown: []Share{
			{Category: "travel", Kg: t.TravelKg, Percent: Percent(t.TravelKg, t.TotalKg)},
			{Category: "electricity", Kg: t.ElectricityKg, Percent: Percent(t.ElectricityKg, t.TotalKg)},
			{Category: "expenses", Kg: t.ExpenseKg, Percent: Percent(t.ExpenseKg, t.TotalKg)},
		},
		Suggestions: Suggestions(snap),
		Equivalency: eq,
		Details:     snap.Details,
		Failures:    snap.Failures,
		Partial:     snap.Partial(),
	}
}

// FormatPercent renders a share with one decimal, e.g. "42.5%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// carKilometres sums the distance driven by fossil-fuel car.
func carKilometres(d engine.Details) float64 {
	var km float64
	for _, t := range d.Trips {
		if t.Mode == activity.ModeCar {
			km = greenops.SaturatingSum(km, t.DistanceKm)
		}
	}
	return km
}
