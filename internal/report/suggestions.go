package report

import (
	"fmt"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/engine"
	"github.com/rshade/footprint/internal/greenops"
)

// Suggestion is a personalized tip.
type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// Suggestion thresholds.
const (
	carMilesThreshold       = 5.0
	transportKgThreshold    = 8.0
	electricityKWhThreshold = 25.0
	electricityKgThreshold  = 5.0
	suggestionImpactHigh    = "High"
	suggestionImpactMedium  = "Medium"
	suggestionImpactLow     = "Low"
)

// Suggestions returns personalized tips for snap. The renewable energy tip
// is always last.
func Suggestions(snap *engine.Snapshot) []Suggestion {
	var out []Suggestion
	d := snap.Details
	t := snap.Totals

	if miles := carKilometres(d) / activity.KmPerMile; miles > carMilesThreshold {
		out = append(out, Suggestion{
			Title: "Try Alternative Transport",
			Description: fmt.Sprintf("With %s miles of car travel, consider carpooling, public transit, "+
				"or biking for shorter trips to cut emissions by up to 50%%.", greenops.FormatFloat(miles, 1)),
			Impact: suggestionImpactHigh,
		})
	}
	if t.TravelKg > transportKgThreshold {
		out = append(out, Suggestion{
			Title:       "Work From Home",
			Description: "If possible, work from home a few days a week to significantly reduce your commute emissions.",
			Impact:      suggestionImpactHigh,
		})
	}

	if hasDiet(d, activity.DietMeatHeavy) {
		out = append(out, Suggestion{
			Title:       "Try Meatless Mondays",
			Description: "Reducing meat consumption by just one meal per week can save approximately 0.5 kg CO₂ per day.",
			Impact:      suggestionImpactMedium,
		})
	}
	if hasDiet(d, activity.DietMixed) {
		out = append(out, Suggestion{
			Title: "Go Plant-Based",
			Description: "Plant-based meals can reduce food-related emissions by up to 50%. " +
				"Try incorporating more vegetables and legumes.",
			Impact: suggestionImpactMedium,
		})
	}

	if d.Electricity != nil && d.Electricity.KWh > electricityKWhThreshold {
		out = append(out, Suggestion{
			Title:       "Switch to LED Bulbs",
			Description: "LED bulbs use 75% less energy and last 25 times longer than traditional bulbs.",
			Impact:      suggestionImpactMedium,
		})
	}
	if t.ElectricityKg > electricityKgThreshold {
		out = append(out, Suggestion{
			Title: "Unplug Electronics",
			Description: "Devices on standby mode can account for 10% of your energy use. " +
				"Unplug chargers and appliances when not in use.",
			Impact: suggestionImpactLow,
		})
	}

	return append(out, Suggestion{
		Title:       "Consider Renewable Energy",
		Description: "Switching to a renewable energy provider can reduce your carbon footprint by up to 80%.",
		Impact:      suggestionImpactHigh,
	})
}

func hasDiet(d engine.Details, diet activity.DietType) bool {
	for _, m := range d.Meals {
		if m.DietType == diet {
			return true
		}
	}
	return false
}
