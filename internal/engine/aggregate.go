package engine

import (
	"sort"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/greenops"
)

// Aggregate folds settled outcomes into a Snapshot. Subtotals are summed in
// ascending order of value, so the totals depend only on the multiset of
// results and not on the order outcomes arrive in. Details and failures are
// listed by record index. ID and Timestamp are left for the caller.
func Aggregate(outcomes []Outcome) *Snapshot {
	sorted := make([]Outcome, len(outcomes))
	copy(sorted, outcomes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	snap := &Snapshot{
		Details: Details{
			Trips:    []TripDetail{},
			Expenses: []ExpenseDetail{},
			Meals:    []MealDetail{},
		},
		Failures: []Failure{},
	}

	var travel, electricity, expense, meal []float64
	for _, o := range sorted {
		if o.Failure != nil {
			snap.Failures = append(snap.Failures, *o.Failure)
			continue
		}
		if o.Result == nil {
			continue
		}
		kg := o.Result.KgCO2
		switch rec := o.Record.(type) {
		case activity.Trip:
			travel = append(travel, kg)
			snap.Details.Trips = append(snap.Details.Trips, TripDetail{
				Index:       o.Index,
				Mode:        rec.Mode,
				DistanceKm:  greenops.RoundKg(rec.Quantity()),
				Origin:      rec.Origin,
				Destination: rec.Destination,
				Kg:          kg,
				Method:      o.Result.Method,
			})
		case activity.ElectricityUsage:
			electricity = append(electricity, kg)
			snap.Details.Electricity = &ElectricityDetail{
				Index:      o.Index,
				KWh:        rec.Quantity(),
				GridRegion: activity.NormalizeRegion(rec.GridRegion),
				Kg:         kg,
				Method:     o.Result.Method,
			}
		case activity.Expense:
			expense = append(expense, kg)
			snap.Details.Expenses = append(snap.Details.Expenses, ExpenseDetail{
				Index:       o.Index,
				Category:    rec.Category,
				Amount:      rec.Quantity(),
				Description: rec.Description,
				Kg:          kg,
			})
		case activity.Meal:
			expense = append(expense, kg)
			meal = append(meal, kg)
			snap.Details.Meals = append(snap.Details.Meals, MealDetail{
				Index:    o.Index,
				DietType: rec.DietType,
				Count:    rec.Count,
				Kg:       kg,
			})
		}
	}

	snap.Totals = Totals{
		TravelKg:      greenops.RoundKg(sum(travel)),
		ElectricityKg: greenops.RoundKg(sum(electricity)),
		ExpenseKg:     greenops.RoundKg(sum(expense)),
		MealKg:        greenops.RoundKg(sum(meal)),
	}
	snap.Totals.TotalKg = greenops.RoundKg(greenops.SaturatingSum(
		snap.Totals.TravelKg, snap.Totals.ElectricityKg, snap.Totals.ExpenseKg))
	return snap
}

// sum adds values in ascending order and saturates at math.MaxFloat64, so a
// set of finite results never totals to infinity.
func sum(values []float64) float64 {
	sort.Float64s(values)
	return greenops.SaturatingSum(values...)
}
