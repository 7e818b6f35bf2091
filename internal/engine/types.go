package engine

import (
	"time"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/estimate"
	"github.com/rshade/footprint/internal/router"
)

// Result is the estimate for one record. KgCO2 is rounded to three decimals.
type Result struct {
	Index  int             `json:"index"`
	Record activity.Record `json:"-"`
	KgCO2  float64         `json:"kgCO2"`
	Method router.Method   `json:"method"`
}

// Failure is a record whose estimate could not be produced. It is reported
// alongside the results and never counted as zero emissions.
type Failure struct {
	Index    int               `json:"index"`
	Category activity.Category `json:"category"`
	Key      string            `json:"key"`
	Method   router.Method     `json:"method"`
	Kind     estimate.Kind     `json:"kind"`
	Message  string            `json:"message"`
	Status   int               `json:"status,omitempty"`
	Payload  string            `json:"payload,omitempty"`
}

// Outcome is the settled state of one record slot. Exactly one of Result
// and Failure is set, or neither when the record had nothing to estimate.
type Outcome struct {
	Index   int
	Record  activity.Record
	Method  router.Method
	Result  *Result
	Failure *Failure
}

// Skipped reports whether the record was excluded as a no-op.
func (o Outcome) Skipped() bool {
	return o.Result == nil && o.Failure == nil
}

// Totals are kg CO2e subtotals, each rounded to three decimals.
// ExpenseKg includes meals; MealKg is the meal share of it.
type Totals struct {
	TravelKg      float64 `json:"travelKg"`
	ElectricityKg float64 `json:"electricityKg"`
	ExpenseKg     float64 `json:"expenseKg"`
	MealKg        float64 `json:"mealKg"`
	TotalKg       float64 `json:"totalKg"`
}

// TripDetail is one estimated trip.
type TripDetail struct {
	Index       int               `json:"index"`
	Mode        activity.TripMode `json:"mode"`
	DistanceKm  float64           `json:"distanceKm"`
	Origin      string            `json:"origin,omitempty"`
	Destination string            `json:"destination,omitempty"`
	Kg          float64           `json:"kg"`
	Method      router.Method     `json:"method"`
}

// ElectricityDetail is the estimated electricity usage.
type ElectricityDetail struct {
	Index      int           `json:"index"`
	KWh        float64       `json:"kWh"`
	GridRegion string        `json:"gridRegion"`
	Kg         float64       `json:"kg"`
	Method     router.Method `json:"method"`
}

// ExpenseDetail is one estimated expense.
type ExpenseDetail struct {
	Index       int                      `json:"index"`
	Category    activity.ExpenseCategory `json:"category"`
	Amount      float64                  `json:"amount"`
	Description string                   `json:"description,omitempty"`
	Kg          float64                  `json:"kg"`
}

// MealDetail is one estimated meal entry.
type MealDetail struct {
	Index    int               `json:"index"`
	DietType activity.DietType `json:"dietType"`
	Count    int               `json:"count"`
	Kg       float64           `json:"kg"`
}

// Details lists every estimated record in input order. Records with a
// non-positive quantity and failed records are absent.
type Details struct {
	Trips       []TripDetail       `json:"trips"`
	Electricity *ElectricityDetail `json:"electricity,omitempty"`
	Expenses    []ExpenseDetail    `json:"expenses"`
	Meals       []MealDetail       `json:"meals"`
}

// Snapshot is the immutable result of one calculation.
type Snapshot struct {
	ID        string    `json:"id"`
	TraceID   string    `json:"traceId,omitempty"`
	Totals    Totals    `json:"totals"`
	Details   Details   `json:"details"`
	Failures  []Failure `json:"failures"`
	Timestamp time.Time `json:"timestamp"`
}

// Partial reports whether any record failed.
func (s *Snapshot) Partial() bool {
	return s != nil && len(s.Failures) > 0
}
