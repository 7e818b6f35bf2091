// Package activity defines the activity records a footprint calculation
// consumes: trips, electricity usage, expenses and meals.
//
// Categorical fields are closed enums. Values outside an enum never cause an
// error; they resolve to a documented default (see the Resolve functions).
// Quantities are non-negative finite numbers, and a record whose quantity is
// not positive is a no-op rather than a failure.
package activity

import "math"

// Category identifies which kind of activity a record describes.
type Category string

// Record categories.
const (
	CategoryTrip        Category = "trip"
	CategoryElectricity Category = "electricity"
	CategoryExpense     Category = "expense"
	CategoryMeal        Category = "meal"
)

// TripMode is the means of transport for a trip.
type TripMode string

// Trip modes.
const (
	ModeCar         TripMode = "car"
	ModeElectricCar TripMode = "electricCar"
	ModeBus         TripMode = "bus"
	ModeTrain       TripMode = "train"
	ModeFlightShort TripMode = "flightShort"
	ModeBike        TripMode = "bike"
	ModeWalk        TripMode = "walk"
)

// DistanceUnit is the unit a trip distance was reported in.
type DistanceUnit string

// Distance units.
const (
	UnitKilometre DistanceUnit = "km"
	UnitMile      DistanceUnit = "mile"
)

// EnergyUnit is the unit electricity usage was reported in.
type EnergyUnit string

// UnitKWh is the only supported energy unit.
const UnitKWh EnergyUnit = "kWh"

// ExpenseCategory classifies a purchase.
type ExpenseCategory string

// Expense categories.
const (
	ExpenseGroceries   ExpenseCategory = "groceries"
	ExpenseApparel     ExpenseCategory = "apparel"
	ExpenseElectronics ExpenseCategory = "electronics"
	ExpenseDining      ExpenseCategory = "dining"
	ExpenseOther       ExpenseCategory = "other"
)

// DietType classifies a meal.
type DietType string

// Diet types.
const (
	DietMeatHeavy  DietType = "meatHeavy"
	DietMixed      DietType = "mixed"
	DietVegetarian DietType = "vegetarian"
	DietVegan      DietType = "vegan"
)

// GridKey is the factor key used for electricity records.
const GridKey = "grid"

// KmPerMile converts statute miles to kilometres.
const KmPerMile = 1.60934

// Record is one user-reported unit of activity.
//
// Quantity is expressed in the canonical unit returned by Unit: kilometres
// for trips, kWh for electricity, currency units for expenses and meals for
// meals.
type Record interface {
	Kind() Category
	Key() string
	Quantity() float64
	Unit() string
}

// Trip is a journey by one mode of transport.
type Trip struct {
	Mode         TripMode     `json:"mode" yaml:"mode"`
	Distance     float64      `json:"distance" yaml:"distance"`
	DistanceUnit DistanceUnit `json:"distanceUnit" yaml:"distanceUnit"`
	Origin       string       `json:"origin,omitempty" yaml:"origin,omitempty"`
	Destination  string       `json:"destination,omitempty" yaml:"destination,omitempty"`
}

// Kind implements Record.
func (Trip) Kind() Category { return CategoryTrip }

// Key implements Record.
func (t Trip) Key() string { return string(t.Mode) }

// Quantity returns the trip distance in kilometres.
func (t Trip) Quantity() float64 { return ToKilometres(t.Distance, t.DistanceUnit) }

// Unit implements Record.
func (Trip) Unit() string { return string(UnitKilometre) }

// ElectricityUsage is an amount of grid electricity consumed.
type ElectricityUsage struct {
	Amount     float64    `json:"amount" yaml:"amount"`
	EnergyUnit EnergyUnit `json:"energyUnit" yaml:"energyUnit"`
	GridRegion string     `json:"gridRegion" yaml:"gridRegion"`
}

// Kind implements Record.
func (ElectricityUsage) Kind() Category { return CategoryElectricity }

// Key implements Record.
func (ElectricityUsage) Key() string { return GridKey }

// Quantity returns the usage in kWh.
func (e ElectricityUsage) Quantity() float64 { return clean(e.Amount) }

// Unit implements Record.
func (ElectricityUsage) Unit() string { return string(UnitKWh) }

// Expense is a purchase measured in currency units.
type Expense struct {
	Category    ExpenseCategory `json:"category" yaml:"category"`
	Amount      float64         `json:"amount" yaml:"amount"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
}

// Kind implements Record.
func (Expense) Kind() Category { return CategoryExpense }

// Key implements Record.
func (e Expense) Key() string { return string(e.Category) }

// Quantity returns the amount spent.
func (e Expense) Quantity() float64 { return clean(e.Amount) }

// Unit implements Record.
func (Expense) Unit() string { return "currency" }

// Meal is a number of meals of one diet type.
type Meal struct {
	DietType DietType `json:"dietType" yaml:"dietType"`
	Count    int      `json:"count" yaml:"count"`
}

// Kind implements Record.
func (Meal) Kind() Category { return CategoryMeal }

// Key implements Record.
func (m Meal) Key() string { return string(m.DietType) }

// Quantity returns the meal count.
func (m Meal) Quantity() float64 {
	if m.Count < 0 {
		return 0
	}
	return float64(m.Count)
}

// Unit implements Record.
func (Meal) Unit() string { return "meal" }

// IsPositive reports whether r carries a positive quantity. Records that
// fail this check are excluded from estimation and aggregation. Non-finite
// inputs are cleaned to 0, so a +Inf quantity only comes from a finite value
// overflowing unit conversion; it counts as positive and fails estimation.
func IsPositive(r Record) bool {
	if r == nil {
		return false
	}
	q := r.Quantity()
	return q > 0 && !math.IsNaN(q)
}

// ToKilometres converts a distance to kilometres. Unknown units are treated
// as kilometres; non-finite or negative distances yield 0.
func ToKilometres(distance float64, unit DistanceUnit) float64 {
	d := clean(distance)
	if ResolveDistanceUnit(string(unit)) == UnitMile {
		return d * KmPerMile
	}
	return d
}

func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
