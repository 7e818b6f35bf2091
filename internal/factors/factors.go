// Package factors holds the built-in emission factor table used by the
// local estimator.
//
// A Table is immutable once constructed and safe for concurrent reads.
// Default returns a process-wide instance built exactly once.
package factors

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rshade/footprint/internal/activity"
)

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

const (
	// ErrNotFound is returned when a (category, key) pair has no factor.
	ErrNotFound = constError("emission factor not found")

	// ErrDuplicate is returned by New when two factors share a key.
	ErrDuplicate = constError("duplicate emission factor")

	// ErrInvalidFactor is returned by New for negative or non-finite factors.
	ErrInvalidFactor = constError("invalid emission factor")
)

// Unit is the activity unit a factor is expressed per.
type Unit string

// Factor units.
const (
	PerKilometre Unit = "km"
	PerKWh       Unit = "kWh"
	PerCurrency  Unit = "currency"
	PerMeal      Unit = "meal"
)

// Reference factors reported per mile for road vehicles.
const (
	CarKgPerMile         = 0.411
	ElectricCarKgPerMile = 0.148
)

// GridKgPerKWh is the default grid intensity for electricity.
const GridKgPerKWh = 0.385

// Factor is the kg CO2e emitted per unit of one kind of activity.
type Factor struct {
	Category  activity.Category `json:"category"  yaml:"category"`
	Key       string            `json:"key"       yaml:"key"`
	KgPerUnit float64           `json:"kgPerUnit" yaml:"kgPerUnit"`
	Unit      Unit              `json:"unit"      yaml:"unit"`
}

type tableKey struct {
	category activity.Category
	key      string
}

// Table maps (category, key) pairs to emission factors.
type Table struct {
	byKey   map[tableKey]Factor
	ordered []Factor
}

// New builds a table from the given factors.
func New(fs ...Factor) (*Table, error) {
	t := &Table{
		byKey:   make(map[tableKey]Factor, len(fs)),
		ordered: make([]Factor, 0, len(fs)),
	}
	for _, f := range fs {
		if !(f.KgPerUnit >= 0) || f.KgPerUnit > maxFactor {
			return nil, fmt.Errorf("%w: %s/%s = %v", ErrInvalidFactor, f.Category, f.Key, f.KgPerUnit)
		}
		k := tableKey{f.Category, f.Key}
		if _, ok := t.byKey[k]; ok {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicate, f.Category, f.Key)
		}
		t.byKey[k] = f
		t.ordered = append(t.ordered, f)
	}
	sort.SliceStable(t.ordered, func(i, j int) bool {
		if t.ordered[i].Category != t.ordered[j].Category {
			return categoryRank(t.ordered[i].Category) < categoryRank(t.ordered[j].Category)
		}
		return false
	})
	return t, nil
}

const maxFactor = 1e6

// Lookup returns the factor for a (category, key) pair, or ErrNotFound.
func (t *Table) Lookup(category activity.Category, key string) (Factor, error) {
	if t == nil {
		return Factor{}, fmt.Errorf("%w: %s/%s", ErrNotFound, category, key)
	}
	f, ok := t.byKey[tableKey{category, key}]
	if !ok {
		return Factor{}, fmt.Errorf("%w: %s/%s", ErrNotFound, category, key)
	}
	return f, nil
}

// All returns a copy of every factor, grouped by category in the order
// trips, electricity, expenses, meals.
func (t *Table) All() []Factor {
	if t == nil {
		return nil
	}
	out := make([]Factor, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Len returns the number of factors in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ordered)
}

//nolint:gochecknoglobals // Built once and never mutated.
var defaultTable = sync.OnceValue(func() *Table {
	t, err := New(builtin()...)
	if err != nil {
		panic(err)
	}
	return t
})

// Default returns the built-in factor table.
func Default() *Table {
	return defaultTable()
}

func builtin() []Factor {
	trip := func(m activity.TripMode, kg float64) Factor {
		return Factor{Category: activity.CategoryTrip, Key: string(m), KgPerUnit: kg, Unit: PerKilometre}
	}
	expense := func(c activity.ExpenseCategory, kg float64) Factor {
		return Factor{Category: activity.CategoryExpense, Key: string(c), KgPerUnit: kg, Unit: PerCurrency}
	}
	meal := func(d activity.DietType, kg float64) Factor {
		return Factor{Category: activity.CategoryMeal, Key: string(d), KgPerUnit: kg, Unit: PerMeal}
	}

	return []Factor{
		trip(activity.ModeCar, CarKgPerMile/activity.KmPerMile),
		trip(activity.ModeElectricCar, ElectricCarKgPerMile/activity.KmPerMile),
		trip(activity.ModeBus, 0.105),
		trip(activity.ModeTrain, 0.041),
		trip(activity.ModeFlightShort, 0.15),
		trip(activity.ModeBike, 0),
		trip(activity.ModeWalk, 0),

		{Category: activity.CategoryElectricity, Key: activity.GridKey, KgPerUnit: GridKgPerKWh, Unit: PerKWh},

		expense(activity.ExpenseGroceries, 0.06),
		expense(activity.ExpenseApparel, 0.09),
		expense(activity.ExpenseElectronics, 0.16),
		expense(activity.ExpenseDining, 0.10),
		expense(activity.ExpenseOther, 0.07),

		meal(activity.DietMeatHeavy, 7.2),
		meal(activity.DietMixed, 5.5),
		meal(activity.DietVegetarian, 3.8),
		meal(activity.DietVegan, 2.9),
	}
}

func categoryRank(c activity.Category) int {
	switch c {
	case activity.CategoryTrip:
		return 0
	case activity.CategoryElectricity:
		return 1
	case activity.CategoryExpense:
		return 2
	case activity.CategoryMeal:
		return 3
	default:
		return 4
	}
}
