package activity

import "strings"

// DefaultGridRegion is used when an electricity record names no region.
const DefaultGridRegion = "us"

//nolint:gochecknoglobals // Read-only lookup tables.
var (
	tripModes = map[string]TripMode{
		"car":          ModeCar,
		"electriccar":  ModeElectricCar,
		"electric-car": ModeElectricCar,
		"electric_car": ModeElectricCar,
		"bus":          ModeBus,
		"train":        ModeTrain,
		"rail":         ModeTrain,
		"air":          ModeFlightShort,
		"flightshort":  ModeFlightShort,
		"flight_short": ModeFlightShort,
		"flight-short": ModeFlightShort,
		"bike":         ModeBike,
		"walk":         ModeWalk,
	}

	expenseCategories = map[string]ExpenseCategory{
		"groceries":   ExpenseGroceries,
		"apparel":     ExpenseApparel,
		"electronics": ExpenseElectronics,
		"dining":      ExpenseDining,
		"other":       ExpenseOther,
	}

	dietTypes = map[string]DietType{
		"meatheavy":  DietMeatHeavy,
		"meat-heavy": DietMeatHeavy,
		"meat_heavy": DietMeatHeavy,
		"mixed":      DietMixed,
		"balanced":   DietMixed,
		"vegetarian": DietVegetarian,
		"vegan":      DietVegan,
	}
)

// ResolveTripMode maps raw input onto a TripMode. Unknown or empty values
// resolve to ModeCar.
func ResolveTripMode(raw string) TripMode {
	if m, ok := tripModes[normalizeKey(raw)]; ok {
		return m
	}
	return ModeCar
}

// ResolveExpenseCategory maps raw input onto an ExpenseCategory. Unknown or
// empty values resolve to ExpenseOther.
func ResolveExpenseCategory(raw string) ExpenseCategory {
	if c, ok := expenseCategories[normalizeKey(raw)]; ok {
		return c
	}
	return ExpenseOther
}

// ResolveDietType maps raw input onto a DietType. Unknown or empty values
// resolve to DietMixed.
func ResolveDietType(raw string) DietType {
	if d, ok := dietTypes[normalizeKey(raw)]; ok {
		return d
	}
	return DietMixed
}

// ResolveDistanceUnit maps raw input onto a DistanceUnit. "mi", "mile" and
// "miles" resolve to UnitMile; everything else resolves to UnitKilometre.
func ResolveDistanceUnit(raw string) DistanceUnit {
	switch normalizeKey(raw) {
	case "mi", "mile", "miles":
		return UnitMile
	default:
		return UnitKilometre
	}
}

// ResolveEnergyUnit always returns UnitKWh, the only supported energy unit.
func ResolveEnergyUnit(string) EnergyUnit {
	return UnitKWh
}

// NormalizeRegion lower-cases a grid region code, defaulting to "us".
func NormalizeRegion(raw string) string {
	r := strings.ToLower(strings.TrimSpace(raw))
	if r == "" {
		return DefaultGridRegion
	}
	return r
}

// DefaultKey returns the key a category falls back to when a factor lookup
// misses.
func DefaultKey(c Category) string {
	switch c {
	case CategoryTrip:
		return string(ModeCar)
	case CategoryExpense:
		return string(ExpenseOther)
	case CategoryMeal:
		return string(DietMixed)
	default:
		return GridKey
	}
}

// TripModes lists every trip mode in display order.
func TripModes() []TripMode {
	return []TripMode{ModeCar, ModeElectricCar, ModeBus, ModeTrain, ModeFlightShort, ModeBike, ModeWalk}
}

// IsTripMode reports whether raw names a trip mode exactly.
func IsTripMode(raw string) bool {
	for _, m := range TripModes() {
		if string(m) == raw {
			return true
		}
	}
	return false
}

func normalizeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
