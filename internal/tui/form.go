package tui

import (
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/rshade/footprint/internal/activity"
)

// option is one choice of a select field.
type option struct {
	value string
	label string
}

//nolint:gochecknoglobals // Fixed choice lists.
var (
	modeOptions = []option{
		{string(activity.ModeCar), "Car (Gasoline)"},
		{string(activity.ModeElectricCar), "Electric Car"},
		{string(activity.ModeBus), "Bus"},
		{string(activity.ModeTrain), "Train"},
		{string(activity.ModeFlightShort), "Short Flight"},
		{string(activity.ModeBike), "Bike"},
		{string(activity.ModeWalk), "Walk"},
	}
	dietOptions = []option{
		{string(activity.DietMeatHeavy), "Meat Heavy"},
		{string(activity.DietMixed), "Mixed Diet"},
		{string(activity.DietVegetarian), "Vegetarian"},
		{string(activity.DietVegan), "Vegan"},
	}
	expenseOptions = []option{
		{string(activity.ExpenseGroceries), "Groceries"},
		{string(activity.ExpenseApparel), "Apparel"},
		{string(activity.ExpenseElectronics), "Electronics"},
		{string(activity.ExpenseDining), "Dining Out"},
		{string(activity.ExpenseOther), "Other"},
	}
)

// field is one form row: either a select (options set) or a text input.
type field struct {
	label    string
	options  []option
	selected int
	input    textinput.Model
}

func newSelect(label string, opts []option, selected int) field {
	return field{label: label, options: opts, selected: selected}
}

func newInput(label, placeholder string) field {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 12
	in.Width = 14
	return field{label: label, input: in}
}

func (f *field) isSelect() bool { return len(f.options) > 0 }

func (f *field) value() string {
	if f.isSelect() {
		return f.options[f.selected].value
	}
	return f.input.Value()
}

func (f *field) cycle(delta int) {
	if !f.isSelect() {
		return
	}
	n := len(f.options)
	f.selected = ((f.selected+delta)%n + n) % n
}

// Form field positions.
const (
	fieldMode = iota
	fieldDistance
	fieldDiet
	fieldMeals
	fieldElectricity
	fieldExpenseCategory
	fieldExpenseAmount
	fieldCount
)

func newFields() []field {
	fields := make([]field, fieldCount)
	fields[fieldMode] = newSelect("Mode of Transport", modeOptions, 0)
	fields[fieldDistance] = newInput("Distance (miles)", "e.g., 15.5")
	fields[fieldDiet] = newSelect("Diet Type", dietOptions, 1)
	fields[fieldMeals] = newInput("Number of Meals", "e.g., 3")
	fields[fieldElectricity] = newInput("Electricity Used (kWh)", "e.g., 8.5")
	fields[fieldExpenseCategory] = newSelect("Purchase Category", expenseOptions, 0)
	fields[fieldExpenseAmount] = newInput("Amount Spent", "e.g., 40")
	return fields
}

// buildInput converts form values into an activity Input. Blank or
// malformed numbers become zero and their records are no-ops.
func buildInput(fields []field, region string) activity.Input {
	in := activity.Input{
		Trips: []activity.Trip{{
			Mode:         activity.ResolveTripMode(fields[fieldMode].value()),
			Distance:     activity.ParseQuantity(fields[fieldDistance].value()),
			DistanceUnit: activity.UnitMile,
		}},
		Electricity: activity.ElectricityUsage{
			Amount:     activity.ParseQuantity(fields[fieldElectricity].value()),
			EnergyUnit: activity.UnitKWh,
			GridRegion: activity.NormalizeRegion(region),
		},
	}
	if amount := activity.ParseQuantity(fields[fieldExpenseAmount].value()); amount > 0 {
		in.Expenses = append(in.Expenses, activity.Expense{
			Category: activity.ResolveExpenseCategory(fields[fieldExpenseCategory].value()),
			Amount:   amount,
		})
	}
	if count := activity.ParseQuantity(fields[fieldMeals].value()); count > 0 {
		in.Meals = append(in.Meals, activity.Meal{
			DietType: activity.ResolveDietType(fields[fieldDiet].value()),
			Count:    int(count),
		})
	}
	return in
}
