package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the encoding used by Decode.
type Format string

// Supported input formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned by Decode for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Input is everything a user reports for one calculation.
type Input struct {
	Trips       []Trip           `json:"trips"       yaml:"trips"`
	Electricity ElectricityUsage `json:"electricity" yaml:"electricity"`
	Expenses    []Expense        `json:"expenses"    yaml:"expenses"`
	Meals       []Meal           `json:"meals"       yaml:"meals"`
}

// Records flattens the input into a single ordered list: trips, then
// electricity, then expenses, then meals. The index of a record in this list
// is its stable position for result and failure reporting.
func (in Input) Records() []Record {
	out := make([]Record, 0, len(in.Trips)+1+len(in.Expenses)+len(in.Meals))
	for _, t := range in.Trips {
		out = append(out, t)
	}
	out = append(out, in.Electricity)
	for _, e := range in.Expenses {
		out = append(out, e)
	}
	for _, m := range in.Meals {
		out = append(out, m)
	}
	return out
}

// Normalize resolves every enum to its canonical value and clamps quantities
// so that the result only holds values the estimators accept.
func (in Input) Normalize() Input {
	out := Input{
		Trips:    make([]Trip, len(in.Trips)),
		Expenses: make([]Expense, len(in.Expenses)),
		Meals:    make([]Meal, len(in.Meals)),
	}
	for i, t := range in.Trips {
		t.Mode = ResolveTripMode(string(t.Mode))
		t.DistanceUnit = ResolveDistanceUnit(string(t.DistanceUnit))
		t.Distance = clean(t.Distance)
		out.Trips[i] = t
	}
	out.Electricity = ElectricityUsage{
		Amount:     clean(in.Electricity.Amount),
		EnergyUnit: ResolveEnergyUnit(string(in.Electricity.EnergyUnit)),
		GridRegion: NormalizeRegion(in.Electricity.GridRegion),
	}
	for i, e := range in.Expenses {
		e.Category = ResolveExpenseCategory(string(e.Category))
		e.Amount = clean(e.Amount)
		out.Expenses[i] = e
	}
	for i, m := range in.Meals {
		m.DietType = ResolveDietType(string(m.DietType))
		if m.Count < 0 {
			m.Count = 0
		}
		out.Meals[i] = m
	}
	return out
}

// ParseQuantity converts raw text into a quantity. Text that is not a
// finite, positive number yields 0.
func ParseQuantity(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return clean(v)
}

// Decode reads an Input document in the given format. Enum fields are
// resolved to their defaults and malformed quantities become 0; only a
// structurally invalid document is an error.
func Decode(r io.Reader, format Format) (Input, error) {
	var doc rawInput
	switch format {
	case FormatYAML, "yml", "":
		dec := yaml.NewDecoder(r)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return Input{}, fmt.Errorf("decoding yaml input: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return Input{}, fmt.Errorf("decoding json input: %w", err)
		}
	default:
		return Input{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return doc.input(), nil
}

// Quantity is a number that decodes leniently: numeric strings are parsed,
// anything else non-numeric decodes as 0.
type Quantity float64

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*q = 0
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*q = Quantity(ParseQuantity(str))
		return nil
	}
	*q = Quantity(ParseQuantity(s))
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (q *Quantity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		*q = 0
		return nil
	}
	*q = Quantity(ParseQuantity(node.Value))
	return nil
}

type rawTrip struct {
	Mode         string   `json:"mode"         yaml:"mode"`
	Distance     Quantity `json:"distance"     yaml:"distance"`
	DistanceUnit string   `json:"distanceUnit" yaml:"distanceUnit"`
	Origin       string   `json:"origin"       yaml:"origin"`
	Destination  string   `json:"destination"  yaml:"destination"`
}

type rawElectricity struct {
	Amount     Quantity `json:"amount"     yaml:"amount"`
	EnergyUnit string   `json:"energyUnit" yaml:"energyUnit"`
	GridRegion string   `json:"gridRegion" yaml:"gridRegion"`
}

type rawExpense struct {
	Category    string   `json:"category"    yaml:"category"`
	Amount      Quantity `json:"amount"      yaml:"amount"`
	Description string   `json:"description" yaml:"description"`
}

type rawMeal struct {
	DietType string   `json:"dietType" yaml:"dietType"`
	// MealType is the form field name for the diet; DietType wins when both are set.
	MealType string   `json:"mealType" yaml:"mealType"`
	Count    Quantity `json:"count"    yaml:"count"`
}

func (m rawMeal) diet() string {
	if strings.TrimSpace(m.DietType) != "" {
		return m.DietType
	}
	return m.MealType
}

type rawInput struct {
	Trips       []rawTrip      `json:"trips"       yaml:"trips"`
	Electricity rawElectricity `json:"electricity" yaml:"electricity"`
	Expenses    []rawExpense   `json:"expenses"    yaml:"expenses"`
	Meals       []rawMeal      `json:"meals"       yaml:"meals"`
}

func (r rawInput) input() Input {
	in := Input{
		Trips:    make([]Trip, 0, len(r.Trips)),
		Expenses: make([]Expense, 0, len(r.Expenses)),
		Meals:    make([]Meal, 0, len(r.Meals)),
	}
	for _, t := range r.Trips {
		in.Trips = append(in.Trips, Trip{
			Mode:         ResolveTripMode(t.Mode),
			Distance:     float64(t.Distance),
			DistanceUnit: ResolveDistanceUnit(t.DistanceUnit),
			Origin:       strings.TrimSpace(t.Origin),
			Destination:  strings.TrimSpace(t.Destination),
		})
	}
	in.Electricity = ElectricityUsage{
		Amount:     float64(r.Electricity.Amount),
		EnergyUnit: ResolveEnergyUnit(r.Electricity.EnergyUnit),
		GridRegion: NormalizeRegion(r.Electricity.GridRegion),
	}
	for _, e := range r.Expenses {
		in.Expenses = append(in.Expenses, Expense{
			Category:    ResolveExpenseCategory(e.Category),
			Amount:      float64(e.Amount),
			Description: strings.TrimSpace(e.Description),
		})
	}
	for _, m := range r.Meals {
		in.Meals = append(in.Meals, Meal{
			DietType: ResolveDietType(m.diet()),
			Count:    mealCount(float64(m.Count)),
		})
	}
	return in
}

// mealCount truncates v to a whole number of meals, clamped to the int range.
func mealCount(v float64) int {
	c := math.Floor(v)
	switch {
	case math.IsNaN(c) || c <= 0:
		return 0
	case c >= math.MaxInt:
		return math.MaxInt
	default:
		return int(c)
	}
}
