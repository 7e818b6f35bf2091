package greenops

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// FormatNumber formats an integer with thousand separators, e.g. "18,248".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatFloat formats f with the given precision and thousand separators,
// e.g. FormatFloat(1234.567, 2) returns "1,234.57".
func FormatFloat(f float64, precision int) string {
	rounded := Round(f, precision)
	if precision <= 0 {
		return FormatNumber(int64(rounded))
	}
	formatted := fmt.Sprintf("%.*f", precision, rounded)
	intPart, frac, ok := strings.Cut(formatted, ".")
	if !ok {
		return formatted
	}
	neg := strings.HasPrefix(intPart, "-")
	var n int64
	if _, err := fmt.Sscan(strings.TrimPrefix(intPart, "-"), &n); err != nil {
		return formatted
	}
	out := FormatNumber(n) + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

// FormatKg renders a kg value at display precision with its unit.
func FormatKg(kg float64) string {
	return FormatFloat(kg, DisplayPrecision) + " kg CO2e"
}

// FormatLarge abbreviates values of a million or more ("~1.5 billion");
// smaller values are comma-separated integers.
func FormatLarge(n float64) string {
	if n >= BillionThreshold {
		return fmt.Sprintf("~%.1f billion", n/BillionThreshold)
	}
	if n >= LargeNumberThreshold {
		return fmt.Sprintf("~%.1f million", n/LargeNumberThreshold)
	}
	return FormatNumber(int64(math.Round(n)))
}
