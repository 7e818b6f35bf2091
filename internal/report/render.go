package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/footprint/internal/greenops"
)

// Output formats.
const (
	FormatTable  = "table"
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
)

// tabwriterPadding is the minimum padding between table columns.
const tabwriterPadding = 2

// TableOptions controls RenderTable.
type TableOptions struct {
	// Styled enables terminal colors for headings and the impact line.
	Styled bool
}

//nolint:gochecknoglobals // Read-only styles.
var (
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	lowStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	moderateStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	highStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// ImpactStyle returns the color style for an impact level.
func ImpactStyle(level ImpactLevel) lipgloss.Style {
	switch level {
	case ImpactLow:
		return lowStyle
	case ImpactModerate:
		return moderateStyle
	default:
		return highStyle
	}
}

// Render writes s in the named format.
func Render(w io.Writer, format string, s Summary, opts TableOptions) error {
	switch format {
	case FormatJSON:
		return RenderJSON(w, s)
	case FormatNDJSON:
		return RenderNDJSON(w, s)
	case FormatTable, "":
		return RenderTable(w, s, opts)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// RenderTable writes a human-readable report. Values are shown with two
// decimals.
func RenderTable(w io.Writer, s Summary, opts TableOptions) error {
	style := func(st lipgloss.Style, text string) string {
		if !opts.Styled {
			return text
		}
		return st.Render(text)
	}
	kg := func(v float64) string { return greenops.FormatFloat(v, greenops.DisplayPrecision) + " kg" }

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, tabwriterPadding, ' ', 0)

	fmt.Fprintln(&b, style(headingStyle, "CARBON FOOTPRINT"))
	t := s.Totals
	fmt.Fprintf(tw, "Travel\t%s\t%s\n", kg(t.TravelKg), FormatPercent(Percent(t.TravelKg, t.TotalKg)))
	fmt.Fprintf(tw, "Electricity\t%s\t%s\n", kg(t.ElectricityKg), FormatPercent(Percent(t.ElectricityKg, t.TotalKg)))
	fmt.Fprintf(tw, "Expenses & meals\t%s\t%s\n", kg(t.ExpenseKg), FormatPercent(Percent(t.ExpenseKg, t.TotalKg)))
	fmt.Fprintf(tw, "Total\t%s\t\n", kg(s.Totals.TotalKg))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(&b, "\n%s\n", style(ImpactStyle(s.Impact), string(s.Impact)))
	fmt.Fprintf(&b, "Tip: %s\n", s.Tip)
	fmt.Fprintf(&b, "Average comparison (%.0f kg/day): %s\n", DailyAverageKg, s.VersusAverage)
	if !s.Equivalency.IsEmpty() {
		fmt.Fprintln(&b, s.Equivalency.DisplayText)
	}

	if len(s.Details.Trips) > 0 {
		fmt.Fprintf(&b, "\n%s\n", style(headingStyle, "TRIPS"))
		tw = tabwriter.NewWriter(&b, 0, 0, tabwriterPadding, ' ', 0)
		fmt.Fprintln(tw, "MODE\tFROM\tTO\tDISTANCE\tCO2E\tMETHOD")
		for _, t := range s.Details.Trips {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s km\t%s\t%s\n", t.Mode, dash(t.Origin), dash(t.Destination),
				greenops.FormatFloat(t.DistanceKm, 1), kg(t.Kg), t.Method)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if e := s.Details.Electricity; e != nil {
		fmt.Fprintf(&b, "\n%s\n", style(headingStyle, "ELECTRICITY"))
		fmt.Fprintf(&b, "%s kWh (%s grid): %s via %s\n", greenops.FormatFloat(e.KWh, 1),
			strings.ToUpper(e.GridRegion), kg(e.Kg), e.Method)
	}

	if len(s.Details.Expenses) > 0 || len(s.Details.Meals) > 0 {
		fmt.Fprintf(&b, "\n%s\n", style(headingStyle, "EXPENSES & MEALS"))
		tw = tabwriter.NewWriter(&b, 0, 0, tabwriterPadding, ' ', 0)
		fmt.Fprintln(tw, "ITEM\tDETAIL\tAMOUNT\tCO2E")
		for _, x := range s.Details.Expenses {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", x.Category, dash(x.Description),
				greenops.FormatFloat(x.Amount, 2), kg(x.Kg))
		}
		for _, m := range s.Details.Meals {
			fmt.Fprintf(tw, "meal\t%s\t%d\t%s\n", m.DietType, m.Count, kg(m.Kg))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(s.Failures) > 0 {
		fmt.Fprintf(&b, "\n%s\n", style(warnStyle, fmt.Sprintf("FAILED RECORDS (%d, not included in totals)", len(s.Failures))))
		tw = tabwriter.NewWriter(&b, 0, 0, tabwriterPadding, ' ', 0)
		fmt.Fprintln(tw, "#\tCATEGORY\tKEY\tKIND\tSTATUS")
		for _, f := range s.Failures {
			status := "-"
			if f.Status != 0 {
				status = fmt.Sprint(f.Status)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", f.Index, f.Category, f.Key, f.Kind, status)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(s.Suggestions) > 0 {
		fmt.Fprintf(&b, "\n%s\n", style(headingStyle, "SUGGESTIONS"))
		for _, sg := range s.Suggestions {
			fmt.Fprintf(&b, "- %s [%s]: %s\n", sg.Title, sg.Impact, sg.Description)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderJSON writes s as one indented JSON document.
func RenderJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

type ndjsonLine struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// RenderNDJSON writes one JSON object per line: each detail, each failure
// and a closing totals line.
func RenderNDJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	for _, t := range s.Details.Trips {
		if err := enc.Encode(ndjsonLine{Type: "trip", Data: t}); err != nil {
			return err
		}
	}
	if s.Details.Electricity != nil {
		if err := enc.Encode(ndjsonLine{Type: "electricity", Data: s.Details.Electricity}); err != nil {
			return err
		}
	}
	for _, x := range s.Details.Expenses {
		if err := enc.Encode(ndjsonLine{Type: "expense", Data: x}); err != nil {
			return err
		}
	}
	for _, m := range s.Details.Meals {
		if err := enc.Encode(ndjsonLine{Type: "meal", Data: m}); err != nil {
			return err
		}
	}
	for _, f := range s.Failures {
		if err := enc.Encode(ndjsonLine{Type: "failure", Data: f}); err != nil {
			return err
		}
	}
	return enc.Encode(ndjsonLine{Type: "totals", Data: struct {
		ID     string      `json:"id"`
		Totals any         `json:"totals"`
		Impact ImpactLevel `json:"impact"`
		Tip    string      `json:"tip"`
	}{s.ID, s.Totals, s.Impact, s.Tip}})
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
