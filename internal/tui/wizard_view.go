package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/footprint/internal/greenops"
	"github.com/rshade/footprint/internal/report"
)

// View renders the current screen.
func (m *WizardModel) View() string {
	switch m.state {
	case WizardStateQuitting:
		return ""
	case WizardStateHero:
		return m.renderHero()
	case WizardStateForm:
		return m.renderForm()
	case WizardStateCalculating:
		return m.spinner.View() + " " + RenderLoadingIndicator() + "\n"
	case WizardStateResults:
		return m.renderResults()
	case WizardStateError:
		return errorStyle.Render("Calculation failed: "+m.err.Error()) + "\n\n" +
			mutedStyle.Render("r: edit and retry • q: quit") + "\n"
	}
	return ""
}

func (m *WizardModel) renderHero() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Track Your Carbon Footprint"))
	b.WriteString("\n\n")
	b.WriteString("Understand your environmental impact and discover simple ways to live more sustainably.\n\n")

	cards := []string{
		cardStyle.Render(valueStyle.Render("Track Daily") + "\n" + mutedStyle.Render("Transport, meals, energy")),
		cardStyle.Render(valueStyle.Render("Get Insights") + "\n" + mutedStyle.Render("Your CO2 impact")),
		cardStyle.Render(valueStyle.Render("Take Action") + "\n" + mutedStyle.Render("Personalized tips")),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("enter: calculate your footprint • q: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *WizardModel) renderForm() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Today's Activities"))
	b.WriteString("\n\n")

	for i := range m.fields {
		f := &m.fields[i]
		label := labelStyle.Render(fmt.Sprintf("%-24s", f.label))
		if i == m.focused {
			label = focusedStyle.Render(fmt.Sprintf("> %-22s", f.label))
		}

		var val string
		if f.isSelect() {
			val = "< " + f.options[f.selected].label + " >"
			if i == m.focused {
				val = focusedStyle.Render(val)
			}
		} else {
			val = f.input.View()
		}
		b.WriteString(label + " " + val + "\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("tab/↓: next • shift+tab/↑: previous • ←/→: change option • ctrl+s: calculate • esc: back"))
	b.WriteString("\n")
	return b.String()
}

func (m *WizardModel) renderResults() string {
	s := report.Build(m.snap)
	kg := func(v float64) string { return greenops.FormatFloat(v, greenops.DisplayPrecision) + " kg" }

	var b strings.Builder
	b.WriteString(headerStyle.Render("Your Carbon Footprint"))
	b.WriteString("\n\n")
	b.WriteString(valueStyle.Render(kg(s.Totals.TotalKg)+" CO2e") + "  ")
	b.WriteString(report.ImpactStyle(s.Impact).Render(string(s.Impact)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(s.VersusAverage))
	b.WriteString("\n\n")

	names := map[string]string{"travel": "Transport", "electricity": "Energy", "expenses": "Food & Purchases"}
	for _, sh := range s.Breakdown {
		fmt.Fprintf(&b, "%s %s %s\n",
			labelStyle.Render(fmt.Sprintf("%-18s", names[sh.Category])),
			valueStyle.Render(fmt.Sprintf("%10s", kg(sh.Kg))),
			mutedStyle.Render(report.FormatPercent(sh.Percent)))
	}

	if !s.Equivalency.IsEmpty() {
		b.WriteString("\n" + mutedStyle.Render(s.Equivalency.DisplayText) + "\n")
	}

	if len(s.Failures) > 0 {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d record(s) could not be estimated and are not included:", len(s.Failures))))
		b.WriteString("\n")
		for _, f := range s.Failures {
			fmt.Fprintf(&b, "  %s/%s: %s\n", f.Category, f.Key, f.Kind)
		}
	}

	b.WriteString("\n" + focusedStyle.Render("Tip: ") + s.Tip + "\n\n")
	for _, sg := range s.Suggestions {
		fmt.Fprintf(&b, "%s %s\n  %s\n", valueStyle.Render(sg.Title), mutedStyle.Render("["+sg.Impact+"]"), sg.Description)
	}

	b.WriteString("\n" + mutedStyle.Render("r: recalculate • q: quit") + "\n")
	return b.String()
}
