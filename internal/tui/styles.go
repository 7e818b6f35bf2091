// Package tui implements the interactive footprint wizard: a hero screen,
// an activity form, a progress spinner and a results dashboard.
package tui

import "github.com/charmbracelet/lipgloss"

// Palette shared by every view.
const (
	ColorHeader    = lipgloss.Color("39")
	ColorLabel     = lipgloss.Color("245")
	ColorValue     = lipgloss.Color("255")
	ColorMuted     = lipgloss.Color("241")
	ColorHighlight = lipgloss.Color("42")
	ColorBorder    = lipgloss.Color("238")
	ColorOK        = lipgloss.Color("42")
	ColorWarning   = lipgloss.Color("214")
	ColorError     = lipgloss.Color("196")
	ColorSpinner   = lipgloss.Color("205")
)

//nolint:gochecknoglobals // Read-only styles.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorHighlight)
	labelStyle   = lipgloss.NewStyle().Foreground(ColorLabel)
	valueStyle   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	focusedStyle = lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorHeader).
			BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(ColorBorder)
	cardStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorBorder).Padding(0, 1)
)

// RenderLoadingIndicator renders the static calculating message.
func RenderLoadingIndicator() string {
	return lipgloss.NewStyle().Foreground(ColorSpinner).Bold(true).Render("Calculating your footprint...")
}
