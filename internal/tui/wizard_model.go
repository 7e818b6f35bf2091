package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/engine"
	"github.com/rshade/footprint/internal/logging"
)

// WizardState is the screen the wizard is showing.
type WizardState int

const (
	// WizardStateHero is the welcome screen.
	WizardStateHero WizardState = iota
	// WizardStateForm collects the day's activities.
	WizardStateForm
	// WizardStateCalculating waits for the calculation.
	WizardStateCalculating
	// WizardStateResults shows the dashboard.
	WizardStateResults
	// WizardStateError shows a calculation that could not run at all.
	WizardStateError
	// WizardStateQuitting indicates the program is exiting.
	WizardStateQuitting
)

// CalculateFunc runs a calculation for the wizard.
type CalculateFunc func(ctx context.Context, in activity.Input) (*engine.Snapshot, error)

type calculatedMsg struct {
	snap *engine.Snapshot
	err  error
}

// Default dimensions for the wizard.
const (
	wizardDefaultWidth  = 80
	wizardDefaultHeight = 24
)

// WizardModel is the Bubble Tea model for the interactive calculator.
type WizardModel struct {
	ctx       context.Context
	calculate CalculateFunc
	region    string

	fields  []field
	focused int

	spinner spinner.Model
	state   WizardState
	snap    *engine.Snapshot
	err     error

	width  int
	height int
}

// NewWizardModel creates a wizard that calculates with calc. region is the
// electricity grid region applied to the form's usage.
func NewWizardModel(ctx context.Context, calc CalculateFunc, region string) *WizardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorSpinner)

	return &WizardModel{
		ctx:       ctx,
		calculate: calc,
		region:    activity.NormalizeRegion(region),
		fields:    newFields(),
		spinner:   sp,
		state:     WizardStateHero,
		width:     wizardDefaultWidth,
		height:    wizardDefaultHeight,
	}
}

// Init initializes the model.
func (m *WizardModel) Init() tea.Cmd {
	return nil
}

// State returns the current screen.
func (m *WizardModel) State() WizardState { return m.state }

// Snapshot returns the last completed calculation, or nil.
func (m *WizardModel) Snapshot() *engine.Snapshot { return m.snap }

// Err returns the error that aborted the last calculation, or nil.
func (m *WizardModel) Err() error { return m.err }

// Input returns the activity input described by the form.
func (m *WizardModel) Input() activity.Input {
	return buildInput(m.fields, m.region)
}

// Update handles messages and updates the model state.
func (m *WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.state != WizardStateCalculating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case calculatedMsg:
		return m.handleCalculated(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

//nolint:exhaustive // Only keys the wizard reacts to.
func (m *WizardModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.state = WizardStateQuitting
		return m, tea.Quit
	}

	switch m.state {
	case WizardStateHero:
		switch {
		case msg.Type == tea.KeyEnter:
			m.state = WizardStateForm
			return m, m.focus(0)
		case msg.Type == tea.KeyRunes && string(msg.Runes) == "q":
			m.state = WizardStateQuitting
			return m, tea.Quit
		}

	case WizardStateForm:
		return m.handleFormKey(msg)

	case WizardStateResults, WizardStateError:
		if msg.Type != tea.KeyRunes {
			return m, nil
		}
		switch string(msg.Runes) {
		case "q":
			m.state = WizardStateQuitting
			return m, tea.Quit
		case "r":
			m.state = WizardStateForm
			return m, m.focus(m.focused)
		}

	case WizardStateCalculating, WizardStateQuitting:
	}
	return m, nil
}

//nolint:exhaustive // Remaining keys go to the focused text input.
func (m *WizardModel) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.fields[m.focused]
	switch msg.Type {
	case tea.KeyEsc:
		m.fields[m.focused].input.Blur()
		m.state = WizardStateHero
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m, m.focus(m.focused + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.focus(m.focused - 1)
	case tea.KeyLeft:
		if f.isSelect() {
			f.cycle(-1)
			return m, nil
		}
	case tea.KeyRight:
		if f.isSelect() {
			f.cycle(1)
			return m, nil
		}
	case tea.KeyEnter:
		if m.focused < len(m.fields)-1 {
			return m, m.focus(m.focused + 1)
		}
		return m, m.submit()
	case tea.KeyCtrlS:
		return m, m.submit()
	}

	if f.isSelect() {
		return m, nil
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return m, cmd
}

// focus moves focus to field i, wrapping at either end.
func (m *WizardModel) focus(i int) tea.Cmd {
	n := len(m.fields)
	i = ((i % n) + n) % n
	for j := range m.fields {
		m.fields[j].input.Blur()
	}
	m.focused = i
	if m.fields[i].isSelect() {
		return nil
	}
	return m.fields[i].input.Focus()
}

func (m *WizardModel) submit() tea.Cmd {
	m.state = WizardStateCalculating
	m.err = nil
	for j := range m.fields {
		m.fields[j].input.Blur()
	}

	ctx := m.ctx
	calc := m.calculate
	in := m.Input()
	logging.FromContext(ctx).Debug().Ctx(ctx).
		Str("component", "tui").
		Int("records", len(in.Records())).
		Msg("submitting wizard input")

	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		snap, err := calc(ctx, in)
		return calculatedMsg{snap: snap, err: err}
	})
}

func (m *WizardModel) handleCalculated(msg calculatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		m.state = WizardStateError
		return m, nil
	}
	m.snap = msg.snap
	m.state = WizardStateResults
	return m, nil
}

// Run starts the wizard and blocks until the user quits. It returns the
// last completed snapshot, which may be nil.
func Run(ctx context.Context, calc CalculateFunc, region string, opts ...tea.ProgramOption) (*engine.Snapshot, error) {
	m := NewWizardModel(ctx, calc, region)
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return nil, err
	}
	if wm, ok := final.(*WizardModel); ok {
		return wm.Snapshot(), nil
	}
	return m.Snapshot(), nil
}
