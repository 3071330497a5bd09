// ABOUTME: Bubbletea model for the trigger TUI
// ABOUTME: Shows target, latest remote sample, attempt counts and skew
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Endpoint
	host     string
	strategy string

	// Run
	target     time.Time
	state      string
	lastSample time.Time
	lastFault  string
	attempts   int
	failures   int
	firedAt    time.Time

	// Skew
	offset   time.Duration
	rtt      time.Duration
	quality  string
	estimate time.Time

	showDebug bool
	ctrl      *Control

	// Dimensions
	width  int
	height int
}

// StatusMsg updates TUI state. Zero fields are left unchanged.
type StatusMsg struct {
	Host       string
	Strategy   string
	Target     time.Time
	State      string
	LastSample time.Time
	LastFault  string
	Attempts   int
	Failures   int
	FiredAt    time.Time
	Offset     time.Duration
	RTT        time.Duration
	Quality    string
	Estimate   time.Time // estimated remote clock; zero before the first sample
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := m.renderHeader()
	s += m.renderRun()
	s += m.renderSkew()
	if m.showDebug {
		s += m.renderDebug()
	}
	s += m.renderHelp()
	return s
}

func (m Model) renderHeader() string {
	return fmt.Sprintf(`┌─ headerclock ────────────────────────────────────────┐
│ Host:     %-42s │
│ Strategy: %-42s │
├──────────────────────────────────────────────────────┤
`, truncate(m.host, 42), truncate(m.strategy, 42))
}

func (m Model) renderRun() string {
	stateIcon := "…"
	if m.state == "fired" {
		stateIcon = "✓"
	}

	sample := "(none yet)"
	if !m.lastSample.IsZero() {
		sample = formatUTC(m.lastSample)
	}

	remaining := "-"
	if !m.target.IsZero() && !m.lastSample.IsZero() {
		remaining = m.target.Sub(m.lastSample).String()
	}

	s := fmt.Sprintf("│ Target:   %-42s │\n", formatUTC(m.target))
	s += fmt.Sprintf("│ Remote:   %-42s │\n", sample)
	s += fmt.Sprintf("│ Left:     %-42s │\n", truncate(remaining, 42))
	s += fmt.Sprintf("│ State:    %s %-40s │\n", stateIcon, m.state)
	s += fmt.Sprintf("│ Attempts: %-8d Failures: %-22d │\n", m.attempts, m.failures)
	if m.lastFault != "" {
		s += fmt.Sprintf("│ Last err: %-42s │\n", truncate(m.lastFault, 42))
	}
	if !m.firedAt.IsZero() {
		s += fmt.Sprintf("│ Fired:    %-42s │\n", m.firedAt.Format("15:04:05.000000 local"))
	}
	return s
}

func (m Model) renderSkew() string {
	syncIcon := "✗"
	switch m.quality {
	case "good":
		syncIcon = "✓"
	case "degraded":
		syncIcon = "⚠"
	}

	text := fmt.Sprintf("%s (offset: %+.1fms, rtt: %.1fms)", m.quality,
		float64(m.offset)/float64(time.Millisecond), float64(m.rtt)/float64(time.Millisecond))

	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Skew:   %s %-42s │
│ Est.:     %-42s │
`, syncIcon, truncate(text, 42), formatUTC(m.estimate))
}

func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Raw offset: %+dμs%-24s │
│   Window: %dx%d%-32s │
`, m.offset.Microseconds(), "", m.width, m.height, "")
}

func (m Model) renderHelp() string {
	return `│ d:Debug  q:Quit                                      │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.ctrl != nil {
			select {
			case m.ctrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Host != "" {
		m.host = msg.Host
	}
	if msg.Strategy != "" {
		m.strategy = msg.Strategy
	}
	if !msg.Target.IsZero() {
		m.target = msg.Target
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if !msg.LastSample.IsZero() {
		m.lastSample = msg.LastSample
	}
	if msg.LastFault != "" {
		m.lastFault = msg.LastFault
	}
	if msg.Attempts != 0 {
		m.attempts = msg.Attempts
		m.failures = msg.Failures
	}
	if !msg.FiredAt.IsZero() {
		m.firedAt = msg.FiredAt
	}
	if msg.Quality != "" {
		m.offset = msg.Offset
		m.rtt = msg.RTT
		m.quality = msg.Quality
		m.estimate = msg.Estimate
	}
}

func formatUTC(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
