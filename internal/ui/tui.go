// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the trigger status display
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// QuitMsg signals that the operator asked to quit from the TUI.
type QuitMsg struct{}

// Control carries signals from the TUI back to main.
type Control struct {
	Quit chan QuitMsg
}

// NewControl creates a control handle.
func NewControl() *Control {
	return &Control{
		Quit: make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Control) Model {
	return Model{
		state:   "waiting",
		quality: "lost",
		ctrl:    ctrl,
	}
}

// Run creates the TUI program; the caller starts it.
func Run(ctrl *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
