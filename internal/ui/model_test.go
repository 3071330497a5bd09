// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling and rendering
package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil) // Control is optional for testing

	if model.state != "waiting" {
		t.Errorf("expected initial state waiting, got %s", model.state)
	}
	if model.quality != "lost" {
		t.Errorf("expected initial quality lost, got %s", model.quality)
	}
	if model.showDebug {
		t.Error("expected showDebug to be false initially")
	}
}

func TestStatusMsgRun(t *testing.T) {
	model := NewModel(nil)
	target := time.Date(2022, 2, 9, 23, 30, 0, 0, time.UTC)
	sample := target.Add(-2 * time.Second)

	model.applyStatus(StatusMsg{
		Host:       "example.com",
		Strategy:   "persistent-conn",
		Target:     target,
		LastSample: sample,
		Attempts:   12,
		Failures:   3,
	})

	if model.host != "example.com" || model.strategy != "persistent-conn" {
		t.Errorf("unexpected endpoint fields %q %q", model.host, model.strategy)
	}
	if !model.target.Equal(target) || !model.lastSample.Equal(sample) {
		t.Error("expected target and sample to be stored")
	}
	if model.attempts != 12 || model.failures != 3 {
		t.Errorf("expected 12/3 attempts, got %d/%d", model.attempts, model.failures)
	}
}

func TestStatusMsgPartialUpdate(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(StatusMsg{Host: "example.com", Attempts: 5})
	model.applyStatus(StatusMsg{State: "fired"})

	if model.host != "example.com" {
		t.Error("host should survive an unrelated update")
	}
	if model.attempts != 5 {
		t.Errorf("attempts should survive an unrelated update, got %d", model.attempts)
	}
	if model.state != "fired" {
		t.Errorf("expected state fired, got %s", model.state)
	}
}

func TestStatusMsgSkew(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(StatusMsg{Offset: 1500 * time.Millisecond, RTT: 30 * time.Millisecond, Quality: "good"})

	if model.quality != "good" || model.offset != 1500*time.Millisecond || model.rtt != 30*time.Millisecond {
		t.Errorf("unexpected skew fields: %v %v %s", model.offset, model.rtt, model.quality)
	}
}

func TestViewRendersLostSkew(t *testing.T) {
	var m tea.Model = NewModel(nil)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(StatusMsg{Quality: "good", Estimate: time.Date(2022, 2, 9, 23, 29, 59, 0, time.UTC)})
	if view := m.View(); !strings.Contains(view, "2022-02-09 23:29:59 UTC") {
		t.Errorf("expected estimated remote time in view, got %q", view)
	}

	// A lost estimate without samples clears the remote estimate.
	m, _ = m.Update(StatusMsg{Quality: "lost"})
	view := m.View()
	if !strings.Contains(view, "✗ lost") {
		t.Errorf("expected lost skew in view, got %q", view)
	}
	if strings.Contains(view, "23:29:59") {
		t.Error("expected stale estimate to be cleared")
	}
}

func TestViewBeforeResize(t *testing.T) {
	if got := NewModel(nil).View(); got != "Loading..." {
		t.Errorf("expected loading view, got %q", got)
	}
}

func TestViewRendersStatus(t *testing.T) {
	var m tea.Model = NewModel(nil)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(StatusMsg{
		Host:       "sugang.example.ac.kr",
		Target:     time.Date(2022, 2, 9, 23, 30, 0, 0, time.UTC),
		LastSample: time.Date(2022, 2, 9, 23, 29, 58, 0, time.UTC),
		Attempts:   7,
	})

	view := m.View()
	for _, want := range []string{"sugang.example.ac.kr", "2022-02-09 23:30:00 UTC", "2022-02-09 23:29:58 UTC", "2s"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestDebugToggle(t *testing.T) {
	var m tea.Model = NewModel(nil)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	if !m.(Model).showDebug {
		t.Error("expected debug view after pressing d")
	}
}

func TestQuitKeySignalsControl(t *testing.T) {
	ctrl := NewControl()
	var m tea.Model = NewModel(ctrl)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}

	select {
	case <-ctrl.Quit:
	default:
		t.Error("expected quit to be signalled on the control channel")
	}
}
