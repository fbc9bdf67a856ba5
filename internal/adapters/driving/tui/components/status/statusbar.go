// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/coursemate/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/coursemate/internal/adapters/driving/tui/styles"
)

// State represents the current chat state for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
)

// sessionIDLen is how much of a session ID the bar shows.
const sessionIDLen = 8

// Bar displays chat status, the session and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	session string
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var parts []string
	switch s.state {
	case StateThinking:
		msg := s.message
		if msg == "" {
			msg = "Thinking..."
		}
		parts = append(parts, s.styles.Muted.Render(msg))
	case StateError:
		if s.message != "" {
			parts = append(parts, s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message)))
		} else {
			parts = append(parts, s.styles.Error.Render("Error"))
		}
	default:
		msg := s.message
		if msg == "" {
			msg = "Ready"
		}
		parts = append(parts, s.styles.Muted.Render(msg))
	}
	if s.session != "" {
		id := s.session
		if len(id) > sessionIDLen {
			id = id[:sessionIDLen]
		}
		parts = append(parts, s.styles.Muted.Render("session "+id))
	}
	return strings.Join(parts, s.styles.Muted.Render(" · "))
}

func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetSession sets the session ID shown in the bar.
func (s *Bar) SetSession(id string) {
	s.session = id
}

// Session returns the session ID shown in the bar.
func (s *Bar) Session() string {
	return s.session
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to its ready state, keeping the session.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
