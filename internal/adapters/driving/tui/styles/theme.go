// Package styles provides colour themes and styling for the chat.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette for the chat.
type Theme struct {
	// Accent marks the assistant and headings.
	Accent lipgloss.Color

	// User marks the user's questions.
	User lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for sources, hints and notices.
	Muted lipgloss.Color

	// Error indicates problems.
	Error lipgloss.Color

	// Border is the input border colour.
	Border lipgloss.Color

	// Bar is the status bar background.
	Bar lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:     lipgloss.Color("#7C3AED"),
		User:       lipgloss.Color("#06B6D4"),
		Foreground: lipgloss.Color("#CDD6F4"),
		Muted:      lipgloss.Color("#6C7086"),
		Error:      lipgloss.Color("#F38BA8"),
		Border:     lipgloss.Color("#45475A"),
		Bar:        lipgloss.Color("#181825"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	// Title is the header style.
	Title lipgloss.Style

	// UserLabel prefixes the user's questions.
	UserLabel lipgloss.Style

	// AssistantLabel prefixes answers.
	AssistantLabel lipgloss.Style

	// Body is the message text.
	Body lipgloss.Style

	// Source renders one attribution under an answer.
	Source lipgloss.Style

	// Muted is for notices and hints.
	Muted lipgloss.Style

	// Error is for failed questions.
	Error lipgloss.Style

	// InputField wraps the question input.
	InputField lipgloss.Style

	// StatusBar is the bottom bar.
	StatusBar lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Accent),

		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.User),

		AssistantLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Accent),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			PaddingLeft(2),

		Source: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true).
			PaddingLeft(2),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(theme.Bar).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
