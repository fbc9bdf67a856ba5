// Package transcript renders the conversation shown in the chat window.
package transcript

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/coursemate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// Role identifies who produced an entry.
type Role int

const (
	// RoleUser is a question typed by the user.
	RoleUser Role = iota
	// RoleAssistant is an answer.
	RoleAssistant
	// RoleNotice is an informational line such as the course list.
	RoleNotice
	// RoleError is a failed question.
	RoleError
)

// Entry is one item of the conversation.
type Entry struct {
	Role    Role
	Text    string
	Sources []domain.Source
}

// Transcript holds the conversation entries.
type Transcript struct {
	styles  *styles.Styles
	entries []Entry
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Transcript{styles: s}
}

// AddQuestion appends a user question.
func (t *Transcript) AddQuestion(text string) {
	t.entries = append(t.entries, Entry{Role: RoleUser, Text: text})
}

// AddAnswer appends an answer with its sources.
func (t *Transcript) AddAnswer(text string, sources []domain.Source) {
	t.entries = append(t.entries, Entry{Role: RoleAssistant, Text: text, Sources: sources})
}

// AddNotice appends an informational line.
func (t *Transcript) AddNotice(text string) {
	t.entries = append(t.entries, Entry{Role: RoleNotice, Text: text})
}

// AddError appends an error line.
func (t *Transcript) AddError(text string) {
	t.entries = append(t.entries, Entry{Role: RoleError, Text: text})
}

// Entries returns the entries in order.
func (t *Transcript) Entries() []Entry {
	return t.entries
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Reset removes every entry.
func (t *Transcript) Reset() {
	t.entries = nil
}

// Render lays the conversation out for the given width.
func (t *Transcript) Render(width int) string {
	if width < 20 {
		width = 20
	}
	wrap := lipgloss.NewStyle().Width(width)

	blocks := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		var b strings.Builder
		switch e.Role {
		case RoleUser:
			b.WriteString(t.styles.UserLabel.Render("You"))
			b.WriteString("\n")
			b.WriteString(wrap.Render(t.styles.Body.Render(e.Text)))
		case RoleAssistant:
			b.WriteString(t.styles.AssistantLabel.Render("Assistant"))
			b.WriteString("\n")
			b.WriteString(wrap.Render(t.styles.Body.Render(e.Text)))
			for _, src := range e.Sources {
				b.WriteString("\n")
				b.WriteString(wrap.Render(t.styles.Source.Render(formatSource(src))))
			}
		case RoleNotice:
			b.WriteString(wrap.Render(t.styles.Muted.Render(e.Text)))
		case RoleError:
			b.WriteString(wrap.Render(t.styles.Error.Render("Error: " + e.Text)))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func formatSource(src domain.Source) string {
	if src.URL != nil && *src.URL != "" {
		return "↳ " + src.Display + " (" + *src.URL + ")"
	}
	return "↳ " + src.Display
}
