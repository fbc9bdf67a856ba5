// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// AnswerReceived carries the reply to a question back to the model.
type AnswerReceived struct {
	Query  string
	Answer *domain.Answer
	Err    error
}

// SessionCleared is sent once the current session has been forgotten.
// A not-found error is not reported; the session simply had no history.
type SessionCleared struct {
	Err error
}

// CoursesLoaded carries catalog statistics back to the model.
type CoursesLoaded struct {
	Analytics *domain.CourseAnalytics
	Err       error
}
