// Package tui provides an interactive chat interface over the course
// question-answering service. It implements a driving adapter following
// hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/coursemate/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
type Ports struct {
	// Query answers questions and manages sessions.
	Query driving.QueryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
