package mcp

import (
	"github.com/custodia-labs/coursemate/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Tools runs the course search and outline tools.
	Tools driving.ToolService

	// Query answers questions and reads the catalog. Optional; without it
	// the ask_courses tool and the course resources are not registered.
	Query driving.QueryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Tools == nil {
		return ErrMissingToolService
	}
	return nil
}
