package driving

import (
	"context"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// ToolService exposes the registered model tools to external actors such as
// MCP clients.
type ToolService interface {
	// Definitions returns every registered tool definition in registration order.
	Definitions() []domain.ToolDefinition

	// Execute runs the named tool. Unknown names produce a not-found message
	// in the output text rather than an error.
	Execute(ctx context.Context, name string, input map[string]any) (domain.ToolOutput, error)
}
