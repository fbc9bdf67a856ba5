package driven

import (
	"context"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// LLMService sends conversations to a tool-use capable language model.
//
// Implementations include:
//   - Anthropic (Messages API)
//   - OpenAI (chat completions with function tools)
//   - Ollama (local models with tool support)
type LLMService interface {
	// CreateMessage sends one request and returns the model's turn.
	// Transport, authentication and API errors are returned as-is; callers
	// decide whether they are fatal.
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// MessageRequest is a single model invocation.
type MessageRequest struct {
	// System is the system prompt.
	System string

	// Messages is the conversation so far, oldest first.
	Messages []domain.Message

	// Tools lists the tools the model may call. Empty means no tools.
	Tools []domain.ToolDefinition

	// ToolChoice is sent only when Tools is non-empty.
	ToolChoice *domain.ToolChoice

	// MaxTokens caps the response length. Zero uses the adapter default.
	MaxTokens int

	// Temperature is the sampling temperature.
	Temperature float64
}

// HasTools reports whether the request offers tools to the model.
func (r MessageRequest) HasTools() bool {
	return len(r.Tools) > 0
}

// MessageResponse is the model's turn.
type MessageResponse struct {
	// StopReason explains why generation stopped.
	StopReason domain.StopReason

	// Content holds text and tool_use blocks in model order.
	Content []domain.ContentBlock
}

// Text returns the text of the first text block.
func (r *MessageResponse) Text() string {
	if r == nil {
		return ""
	}
	return domain.FirstText(r.Content)
}

// WantsTools reports whether the model stopped to call tools.
func (r *MessageResponse) WantsTools() bool {
	return r != nil && r.StopReason == domain.StopToolUse
}

// ToolUses returns the tool_use blocks the model asked for, in order.
func (r *MessageResponse) ToolUses() []domain.ContentBlock {
	if r == nil {
		return nil
	}
	return domain.ToolUses(r.Content)
}

// AssistantMessage converts the response into a conversation turn.
func (r *MessageResponse) AssistantMessage() domain.Message {
	content := make([]domain.ContentBlock, len(r.Content))
	copy(content, r.Content)
	return domain.Message{Role: domain.RoleAssistant, Content: content}
}
