// Package openai provides an LLM service adapter using the OpenAI chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService sends tool-use conversations to the OpenAI chat completions API.
// Tool results become "tool" role messages; tool_use blocks become
// function tool_calls on the assistant message.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// chatCompletionRequest is the OpenAI /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature *float64            `json:"temperature,omitempty"`
	Tools       []chatTool          `json:"tools,omitempty"`
	ToolChoice  string              `json:"tool_choice,omitempty"`
}

// chatCompletionMsg is the OpenAI chat message format.
type chatCompletionMsg struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type toolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description,omitempty"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

// chatCompletionResponse is the OpenAI /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content   string     `json:"content"`
			ToolCalls []toolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// CreateMessage sends one chat completion request.
func (s *LLMService) CreateMessage(ctx context.Context, req driven.MessageRequest) (*driven.MessageResponse, error) {
	reqBody, err := s.buildRequest(req)
	if err != nil {
		return nil, err
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("openai error: %s", chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no response choices returned")
	}

	choice := chatResp.Choices[0]
	out := &driven.MessageResponse{StopReason: stopReason(choice.FinishReason)}
	if choice.Message.Content != "" {
		out.Content = append(out.Content, domain.TextBlock(choice.Message.Content))
	}
	for _, call := range choice.Message.ToolCalls {
		input := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
				return nil, fmt.Errorf("decode arguments for %s: %w", call.Function.Name, err)
			}
		}
		out.Content = append(out.Content, domain.ToolUseBlock(call.ID, call.Function.Name, input))
	}
	if len(choice.Message.ToolCalls) > 0 {
		out.StopReason = domain.StopToolUse
	}
	return out, nil
}

// buildRequest converts a port request into the wire format.
func (s *LLMService) buildRequest(req driven.MessageRequest) (*chatCompletionRequest, error) {
	temperature := req.Temperature
	out := &chatCompletionRequest{
		Model:       s.model,
		MaxTokens:   req.MaxTokens,
		Temperature: &temperature,
	}

	if req.System != "" {
		out.Messages = append(out.Messages, chatCompletionMsg{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		msgs, err := toChatMessages(m)
		if err != nil {
			return nil, err
		}
		out.Messages = append(out.Messages, msgs...)
	}

	if req.HasTools() {
		for _, t := range req.Tools {
			var tool chatTool
			tool.Type = "function"
			tool.Function.Name = t.Name
			tool.Function.Description = t.Description
			tool.Function.Parameters = t.InputSchema.JSONSchema()
			out.Tools = append(out.Tools, tool)
		}
		out.ToolChoice = domain.ToolChoiceAuto.Type
		if req.ToolChoice != nil {
			out.ToolChoice = req.ToolChoice.Type
		}
	}
	return out, nil
}

// toChatMessages flattens one conversation turn. A user turn carrying
// tool results expands into one "tool" message per result.
func toChatMessages(m domain.Message) ([]chatCompletionMsg, error) {
	var (
		out   []chatCompletionMsg
		text  strings.Builder
		calls []toolCall
	)
	for _, b := range m.Content {
		switch b.Type {
		case domain.BlockText:
			text.WriteString(b.Text)
		case domain.BlockToolUse:
			args, err := json.Marshal(b.Input)
			if err != nil {
				return nil, fmt.Errorf("marshal arguments for %s: %w", b.Name, err)
			}
			if b.Input == nil {
				args = []byte("{}")
			}
			var call toolCall
			call.ID = b.ID
			call.Type = "function"
			call.Function.Name = b.Name
			call.Function.Arguments = string(args)
			calls = append(calls, call)
		case domain.BlockToolResult:
			out = append(out, chatCompletionMsg{Role: "tool", ToolCallID: b.ToolUseID, Content: b.Content})
		}
	}

	if text.Len() > 0 || len(calls) > 0 {
		out = append(out, chatCompletionMsg{Role: string(m.Role), Content: text.String(), ToolCalls: calls})
	}
	return out, nil
}

func stopReason(finish string) domain.StopReason {
	switch finish {
	case "tool_calls", "function_call":
		return domain.StopToolUse
	case "length":
		return domain.StopMaxTokens
	case "stop":
		return domain.StopEndTurn
	default:
		return domain.StopReason(finish)
	}
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("openai: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("openai: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
