// Package anthropic provides an LLM service adapter using the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 800

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the LLM model to use (default: claude-sonnet-4-20250514).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService sends tool-use conversations to the Anthropic Messages API.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model       string         `json:"model"`
	Messages    []apiMessage   `json:"messages"`
	MaxTokens   int            `json:"max_tokens"`
	System      string         `json:"system,omitempty"`
	Temperature *float64       `json:"temperature,omitempty"`
	Tools       []apiTool      `json:"tools,omitempty"`
	ToolChoice  *apiToolChoice `json:"tool_choice,omitempty"`
}

type apiMessage struct {
	Role    string     `json:"role"`
	Content []apiBlock `json:"content"`
}

// apiBlock covers the text, tool_use and tool_result block shapes.
type apiBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type apiTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type apiToolChoice struct {
	Type string `json:"type"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content    []apiBlock `json:"content"`
	StopReason string     `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &LLMService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// CreateMessage sends one Messages API request.
func (s *LLMService) CreateMessage(ctx context.Context, req driven.MessageRequest) (*driven.MessageResponse, error) {
	body, err := s.buildRequest(req)
	if err != nil {
		return nil, err
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	s.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(raw, &msgResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, string(raw))
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if msgResp.Error != nil {
		return nil, fmt.Errorf("anthropic error: %s", msgResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, string(raw))
	}

	return toResponse(msgResp)
}

// buildRequest converts a port request into the wire format.
func (s *LLMService) buildRequest(req driven.MessageRequest) (*messagesRequest, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := req.Temperature

	out := &messagesRequest{
		Model:       s.model,
		MaxTokens:   maxTokens,
		System:      req.System,
		Temperature: &temperature,
		Messages:    make([]apiMessage, 0, len(req.Messages)),
	}

	for _, m := range req.Messages {
		msg := apiMessage{Role: string(m.Role), Content: make([]apiBlock, 0, len(m.Content))}
		for _, b := range m.Content {
			block, err := toAPIBlock(b)
			if err != nil {
				return nil, err
			}
			msg.Content = append(msg.Content, block)
		}
		out.Messages = append(out.Messages, msg)
	}

	if req.HasTools() {
		for _, t := range req.Tools {
			out.Tools = append(out.Tools, apiTool{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: t.InputSchema.JSONSchema(),
			})
		}
		choice := domain.ToolChoiceAuto
		if req.ToolChoice != nil {
			choice = *req.ToolChoice
		}
		out.ToolChoice = &apiToolChoice{Type: choice.Type}
	}

	return out, nil
}

func toAPIBlock(b domain.ContentBlock) (apiBlock, error) {
	switch b.Type {
	case domain.BlockText:
		return apiBlock{Type: "text", Text: b.Text}, nil
	case domain.BlockToolUse:
		input := b.Input
		if input == nil {
			input = map[string]any{}
		}
		raw, err := json.Marshal(input)
		if err != nil {
			return apiBlock{}, fmt.Errorf("marshal tool input for %s: %w", b.Name, err)
		}
		return apiBlock{Type: "tool_use", ID: b.ID, Name: b.Name, Input: raw}, nil
	case domain.BlockToolResult:
		return apiBlock{Type: "tool_result", ToolUseID: b.ToolUseID, Content: b.Content, IsError: b.IsError}, nil
	default:
		return apiBlock{}, fmt.Errorf("anthropic: unsupported content block %q", b.Type)
	}
}

// toResponse converts the wire response. Unknown block types (such as
// thinking blocks) are dropped.
func toResponse(r messagesResponse) (*driven.MessageResponse, error) {
	out := &driven.MessageResponse{StopReason: domain.StopReason(r.StopReason)}
	for _, b := range r.Content {
		switch b.Type {
		case "text":
			out.Content = append(out.Content, domain.TextBlock(b.Text))
		case "tool_use":
			input := map[string]any{}
			if len(b.Input) > 0 {
				if err := json.Unmarshal(b.Input, &input); err != nil {
					return nil, fmt.Errorf("decode tool input for %s: %w", b.Name, err)
				}
			}
			out.Content = append(out.Content, domain.ToolUseBlock(b.ID, b.Name, input))
		}
	}
	return out, nil
}

func (s *LLMService) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /v1/models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: failed to create ping request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("anthropic: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("anthropic: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
