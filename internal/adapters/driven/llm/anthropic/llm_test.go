package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)
	return svc
}

func searchTool() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        "search_course_content",
		Description: "Search course materials",
		InputSchema: domain.ToolSchema{
			Properties: map[string]domain.ToolProperty{"query": {Type: "string"}},
			Required:   []string{"query"},
		},
	}
}

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	require.Error(t, err)

	svc, err := NewLLMService(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
}

func TestCreateMessage_ToolUseRoundTrip(t *testing.T) {
	var captured map[string]any
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_, _ = w.Write([]byte(`{
			"stop_reason": "tool_use",
			"content": [
				{"type": "text", "text": "Let me look."},
				{"type": "tool_use", "id": "toolu_1", "name": "search_course_content", "input": {"query": "MCP", "lesson_number": 2}}
			]
		}`))
	})

	resp, err := svc.CreateMessage(context.Background(), driven.MessageRequest{
		System:   "be helpful",
		Messages: []domain.Message{domain.UserText("What is MCP?")},
		Tools:    []domain.ToolDefinition{searchTool()},
	})

	require.NoError(t, err)
	assert.True(t, resp.WantsTools())
	assert.Equal(t, "Let me look.", resp.Text())
	uses := domain.ToolUses(resp.Content)
	require.Len(t, uses, 1)
	assert.Equal(t, "toolu_1", uses[0].ID)
	assert.Equal(t, "MCP", uses[0].Input["query"])
	assert.InDelta(t, 2, uses[0].Input["lesson_number"], 0)

	assert.Equal(t, "be helpful", captured["system"])
	assert.Equal(t, float64(DefaultMaxTokens), captured["max_tokens"])
	assert.Equal(t, float64(0), captured["temperature"])
	assert.Equal(t, map[string]any{"type": "auto"}, captured["tool_choice"])
	tools := captured["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "search_course_content", tool["name"])
	assert.Equal(t, "object", tool["input_schema"].(map[string]any)["type"])
}

func TestCreateMessage_NoToolsOmitsToolFields(t *testing.T) {
	var captured map[string]any
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"stop_reason":"end_turn","content":[{"type":"text","text":"done"}]}`))
	})

	resp, err := svc.CreateMessage(context.Background(), driven.MessageRequest{
		Messages:  []domain.Message{domain.UserText("hi")},
		MaxTokens: 50,
	})

	require.NoError(t, err)
	assert.False(t, resp.WantsTools())
	assert.Equal(t, "done", resp.Text())
	assert.NotContains(t, captured, "tools")
	assert.NotContains(t, captured, "tool_choice")
	assert.Equal(t, float64(50), captured["max_tokens"])
}

func TestCreateMessage_EncodesToolResults(t *testing.T) {
	var captured messagesRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"stop_reason":"end_turn","content":[{"type":"text","text":"ok"}]}`))
	})

	failed := domain.ToolResultBlock("toolu_2", "Tool execution error: boom")
	failed.IsError = true
	_, err := svc.CreateMessage(context.Background(), driven.MessageRequest{
		Messages: []domain.Message{
			domain.UserText("q"),
			{Role: domain.RoleAssistant, Content: []domain.ContentBlock{
				domain.ToolUseBlock("toolu_1", "search_course_content", map[string]any{"query": "q"}),
				domain.ToolUseBlock("toolu_2", "get_course_outline", nil),
			}},
			{Role: domain.RoleUser, Content: []domain.ContentBlock{
				domain.ToolResultBlock("toolu_1", "[A - Lesson 1]\ntext"),
				failed,
			}},
		},
	})

	require.NoError(t, err)
	require.Len(t, captured.Messages, 3)
	assistant := captured.Messages[1]
	assert.Equal(t, "assistant", assistant.Role)
	assert.JSONEq(t, `{"query":"q"}`, string(assistant.Content[0].Input))
	assert.JSONEq(t, `{}`, string(assistant.Content[1].Input))

	results := captured.Messages[2].Content
	assert.Equal(t, "tool_result", results[0].Type)
	assert.Equal(t, "toolu_1", results[0].ToolUseID)
	assert.False(t, results[0].IsError)
	assert.True(t, results[1].IsError)
}

func TestCreateMessage_APIError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	})

	_, err := svc.CreateMessage(context.Background(), driven.MessageRequest{
		Messages: []domain.Message{domain.UserText("hi")},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid x-api-key")
}

func TestCreateMessage_NonJSONError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := svc.CreateMessage(context.Background(), driven.MessageRequest{
		Messages: []domain.Message{domain.UserText("hi")},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestPing(t *testing.T) {
	ok := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, ok.Ping(context.Background()))

	denied := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("nope"))
	})
	err := denied.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.NoError(t, denied.Close())
}
