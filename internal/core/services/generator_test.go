package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

// mockPromptStore implements driven.PromptStore from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

func searchCall(id string) *driven.MessageResponse {
	return toolResponse(id, SearchToolName, map[string]any{"query": "q-" + id})
}

func newGeneratorFixture(responses ...*driven.MessageResponse) (*ResponseGenerator, *mockLLMService, *mockTool, *ToolManager) {
	llm := &mockLLMService{responses: responses}
	tool := &mockTool{name: SearchToolName, output: domain.ToolOutput{Text: "found it"}}
	return NewResponseGenerator(llm), llm, tool, NewToolManager(tool)
}

func generate(t *testing.T, g *ResponseGenerator, tools *ToolManager) *GenerateResult {
	t.Helper()
	result, err := g.Generate(context.Background(), GenerateRequest{
		Query:    "What is MCP?",
		Tools:    tools.Definitions(),
		Executor: tools,
	})
	require.NoError(t, err)
	return result
}

func TestResponseGenerator_Defaults(t *testing.T) {
	g := NewResponseGenerator(&mockLLMService{})

	assert.Equal(t, 2, g.MaxToolRounds())
	assert.Equal(t, 800, g.maxTokens)
	assert.Zero(t, g.temperature)
}

func TestResponseGenerator_DirectAnswer(t *testing.T) {
	g, llm, tool, tools := newGeneratorFixture(textResponse("42"))

	result := generate(t, g, tools)

	assert.Equal(t, "42", result.Text)
	assert.Equal(t, 1, result.Calls)
	assert.Zero(t, result.ToolRounds)
	assert.Empty(t, tool.inputs)

	require.Len(t, llm.requests, 1)
	first := llm.requests[0]
	assert.True(t, first.HasTools())
	require.NotNil(t, first.ToolChoice)
	assert.Equal(t, domain.ToolChoiceAuto, *first.ToolChoice)
	assert.Equal(t, 800, first.MaxTokens)
	require.Len(t, first.Messages, 1)
	assert.Equal(t, "What is MCP?", first.Messages[0].Text())
}

func TestResponseGenerator_RoundBudget(t *testing.T) {
	g, llm, tool, tools := newGeneratorFixture(
		searchCall("t1"), searchCall("t2"), searchCall("t3"), textResponse("final"),
	)

	result := generate(t, g, tools)

	assert.Equal(t, "final", result.Text)
	assert.Len(t, tool.inputs, 2, "tools run once per round")
	assert.Equal(t, 2, result.ToolRounds)
	assert.Equal(t, 4, result.Calls)
	require.Len(t, llm.requests, 4)

	assert.True(t, llm.requests[0].HasTools())
	assert.True(t, llm.requests[1].HasTools(), "round 1 of 2 still offers tools")
	assert.False(t, llm.requests[2].HasTools(), "last round withholds tools")
	assert.False(t, llm.requests[3].HasTools(), "forced final call has no tools")
	assert.Nil(t, llm.requests[3].ToolChoice)

	last := llm.requests[3].Messages
	notice := last[len(last)-1]
	assert.Equal(t, domain.RoleUser, notice.Role)
	require.Len(t, notice.Content, 1)
	assert.Equal(t, domain.BlockToolResult, notice.Content[0].Type)
	assert.Equal(t, "t3", notice.Content[0].ToolUseID)
	assert.Equal(t, ExhaustedToolRoundsNotice, notice.Content[0].Content)
}

func TestResponseGenerator_CallBoundHolds(t *testing.T) {
	for rounds := 0; rounds <= 4; rounds++ {
		llm := &mockLLMService{responses: []*driven.MessageResponse{searchCall("t")}}
		tool := &mockTool{name: SearchToolName}
		tools := NewToolManager(tool)
		g := NewResponseGenerator(llm, WithMaxToolRounds(rounds))

		result := generate(t, g, tools)

		assert.Equal(t, rounds+2, result.Calls, "rounds=%d", rounds)
		assert.Len(t, tool.inputs, rounds, "rounds=%d", rounds)
	}
}

func TestResponseGenerator_EarlyTermination(t *testing.T) {
	g, llm, tool, tools := newGeneratorFixture(searchCall("t1"), textResponse("done"))

	result := generate(t, g, tools)

	assert.Equal(t, "done", result.Text)
	assert.Len(t, tool.inputs, 1)
	assert.Equal(t, 1, result.ToolRounds)
	assert.Len(t, llm.requests, 2)
}

func TestResponseGenerator_ToolResultsThreaded(t *testing.T) {
	g, llm, _, tools := newGeneratorFixture(searchCall("t1"), textResponse("done"))

	generate(t, g, tools)

	second := llm.requests[1].Messages
	require.Len(t, second, 3)
	assert.Equal(t, domain.RoleUser, second[0].Role)
	assert.Equal(t, domain.RoleAssistant, second[1].Role)
	require.Len(t, second[1].ToolUses(), 1)
	assert.Equal(t, "t1", second[1].ToolUses()[0].ID)
	assert.Equal(t, domain.RoleUser, second[2].Role)
	assert.Equal(t, "t1", second[2].Content[0].ToolUseID)
	assert.Equal(t, "found it", second[2].Content[0].Content)
}

func TestResponseGenerator_HistoryIsNotAliased(t *testing.T) {
	g, llm, _, tools := newGeneratorFixture(searchCall("t1"), searchCall("t2"), textResponse("done"))

	generate(t, g, tools)

	require.Len(t, llm.requests, 3)
	assert.Len(t, llm.requests[0].Messages, 1)
	assert.Len(t, llm.requests[1].Messages, 3)
	assert.Len(t, llm.requests[2].Messages, 5)
}

func TestResponseGenerator_MultipleCallsInOneRound(t *testing.T) {
	search := &mockTool{name: "search", output: domain.ToolOutput{
		Text:    "s",
		Sources: []domain.Source{{Display: "A"}},
	}}
	outline := &mockTool{name: "outline", output: domain.ToolOutput{
		Text:    "o",
		Sources: []domain.Source{{Display: "A"}, {Display: "B"}},
	}}
	tools := NewToolManager(search, outline)
	llm := &mockLLMService{responses: []*driven.MessageResponse{
		{
			StopReason: domain.StopToolUse,
			Content: []domain.ContentBlock{
				domain.TextBlock("Let me look."),
				domain.ToolUseBlock("a", "outline", map[string]any{}),
				domain.ToolUseBlock("b", "search", map[string]any{}),
			},
		},
		textResponse("done"),
	}}

	result := generate(t, NewResponseGenerator(llm), tools)

	results := llm.requests[1].Messages[2].Content
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ToolUseID)
	assert.Equal(t, "o", results[0].Content)
	assert.Equal(t, "b", results[1].ToolUseID)
	assert.Equal(t, "s", results[1].Content)

	require.Len(t, result.Sources, 2)
	assert.Equal(t, "A", result.Sources[0].Display)
	assert.Equal(t, "B", result.Sources[1].Display)
}

func TestResponseGenerator_ToolFailureIsReported(t *testing.T) {
	failing := &mockTool{name: SearchToolName, err: errBoom}
	tools := NewToolManager(failing)
	llm := &mockLLMService{responses: []*driven.MessageResponse{searchCall("t1"), textResponse("sorry")}}

	result := generate(t, NewResponseGenerator(llm), tools)

	assert.Equal(t, "sorry", result.Text)
	block := llm.requests[1].Messages[2].Content[0]
	assert.Equal(t, "Tool execution error: boom", block.Content)
	assert.True(t, block.IsError)
	assert.Empty(t, result.Sources)
}

func TestResponseGenerator_UnknownToolIsReported(t *testing.T) {
	llm := &mockLLMService{responses: []*driven.MessageResponse{
		toolResponse("t1", "missing_tool", nil), textResponse("ok"),
	}}

	generate(t, NewResponseGenerator(llm), NewToolManager())

	block := llm.requests[1].Messages[2].Content[0]
	assert.Equal(t, "Tool 'missing_tool' not found", block.Content)
	assert.False(t, block.IsError)
}

func TestResponseGenerator_SourcesAcrossRounds(t *testing.T) {
	tool := &mockTool{name: SearchToolName, output: domain.ToolOutput{Sources: []domain.Source{{Display: "X"}}}}
	llm := &mockLLMService{responses: []*driven.MessageResponse{searchCall("1"), searchCall("2"), textResponse("ok")}}

	result := generate(t, NewResponseGenerator(llm), NewToolManager(tool))

	assert.Len(t, result.Sources, 1)
}

func TestResponseGenerator_NoExecutor(t *testing.T) {
	llm := &mockLLMService{responses: []*driven.MessageResponse{{
		StopReason: domain.StopToolUse,
		Content: []domain.ContentBlock{
			domain.TextBlock("partial"),
			domain.ToolUseBlock("t", SearchToolName, nil),
		},
	}}}

	result, err := NewResponseGenerator(llm).Generate(context.Background(), GenerateRequest{Query: "q"})

	require.NoError(t, err)
	assert.Equal(t, "partial", result.Text)
	assert.Equal(t, 1, result.Calls)
	assert.False(t, llm.requests[0].HasTools())
	assert.Nil(t, llm.requests[0].ToolChoice)
}

func TestResponseGenerator_LLMError(t *testing.T) {
	llm := &mockLLMService{
		responses: []*driven.MessageResponse{searchCall("t1")},
		err:       errBoom,
		errAt:     2,
	}
	tool := &mockTool{name: SearchToolName}

	_, err := NewResponseGenerator(llm).Generate(context.Background(), GenerateRequest{
		Query:    "q",
		Tools:    []domain.ToolDefinition{tool.Definition()},
		Executor: NewToolManager(tool),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom))
	assert.Contains(t, err.Error(), "generate")
}

func TestResponseGenerator_NilLLM(t *testing.T) {
	_, err := NewResponseGenerator(nil).Generate(context.Background(), GenerateRequest{Query: "q"})

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestResponseGenerator_SystemPrompt(t *testing.T) {
	g := NewResponseGenerator(&mockLLMService{}, WithMaxToolRounds(3))

	plain := g.SystemPrompt("")
	assert.Contains(t, plain, "up to 3 sequential rounds")
	assert.NotContains(t, plain, "Previous conversation")

	withHistory := g.SystemPrompt("User: hi\nAssistant: hello")
	assert.Contains(t, withHistory, "\n\nPrevious conversation:\nUser: hi\nAssistant: hello")
}

func TestResponseGenerator_HistoryReachesModel(t *testing.T) {
	llm := &mockLLMService{responses: []*driven.MessageResponse{textResponse("ok")}}

	_, err := NewResponseGenerator(llm).Generate(context.Background(), GenerateRequest{
		Query:   "and lesson 2?",
		History: "User: what is lesson 1?\nAssistant: intro",
	})

	require.NoError(t, err)
	assert.Contains(t, llm.requests[0].System, "Previous conversation:\nUser: what is lesson 1?")
	assert.Len(t, llm.requests[0].Messages, 1, "history travels in the system prompt")
}

func TestResponseGenerator_PromptOverride(t *testing.T) {
	g := NewResponseGenerator(&mockLLMService{})
	g.SetPromptStore(&mockPromptStore{prompts: map[string]string{driven.PromptSystem: "Be terse."}})

	assert.Equal(t, "Be terse.", g.SystemPrompt(""))

	g.SetPromptStore(&mockPromptStore{prompts: map[string]string{driven.PromptSystem: ""}})
	assert.Contains(t, g.SystemPrompt(""), "course materials")
}

func TestResponseGenerator_Options(t *testing.T) {
	llm := &mockLLMService{responses: []*driven.MessageResponse{textResponse("ok")}}
	g := NewResponseGenerator(llm, WithMaxTokens(256), WithTemperature(0.3), WithMaxToolRounds(-1))

	_, err := g.Generate(context.Background(), GenerateRequest{Query: "q"})

	require.NoError(t, err)
	assert.Equal(t, 256, llm.requests[0].MaxTokens)
	assert.InDelta(t, 0.3, llm.requests[0].Temperature, 1e-9)
	assert.Equal(t, 2, g.MaxToolRounds(), "negative budgets are ignored")
}
