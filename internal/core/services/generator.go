package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
	"github.com/custodia-labs/coursemate/internal/logger"
)

// Ensure ResponseGenerator accepts a prompt store.
var _ driven.PromptStoreAware = (*ResponseGenerator)(nil)

// ExhaustedToolRoundsNotice answers tool calls requested after the round
// budget is spent.
const ExhaustedToolRoundsNotice = "Maximum tool call rounds reached. Please provide your final answer based on previous results."

// GenerateRequest is one question for the ResponseGenerator.
type GenerateRequest struct {
	// Query is sent as the single initial user message.
	Query string

	// History is the formatted prior conversation, appended to the system
	// prompt when non-empty.
	History string

	// Tools are offered to the model. Empty means a plain completion.
	Tools []domain.ToolDefinition

	// Executor runs the tools. Without it a tool_use response is answered
	// with its text as is.
	Executor ToolExecutor
}

// GenerateResult is the final answer plus what it took to produce it.
type GenerateResult struct {
	// Text is the answer.
	Text string

	// Sources is the deduplicated union of the sources returned by every
	// tool call, in execution order.
	Sources []domain.Source

	// Calls is the number of model invocations.
	Calls int

	// ToolRounds is the number of rounds in which tools were executed.
	ToolRounds int
}

// ResponseGenerator drives the tool-use conversation with the model.
//
// The first call offers the tools. Every tool_use response starts a round:
// the requested calls run in order, their results are sent back, and the
// next call offers tools again only while rounds remain, so the call after
// the last round must answer from what it has. If the model still asks for
// tools after the last round, one more call without tools is made with every
// pending call answered by ExhaustedToolRoundsNotice, and its text is final.
// The model is therefore called at most maxToolRounds+2 times.
type ResponseGenerator struct {
	llm           driven.LLMService
	maxToolRounds int
	maxTokens     int
	temperature   float64
	promptStore   driven.PromptStore
}

// GeneratorOption configures a ResponseGenerator.
type GeneratorOption func(*ResponseGenerator)

// WithMaxToolRounds sets the tool round budget. Negative values are ignored.
func WithMaxToolRounds(n int) GeneratorOption {
	return func(g *ResponseGenerator) {
		if n >= 0 {
			g.maxToolRounds = n
		}
	}
}

// WithMaxTokens sets the per-call response cap.
func WithMaxTokens(n int) GeneratorOption {
	return func(g *ResponseGenerator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) GeneratorOption {
	return func(g *ResponseGenerator) {
		g.temperature = t
	}
}

// NewResponseGenerator creates a generator. It defaults to two tool rounds,
// 800 tokens and temperature 0.
func NewResponseGenerator(llm driven.LLMService, opts ...GeneratorOption) *ResponseGenerator {
	g := &ResponseGenerator{
		llm:           llm,
		maxToolRounds: domain.DefaultMaxToolRounds,
		maxTokens:     domain.DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (g *ResponseGenerator) SetPromptStore(store driven.PromptStore) {
	g.promptStore = store
}

// MaxToolRounds returns the tool round budget.
func (g *ResponseGenerator) MaxToolRounds() int {
	return g.maxToolRounds
}

// SystemPrompt returns the system prompt with history appended.
func (g *ResponseGenerator) SystemPrompt(history string) string {
	system := loadPrompt(g.promptStore, driven.PromptSystem, defaultSystemPrompt(g.maxToolRounds))
	if history == "" {
		return system
	}
	return system + "\n\nPrevious conversation:\n" + history
}

// Generate answers one question. Model errors are returned wrapped and end
// the question; tool failures are reported to the model as text.
func (g *ResponseGenerator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if g.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	logger.Section("Response Generation")
	result := &GenerateResult{}

	base := driven.MessageRequest{
		System:      g.SystemPrompt(req.History),
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	messages := []domain.Message{domain.UserText(req.Query)}
	resp, err := g.call(ctx, result, g.withTools(base, messages, req.Tools))
	if err != nil {
		return nil, err
	}

	if !resp.WantsTools() || req.Executor == nil {
		result.Text = resp.Text()
		return result, nil
	}

	for round := 1; round <= g.maxToolRounds; round++ {
		if !resp.WantsTools() {
			result.Text = resp.Text()
			return result, nil
		}

		logger.Section(fmt.Sprintf("Tool Round %d/%d", round, g.maxToolRounds))
		results := g.runTools(ctx, req.Executor, resp.Content, result)
		result.ToolRounds++
		messages = appendTurns(messages, resp, results)

		next := base
		next.Messages = messages
		if round < g.maxToolRounds {
			next = g.withTools(base, messages, req.Tools)
		} else {
			logger.Debug("Last round, tools withheld")
		}

		resp, err = g.call(ctx, result, next)
		if err != nil {
			return nil, err
		}
	}

	if resp.WantsTools() {
		logger.Info("Tool round budget of %d spent, forcing a final answer", g.maxToolRounds)
		pending := resp.ToolUses()
		notices := make([]domain.ContentBlock, len(pending))
		for i, use := range pending {
			notices[i] = domain.ToolResultBlock(use.ID, ExhaustedToolRoundsNotice)
		}
		messages = appendTurns(messages, resp, notices)

		final := base
		final.Messages = messages
		resp, err = g.call(ctx, result, final)
		if err != nil {
			return nil, err
		}
	}

	result.Text = resp.Text()
	return result, nil
}

func (g *ResponseGenerator) call(ctx context.Context, result *GenerateResult, req driven.MessageRequest) (*driven.MessageResponse, error) {
	result.Calls++
	logger.Debug("Model call %d: %d messages, %d tools", result.Calls, len(req.Messages), len(req.Tools))

	resp, err := g.llm.CreateMessage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("generate: empty response")
	}
	logger.Debug("Stop reason: %s", resp.StopReason)
	return resp, nil
}

func (g *ResponseGenerator) withTools(base driven.MessageRequest, messages []domain.Message, tools []domain.ToolDefinition) driven.MessageRequest {
	req := base
	req.Messages = messages
	if len(tools) > 0 {
		req.Tools = tools
		choice := domain.ToolChoiceAuto
		req.ToolChoice = &choice
	}
	return req
}

// runTools executes every tool_use block in order. A failing call becomes a
// "Tool execution error" result so the rest of the round still runs.
func (g *ResponseGenerator) runTools(
	ctx context.Context, executor ToolExecutor, content []domain.ContentBlock, result *GenerateResult,
) []domain.ContentBlock {
	uses := domain.ToolUses(content)
	results := make([]domain.ContentBlock, 0, len(uses))

	for _, use := range uses {
		out, err := executor.Execute(ctx, use.Name, use.Input)
		if err != nil {
			logger.Warn("Tool %s failed: %v", use.Name, err)
			block := domain.ToolResultBlock(use.ID, "Tool execution error: "+err.Error())
			block.IsError = true
			results = append(results, block)
			continue
		}
		result.Sources = MergeSources(result.Sources, out.Sources)
		results = append(results, domain.ToolResultBlock(use.ID, out.Text))
	}
	return results
}

// appendTurns returns a new history with the assistant turn and, when there
// are any, the tool results appended. The input slice is never modified.
func appendTurns(history []domain.Message, resp *driven.MessageResponse, results []domain.ContentBlock) []domain.Message {
	next := make([]domain.Message, 0, len(history)+2)
	next = append(next, history...)
	next = append(next, resp.AssistantMessage())
	if len(results) > 0 {
		next = append(next, domain.Message{Role: domain.RoleUser, Content: results})
	}
	return next
}
