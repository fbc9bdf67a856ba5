package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// Tool names shared with the model-facing registry.
const (
	searchToolName  = "search_course_content"
	outlineToolName = "get_course_outline"
	askToolName     = "ask_courses"
)

// SearchCourseContentInput is the input schema for search_course_content.
type SearchCourseContentInput struct {
	Query        string  `json:"query" jsonschema:"what to search for in the course content"`
	CourseName   *string `json:"course_name,omitempty" jsonschema:"course title, partial matches work (e.g. 'MCP', 'Introduction')"`
	LessonNumber *int    `json:"lesson_number,omitempty" jsonschema:"specific lesson number to search within (e.g. 1, 2, 3)"`
}

// CourseOutlineInput is the input schema for get_course_outline.
type CourseOutlineInput struct {
	CourseName string `json:"course_name" jsonschema:"course title, partial matches work"`
}

// ToolOutput is the structured output of the course tools.
type ToolOutput struct {
	Text    string         `json:"text"`
	Sources []SourceOutput `json:"sources"`
}

// SourceOutput is a single attribution.
type SourceOutput struct {
	Display string `json:"display"`
	URL     string `json:"url,omitempty"`
}

// AskInput is the input schema for ask_courses.
type AskInput struct {
	Question  string `json:"question" jsonschema:"a question about the course materials"`
	SessionID string `json:"session_id,omitempty" jsonschema:"session to continue, omit to start a new one"`
}

// AskOutput is the output schema for ask_courses.
type AskOutput struct {
	Answer    string         `json:"answer"`
	Sources   []SourceOutput `json:"sources"`
	SessionID string         `json:"session_id"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        searchToolName,
		Description: s.description(searchToolName, "Search course materials with smart course name matching and lesson filtering"),
	}, s.handleSearchCourseContent)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        outlineToolName,
		Description: s.description(outlineToolName, "Get a course outline: title, link, instructor and lesson list"),
	}, s.handleCourseOutline)

	if s.ports.Query != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        askToolName,
			Description: "Answer a question about the course materials, citing lessons",
		}, s.handleAsk)
	}
}

// description returns the registry description for name, or fallback.
func (s *Server) description(name, fallback string) string {
	for _, def := range s.ports.Tools.Definitions() {
		if def.Name == name && def.Description != "" {
			return def.Description
		}
	}
	return fallback
}

// handleSearchCourseContent handles the search_course_content tool invocation.
func (s *Server) handleSearchCourseContent(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchCourseContentInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	args := map[string]any{"query": input.Query}
	if input.CourseName != nil && strings.TrimSpace(*input.CourseName) != "" {
		args["course_name"] = *input.CourseName
	}
	if input.LessonNumber != nil {
		args["lesson_number"] = *input.LessonNumber
	}
	return s.execute(ctx, searchToolName, args)
}

// handleCourseOutline handles the get_course_outline tool invocation.
func (s *Server) handleCourseOutline(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CourseOutlineInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	return s.execute(ctx, outlineToolName, map[string]any{"course_name": input.CourseName})
}

func (s *Server) execute(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, ToolOutput, error) {
	out, err := s.ports.Tools.Execute(ctx, name, args)
	if err != nil {
		return nil, ToolOutput{}, err
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: out.Text}},
	}
	return result, ToolOutput{Text: out.Text, Sources: toSourceOutputs(out.Sources)}, nil
}

// handleAsk handles the ask_courses tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Query.Query(ctx, input.Question, input.SessionID)
	if err != nil {
		return nil, AskOutput{}, err
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: answer.Answer}},
	}
	return result, AskOutput{
		Answer:    answer.Answer,
		Sources:   toSourceOutputs(answer.Sources),
		SessionID: answer.SessionID,
	}, nil
}

func toSourceOutputs(sources []domain.Source) []SourceOutput {
	out := make([]SourceOutput, len(sources))
	for i, src := range sources {
		out[i] = SourceOutput{Display: src.Display}
		if src.URL != nil {
			out[i].URL = *src.URL
		}
	}
	return out
}
