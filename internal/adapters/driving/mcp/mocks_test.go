package mcp

import (
	"context"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// mockToolService is a mock implementation of driving.ToolService.
type mockToolService struct {
	definitions []domain.ToolDefinition
	output      domain.ToolOutput
	err         error

	gotName  string
	gotInput map[string]any
}

func (m *mockToolService) Definitions() []domain.ToolDefinition {
	return m.definitions
}

func (m *mockToolService) Execute(_ context.Context, name string, input map[string]any) (domain.ToolOutput, error) {
	m.gotName = name
	m.gotInput = input
	return m.output, m.err
}

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer    *domain.Answer
	analytics *domain.CourseAnalytics
	course    *domain.Course
	err       error

	gotQuery      string
	gotSessionID  string
	gotCourseName string
}

func (m *mockQueryService) Query(_ context.Context, query, sessionID string) (*domain.Answer, error) {
	m.gotQuery = query
	m.gotSessionID = sessionID
	return m.answer, m.err
}

func (m *mockQueryService) CourseAnalytics(_ context.Context) (*domain.CourseAnalytics, error) {
	return m.analytics, m.err
}

func (m *mockQueryService) CourseOutline(_ context.Context, courseName string) (*domain.Course, error) {
	m.gotCourseName = courseName
	return m.course, m.err
}

func (m *mockQueryService) ClearSession(_ context.Context, _ string) error {
	return m.err
}
