package api

import (
	"context"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer    *domain.Answer
	analytics *domain.CourseAnalytics
	course    *domain.Course
	err       error

	gotQuery     string
	gotSessionID string
	cleared      []string
}

func (m *mockQueryService) Query(_ context.Context, query, sessionID string) (*domain.Answer, error) {
	m.gotQuery = query
	m.gotSessionID = sessionID
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockQueryService) CourseAnalytics(_ context.Context) (*domain.CourseAnalytics, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.analytics, nil
}

func (m *mockQueryService) CourseOutline(_ context.Context, _ string) (*domain.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.course, nil
}

func (m *mockQueryService) ClearSession(_ context.Context, sessionID string) error {
	m.cleared = append(m.cleared, sessionID)
	return m.err
}
