package driving

import (
	"context"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// QueryService answers questions about the course catalog.
type QueryService interface {
	// Query answers a question within a session. An empty sessionID starts a
	// new session; the returned Answer carries the session ID to reuse.
	Query(ctx context.Context, query, sessionID string) (*domain.Answer, error)

	// CourseAnalytics returns the number of courses and their titles.
	CourseAnalytics(ctx context.Context) (*domain.CourseAnalytics, error)

	// CourseOutline resolves a fuzzy course name and returns its catalog entry.
	// Returns domain.ErrNotFound if no course matches.
	CourseOutline(ctx context.Context, courseName string) (*domain.Course, error)

	// ClearSession forgets a session's history.
	// Returns domain.ErrNotFound if the session does not exist.
	ClearSession(ctx context.Context, sessionID string) error
}
