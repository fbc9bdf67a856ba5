package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
	"github.com/custodia-labs/coursemate/internal/core/ports/driving"
	"github.com/custodia-labs/coursemate/internal/logger"
)

// Ensure RAGService implements the interface.
var _ driving.QueryService = (*RAGService)(nil)

// RAGService answers course questions by combining session history, the
// tool registry and the response generator.
type RAGService struct {
	index       *VectorStore
	generator   *ResponseGenerator
	tools       *ToolManager
	sessions    driven.SessionStore
	promptStore driven.PromptStore

	// sessionLocks serialises queries that share a session so history reads
	// and appends do not interleave.
	sessionLocks sync.Map
}

// NewRAGService creates a query service. sessions may be nil, in which case
// questions are answered without history.
func NewRAGService(
	index *VectorStore,
	generator *ResponseGenerator,
	tools *ToolManager,
	sessions driven.SessionStore,
) *RAGService {
	return &RAGService{
		index:     index,
		generator: generator,
		tools:     tools,
		sessions:  sessions,
	}
}

// SetPromptStore sets the prompt store for the question template.
func (s *RAGService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Query answers a question within a session.
func (s *RAGService) Query(ctx context.Context, query, sessionID string) (*domain.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if s.generator == nil {
		return nil, domain.ErrLLMUnavailable
	}

	logger.Section("Query")
	defer logger.Timed("query")()

	if sessionID == "" && s.sessions != nil {
		id, err := s.sessions.CreateSession(ctx)
		if err != nil {
			return nil, fmt.Errorf("query: create session: %w", err)
		}
		sessionID = id
		logger.Debug("Started session %s", sessionID)
	}

	unlock := s.lockSession(sessionID)
	defer unlock()

	history, err := s.history(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	req := GenerateRequest{
		Query:   s.questionPrompt(query),
		History: history,
	}
	if s.tools != nil {
		req.Tools = s.tools.Definitions()
		req.Executor = s.tools
	}

	result, err := s.generator.Generate(ctx, req)
	if s.tools != nil {
		s.tools.ResetSources()
	}
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	logger.Debug("Answered with %d model calls and %d tool rounds", result.Calls, result.ToolRounds)

	if s.sessions != nil && sessionID != "" {
		if err := s.sessions.AddExchange(ctx, sessionID, query, result.Text); err != nil {
			return nil, fmt.Errorf("query: save exchange: %w", err)
		}
	}

	sources := result.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	return &domain.Answer{
		Answer:    result.Text,
		Sources:   sources,
		SessionID: sessionID,
	}, nil
}

func (s *RAGService) history(ctx context.Context, sessionID string) (string, error) {
	if s.sessions == nil || sessionID == "" {
		return "", nil
	}
	exchanges, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("query: load history: %w", err)
	}
	return domain.FormatHistory(exchanges), nil
}

func (s *RAGService) questionPrompt(query string) string {
	tpl := loadPrompt(s.promptStore, driven.PromptQuestion, defaultQuestionPrompt)
	if strings.Count(tpl, "%s") != 1 {
		logger.Warn("Question prompt must contain exactly one %%s, using default")
		tpl = defaultQuestionPrompt
	}
	return fmt.Sprintf(tpl, query)
}

func (s *RAGService) lockSession(sessionID string) func() {
	if sessionID == "" {
		return func() {}
	}
	v, _ := s.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CourseAnalytics returns the number of courses and their titles.
func (s *RAGService) CourseAnalytics(ctx context.Context) (*domain.CourseAnalytics, error) {
	count, err := s.index.GetCourseCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	titles, err := s.index.GetExistingCourseTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	return &domain.CourseAnalytics{
		TotalCourses: count,
		CourseTitles: titles,
	}, nil
}

// CourseOutline resolves a fuzzy course name to its catalog entry.
func (s *RAGService) CourseOutline(ctx context.Context, courseName string) (*domain.Course, error) {
	if strings.TrimSpace(courseName) == "" {
		return nil, fmt.Errorf("outline: %w: course name is required", domain.ErrInvalidInput)
	}
	title, ok := s.index.ResolveCourseName(ctx, courseName)
	if !ok {
		return nil, fmt.Errorf("outline %q: %w", courseName, domain.ErrNotFound)
	}
	course, err := s.index.GetCourse(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("outline %q: %w", courseName, err)
	}
	return course, nil
}

// ClearSession forgets a session's history.
func (s *RAGService) ClearSession(ctx context.Context, sessionID string) error {
	if s.sessions == nil {
		return domain.ErrNotFound
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("clear session: %w", err)
	}
	s.sessionLocks.Delete(sessionID)
	return nil
}
