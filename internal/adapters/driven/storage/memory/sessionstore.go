package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore is an in-memory implementation of driven.SessionStore.
// Sessions live for the lifetime of the process.
type SessionStore struct {
	mu         sync.Mutex
	maxHistory int
	sessions   map[string][]domain.Exchange
}

// NewSessionStore creates a session store retaining maxHistory exchanges
// per session.
func NewSessionStore(maxHistory int) *SessionStore {
	return &SessionStore{
		maxHistory: maxHistory,
		sessions:   make(map[string][]domain.Exchange),
	}
}

// CreateSession starts an empty session.
func (s *SessionStore) CreateSession(_ context.Context) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = nil
	return id, nil
}

// AddExchange appends an exchange and drops the oldest beyond the limit.
func (s *SessionStore) AddExchange(_ context.Context, sessionID, user, assistant string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.sessions[sessionID], domain.Exchange{
		User:      user,
		Assistant: assistant,
		CreatedAt: time.Now().UTC(),
	})
	s.sessions[sessionID] = append([]domain.Exchange(nil), domain.TrimHistory(history, s.maxHistory)...)
	return nil
}

// History returns a copy of the retained exchanges.
func (s *SessionStore) History(_ context.Context, sessionID string) ([]domain.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, ok := s.sessions[sessionID]
	if !ok || len(history) == 0 {
		return nil, nil
	}
	return append([]domain.Exchange(nil), history...), nil
}

// DeleteSession removes a session.
func (s *SessionStore) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}
