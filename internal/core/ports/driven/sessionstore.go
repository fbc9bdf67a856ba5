package driven

import (
	"context"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// SessionStore keeps a bounded, append-only conversation log per session.
type SessionStore interface {
	// CreateSession starts an empty session and returns its ID.
	CreateSession(ctx context.Context) (string, error)

	// AddExchange appends a question and answer, creating the session if it
	// does not exist. Only the most recent exchanges are retained.
	AddExchange(ctx context.Context, sessionID, user, assistant string) error

	// History returns the retained exchanges, oldest first.
	// Unknown sessions have no history and no error.
	History(ctx context.Context, sessionID string) ([]domain.Exchange, error)

	// DeleteSession removes a session.
	// Returns domain.ErrNotFound if the session does not exist.
	DeleteSession(ctx context.Context, sessionID string) error
}
