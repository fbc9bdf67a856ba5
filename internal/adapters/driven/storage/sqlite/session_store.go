package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store      *Store
	maxHistory int
}

var _ driven.SessionStore = (*sessionStore)(nil)

// CreateSession starts an empty session.
func (s *sessionStore) CreateSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := s.store.db.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at) VALUES (?, ?)`, id, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return id, nil
}

// AddExchange appends an exchange and prunes everything but the most recent
// maxHistory exchanges of the session.
func (s *sessionStore) AddExchange(ctx context.Context, sessionID, user, assistant string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning exchange: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, created_at) VALUES (?, ?)`, sessionID, now); err != nil {
		return fmt.Errorf("ensuring session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO exchanges (session_id, user_message, assistant_message, created_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, user, assistant, now); err != nil {
		return fmt.Errorf("saving exchange: %w", err)
	}

	keep := s.maxHistory
	if keep < 0 {
		keep = 0
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM exchanges
		WHERE session_id = ? AND id NOT IN (
			SELECT id FROM exchanges WHERE session_id = ? ORDER BY id DESC LIMIT ?
		)
	`, sessionID, sessionID, keep); err != nil {
		return fmt.Errorf("pruning exchanges: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing exchange: %w", err)
	}
	return nil
}

// History returns the retained exchanges, oldest first.
func (s *sessionStore) History(ctx context.Context, sessionID string) ([]domain.Exchange, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT user_message, assistant_message, created_at
		FROM exchanges WHERE session_id = ? ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var history []domain.Exchange //nolint:prealloc // size unknown from query
	for rows.Next() {
		var ex domain.Exchange
		if err := rows.Scan(&ex.User, &ex.Assistant, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exchange: %w", err)
		}
		history = append(history, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return history, nil
}

// DeleteSession removes a session and its exchanges.
func (s *sessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	res, err := s.store.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
