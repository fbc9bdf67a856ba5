package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

func TestSessionStore_CreateAndHistory(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	sessions := store.SessionStore(2)
	ctx := context.Background()

	id, err := sessions.CreateSession(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	history, err := sessions.History(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, sessions.AddExchange(ctx, id, "What is MCP?", "A protocol."))

	history, err = sessions.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "What is MCP?", history[0].User)
	assert.Equal(t, "A protocol.", history[0].Assistant)
	assert.False(t, history[0].CreatedAt.IsZero())
}

func TestSessionStore_PrunesToMaxHistory(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	sessions := store.SessionStore(2)
	ctx := context.Background()

	id, err := sessions.CreateSession(ctx)
	require.NoError(t, err)
	for i := 1; i <= 4; i++ {
		require.NoError(t, sessions.AddExchange(ctx, id, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
	}

	history, err := sessions.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "q3", history[0].User)
	assert.Equal(t, "q4", history[1].User)
}

func TestSessionStore_AddExchangeCreatesSession(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	sessions := store.SessionStore(5)
	ctx := context.Background()

	require.NoError(t, sessions.AddExchange(ctx, "external-id", "hi", "hello"))

	history, err := sessions.History(ctx, "external-id")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSessionStore_UnknownSessionHasNoHistory(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	history, err := store.SessionStore(2).History(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, history)
}

func TestSessionStore_DeleteSession(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	sessions := store.SessionStore(2)
	ctx := context.Background()

	id, err := sessions.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, sessions.AddExchange(ctx, id, "q", "a"))

	require.NoError(t, sessions.DeleteSession(ctx, id))

	history, err := sessions.History(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, history)

	err = sessions.DeleteSession(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStore_SessionsAreIndependent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	sessions := store.SessionStore(1)
	ctx := context.Background()

	a, err := sessions.CreateSession(ctx)
	require.NoError(t, err)
	b, err := sessions.CreateSession(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	require.NoError(t, sessions.AddExchange(ctx, a, "qa", "aa"))
	require.NoError(t, sessions.AddExchange(ctx, b, "qb", "ab"))

	history, err := sessions.History(ctx, a)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "qa", history[0].User)
}
