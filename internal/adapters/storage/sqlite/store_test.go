package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marcovillca/tanda-agent/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "tanda.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSession(id domain.SessionID) *domain.Session {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return &domain.Session{
		ID:      id,
		AppName: "tanda-bot",
		UserID:  "591",
		State:   map[string]any{"phone_number": "591"},
		Events: []domain.Event{
			{ID: "e1", Author: "user", Timestamp: now, Payload: "hola"},
		},
		CreatedAt:      now,
		LastUpdateTime: now,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := sampleSession("tanda-bot:591")
	require.NoError(t, store.PutSession(ctx, sess))

	got, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)
	require.Equal(t, "591", got.State["phone_number"])
	require.Len(t, got.Events, 1)
	require.Equal(t, "hola", got.Events[0].Payload)
}

func TestPutIsAnUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := sampleSession("tanda-bot:591")
	require.NoError(t, store.PutSession(ctx, sess))

	sess.State["active_tanda_id"] = "g-1"
	sess.Events = append(sess.Events, domain.Event{ID: "e2", Author: "group_handler", Timestamp: sess.LastUpdateTime})
	require.NoError(t, store.PutSession(ctx, sess))

	got, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, "g-1", got.State["active_tanda_id"])
	require.Len(t, got.Events, 2)
}

func TestGetMissingSession(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetSession(context.Background(), "tanda-bot:nobody")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestListScopesByAppAndUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutSession(ctx, sampleSession("tanda-bot:591")))

	other := sampleSession("otro-bot:591")
	other.AppName = "otro-bot"
	require.NoError(t, store.PutSession(ctx, other))

	sessions, err := store.ListSessions(ctx, "tanda-bot", "591")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, domain.SessionID("tanda-bot:591"), sessions[0].ID)
}

func TestDeleteSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := sampleSession("tanda-bot:591")
	require.NoError(t, store.PutSession(ctx, sess))
	require.NoError(t, store.DeleteSession(ctx, sess.ID))
	require.NoError(t, store.DeleteSession(ctx, sess.ID)) // idempotent

	_, err := store.GetSession(ctx, sess.ID)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}
