package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/recipes-server/internal/store"
)

func setupTestSessions(t *testing.T) *Sessions {
	t.Helper()
	s, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newSession(tokenID string, userID int64) store.Session {
	now := time.Now()
	return store.Session{
		TokenID:   tokenID,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
		UserAgent: "curl/8.0",
	}
}

func TestRegisterAndGet(t *testing.T) {
	s := setupTestSessions(t)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, newSession("tok-a", 1)))

	got, err := s.Get(ctx, "tok-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UserID)
	assert.Equal(t, "curl/8.0", got.UserAgent)

	ok, err := s.Exists(ctx, "tok-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "tok-missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegister_RejectsExpired(t *testing.T) {
	s := setupTestSessions(t)

	session := newSession("tok-old", 1)
	session.ExpiresAt = time.Now().Add(-time.Minute)

	assert.ErrorIs(t, s.Register(context.Background(), session), ErrSessionExpired)
}

func TestGet_PastExpiryIsNotFound(t *testing.T) {
	s := setupTestSessions(t)
	ctx := context.Background()
	require.NoError(t, s.Register(ctx, newSession("tok-a", 1)))

	// The clock moves past expiry before Badger's TTL fires.
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := s.Get(ctx, "tok-a")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRevoke(t *testing.T) {
	s := setupTestSessions(t)
	ctx := context.Background()
	require.NoError(t, s.Register(ctx, newSession("tok-a", 1)))

	require.NoError(t, s.Revoke(ctx, "tok-a"))

	ok, err := s.Exists(ctx, "tok-a")
	require.NoError(t, err)
	assert.False(t, ok)

	// Idempotent.
	assert.NoError(t, s.Revoke(ctx, "tok-a"))

	sessions, err := s.ListForUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRevokeAllForUser(t *testing.T) {
	s := setupTestSessions(t)
	ctx := context.Background()
	require.NoError(t, s.Register(ctx, newSession("tok-a", 1)))
	require.NoError(t, s.Register(ctx, newSession("tok-b", 1)))
	require.NoError(t, s.Register(ctx, newSession("tok-c", 1)))
	require.NoError(t, s.Register(ctx, newSession("tok-other", 2)))

	n, err := s.RevokeAllForUser(ctx, 1, "tok-b")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for id, want := range map[string]bool{"tok-a": false, "tok-b": true, "tok-c": false, "tok-other": true} {
		ok, err := s.Exists(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, ok, id)
	}

	n, err = s.RevokeAllForUser(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListForUser_IsolatesUsers(t *testing.T) {
	s := setupTestSessions(t)
	ctx := context.Background()
	// User 1 must not match user 10's index prefix.
	require.NoError(t, s.Register(ctx, newSession("tok-1", 1)))
	require.NoError(t, s.Register(ctx, newSession("tok-10", 10)))

	sessions, err := s.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "tok-1", sessions[0].TokenID)
}

func TestCollectGarbage_NothingToRewrite(t *testing.T) {
	s := setupTestSessions(t)
	ctx := context.Background()
	require.NoError(t, s.Register(ctx, newSession("tok-a", 1)))
	require.NoError(t, s.Revoke(ctx, "tok-a"))

	n, err := s.CollectGarbage()
	require.NoError(t, err)
	assert.Zero(t, n)
}
