package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConfigRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// Unset key reads as empty
	v, err := s.GetConfig(ctx, "access_token")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetConfig(ctx, "access_token", "tok-1"))
	v, err = s.GetConfig(ctx, "access_token")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", v)

	// Upsert overwrites
	require.NoError(t, s.SetConfig(ctx, "access_token", "tok-2"))
	v, _ = s.GetConfig(ctx, "access_token")
	assert.Equal(t, "tok-2", v)

	require.NoError(t, s.DeleteConfig(ctx, "access_token"))
	v, _ = s.GetConfig(ctx, "access_token")
	assert.Empty(t, v)
}

func TestReplaceSessionsKeepsOrder(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	err := s.ReplaceSessions(ctx, []Session{
		{ID: "3", Title: "Calculus"},
		{ID: "1", Title: "Physics"},
		{ID: "2", Title: "Chemistry"},
	})
	require.NoError(t, err)

	got, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "1", got[1].ID)
	assert.Equal(t, "2", got[2].ID)

	// Wholesale replace drops old rows
	err = s.ReplaceSessions(ctx, []Session{{ID: "9", Title: "New Chat"}})
	require.NoError(t, err)
	got, _ = s.ListSessions(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "9", got[0].ID)
}

func TestRenameAndDeleteSession(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceSessions(ctx, []Session{{ID: "1", Title: "Old"}}))
	require.NoError(t, s.ReplaceHistory(ctx, "1", []Message{{Sender: "user", Text: "hi"}}))

	require.NoError(t, s.RenameSession(ctx, "1", "New"))
	got, _ := s.ListSessions(ctx)
	assert.Equal(t, "New", got[0].Title)

	require.NoError(t, s.DeleteSession(ctx, "1"))
	got, _ = s.ListSessions(ctx)
	assert.Empty(t, got)

	msgs, err := s.GetHistory(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestHistoryRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	err := s.ReplaceHistory(ctx, "7", []Message{
		{Sender: "user", Text: "2+2?"},
		{Sender: "ai", Text: "4", Type: "quiz_lock"},
	})
	require.NoError(t, err)

	msgs, err := s.GetHistory(ctx, "7")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Sender)
	assert.Equal(t, "4", msgs[1].Text)
	assert.Equal(t, "quiz_lock", msgs[1].Type)

	// AppendMessages continues after the tail
	err = s.AppendMessages(ctx, "7", []Message{{Sender: "user", Text: "thanks"}})
	require.NoError(t, err)
	msgs, _ = s.GetHistory(ctx, "7")
	require.Len(t, msgs, 3)
	assert.Equal(t, "thanks", msgs[2].Text)
}

func TestHistoryIsolatedPerSession(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceHistory(ctx, "a", []Message{{Sender: "user", Text: "in a"}}))
	require.NoError(t, s.ReplaceHistory(ctx, "b", []Message{{Sender: "user", Text: "in b"}}))

	a, _ := s.GetHistory(ctx, "a")
	b, _ := s.GetHistory(ctx, "b")
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, "in a", a[0].Text)
	assert.Equal(t, "in b", b[0].Text)
}
