package repository

import (
	"context"
	"testing"
	"time"

	"reelchat/internal/domain/chat"
	reelchat_errors "reelchat/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConversation(a, b string) chat.Conversation {
	return chat.Conversation{
		ID:           a + "_" + b,
		ParticipantA: a,
		ParticipantB: b,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestConversationRepository_EnsureConversation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()

	conv := newConversation("alice", "zane")
	require.NoError(t, repo.EnsureConversation(ctx, &conv))

	t.Run("repeat call is a no-op", func(t *testing.T) {
		again := newConversation("alice", "zane")
		require.NoError(t, repo.EnsureConversation(ctx, &again))

		var count int64
		db.Model(&chat.Conversation{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("existing row is not overwritten", func(t *testing.T) {
		require.NoError(t, repo.RecordLastMessage(ctx, conv.ID, "hi", "alice", time.Now().UTC()))

		again := newConversation("alice", "zane")
		require.NoError(t, repo.EnsureConversation(ctx, &again))

		got, err := repo.GetByID(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, "hi", got.LastMessageText.String)
	})
}

func TestConversationRepository_GetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, reelchat_errors.ErrNotFound)
}

func TestConversationRepository_RecordLastMessage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()

	conv := newConversation("alice", "bob")
	require.NoError(t, repo.EnsureConversation(ctx, &conv))

	first := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, repo.RecordLastMessage(ctx, conv.ID, "first", "alice", first))

	second := time.Now().UTC()
	require.NoError(t, repo.RecordLastMessage(ctx, conv.ID, "second", "bob", second))

	got, err := repo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.LastMessageText.String)
	assert.Equal(t, "bob", got.LastMessageSenderID.String)
	assert.WithinDuration(t, second, got.LastMessageAt.Time, time.Second)

	t.Run("missing conversation", func(t *testing.T) {
		err := repo.RecordLastMessage(ctx, "missing", "x", "alice", time.Now().UTC())
		assert.ErrorIs(t, err, reelchat_errors.ErrNotFound)
	})
}

func TestConversationRepository_ListForUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()

	older := newConversation("alice", "bob")
	newer := newConversation("alice", "carol")
	empty := newConversation("alice", "zane")
	other := newConversation("bob", "carol")
	for _, c := range []*chat.Conversation{&older, &newer, &empty, &other} {
		require.NoError(t, repo.EnsureConversation(ctx, c))
	}

	now := time.Now().UTC()
	require.NoError(t, repo.RecordLastMessage(ctx, older.ID, "old", "bob", now.Add(-time.Hour)))
	require.NoError(t, repo.RecordLastMessage(ctx, newer.ID, "new", "carol", now))

	got, err := repo.ListForUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Most recently active first, never-used conversations last.
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)
	assert.Equal(t, empty.ID, got[2].ID)
	assert.False(t, got[2].LastMessageAt.Valid)
}
