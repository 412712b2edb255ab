package live

import (
	"context"
	"testing"
	"time"

	"reelchat/internal/domain/chat"
	"reelchat/internal/domain/notification"
	"reelchat/internal/events"
	"reelchat/internal/repository"
	"reelchat/internal/services"
	"reelchat/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type liveEnv struct {
	feed     *Feed
	chats    *services.ChatService
	receipts *services.ReceiptService
	messages repository.MessageRepository
	convID   string
}

func setupLiveEnv(t *testing.T) *liveEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&chat.Conversation{},
		&chat.Message{},
		&chat.MessageSeen{},
		&chat.MessageLike{},
		&notification.Notification{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	log := logger.NewNop()
	bus := events.NewMemoryBus()
	conversations := repository.NewConversationRepository(db)
	messages := repository.NewMessageRepository(db)
	notifications := repository.NewNotificationRepository(db)

	profiles := services.NewStaticProfileProvider()
	notifier := services.NewNotificationService(notifications, profiles, log)
	unread := services.NewUnreadService(conversations, messages, nil, services.StrategyPrecise, log)
	chats := services.NewChatService(conversations, messages, notifier, unread, profiles, bus, log)
	receipts := services.NewReceiptService(conversations, messages, unread, bus, log)

	conv, err := chats.EnsureConversation(context.Background(), "alice", "bob")
	require.NoError(t, err)

	return &liveEnv{
		feed:     NewFeed(messages, bus, log),
		chats:    chats,
		receipts: receipts,
		messages: messages,
		convID:   conv.ID,
	}
}

func texts(msgs []chat.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func TestFeed_ReplayThenDeltas(t *testing.T) {
	env := setupLiveEnv(t)
	ctx := context.Background()

	_, err := env.chats.SendMessage(ctx, services.SendMessageInput{
		ConversationID: env.convID, SenderID: "alice", Text: "before",
	})
	require.NoError(t, err)

	sub, err := env.feed.Subscribe(ctx, env.convID)
	require.NoError(t, err)
	defer sub.Close()

	// First value replays the existing log.
	snapshot := <-sub.Updates()
	assert.Equal(t, []string{"before"}, texts(snapshot))

	// Bus delivery is synchronous in-process, so the fresh snapshot is
	// buffered by the time SendMessage returns.
	_, err = env.chats.SendMessage(ctx, services.SendMessageInput{
		ConversationID: env.convID, SenderID: "bob", Text: "after",
	})
	require.NoError(t, err)

	snapshot = <-sub.Updates()
	assert.Equal(t, []string{"before", "after"}, texts(snapshot))
}

func TestFeed_SlowConsumerGetsLatest(t *testing.T) {
	env := setupLiveEnv(t)
	ctx := context.Background()

	sub, err := env.feed.Subscribe(ctx, env.convID)
	require.NoError(t, err)
	defer sub.Close()

	// Three sends with no reads in between: the stale buffered snapshots
	// are replaced, not queued.
	for _, text := range []string{"one", "two", "three"} {
		_, err := env.chats.SendMessage(ctx, services.SendMessageInput{
			ConversationID: env.convID, SenderID: "alice", Text: text,
		})
		require.NoError(t, err)
	}

	snapshot := <-sub.Updates()
	assert.Equal(t, []string{"one", "two", "three"}, texts(snapshot))
}

func TestFeed_CloseStopsDelivery(t *testing.T) {
	env := setupLiveEnv(t)
	ctx := context.Background()

	sub, err := env.feed.Subscribe(ctx, env.convID)
	require.NoError(t, err)

	<-sub.Updates()
	sub.Close()

	_, err = env.chats.SendMessage(ctx, services.SendMessageInput{
		ConversationID: env.convID, SenderID: "alice", Text: "late",
	})
	require.NoError(t, err)

	_, open := <-sub.Updates()
	assert.False(t, open)

	// Idempotent.
	sub.Close()
}

func TestView_DwellMarksSeen(t *testing.T) {
	env := setupLiveEnv(t)
	ctx := context.Background()

	fromBob, err := env.chats.SendMessage(ctx, services.SendMessageInput{
		ConversationID: env.convID, SenderID: "bob", Text: "unread",
	})
	require.NoError(t, err)

	view := NewView(env.feed, env.chats, env.receipts, env.convID, "alice", 20*time.Millisecond, logger.NewNop())
	require.NoError(t, view.Open(ctx))
	defer view.Close()

	assert.Eventually(t, func() bool {
		msg, err := env.messages.GetByID(ctx, fromBob.ID)
		return err == nil && msg.SeenByUser("alice")
	}, time.Second, 10*time.Millisecond)
}

func TestView_CloseBeforeDwellDoesNotMark(t *testing.T) {
	env := setupLiveEnv(t)
	ctx := context.Background()

	fromBob, err := env.chats.SendMessage(ctx, services.SendMessageInput{
		ConversationID: env.convID, SenderID: "bob", Text: "glanced",
	})
	require.NoError(t, err)

	view := NewView(env.feed, env.chats, env.receipts, env.convID, "alice", 200*time.Millisecond, logger.NewNop())
	require.NoError(t, view.Open(ctx))

	// Navigate away before the dwell elapses.
	time.Sleep(20 * time.Millisecond)
	view.Close()
	time.Sleep(250 * time.Millisecond)

	msg, err := env.messages.GetByID(ctx, fromBob.ID)
	require.NoError(t, err)
	assert.False(t, msg.SeenByUser("alice"))
}

func TestView_OnUpdateReceivesSnapshots(t *testing.T) {
	env := setupLiveEnv(t)
	ctx := context.Background()

	updates := make(chan []chat.Message, 8)
	view := NewView(env.feed, env.chats, env.receipts, env.convID, "alice", time.Second, logger.NewNop())
	view.SetOnUpdate(func(msgs []chat.Message) { updates <- msgs })
	require.NoError(t, view.Open(ctx))
	defer view.Close()

	assert.Empty(t, texts(<-updates))

	_, err := env.chats.SendMessage(ctx, services.SendMessageInput{
		ConversationID: env.convID, SenderID: "bob", Text: "pushed",
	})
	require.NoError(t, err)

	select {
	case snapshot := <-updates:
		assert.Equal(t, []string{"pushed"}, texts(snapshot))
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered after send")
	}
}

func TestView_SendKeepsComposerOnFailure(t *testing.T) {
	env := setupLiveEnv(t)
	ctx := context.Background()

	view := NewView(env.feed, env.chats, env.receipts, env.convID, "alice", time.Second, logger.NewNop())
	require.NoError(t, view.Open(ctx))
	defer view.Close()

	view.SetComposer("   ")
	_, err := view.Send(ctx)
	require.Error(t, err)
	assert.Equal(t, "   ", view.Composer())

	view.SetComposer("hello")
	msg, err := view.Send(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)
	assert.Empty(t, view.Composer())
}

func TestView_EditFlow(t *testing.T) {
	env := setupLiveEnv(t)
	ctx := context.Background()

	own, err := env.chats.SendMessage(ctx, services.SendMessageInput{
		ConversationID: env.convID, SenderID: "alice", Text: "helo",
	})
	require.NoError(t, err)
	other, err := env.chats.SendMessage(ctx, services.SendMessageInput{
		ConversationID: env.convID, SenderID: "bob", Text: "hi",
	})
	require.NoError(t, err)

	view := NewView(env.feed, env.chats, env.receipts, env.convID, "alice", time.Second, logger.NewNop())
	require.NoError(t, view.Open(ctx))
	defer view.Close()

	assert.Eventually(t, func() bool {
		return len(view.Messages()) == 2
	}, time.Second, 10*time.Millisecond)

	t.Run("cannot edit the counterpart's message", func(t *testing.T) {
		assert.Error(t, view.BeginEdit(other.ID))
	})

	t.Run("edit round-trip", func(t *testing.T) {
		require.NoError(t, view.BeginEdit(own.ID))
		assert.Equal(t, "helo", view.Composer())

		view.SetComposer("hello")
		require.NoError(t, view.SubmitEdit(ctx))
		assert.Empty(t, view.Composer())

		got, err := env.messages.GetByID(ctx, own.ID)
		require.NoError(t, err)
		assert.Equal(t, "hello", got.Text)
		assert.True(t, got.IsEdited)
	})

	t.Run("cancel restores empty composer", func(t *testing.T) {
		require.NoError(t, view.BeginEdit(own.ID))
		view.CancelEdit()
		assert.Empty(t, view.Composer())
		assert.Error(t, view.SubmitEdit(ctx))
	})
}
