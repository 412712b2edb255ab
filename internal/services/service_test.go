package services

import (
	"context"
	"testing"

	"reelchat/internal/domain/chat"
	"reelchat/internal/domain/notification"
	"reelchat/internal/events"
	"reelchat/internal/repository"
	"reelchat/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv wires the services against an in-memory store and an in-process
// bus, the same shape main assembles in production.
type testEnv struct {
	db            *gorm.DB
	bus           *events.MemoryBus
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
	notifier      *NotificationService
	unread        *UnreadService
	chats         *ChatService
	receipts      *ReceiptService
}

func setupEnv(t *testing.T) *testEnv {
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

	profiles := NewStaticProfileProvider()
	notifier := NewNotificationService(notifications, profiles, log)
	unread := NewUnreadService(conversations, messages, nil, StrategyPrecise, log)
	chats := NewChatService(conversations, messages, notifier, unread, profiles, bus, log)
	receipts := NewReceiptService(conversations, messages, unread, bus, log)

	return &testEnv{
		db:            db,
		bus:           bus,
		conversations: conversations,
		messages:      messages,
		notifications: notifications,
		notifier:      notifier,
		unread:        unread,
		chats:         chats,
		receipts:      receipts,
	}
}

// collectEvents subscribes to a channel and appends everything published
// there. MemoryBus delivery is synchronous, so no synchronization is needed
// within a single test goroutine.
func collectEvents(env *testEnv, channel string) *[]events.Event {
	var got []events.Event
	env.bus.Subscribe(channel, func(_ context.Context, e events.Event) {
		got = append(got, e)
	})
	return &got
}
