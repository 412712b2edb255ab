package repository

import (
	"context"
	"time"

	"reelchat/internal/domain/chat"
	"reelchat/internal/domain/notification"

	"github.com/google/uuid"
)

// ConversationRepository is the store adapter for conversation documents.
type ConversationRepository interface {
	// EnsureConversation creates the row if absent and is a no-op otherwise.
	// Safe under concurrent callers: the conditional create races resolve on
	// the deterministic primary key.
	EnsureConversation(ctx context.Context, c *chat.Conversation) error
	GetByID(ctx context.Context, id string) (chat.Conversation, error)
	// RecordLastMessage unconditionally overwrites the three last-message
	// summary fields. Last write wins.
	RecordLastMessage(ctx context.Context, id string, text, senderID string, at time.Time) error
	ListForUser(ctx context.Context, userID string) ([]chat.Conversation, error)
}

// MessageRepository is the store adapter for the per-conversation message log.
type MessageRepository interface {
	Create(ctx context.Context, m *chat.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (chat.Message, error)
	// ListByConversation returns the full log ordered ascending by created_at.
	// Same-instant messages are tie-broken by id; their relative order carries
	// no meaning.
	ListByConversation(ctx context.Context, conversationID string) ([]chat.Message, error)
	UpdateText(ctx context.Context, id uuid.UUID, text string) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	// AddSeen atomically adds userID to the message's seen-by set. Reports
	// whether the viewer was newly added; repeating the call is a no-op.
	AddSeen(ctx context.Context, messageID uuid.UUID, userID string, at time.Time) (bool, error)
	AddLike(ctx context.Context, messageID uuid.UUID, userID string, at time.Time) (bool, error)
	RemoveLike(ctx context.Context, messageID uuid.UUID, userID string) error
	// HasUnseenFrom reports whether the conversation holds any message from
	// senderID that viewerID has not seen.
	HasUnseenFrom(ctx context.Context, conversationID, senderID, viewerID string) (bool, error)
}

// NotificationRepository is the store adapter for notification documents.
type NotificationRepository interface {
	Create(ctx context.Context, n *notification.Notification) error
	// ListForRecipient returns notifications newest first, excluding the
	// given types.
	ListForRecipient(ctx context.Context, recipientID string, excludeTypes ...string) ([]notification.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}
