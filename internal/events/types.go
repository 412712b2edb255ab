package events

import "time"

type EventType string

// Conversation-scoped events delivered to live subscribers.
const (
	EventMessageCreated EventType = "message.created"
	EventMessageUpdated EventType = "message.updated"
	EventMessageDeleted EventType = "message.deleted"
	EventMessageSeen    EventType = "message.seen"
	EventMessageLiked   EventType = "message.liked"
	EventMessageUnliked EventType = "message.unliked"
)

// User-scoped events (unread badge invalidation, notification pushes).
const (
	EventUnreadChanged EventType = "unread.changed"
	EventNotification  EventType = "notification.created"
)

const (
	ChannelPrefixConversation = "channel:conversation:"
	ChannelPrefixUser         = "channel:user:"
)

// Event is the single envelope published on conversation and user channels.
type Event struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id,omitempty"`
	MessageID      string    `json:"message_id,omitempty"`
	ActorID        string    `json:"actor_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Channel resolves the pub/sub channel an event belongs on. User-scoped
// events go to the recipient's user channel, everything else to the owning
// conversation's channel.
func (e Event) Channel() string {
	if e.UserID != "" {
		return ChannelPrefixUser + e.UserID
	}
	return ChannelPrefixConversation + e.ConversationID
}

// ConversationChannel is the channel name for a conversation's live feed.
func ConversationChannel(conversationID string) string {
	return ChannelPrefixConversation + conversationID
}

// UserChannel is the channel name for a user's badge and notification pushes.
func UserChannel(userID string) string {
	return ChannelPrefixUser + userID
}
