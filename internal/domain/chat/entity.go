package chat

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Conversation represents the conversations table. The primary key is the
// deterministic pair id produced by chatid.Resolve, so a given unordered
// participant pair maps to exactly one row.
type Conversation struct {
	ID                  string `gorm:"primaryKey;size:191"`
	ParticipantA        string `gorm:"size:64;index"`
	ParticipantB        string `gorm:"size:64;index"`
	CreatedAt           time.Time
	LastMessageText     sql.NullString
	LastMessageAt       sql.NullTime
	LastMessageSenderID sql.NullString `gorm:"size:64"`
}

// Message represents the messages table
type Message struct {
	ID             uuid.UUID `gorm:"primaryKey"`
	ConversationID string    `gorm:"size:191;index"`
	SenderID       string    `gorm:"size:64"`
	Text           string
	IsStoryReply   bool
	StoryID        sql.NullString `gorm:"size:64"`
	IsEdited       bool
	CreatedAt      time.Time
	SeenAt         sql.NullTime

	// Relationships
	SeenBy  []MessageSeen `gorm:"foreignKey:MessageID"`
	LikedBy []MessageLike `gorm:"foreignKey:MessageID"`
}

// MessageSeen represents the message_seen table. One row per (message, viewer)
// is the set-add primitive behind the seen-by set: inserting with
// ON CONFLICT DO NOTHING is atomic and idempotent.
type MessageSeen struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"size:64;primaryKey"`
	SeenAt    time.Time
}

// MessageLike represents the message_likes table
type MessageLike struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"size:64;primaryKey"`
	LikedAt   time.Time
}

func (Conversation) TableName() string {
	return "conversations"
}

func (Message) TableName() string {
	return "messages"
}

func (MessageSeen) TableName() string {
	return "message_seen"
}

func (MessageLike) TableName() string {
	return "message_likes"
}

// Participants returns both participant ids, smaller one first.
func (c Conversation) Participants() [2]string {
	return [2]string{c.ParticipantA, c.ParticipantB}
}

// HasParticipant reports whether userID is one of the two participants.
func (c Conversation) HasParticipant(userID string) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Counterpart returns the other participant's id. Callers must pass one of
// the two participants.
func (c Conversation) Counterpart(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// SeenByUser reports whether userID is in the message's seen-by set.
func (m Message) SeenByUser(userID string) bool {
	for _, s := range m.SeenBy {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// SeenByOther reports whether anyone beyond the sender has seen the message.
// With strictly two participants this is equivalent to "seen by the recipient";
// it is NOT a valid check if conversations ever grow beyond two members.
func (m Message) SeenByOther() bool {
	return len(m.SeenBy) > 1
}

// LikedByUser reports whether userID has liked the message.
func (m Message) LikedByUser(userID string) bool {
	for _, l := range m.LikedBy {
		if l.UserID == userID {
			return true
		}
	}
	return false
}
