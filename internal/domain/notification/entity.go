package notification

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeMessage = "message"
	TypeLike    = "like"
	TypeFollow  = "follow"
	TypeComment = "comment"
)

// Notification represents the notifications table. Message notifications are
// filtered out of the general feed; they surface through the unread badge.
type Notification struct {
	ID                uuid.UUID `gorm:"primaryKey"`
	RecipientID       string    `gorm:"size:64;index"`
	Type              string    `gorm:"size:32"`
	SenderID          string    `gorm:"size:64"`
	SenderDisplayName string
	SenderAvatarURL   string
	MessagePreview    string
	Read              bool
	CreatedAt         time.Time
}

func (Notification) TableName() string {
	return "notifications"
}
