package services

import (
	"context"
	"time"

	"reelchat/internal/domain/notification"
	"reelchat/internal/repository"
	"reelchat/pkg/logger"

	"github.com/google/uuid"
)

// previewLimit is the notification preview cutoff in runes. The full text
// always lives on the message; only the preview is truncated.
const previewLimit = 50

type NotificationService struct {
	repo     repository.NotificationRepository
	profiles ProfileProvider
	log      *logger.Logger
}

func NewNotificationService(repo repository.NotificationRepository, profiles ProfileProvider, log *logger.Logger) *NotificationService {
	return &NotificationService{repo: repo, profiles: profiles, log: log}
}

// NotifyMessage records a message notification for the recipient. Callers
// treat this as best-effort: a failed write never rolls back the send.
func (s *NotificationService) NotifyMessage(ctx context.Context, recipientID, senderID, text string) error {
	profile, err := s.profiles.Profile(ctx, senderID)
	if err != nil {
		profile = Profile{ID: senderID, Username: senderID}
	}

	n := &notification.Notification{
		ID:                uuid.New(),
		RecipientID:       recipientID,
		Type:              notification.TypeMessage,
		SenderID:          senderID,
		SenderDisplayName: profile.Username,
		SenderAvatarURL:   profile.AvatarURL,
		MessagePreview:    Preview(text),
		CreatedAt:         time.Now().UTC(),
	}
	return s.repo.Create(ctx, n)
}

// NotifyLike records a like notification for the message's sender. Shows
// up in the general feed, unlike message notifications.
func (s *NotificationService) NotifyLike(ctx context.Context, recipientID, likerID, messageText string) error {
	profile, err := s.profiles.Profile(ctx, likerID)
	if err != nil {
		profile = Profile{ID: likerID, Username: likerID}
	}

	n := &notification.Notification{
		ID:                uuid.New(),
		RecipientID:       recipientID,
		Type:              notification.TypeLike,
		SenderID:          likerID,
		SenderDisplayName: profile.Username,
		SenderAvatarURL:   profile.AvatarURL,
		MessagePreview:    Preview(messageText),
		CreatedAt:         time.Now().UTC(),
	}
	return s.repo.Create(ctx, n)
}

// Feed returns the general notification feed. Message notifications are
// excluded by type; they surface only through the messaging unread badge.
func (s *NotificationService) Feed(ctx context.Context, recipientID string) ([]notification.Notification, error) {
	return s.repo.ListForRecipient(ctx, recipientID, notification.TypeMessage)
}

func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id)
}

// Preview truncates text to the notification preview length, appending an
// ellipsis when anything was cut.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLimit {
		return text
	}
	return string(runes[:previewLimit]) + "…"
}
