package services

import (
	"context"
	"errors"
	"time"

	"reelchat/internal/events"
	"reelchat/internal/repository"
	reelchat_errors "reelchat/pkg/errors"
	"reelchat/pkg/logger"

	"github.com/google/uuid"
)

// ReceiptService marks messages as seen by a viewer and keeps the unread
// badge in step. All of it is background work from the viewer's point of
// view; failures are logged by the caller, never surfaced as toasts.
type ReceiptService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	unread        *UnreadService
	bus           events.Bus
	log           *logger.Logger
}

func NewReceiptService(conversations repository.ConversationRepository, messages repository.MessageRepository, unread *UnreadService, bus events.Bus, log *logger.Logger) *ReceiptService {
	return &ReceiptService{conversations: conversations, messages: messages, unread: unread, bus: bus, log: log}
}

// MarkSeen adds viewerID to the seen-by set of each listed message. Only a
// conversation participant may mark; anyone else gets ErrForbidden.
// Idempotent: already-seen messages and the viewer's own messages are
// skipped, and repeating the whole call changes nothing. Messages deleted
// between candidate selection and this call are ignored.
func (s *ReceiptService) MarkSeen(ctx context.Context, conversationID, viewerID string, messageIDs []uuid.UUID) error {
	if conversationID == "" || viewerID == "" {
		return reelchat_errors.ErrInvalidInput
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(viewerID) {
		return reelchat_errors.ErrForbidden
	}

	now := time.Now().UTC()
	changed := false
	var firstErr error

	for _, id := range messageIDs {
		msg, err := s.messages.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, reelchat_errors.ErrNotFound) {
				continue
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if msg.ConversationID != conversationID || msg.SenderID == viewerID {
			continue
		}

		added, err := s.messages.AddSeen(ctx, id, viewerID, now)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if added {
			changed = true
		}
	}

	if changed {
		if s.unread != nil {
			s.unread.InvalidateBadge(ctx, viewerID)
		}
		if s.bus != nil {
			e := events.Event{
				Type:           events.EventMessageSeen,
				ConversationID: conversationID,
				ActorID:        viewerID,
				OccurredAt:     now,
			}
			if err := s.bus.Publish(ctx, e); err != nil {
				s.log.Warnf("seen event for %s not published: %v", conversationID, err)
			}
		}
	}
	return firstErr
}
