package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"reelchat/internal/chatid"
	"reelchat/internal/domain/chat"
	"reelchat/internal/events"
	"reelchat/internal/repository"
	reelchat_errors "reelchat/pkg/errors"
	"reelchat/pkg/logger"

	"github.com/google/uuid"
)

type ChatService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	notifier      *NotificationService
	unread        *UnreadService
	profiles      ProfileProvider
	bus           events.Bus
	log           *logger.Logger
}

func NewChatService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	notifier *NotificationService,
	unread *UnreadService,
	profiles ProfileProvider,
	bus events.Bus,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		notifier:      notifier,
		unread:        unread,
		profiles:      profiles,
		bus:           bus,
		log:           log,
	}
}

// ResolveConversationID validates the pair and derives the shared id.
// Messaging oneself is rejected here rather than producing a degenerate
// self-conversation.
func (s *ChatService) ResolveConversationID(a, b string) (string, error) {
	if a == "" || b == "" {
		return "", reelchat_errors.ErrInvalidInput
	}
	if a == b {
		return "", reelchat_errors.ErrInvalidInput
	}
	return chatid.Resolve(a, b), nil
}

// EnsureConversation creates the conversation row for the pair if it does
// not exist yet. Idempotent; both participants may call it concurrently.
func (s *ChatService) EnsureConversation(ctx context.Context, a, b string) (chat.Conversation, error) {
	id, err := s.ResolveConversationID(a, b)
	if err != nil {
		return chat.Conversation{}, err
	}
	if b < a {
		a, b = b, a
	}

	conv := chat.Conversation{
		ID:           id,
		ParticipantA: a,
		ParticipantB: b,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.conversations.EnsureConversation(ctx, &conv); err != nil {
		return chat.Conversation{}, err
	}
	return s.conversations.GetByID(ctx, id)
}

type SendMessageInput struct {
	ConversationID string
	SenderID       string
	Text           string
	IsStoryReply   bool
	StoryID        string
}

// SendMessage appends a message to the conversation's log. The message
// starts with seenBy={sender}; the conversation summary update and the
// recipient notification are separate follow-up writes, neither of which
// can fail the send once the message row exists.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (chat.Message, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" || in.SenderID == "" || in.ConversationID == "" {
		return chat.Message{}, reelchat_errors.ErrInvalidInput
	}
	if in.IsStoryReply && in.StoryID == "" {
		return chat.Message{}, reelchat_errors.ErrInvalidInput
	}

	conv, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		return chat.Message{}, err
	}
	// UX affordance only; the store's own rule layer is the real boundary.
	if !conv.HasParticipant(in.SenderID) {
		return chat.Message{}, reelchat_errors.ErrForbidden
	}

	now := time.Now().UTC()
	msg := chat.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       in.SenderID,
		Text:           text,
		IsStoryReply:   in.IsStoryReply,
		CreatedAt:      now,
		SeenBy: []chat.MessageSeen{
			{UserID: in.SenderID, SeenAt: now},
		},
	}
	if in.IsStoryReply {
		msg.StoryID = sql.NullString{String: in.StoryID, Valid: true}
	}

	if err := s.messages.Create(ctx, &msg); err != nil {
		return chat.Message{}, err
	}

	// Summary carries the untruncated text; only notification previews cut.
	if err := s.conversations.RecordLastMessage(ctx, conv.ID, text, in.SenderID, now); err != nil {
		s.log.Warnf("conversation %s summary not updated: %v", conv.ID, err)
	}

	recipient := conv.Counterpart(in.SenderID)
	if s.notifier != nil && recipient != in.SenderID {
		if err := s.notifier.NotifyMessage(ctx, recipient, in.SenderID, text); err != nil {
			s.log.Warnf("message notification for %s dropped: %v", recipient, err)
		}
	}
	if s.unread != nil {
		s.unread.InvalidateBadge(ctx, recipient)
	}

	s.publish(ctx, events.Event{
		Type:           events.EventMessageCreated,
		ConversationID: conv.ID,
		MessageID:      msg.ID.String(),
		ActorID:        in.SenderID,
		OccurredAt:     now,
	})
	s.publish(ctx, events.Event{
		Type:       events.EventUnreadChanged,
		UserID:     recipient,
		OccurredAt: now,
	})

	return msg, nil
}

// Messages returns the full ordered log of a conversation.
func (s *ChatService) Messages(ctx context.Context, conversationID, viewerID string) ([]chat.Message, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(viewerID) {
		return nil, reelchat_errors.ErrForbidden
	}
	return s.messages.ListByConversation(ctx, conversationID)
}

// EditMessage replaces the text and flags the message as edited. Sender only.
func (s *ChatService) EditMessage(ctx context.Context, messageID uuid.UUID, editorID, newText string) error {
	text := strings.TrimSpace(newText)
	if text == "" || editorID == "" {
		return reelchat_errors.ErrInvalidInput
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != editorID {
		return reelchat_errors.ErrForbidden
	}

	if err := s.messages.UpdateText(ctx, messageID, text); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:           events.EventMessageUpdated,
		ConversationID: msg.ConversationID,
		MessageID:      messageID.String(),
		ActorID:        editorID,
		OccurredAt:     time.Now().UTC(),
	})
	return nil
}

// DeleteMessage hard-deletes the message. Sender only. Subscribers simply
// receive a sequence without the id; there is no tombstone.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID uuid.UUID, actorID string) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != actorID {
		return reelchat_errors.ErrForbidden
	}

	if err := s.messages.HardDelete(ctx, messageID); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:           events.EventMessageDeleted,
		ConversationID: msg.ConversationID,
		MessageID:      messageID.String(),
		ActorID:        actorID,
		OccurredAt:     time.Now().UTC(),
	})
	return nil
}

// CopyText reads the message text for the caller's clipboard. No mutation.
func (s *ChatService) CopyText(ctx context.Context, messageID uuid.UUID) (string, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return "", err
	}
	return msg.Text, nil
}

// LikeMessage adds the user to the message's liked-by set and notifies the
// sender. Repeating the call is a no-op.
func (s *ChatService) LikeMessage(ctx context.Context, messageID uuid.UUID, userID string) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	added, err := s.messages.AddLike(ctx, messageID, userID, now)
	if err != nil {
		return err
	}
	if !added {
		return nil
	}

	if s.notifier != nil && msg.SenderID != userID {
		if err := s.notifier.NotifyLike(ctx, msg.SenderID, userID, msg.Text); err != nil {
			s.log.Warnf("like notification for %s dropped: %v", msg.SenderID, err)
		}
	}

	s.publish(ctx, events.Event{
		Type:           events.EventMessageLiked,
		ConversationID: msg.ConversationID,
		MessageID:      messageID.String(),
		ActorID:        userID,
		OccurredAt:     now,
	})
	return nil
}

// UnlikeMessage removes the user's like. Missing likes are ignored so the
// toggle stays idempotent.
func (s *ChatService) UnlikeMessage(ctx context.Context, messageID uuid.UUID, userID string) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	if err := s.messages.RemoveLike(ctx, messageID, userID); err != nil {
		if errors.Is(err, reelchat_errors.ErrNotFound) {
			return nil
		}
		return err
	}

	s.publish(ctx, events.Event{
		Type:           events.EventMessageUnliked,
		ConversationID: msg.ConversationID,
		MessageID:      messageID.String(),
		ActorID:        userID,
		OccurredAt:     time.Now().UTC(),
	})
	return nil
}

// ConversationSummary is a conversation joined with the counterpart's
// profile and the viewer's unread flag, ready for the conversation list.
type ConversationSummary struct {
	Conversation chat.Conversation `json:"conversation"`
	Counterpart  Profile           `json:"counterpart"`
	HasUnread    bool              `json:"has_unread"`
}

// ListConversations returns the viewer's conversations, most recently
// active first, conversations without messages last.
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	if userID == "" {
		return nil, reelchat_errors.ErrInvalidInput
	}

	conversations, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		summary := ConversationSummary{Conversation: conv}

		counterpartID := conv.Counterpart(userID)
		if s.profiles != nil {
			if profile, err := s.profiles.Profile(ctx, counterpartID); err == nil {
				summary.Counterpart = profile
			} else {
				summary.Counterpart = Profile{ID: counterpartID, Username: counterpartID}
			}
		} else {
			summary.Counterpart = Profile{ID: counterpartID, Username: counterpartID}
		}

		if s.unread != nil {
			hasUnread, err := s.unread.HasUnread(ctx, conv, userID)
			if err != nil {
				s.log.Warnf("unread flag for conversation %s: %v", conv.ID, err)
			} else {
				summary.HasUnread = hasUnread
			}
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *ChatService) publish(ctx context.Context, e events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		s.log.Warnf("event %s not published: %v", e.Type, err)
	}
}
