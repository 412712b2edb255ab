package services

import (
	"context"

	"reelchat/internal/domain/chat"
	rediscache "reelchat/internal/redis"
	"reelchat/internal/repository"
	reelchat_errors "reelchat/pkg/errors"
	"reelchat/pkg/logger"
)

// Strategy selects how "has unread" is computed per conversation.
type Strategy string

const (
	// StrategyCoarse flags any conversation whose last message came from the
	// other participant, ignoring seen-state. One field read, false
	// positives after the viewer actually read the message.
	StrategyCoarse Strategy = "coarse"
	// StrategyPrecise scans the last sender's messages for any the viewer
	// has not seen. Matches the receipt tracker's ground truth at the cost
	// of a sub-query per conversation.
	StrategyPrecise Strategy = "precise"
)

func ParseStrategy(s string) Strategy {
	if s == string(StrategyCoarse) {
		return StrategyCoarse
	}
	return StrategyPrecise
}

// UnreadService derives the per-conversation unread flag and the global
// badge. The badge counts conversations, not messages: a conversation with
// ten unseen messages contributes one.
type UnreadService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	cache         *rediscache.UnreadBadgeCache
	strategy      Strategy
	log           *logger.Logger
}

func NewUnreadService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	cache *rediscache.UnreadBadgeCache,
	strategy Strategy,
	log *logger.Logger,
) *UnreadService {
	return &UnreadService{
		conversations: conversations,
		messages:      messages,
		cache:         cache,
		strategy:      strategy,
		log:           log,
	}
}

// HasUnread reports whether the conversation counts as unread for the viewer.
func (s *UnreadService) HasUnread(ctx context.Context, conv chat.Conversation, viewerID string) (bool, error) {
	if !conv.LastMessageSenderID.Valid || conv.LastMessageSenderID.String == viewerID {
		return false, nil
	}

	switch s.strategy {
	case StrategyCoarse:
		return conv.LastMessageText.Valid, nil
	default:
		return s.messages.HasUnseenFrom(ctx, conv.ID, conv.LastMessageSenderID.String, viewerID)
	}
}

// UnreadCount returns the viewer's global badge value. Reads go through the
// Redis cache when one is wired; a miss recomputes from the store and
// refills the cache.
func (s *UnreadService) UnreadCount(ctx context.Context, viewerID string) (int, error) {
	if viewerID == "" {
		return 0, reelchat_errors.ErrInvalidInput
	}

	if s.cache != nil {
		if count, ok, err := s.cache.Get(ctx, viewerID); err != nil {
			s.log.Warnf("unread badge cache read for %s: %v", viewerID, err)
		} else if ok {
			return count, nil
		}
	}

	conversations, err := s.conversations.ListForUser(ctx, viewerID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, conv := range conversations {
		hasUnread, err := s.HasUnread(ctx, conv, viewerID)
		if err != nil {
			return 0, err
		}
		if hasUnread {
			count++
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, viewerID, count); err != nil {
			s.log.Warnf("unread badge cache write for %s: %v", viewerID, err)
		}
	}
	return count, nil
}

// InvalidateBadge drops the cached badge after a send or a seen transition.
func (s *UnreadService) InvalidateBadge(ctx context.Context, userID string) {
	if s.cache == nil || userID == "" {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.Warnf("unread badge invalidation for %s: %v", userID, err)
	}
}
