package websocket

import (
	"context"
	"errors"

	"reelchat/internal/repository"
	reelchat_errors "reelchat/pkg/errors"
)

// ChannelAuthorizer decides whether a user may open a live feed on a
// conversation. Only the two participants may subscribe.
type ChannelAuthorizer struct {
	conversations repository.ConversationRepository
}

func NewChannelAuthorizer(conversations repository.ConversationRepository) *ChannelAuthorizer {
	return &ChannelAuthorizer{conversations: conversations}
}

func (a *ChannelAuthorizer) CanSubscribe(ctx context.Context, userID, conversationID string) (bool, error) {
	conv, err := a.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, reelchat_errors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return conv.HasParticipant(userID), nil
}
