package repository

import (
	"context"
	"errors"
	"time"

	"reelchat/internal/domain/chat"
	reelchat_errors "reelchat/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &GormConversationRepository{db: db}
}

func (r *GormConversationRepository) EnsureConversation(ctx context.Context, c *chat.Conversation) error {
	// ON CONFLICT DO NOTHING on the deterministic id: both participants may
	// race this create and exactly one row results either way.
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(c)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil
		}
		return res.Error
	}
	return nil
}

func (r *GormConversationRepository) GetByID(ctx context.Context, id string) (chat.Conversation, error) {
	var c chat.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Conversation{}, reelchat_errors.ErrNotFound
		}
		return chat.Conversation{}, err
	}
	return c, nil
}

func (r *GormConversationRepository) RecordLastMessage(ctx context.Context, id string, text, senderID string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&chat.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message_text":      text,
			"last_message_at":        at,
			"last_message_sender_id": senderID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return reelchat_errors.ErrNotFound
	}
	return nil
}

func (r *GormConversationRepository) ListForUser(ctx context.Context, userID string) ([]chat.Conversation, error) {
	var conversations []chat.Conversation

	// Conversations that never carried a message sort last.
	err := r.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("last_message_at IS NULL, last_message_at DESC").
		Find(&conversations).Error

	if err != nil {
		return nil, err
	}
	return conversations, nil
}
