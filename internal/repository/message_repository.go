package repository

import (
	"context"
	"errors"
	"time"

	"reelchat/internal/domain/chat"
	reelchat_errors "reelchat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(ctx context.Context, m *chat.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return reelchat_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *GormMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (chat.Message, error) {
	var m chat.Message
	err := r.db.WithContext(ctx).
		Preload("SeenBy").
		Preload("LikedBy").
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Message{}, reelchat_errors.ErrNotFound
		}
		return chat.Message{}, err
	}
	return m, nil
}

func (r *GormMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]chat.Message, error) {
	var messages []chat.Message
	err := r.db.WithContext(ctx).
		Preload("SeenBy").
		Preload("LikedBy").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *GormMessageRepository) UpdateText(ctx context.Context, id uuid.UUID, text string) error {
	res := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"text":      text,
			"is_edited": true,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return reelchat_errors.ErrNotFound
	}
	return nil
}

func (r *GormMessageRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&chat.Message{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return reelchat_errors.ErrNotFound
	}
	// Dependent rows go separately; a crash in between leaves orphans that
	// no query path can reach.
	_ = r.db.WithContext(ctx).Delete(&chat.MessageSeen{}, "message_id = ?", id).Error
	_ = r.db.WithContext(ctx).Delete(&chat.MessageLike{}, "message_id = ?", id).Error
	return nil
}

func (r *GormMessageRepository) AddSeen(ctx context.Context, messageID uuid.UUID, userID string, at time.Time) (bool, error) {
	seen := chat.MessageSeen{
		MessageID: messageID,
		UserID:    userID,
		SeenAt:    at,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seen)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	// seen_at tracks the most recent seen transition on the message itself.
	err := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("id = ?", messageID).
		Update("seen_at", at).Error
	if err != nil {
		return true, err
	}
	return true, nil
}

func (r *GormMessageRepository) AddLike(ctx context.Context, messageID uuid.UUID, userID string, at time.Time) (bool, error) {
	like := chat.MessageLike{
		MessageID: messageID,
		UserID:    userID,
		LikedAt:   at,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormMessageRepository) RemoveLike(ctx context.Context, messageID uuid.UUID, userID string) error {
	res := r.db.WithContext(ctx).
		Delete(&chat.MessageLike{}, "message_id = ? AND user_id = ?", messageID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return reelchat_errors.ErrNotFound
	}
	return nil
}

func (r *GormMessageRepository) HasUnseenFrom(ctx context.Context, conversationID, senderID, viewerID string) (bool, error) {
	// Messages from senderID lacking a seen row for viewerID.
	subQuery := r.db.WithContext(ctx).Model(&chat.MessageSeen{}).
		Select("message_id").
		Where("user_id = ?", viewerID)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("conversation_id = ? AND sender_id = ? AND id NOT IN (?)", conversationID, senderID, subQuery).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
