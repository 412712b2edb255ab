package repository

import (
	"context"
	"errors"

	"reelchat/internal/domain/notification"
	reelchat_errors "reelchat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormNotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	res := r.db.WithContext(ctx).Create(n)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return reelchat_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *GormNotificationRepository) ListForRecipient(ctx context.Context, recipientID string, excludeTypes ...string) ([]notification.Notification, error) {
	var notifications []notification.Notification

	q := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID)
	if len(excludeTypes) > 0 {
		q = q.Where("type NOT IN (?)", excludeTypes)
	}

	err := q.Order("created_at DESC").Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *GormNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("id = ?", id).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return reelchat_errors.ErrNotFound
	}
	return nil
}
