// Package mysql 通知仓储的 GORM 实现
package mysql

import (
	"context"
	"fmt"

	"github.com/mortgagecore/platform/internal/notification/domain"
	"github.com/wyfcoding/pkg/logging"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// notificationRepository 通知仓储
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储
func NewNotificationRepository(db *gorm.DB) domain.NotificationRepository {
	return &notificationRepository{db: db}
}

// Save 按 notification_id 幂等落库（事件可能被重复投递）
func (r *notificationRepository) Save(ctx context.Context, notification *domain.Notification) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "notification_id"}},
		UpdateAll: true,
	}).Create(notification).Error
	if err != nil {
		logging.Error(ctx, "failed to save notification",
			"notification_id", notification.NotificationID,
			"error", err)
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// ListByRecipient 按收件人分页查询通知
func (r *notificationRepository) ListByRecipient(ctx context.Context, recipient string, limit, offset int) ([]*domain.Notification, int64, error) {
	db := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("recipient = ?", recipient)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []*domain.Notification
	if err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}
