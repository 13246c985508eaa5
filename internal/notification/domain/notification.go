// Package domain 通知服务的领域模型
package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotificationTypeEmail NotificationType = "EMAIL" // 邮件通知
	NotificationTypeSMS   NotificationType = "SMS"   // 短信通知
)

// NotificationStatus 通知状态
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
)

// Notification 通知实体
// 记录先落库再发送，发送结果回写状态，事件消费全程可追溯。
type Notification struct {
	gorm.Model
	// NotificationID 通知 ID
	NotificationID string `gorm:"column:notification_id;type:varchar(64);uniqueIndex;not null" json:"notification_id"`
	// Recipient 收件人标识（负责人或审核人）
	Recipient string `gorm:"column:recipient;type:varchar(64);index;not null" json:"recipient"`
	// Type 通知类型
	Type NotificationType `gorm:"column:type;type:varchar(20);not null" json:"type"`
	// Subject 通知主题
	Subject string `gorm:"column:subject;type:varchar(255)" json:"subject"`
	// Content 通知内容
	Content string `gorm:"column:content;type:text" json:"content"`
	// Status 通知状态
	Status NotificationStatus `gorm:"column:status;type:varchar(20);index;not null;default:'PENDING'" json:"status"`
	// SourceTopic 触发本通知的事件主题
	SourceTopic string `gorm:"column:source_topic;type:varchar(64);index" json:"source_topic"`
	// SourceKey 事件键（入驻工作流 ID）
	SourceKey string `gorm:"column:source_key;type:varchar(64)" json:"source_key"`
	// ErrorMessage 错误信息
	ErrorMessage string `gorm:"column:error_message;type:text" json:"error_message"`
	// SentAt 发送时间
	SentAt *time.Time `gorm:"column:sent_at;type:datetime" json:"sent_at"`
}

// TableName 表名
func (Notification) TableName() string {
	return "notifications"
}

// MarkSent 记录发送成功
func (n *Notification) MarkSent(now time.Time) {
	n.Status = NotificationStatusSent
	n.SentAt = &now
}

// MarkFailed 记录发送失败及原因
func (n *Notification) MarkFailed(reason string) {
	n.Status = NotificationStatusFailed
	n.ErrorMessage = reason
}

// NotificationRepository 通知仓储接口
type NotificationRepository interface {
	Save(ctx context.Context, notification *Notification) error
	ListByRecipient(ctx context.Context, recipient string, limit, offset int) ([]*Notification, int64, error)
}

// Sender 发送渠道接口
type Sender interface {
	Send(ctx context.Context, recipient, subject, content string) error
}
