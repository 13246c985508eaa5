// Package application 通知服务的用例逻辑
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mortgagecore/platform/internal/notification/domain"
	onboarding "github.com/mortgagecore/platform/internal/onboarding/domain"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/logging"
)

// NotificationService 通知用例服务
// 消费入驻工作流事件，生成并发送通知，记录先落库再发送。
type NotificationService struct {
	repo  domain.NotificationRepository
	email domain.Sender
}

// NewNotificationService 创建通知服务
func NewNotificationService(repo domain.NotificationRepository, email domain.Sender) *NotificationService {
	return &NotificationService{repo: repo, email: email}
}

// onboardingEventPayload 入驻事件的公共字段
type onboardingEventPayload struct {
	OnboardingID   string `json:"onboarding_id"`
	OrganizationID string `json:"organization_id"`
	AssigneeID     string `json:"assignee_id"`
	ReviewerID     string `json:"reviewer_id"`
	PhaseID        string `json:"phase_id"`
	Category       string `json:"category"`
	Reason         string `json:"reason"`
	Notes          string `json:"notes"`
}

// NotifyOnboardingEvent 根据事件主题生成通知
// 无法确定收件人的事件只记日志跳过；发送失败回写状态但不反压消费。
func (s *NotificationService) NotifyOnboardingEvent(ctx context.Context, topic, key string, payload []byte) error {
	var event onboardingEventPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		logging.Error(ctx, "failed to unmarshal onboarding event", "topic", topic, "error", err)
		return err
	}

	recipient, subject, content := composeNotification(topic, &event)
	if recipient == "" {
		logging.Warn(ctx, "onboarding event has no resolvable recipient", "topic", topic, "key", key)
		return nil
	}

	notification := &domain.Notification{
		NotificationID: fmt.Sprintf("NTF-%d", idgen.GenID()),
		Recipient:      recipient,
		Type:           domain.NotificationTypeEmail,
		Subject:        subject,
		Content:        content,
		Status:         domain.NotificationStatusPending,
		SourceTopic:    topic,
		SourceKey:      key,
	}
	if err := s.repo.Save(ctx, notification); err != nil {
		return err
	}

	if err := s.email.Send(ctx, recipient, subject, content); err != nil {
		notification.MarkFailed(err.Error())
		logging.Error(ctx, "failed to send notification",
			"notification_id", notification.NotificationID,
			"error", err)
	} else {
		notification.MarkSent(time.Now())
	}
	return s.repo.Save(ctx, notification)
}

// ListNotifications 按收件人分页查询通知
func (s *NotificationService) ListNotifications(ctx context.Context, recipient string, limit, offset int) ([]*domain.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByRecipient(ctx, recipient, limit, offset)
}

// composeNotification 按事件主题决定收件人与文案
func composeNotification(topic string, event *onboardingEventPayload) (recipient, subject, content string) {
	switch topic {
	case onboarding.OnboardingStartedEventType:
		return event.AssigneeID,
			"Onboarding workflow started",
			fmt.Sprintf("Onboarding %s for organization %s has been created.", event.OnboardingID, event.OrganizationID)
	case onboarding.OnboardingPhaseCompletedEventType:
		return event.AssigneeID,
			"Onboarding phase completed",
			fmt.Sprintf("Phase %s (%s) of onboarding %s is complete.", event.PhaseID, event.Category, event.OnboardingID)
	case onboarding.OnboardingCompletedEventType:
		return event.OrganizationID,
			"Onboarding completed",
			fmt.Sprintf("Onboarding %s is complete. Organization %s is now active.", event.OnboardingID, event.OrganizationID)
	case onboarding.OnboardingRejectedEventType:
		return event.OrganizationID,
			"Onboarding rejected",
			fmt.Sprintf("Onboarding %s was rejected: %s", event.OnboardingID, event.Reason)
	case onboarding.OnboardingReassignedEventType:
		return event.AssigneeID,
			"Onboarding assigned to you",
			fmt.Sprintf("You are now responsible for onboarding %s (organization %s).", event.OnboardingID, event.OrganizationID)
	case onboarding.OnboardingChangesRequestedEventType:
		return event.AssigneeID,
			"Changes requested on onboarding",
			fmt.Sprintf("Reviewer %s requested changes on onboarding %s: %s", event.ReviewerID, event.OnboardingID, event.Notes)
	}
	return "", "", ""
}
