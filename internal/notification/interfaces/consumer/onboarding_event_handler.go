// Package consumer 入驻工作流事件的 Kafka 消费入口
package consumer

import (
	"context"
	"log/slog"

	"github.com/mortgagecore/platform/internal/notification/application"
	"github.com/segmentio/kafka-go"
)

// OnboardingEventHandler 消费入驻工作流事件并触发通知
type OnboardingEventHandler struct {
	service *application.NotificationService
	logger  *slog.Logger
}

// NewOnboardingEventHandler 创建事件处理器
func NewOnboardingEventHandler(service *application.NotificationService, logger *slog.Logger) *OnboardingEventHandler {
	return &OnboardingEventHandler{service: service, logger: logger}
}

// Handle 处理单条事件消息
func (h *OnboardingEventHandler) Handle(ctx context.Context, msg kafka.Message) error {
	h.logger.InfoContext(ctx, "onboarding event received",
		"topic", msg.Topic,
		"key", string(msg.Key))
	return h.service.NotifyOnboardingEvent(ctx, msg.Topic, string(msg.Key), msg.Value)
}
