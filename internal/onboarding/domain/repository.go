package domain

import "context"

// OnboardingRepository 工作流实例仓储接口
// 所有写操作在 WithTx 打开的事务上下文中执行，保证提交答案、阶段推进与
// 组织激活之间的原子性。
type OnboardingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	Create(ctx context.Context, onboarding *OrganizationOnboarding) error
	// Save 仅持久化实例行本身，阶段与扩展由细粒度方法保存
	Save(ctx context.Context, onboarding *OrganizationOnboarding) error
	SavePhase(ctx context.Context, phase *Phase) error
	SaveQuestionnaire(ctx context.Context, ext *QuestionnairePhase) error
	SaveField(ctx context.Context, field *QuestionnaireField) error
	SaveDocumentation(ctx context.Context, ext *DocumentationPhase) error
	SaveStageProgress(ctx context.Context, stage *ApprovalStageProgress) error
	SaveGate(ctx context.Context, ext *GatePhase) error
	CreateReview(ctx context.Context, review *GateReview) error

	// GetByOrganization 加载实例及全部阶段、扩展与评审记录
	GetByOrganization(ctx context.Context, tenantID, organizationID string) (*OrganizationOnboarding, error)
	GetByID(ctx context.Context, onboardingID string) (*OrganizationOnboarding, error)
	ExistsForOrganization(ctx context.Context, organizationID string) (bool, error)
}

// OrganizationStore 组织服务协作方契约
type OrganizationStore interface {
	// FindActiveMembership 查找用户在组织中的有效成员关系，不存在时返回 (“”, nil)
	FindActiveMembership(ctx context.Context, organizationID, userID string) (role string, err error)
	// SetStatus 切换组织生命周期状态
	SetStatus(ctx context.Context, organizationID, status string) error
}

// 组织状态取值（组织服务侧定义，这里只消费字符串契约）
const (
	OrgStatusActive    = "ACTIVE"
	OrgStatusSuspended = "SUSPENDED"
)

// EventPublisher 事件发布者接口，Outbox 实现保证与业务写入同事务
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
	PublishInTx(ctx context.Context, tx any, topic string, key string, event any) error
}
