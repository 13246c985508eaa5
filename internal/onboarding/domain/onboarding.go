// 组织入驻工作流聚合根，包含状态机与阶段推进逻辑。
// 状态迁移由 fsm 守护；推进（完成当前阶段并激活下一阶段或终结实例）必须在调用方事务内执行。
package domain

import (
	"context"
	"sort"
	"time"

	"github.com/wyfcoding/pkg/fsm"
	"gorm.io/gorm"
)

// OnboardingStatus 工作流实例状态
type OnboardingStatus string

const (
	OnboardingStatusPending    OnboardingStatus = "PENDING"     // 已实例化，未开始
	OnboardingStatusInProgress OnboardingStatus = "IN_PROGRESS" // 进行中
	OnboardingStatusCompleted  OnboardingStatus = "COMPLETED"   // 已完成（组织随之激活）
	OnboardingStatusRejected   OnboardingStatus = "REJECTED"    // 已拒绝（终态）
	OnboardingStatusExpired    OnboardingStatus = "EXPIRED"     // 已过期（终态）
)

// Terminal 是否为终态
func (s OnboardingStatus) Terminal() bool {
	return s == OnboardingStatusCompleted || s == OnboardingStatusRejected || s == OnboardingStatusExpired
}

// 状态机事件
const (
	onboardingEventStart    = "START"
	onboardingEventComplete = "COMPLETE"
	onboardingEventReject   = "REJECT"
	onboardingEventExpire   = "EXPIRE"
)

// OrganizationOnboarding 入驻工作流实例聚合根
// 每个组织至多一个实例（OrganizationID 唯一索引强制 1:1）。
type OrganizationOnboarding struct {
	gorm.Model
	OnboardingID   string           `gorm:"column:onboarding_id;type:varchar(64);uniqueIndex;not null" json:"onboarding_id"`
	TenantID       string           `gorm:"column:tenant_id;type:varchar(64);index;not null" json:"tenant_id"`
	OrganizationID string           `gorm:"column:organization_id;type:varchar(64);uniqueIndex;not null" json:"organization_id"`
	FlowTemplateID string           `gorm:"column:flow_template_id;type:varchar(64);not null" json:"flow_template_id"`
	Status         OnboardingStatus `gorm:"column:status;type:varchar(20);not null;default:'PENDING'" json:"status"`
	AssigneeID     string           `gorm:"column:assignee_id;type:varchar(64);index" json:"assignee_id"`
	CurrentPhaseID string           `gorm:"column:current_phase_id;type:varchar(64)" json:"current_phase_id"`
	// 实例化时刻的模板深拷贝，之后模板编辑不影响本实例
	TemplateSnapshotJSON string     `gorm:"column:template_snapshot;type:json;not null" json:"-"`
	RejectionReason      string     `gorm:"column:rejection_reason;type:varchar(512)" json:"rejection_reason"`
	CompletedAt          *time.Time `gorm:"column:completed_at" json:"completed_at"`
	ApprovedAt           *time.Time `gorm:"column:approved_at" json:"approved_at"`

	Phases []Phase `gorm:"foreignKey:OnboardingID;references:OnboardingID" json:"phases"`

	fsm *fsm.Machine[string, string] `gorm:"-"`
}

// TableName 表名
func (OrganizationOnboarding) TableName() string {
	return "organization_onboardings"
}

// NewOrganizationOnboarding 创建工作流实例（尚未激活）
func NewOrganizationOnboarding(onboardingID, tenantID, organizationID string, flow *ResolvedFlow, now time.Time) *OrganizationOnboarding {
	o := &OrganizationOnboarding{
		OnboardingID:         onboardingID,
		TenantID:             tenantID,
		OrganizationID:       organizationID,
		FlowTemplateID:       flow.Template.TemplateID,
		Status:               OnboardingStatusPending,
		TemplateSnapshotJSON: marshalJSON(SnapshotFromResolvedFlow(flow, now)),
	}
	o.initFSM()
	return o
}

func (o *OrganizationOnboarding) initFSM() {
	m := fsm.NewMachine[string, string](string(o.Status))
	m.AddTransition(string(OnboardingStatusPending), onboardingEventStart, string(OnboardingStatusInProgress))
	m.AddTransition(string(OnboardingStatusInProgress), onboardingEventComplete, string(OnboardingStatusCompleted))
	m.AddTransition(string(OnboardingStatusPending), onboardingEventReject, string(OnboardingStatusRejected))
	m.AddTransition(string(OnboardingStatusInProgress), onboardingEventReject, string(OnboardingStatusRejected))
	m.AddTransition(string(OnboardingStatusPending), onboardingEventExpire, string(OnboardingStatusExpired))
	m.AddTransition(string(OnboardingStatusInProgress), onboardingEventExpire, string(OnboardingStatusExpired))
	o.fsm = m
}

// InitFSM 确保状态机已初始化（从仓储加载后 fsm 为空）
func (o *OrganizationOnboarding) InitFSM() {
	if o.fsm == nil {
		o.initFSM()
	}
}

func (o *OrganizationOnboarding) trigger(ctx context.Context, event string, target OnboardingStatus) error {
	o.InitFSM()
	if err := o.fsm.Trigger(ctx, event); err != nil {
		return Validationf("onboarding %s cannot %s from status %s", o.OnboardingID, event, o.Status)
	}
	o.Status = target
	return nil
}

// SortPhases 按 SortOrder 升序排列阶段
func (o *OrganizationOnboarding) SortPhases() {
	sort.Slice(o.Phases, func(i, j int) bool {
		return o.Phases[i].SortOrder < o.Phases[j].SortOrder
	})
}

// PhaseByID 按业务主键查找阶段
func (o *OrganizationOnboarding) PhaseByID(phaseID string) *Phase {
	for i := range o.Phases {
		if o.Phases[i].PhaseID == phaseID {
			return &o.Phases[i]
		}
	}
	return nil
}

// ActivePhase 当前进行中的阶段（不变式：至多一个）
func (o *OrganizationOnboarding) ActivePhase() *Phase {
	for i := range o.Phases {
		if o.Phases[i].Status == PhaseStatusInProgress {
			return &o.Phases[i]
		}
	}
	return nil
}

// Activate 激活工作流：实例进入进行中，序号最小的阶段被激活
// 对已激活实例重复调用会失败，不会静默重置计数。
func (o *OrganizationOnboarding) Activate(ctx context.Context, now time.Time) (*Phase, error) {
	if len(o.Phases) == 0 {
		return nil, Validationf("onboarding %s has no phases to activate", o.OnboardingID)
	}
	if err := o.trigger(ctx, onboardingEventStart, OnboardingStatusInProgress); err != nil {
		return nil, err
	}

	o.SortPhases()
	first := &o.Phases[0]
	if err := first.Activate(now); err != nil {
		return nil, err
	}
	o.CurrentPhaseID = first.PhaseID
	return first, nil
}

// AdvanceResult 一次推进的结果
type AdvanceResult struct {
	Completed *Phase // 刚完成的阶段
	Activated *Phase // 新激活的阶段，终结时为空
	Finished  bool   // 实例是否随本次推进终结
}

// CompleteAndAdvance 完成给定阶段并推进
// 存在 order+1 阶段则激活它并移动指针；否则实例完成。阶段从不被跳过。
func (o *OrganizationOnboarding) CompleteAndAdvance(ctx context.Context, phase *Phase, now time.Time) (*AdvanceResult, error) {
	if err := phase.Complete(now); err != nil {
		return nil, err
	}

	var next *Phase
	for i := range o.Phases {
		if o.Phases[i].SortOrder == phase.SortOrder+1 {
			next = &o.Phases[i]
			break
		}
	}

	if next != nil {
		if err := next.Activate(now); err != nil {
			return nil, err
		}
		o.CurrentPhaseID = next.PhaseID
		return &AdvanceResult{Completed: phase, Activated: next}, nil
	}

	if err := o.trigger(ctx, onboardingEventComplete, OnboardingStatusCompleted); err != nil {
		return nil, err
	}
	completed := now
	o.CompletedAt = &completed
	o.ApprovedAt = &completed
	return &AdvanceResult{Completed: phase, Finished: true}, nil
}

// Reject 整个工作流被拒（终态，不可重开）
// 在途阶段随之退回未激活，返回被关闭的阶段供调用方持久化。
func (o *OrganizationOnboarding) Reject(ctx context.Context, reason string, now time.Time) (*Phase, error) {
	if err := o.trigger(ctx, onboardingEventReject, OnboardingStatusRejected); err != nil {
		return nil, err
	}
	o.RejectionReason = reason
	return o.closeActivePhase(), nil
}

// Expire 工作流过期（终态），在途阶段随之退回未激活
func (o *OrganizationOnboarding) Expire(ctx context.Context) (*Phase, error) {
	if err := o.trigger(ctx, onboardingEventExpire, OnboardingStatusExpired); err != nil {
		return nil, err
	}
	return o.closeActivePhase(), nil
}

// closeActivePhase 终态实例不保留进行中的阶段
func (o *OrganizationOnboarding) closeActivePhase() *Phase {
	active := o.ActivePhase()
	if active == nil {
		return nil
	}
	active.Status = PhaseStatusPending
	return active
}

// Reassign 更换负责人，仅触碰指针，不影响阶段状态
func (o *OrganizationOnboarding) Reassign(assigneeID string) error {
	if o.Status.Terminal() {
		return Validationf("onboarding %s is terminal, cannot reassign", o.OnboardingID)
	}
	o.AssigneeID = assigneeID
	return nil
}
