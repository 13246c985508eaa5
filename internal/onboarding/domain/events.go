package domain

import "time"

// 集成事件主题，通过 Outbox 发布到 Kafka
const (
	OnboardingStartedEventType          = "onboarding.started"
	OnboardingPhaseCompletedEventType   = "onboarding.phase.completed"
	OnboardingCompletedEventType        = "onboarding.completed"
	OnboardingRejectedEventType         = "onboarding.rejected"
	OnboardingReassignedEventType       = "onboarding.reassigned"
	OnboardingChangesRequestedEventType = "onboarding.gate.changes_requested"
)

// OnboardingStartedEvent 工作流实例化事件
type OnboardingStartedEvent struct {
	OnboardingID   string    `json:"onboarding_id"`
	TenantID       string    `json:"tenant_id"`
	OrganizationID string    `json:"organization_id"`
	FlowTemplateID string    `json:"flow_template_id"`
	PhaseCount     int       `json:"phase_count"`
	AssigneeID     string    `json:"assignee_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// PhaseCompletedEvent 阶段完成事件
type PhaseCompletedEvent struct {
	OnboardingID   string        `json:"onboarding_id"`
	OrganizationID string        `json:"organization_id"`
	AssigneeID     string        `json:"assignee_id,omitempty"`
	PhaseID        string        `json:"phase_id"`
	Category       PhaseCategory `json:"category"`
	SortOrder      int           `json:"sort_order"`
	NextPhaseID    string        `json:"next_phase_id,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

// OnboardingCompletedEvent 工作流完成事件（组织随之激活）
type OnboardingCompletedEvent struct {
	OnboardingID   string    `json:"onboarding_id"`
	TenantID       string    `json:"tenant_id"`
	OrganizationID string    `json:"organization_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// OnboardingRejectedEvent 工作流被拒事件
type OnboardingRejectedEvent struct {
	OnboardingID   string    `json:"onboarding_id"`
	OrganizationID string    `json:"organization_id"`
	PhaseID        string    `json:"phase_id"`
	ReviewerID     string    `json:"reviewer_id"`
	Reason         string    `json:"reason"`
	Timestamp      time.Time `json:"timestamp"`
}

// OnboardingReassignedEvent 负责人变更事件
type OnboardingReassignedEvent struct {
	OnboardingID   string    `json:"onboarding_id"`
	OrganizationID string    `json:"organization_id"`
	AssigneeID     string    `json:"assignee_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// ChangesRequestedEvent 闸门要求整改事件，仅用于通知负责人，不改变状态机
type ChangesRequestedEvent struct {
	OnboardingID   string    `json:"onboarding_id"`
	OrganizationID string    `json:"organization_id"`
	AssigneeID     string    `json:"assignee_id,omitempty"`
	PhaseID        string    `json:"phase_id"`
	ReviewerID     string    `json:"reviewer_id"`
	Notes          string    `json:"notes"`
	Timestamp      time.Time `json:"timestamp"`
}
