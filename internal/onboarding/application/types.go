package application

import "github.com/mortgagecore/platform/internal/onboarding/domain"

// StartOnboardingCommand 为组织实例化入驻工作流
type StartOnboardingCommand struct {
	TenantID       string `json:"tenant_id" binding:"required"`
	OrganizationID string `json:"organization_id" binding:"required"`
	FlowTemplateID string `json:"flow_template_id" binding:"required"`
	// 可选；提供负责人时实例随创建立即激活
	AssigneeID string `json:"assignee_id"`
}

// ActivateOnboardingCommand 启动一个待启动的实例
type ActivateOnboardingCommand struct {
	TenantID       string `json:"tenant_id" binding:"required"`
	OrganizationID string `json:"organization_id" binding:"required"`
}

// SubmitAnswersCommand 提交问卷字段答案
type SubmitAnswersCommand struct {
	TenantID       string        `json:"tenant_id" binding:"required"`
	OrganizationID string        `json:"organization_id" binding:"required"`
	PhaseID        string        `json:"phase_id" binding:"required"`
	Answers        []AnswerInput `json:"answers" binding:"required"`
}

// AnswerInput 单个字段答案
type AnswerInput struct {
	FieldID string `json:"field_id" binding:"required"`
	Value   string `json:"value"`
}

// UploadDocumentCommand 登记一次文档上传
type UploadDocumentCommand struct {
	TenantID       string `json:"tenant_id" binding:"required"`
	OrganizationID string `json:"organization_id" binding:"required"`
	PhaseID        string `json:"phase_id" binding:"required"`
	DocumentType   string `json:"document_type" binding:"required"`
	URL            string `json:"url" binding:"required"`
	FileName       string `json:"file_name"`
	UploaderID     string `json:"uploader_id" binding:"required"`
}

// ReviewGateCommand 提交一次闸门评审
type ReviewGateCommand struct {
	TenantID       string                `json:"tenant_id" binding:"required"`
	OrganizationID string                `json:"organization_id" binding:"required"`
	PhaseID        string                `json:"phase_id" binding:"required"`
	ReviewerID     string                `json:"reviewer_id" binding:"required"`
	Decision       domain.ReviewDecision `json:"decision" binding:"required"`
	Notes          string                `json:"notes"`
}

// ReassignCommand 更换工作流负责人
type ReassignCommand struct {
	TenantID       string `json:"tenant_id" binding:"required"`
	OrganizationID string `json:"organization_id" binding:"required"`
	AssigneeID     string `json:"assignee_id" binding:"required"`
}

// CreateTemplateCommand 创建流程模板
type CreateTemplateCommand struct {
	TenantID string               `json:"tenant_id" binding:"required"`
	Name     string               `json:"name" binding:"required"`
	OrgType  string               `json:"org_type"`
	Phases   []TemplatePhaseInput `json:"phases" binding:"required"`
}

// TemplatePhaseInput 模板阶段定义输入
type TemplatePhaseInput struct {
	SortOrder        int    `json:"sort_order" binding:"required"`
	Category         string `json:"category" binding:"required"`
	PlanID           string `json:"plan_id" binding:"required"`
	RequiresPrevious *bool  `json:"requires_previous"`
}

// CreateQuestionnairePlanCommand 创建问卷计划
type CreateQuestionnairePlanCommand struct {
	Name      string          `json:"name" binding:"required"`
	Questions []QuestionInput `json:"questions" binding:"required"`
}

// QuestionInput 问卷问题定义输入
type QuestionInput struct {
	Key      string   `json:"key" binding:"required"`
	Label    string   `json:"label"`
	Type     string   `json:"type" binding:"required"`
	Required bool     `json:"required"`
	Pattern  string   `json:"pattern"`
	MinValue string   `json:"min_value"`
	MaxValue string   `json:"max_value"`
	Options  []string `json:"options"`
}

// CreateDocumentationPlanCommand 创建资料计划
type CreateDocumentationPlanCommand struct {
	Name      string               `json:"name" binding:"required"`
	Documents []DocumentInput      `json:"documents" binding:"required"`
	Stages    []ApprovalStageInput `json:"stages"`
}

// DocumentInput 文档要求定义输入
type DocumentInput struct {
	DocumentType string `json:"document_type" binding:"required"`
	Required     *bool  `json:"required"`
	UploaderRole string `json:"uploader_role"`
	AutoApprove  *bool  `json:"auto_approve"`
}

// ApprovalStageInput 审批阶段定义输入
type ApprovalStageInput struct {
	SortOrder       int    `json:"sort_order" binding:"required"`
	Name            string `json:"name" binding:"required"`
	ReviewerOrgType string `json:"reviewer_org_type"`
}

// CreateGatePlanCommand 创建闸门计划
type CreateGatePlanCommand struct {
	Name              string `json:"name" binding:"required"`
	RequiredApprovals int    `json:"required_approvals"`
	ReviewerRole      string `json:"reviewer_role"`
}
