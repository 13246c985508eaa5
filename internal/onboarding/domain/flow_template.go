// 包 domain 入驻流程引擎的领域模型
package domain

import (
	"context"

	"gorm.io/gorm"
)

// PhaseCategory 阶段类别
type PhaseCategory string

const (
	PhaseCategoryQuestionnaire PhaseCategory = "QUESTIONNAIRE" // 问卷阶段
	PhaseCategoryDocumentation PhaseCategory = "DOCUMENTATION" // 资料阶段
	PhaseCategoryGate          PhaseCategory = "GATE"          // 审批闸门阶段
)

// QuestionType 问卷字段类型
type QuestionType string

const (
	QuestionTypeText     QuestionType = "TEXT"
	QuestionTypeNumber   QuestionType = "NUMBER"
	QuestionTypeCurrency QuestionType = "CURRENCY"
	QuestionTypeDate     QuestionType = "DATE"
	QuestionTypeBoolean  QuestionType = "BOOLEAN"
	QuestionTypeSelect   QuestionType = "SELECT"
)

// FlowTemplate 入驻流程模板聚合根
// 模板是可编辑的；已实例化的工作流只读取创建时刻的快照，后续模板修改不会回溯生效。
type FlowTemplate struct {
	gorm.Model
	TemplateID string              `gorm:"column:template_id;type:varchar(64);uniqueIndex;not null" json:"template_id"`
	TenantID   string              `gorm:"column:tenant_id;type:varchar(64);index;not null" json:"tenant_id"`
	Name       string              `gorm:"column:name;type:varchar(128);not null" json:"name"`
	// 适用的机构类型（BANK, DEVELOPER, PLATFORM）
	OrgType string `gorm:"column:org_type;type:varchar(32);index" json:"org_type"`
	Active  bool   `gorm:"column:active;default:true" json:"active"`
	Phases  []FlowPhaseTemplate `gorm:"foreignKey:TemplateID;references:TemplateID" json:"phases"`
}

// TableName 表名
func (FlowTemplate) TableName() string {
	return "onboarding_flow_templates"
}

// FlowPhaseTemplate 模板中的单个阶段定义
// 每个阶段恰好引用一个与类别匹配的计划（问卷/资料/闸门）。
type FlowPhaseTemplate struct {
	gorm.Model
	TemplateID       string        `gorm:"column:template_id;type:varchar(64);index;not null" json:"template_id"`
	SortOrder        int           `gorm:"column:sort_order;not null" json:"sort_order"`
	Category         PhaseCategory `gorm:"column:category;type:varchar(20);not null" json:"category"`
	PlanID           string        `gorm:"column:plan_id;type:varchar(64);not null" json:"plan_id"`
	RequiresPrevious bool          `gorm:"column:requires_previous;default:true" json:"requires_previous"`
}

// TableName 表名
func (FlowPhaseTemplate) TableName() string {
	return "onboarding_flow_phase_templates"
}

// QuestionnairePlan 问卷计划
type QuestionnairePlan struct {
	gorm.Model
	PlanID    string         `gorm:"column:plan_id;type:varchar(64);uniqueIndex;not null" json:"plan_id"`
	Name      string         `gorm:"column:name;type:varchar(128)" json:"name"`
	Questions []PlanQuestion `gorm:"foreignKey:PlanID;references:PlanID" json:"questions"`
}

// TableName 表名
func (QuestionnairePlan) TableName() string {
	return "onboarding_questionnaire_plans"
}

// PlanQuestion 问卷计划中的单个问题
// 数值边界以字符串存储，校验时解析为 decimal，避免浮点误差。
type PlanQuestion struct {
	gorm.Model
	PlanID      string       `gorm:"column:plan_id;type:varchar(64);index;not null" json:"plan_id"`
	Key         string       `gorm:"column:question_key;type:varchar(64);not null" json:"key"`
	Label       string       `gorm:"column:label;type:varchar(255)" json:"label"`
	Type        QuestionType `gorm:"column:question_type;type:varchar(20);not null" json:"type"`
	Required    bool         `gorm:"column:required;default:false" json:"required"`
	Pattern     string       `gorm:"column:pattern;type:varchar(255)" json:"pattern"`
	MinValue    string       `gorm:"column:min_value;type:varchar(64)" json:"min_value"`
	MaxValue    string       `gorm:"column:max_value;type:varchar(64)" json:"max_value"`
	OptionsJSON string       `gorm:"column:options;type:json" json:"options_json"`
}

// TableName 表名
func (PlanQuestion) TableName() string {
	return "onboarding_plan_questions"
}

// DocumentationPlan 资料计划
type DocumentationPlan struct {
	gorm.Model
	PlanID      string                   `gorm:"column:plan_id;type:varchar(64);uniqueIndex;not null" json:"plan_id"`
	Name        string                   `gorm:"column:name;type:varchar(128)" json:"name"`
	Definitions []PlanDocumentDefinition `gorm:"foreignKey:PlanID;references:PlanID" json:"definitions"`
	Stages      []PlanApprovalStage      `gorm:"foreignKey:PlanID;references:PlanID" json:"stages"`
}

// TableName 表名
func (DocumentationPlan) TableName() string {
	return "onboarding_documentation_plans"
}

// PlanDocumentDefinition 资料计划中的单个文档要求
type PlanDocumentDefinition struct {
	gorm.Model
	PlanID       string `gorm:"column:plan_id;type:varchar(64);index;not null" json:"plan_id"`
	DocumentType string `gorm:"column:document_type;type:varchar(64);not null" json:"document_type"`
	Required     bool   `gorm:"column:required;default:true" json:"required"`
	UploaderRole string `gorm:"column:uploader_role;type:varchar(32)" json:"uploader_role"`
	AutoApprove  bool   `gorm:"column:auto_approve;default:true" json:"auto_approve"`
}

// TableName 表名
func (PlanDocumentDefinition) TableName() string {
	return "onboarding_plan_document_definitions"
}

// PlanApprovalStage 资料计划的审批阶段定义（有序）
type PlanApprovalStage struct {
	gorm.Model
	PlanID          string `gorm:"column:plan_id;type:varchar(64);index;not null" json:"plan_id"`
	SortOrder       int    `gorm:"column:sort_order;not null" json:"sort_order"`
	Name            string `gorm:"column:name;type:varchar(128)" json:"name"`
	ReviewerOrgType string `gorm:"column:reviewer_org_type;type:varchar(32)" json:"reviewer_org_type"`
}

// TableName 表名
func (PlanApprovalStage) TableName() string {
	return "onboarding_plan_approval_stages"
}

// GatePlan 闸门计划
type GatePlan struct {
	gorm.Model
	PlanID            string `gorm:"column:plan_id;type:varchar(64);uniqueIndex;not null" json:"plan_id"`
	Name              string `gorm:"column:name;type:varchar(128)" json:"name"`
	RequiredApprovals int    `gorm:"column:required_approvals;not null;default:1" json:"required_approvals"`
	ReviewerRole      string `gorm:"column:reviewer_role;type:varchar(32)" json:"reviewer_role"`
}

// TableName 表名
func (GatePlan) TableName() string {
	return "onboarding_gate_plans"
}

// ResolvedFlow 解析后的流程模板，携带全部嵌套计划，供实例化器做深拷贝。
type ResolvedFlow struct {
	Template *FlowTemplate
	Phases   []ResolvedPhase
}

// ResolvedPhase 解析后的阶段模板，Plan 字段按类别恰有一个非空。
type ResolvedPhase struct {
	Definition    FlowPhaseTemplate
	Questionnaire *QuestionnairePlan
	Documentation *DocumentationPlan
	Gate          *GatePlan
}

// TemplateRepository 模板仓储接口（模板存储协作方契约）
type TemplateRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	Create(ctx context.Context, template *FlowTemplate) error
	CreateQuestionnairePlan(ctx context.Context, plan *QuestionnairePlan) error
	CreateDocumentationPlan(ctx context.Context, plan *DocumentationPlan) error
	CreateGatePlan(ctx context.Context, plan *GatePlan) error
	SetActive(ctx context.Context, templateID string, active bool) error

	// ResolveFlow 加载模板及全部嵌套计划定义
	ResolveFlow(ctx context.Context, templateID string) (*ResolvedFlow, error)
	Get(ctx context.Context, templateID string) (*FlowTemplate, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]*FlowTemplate, int64, error)
}
