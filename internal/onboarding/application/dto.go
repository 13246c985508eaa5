// 包 application 入驻工作流的用例逻辑
package application

import (
	"time"

	"github.com/mortgagecore/platform/internal/onboarding/domain"
)

// OnboardingDTO 工作流实例投影，HTTP 层的统一返回结构
type OnboardingDTO struct {
	OnboardingID    string     `json:"onboarding_id"`
	TenantID        string     `json:"tenant_id"`
	OrganizationID  string     `json:"organization_id"`
	FlowTemplateID  string     `json:"flow_template_id"`
	Status          string     `json:"status"`
	AssigneeID      string     `json:"assignee_id,omitempty"`
	CurrentPhaseID  string     `json:"current_phase_id,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Phases          []PhaseDTO `json:"phases"`
}

// PhaseDTO 阶段投影
type PhaseDTO struct {
	PhaseID          string     `json:"phase_id"`
	SortOrder        int        `json:"sort_order"`
	Category         string     `json:"category"`
	Status           string     `json:"status"`
	RequiresPrevious bool       `json:"requires_previous"`
	ActivatedAt      *time.Time `json:"activated_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`

	Questionnaire *QuestionnairePhaseDTO `json:"questionnaire,omitempty"`
	Documentation *DocumentationPhaseDTO `json:"documentation,omitempty"`
	Gate          *GatePhaseDTO          `json:"gate,omitempty"`
}

// QuestionnairePhaseDTO 问卷阶段投影
type QuestionnairePhaseDTO struct {
	Questions            []domain.QuestionSnapshot `json:"questions"`
	Fields               []FieldDTO                `json:"fields"`
	CompletedFieldsCount int                       `json:"completed_fields_count"`
}

// FieldDTO 问卷字段投影
type FieldDTO struct {
	FieldID     string     `json:"field_id"`
	QuestionKey string     `json:"question_key"`
	Required    bool       `json:"required"`
	Answer      *string    `json:"answer"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// DocumentationPhaseDTO 资料阶段投影
type DocumentationPhaseDTO struct {
	Documents              []domain.DocumentSnapshot `json:"documents"`
	StageProgress          []StageProgressDTO        `json:"stage_progress"`
	RequiredDocumentsCount int                       `json:"required_documents_count"`
	ApprovedDocumentsCount int                       `json:"approved_documents_count"`
	SourceQuestionnaireID  string                    `json:"source_questionnaire_id,omitempty"`
}

// StageProgressDTO 审批阶段进度投影
type StageProgressDTO struct {
	SortOrder   int        `json:"sort_order"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// GatePhaseDTO 闸门阶段投影
type GatePhaseDTO struct {
	RequiredApprovals int         `json:"required_approvals"`
	ApprovalCount     int         `json:"approval_count"`
	RejectionCount    int         `json:"rejection_count"`
	RejectionReason   string      `json:"rejection_reason,omitempty"`
	Reviews           []ReviewDTO `json:"reviews"`
}

// ReviewDTO 评审记录投影
type ReviewDTO struct {
	ReviewID   string    `json:"review_id"`
	ReviewerID string    `json:"reviewer_id"`
	Decision   string    `json:"decision"`
	Notes      string    `json:"notes,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// FlowTemplateDTO 模板投影
type FlowTemplateDTO struct {
	TemplateID string             `json:"template_id"`
	TenantID   string             `json:"tenant_id"`
	Name       string             `json:"name"`
	OrgType    string             `json:"org_type,omitempty"`
	Active     bool               `json:"active"`
	Phases     []PhaseTemplateDTO `json:"phases"`
}

// PhaseTemplateDTO 模板阶段投影
type PhaseTemplateDTO struct {
	SortOrder        int    `json:"sort_order"`
	Category         string `json:"category"`
	PlanID           string `json:"plan_id"`
	RequiresPrevious bool   `json:"requires_previous"`
}

func toOnboardingDTO(o *domain.OrganizationOnboarding) *OnboardingDTO {
	o.SortPhases()
	dto := &OnboardingDTO{
		OnboardingID:    o.OnboardingID,
		TenantID:        o.TenantID,
		OrganizationID:  o.OrganizationID,
		FlowTemplateID:  o.FlowTemplateID,
		Status:          string(o.Status),
		AssigneeID:      o.AssigneeID,
		CurrentPhaseID:  o.CurrentPhaseID,
		RejectionReason: o.RejectionReason,
		CompletedAt:     o.CompletedAt,
		ApprovedAt:      o.ApprovedAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for i := range o.Phases {
		dto.Phases = append(dto.Phases, toPhaseDTO(&o.Phases[i]))
	}
	return dto
}

func toPhaseDTO(p *domain.Phase) PhaseDTO {
	dto := PhaseDTO{
		PhaseID:          p.PhaseID,
		SortOrder:        p.SortOrder,
		Category:         string(p.Category),
		Status:           string(p.Status),
		RequiresPrevious: p.RequiresPrevious,
		ActivatedAt:      p.ActivatedAt,
		CompletedAt:      p.CompletedAt,
	}
	if p.Questionnaire != nil {
		questions, _ := p.Questionnaire.Questions()
		ext := &QuestionnairePhaseDTO{
			Questions:            questions,
			CompletedFieldsCount: p.Questionnaire.CompletedFieldsCount,
		}
		for i := range p.Questionnaire.Fields {
			field := &p.Questionnaire.Fields[i]
			ext.Fields = append(ext.Fields, FieldDTO{
				FieldID:     field.FieldID,
				QuestionKey: field.QuestionKey,
				Required:    field.Required,
				Answer:      field.Answer,
				SubmittedAt: field.SubmittedAt,
			})
		}
		dto.Questionnaire = ext
	}
	if p.Documentation != nil {
		documents, _ := p.Documentation.Documents()
		ext := &DocumentationPhaseDTO{
			Documents:              documents,
			RequiredDocumentsCount: p.Documentation.RequiredDocumentsCount,
			ApprovedDocumentsCount: p.Documentation.ApprovedDocumentsCount,
			SourceQuestionnaireID:  p.Documentation.SourceQuestionnaireID,
		}
		for i := range p.Documentation.StageProgress {
			stage := &p.Documentation.StageProgress[i]
			ext.StageProgress = append(ext.StageProgress, StageProgressDTO{
				SortOrder:   stage.SortOrder,
				Name:        stage.Name,
				Status:      string(stage.Status),
				CompletedAt: stage.CompletedAt,
			})
		}
		dto.Documentation = ext
	}
	if p.Gate != nil {
		ext := &GatePhaseDTO{
			RequiredApprovals: p.Gate.RequiredApprovals,
			ApprovalCount:     p.Gate.ApprovalCount,
			RejectionCount:    p.Gate.RejectionCount,
			RejectionReason:   p.Gate.RejectionReason,
		}
		for i := range p.Gate.Reviews {
			review := &p.Gate.Reviews[i]
			ext.Reviews = append(ext.Reviews, ReviewDTO{
				ReviewID:   review.ReviewID,
				ReviewerID: review.ReviewerID,
				Decision:   string(review.Decision),
				Notes:      review.Notes,
				ReviewedAt: review.ReviewedAt,
			})
		}
		dto.Gate = ext
	}
	return dto
}

func toTemplateDTO(t *domain.FlowTemplate) *FlowTemplateDTO {
	dto := &FlowTemplateDTO{
		TemplateID: t.TemplateID,
		TenantID:   t.TenantID,
		Name:       t.Name,
		OrgType:    t.OrgType,
		Active:     t.Active,
	}
	for _, phase := range t.Phases {
		dto.Phases = append(dto.Phases, PhaseTemplateDTO{
			SortOrder:        phase.SortOrder,
			Category:         string(phase.Category),
			PlanID:           phase.PlanID,
			RequiresPrevious: phase.RequiresPrevious,
		})
	}
	return dto
}
