package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mortgagecore/platform/internal/onboarding/domain"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/logging"
)

// TemplateCommandService 处理流程模板与计划的命令操作
// 模板编辑只影响之后的实例化，在途工作流始终读取自己的快照。
type TemplateCommandService struct {
	repo domain.TemplateRepository
}

// NewTemplateCommandService 创建模板命令服务
func NewTemplateCommandService(repo domain.TemplateRepository) *TemplateCommandService {
	return &TemplateCommandService{repo: repo}
}

// CreateTemplate 创建流程模板
// 阶段序号必须连续（1..N），类别必须已知。
func (s *TemplateCommandService) CreateTemplate(ctx context.Context, cmd CreateTemplateCommand) (*FlowTemplateDTO, error) {
	if len(cmd.Phases) == 0 {
		return nil, domain.Validationf("template requires at least one phase")
	}

	template := &domain.FlowTemplate{
		TemplateID: fmt.Sprintf("TPL-%d", idgen.GenID()),
		TenantID:   cmd.TenantID,
		Name:       cmd.Name,
		OrgType:    cmd.OrgType,
		Active:     true,
	}

	seen := make(map[int]bool, len(cmd.Phases))
	for _, input := range cmd.Phases {
		category := domain.PhaseCategory(input.Category)
		switch category {
		case domain.PhaseCategoryQuestionnaire, domain.PhaseCategoryDocumentation, domain.PhaseCategoryGate:
		default:
			return nil, domain.Validationf("unknown phase category %q", input.Category)
		}
		if seen[input.SortOrder] {
			return nil, domain.Validationf("duplicate phase sort order %d", input.SortOrder)
		}
		seen[input.SortOrder] = true

		requiresPrevious := true
		if input.RequiresPrevious != nil {
			requiresPrevious = *input.RequiresPrevious
		}
		template.Phases = append(template.Phases, domain.FlowPhaseTemplate{
			TemplateID:       template.TemplateID,
			SortOrder:        input.SortOrder,
			Category:         category,
			PlanID:           input.PlanID,
			RequiresPrevious: requiresPrevious,
		})
	}
	for order := 1; order <= len(cmd.Phases); order++ {
		if !seen[order] {
			return nil, domain.Validationf("phase sort orders must be contiguous, missing %d", order)
		}
	}

	if err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.Create(txCtx, template)
	}); err != nil {
		return nil, err
	}

	logging.Info(ctx, "flow template created",
		"template_id", template.TemplateID,
		"tenant_id", template.TenantID,
		"phase_count", len(template.Phases))
	return toTemplateDTO(template), nil
}

// SetTemplateActive 启用或停用模板（不影响已实例化的工作流）
func (s *TemplateCommandService) SetTemplateActive(ctx context.Context, templateID string, active bool) error {
	if err := s.repo.SetActive(ctx, templateID, active); err != nil {
		return err
	}
	logging.Info(ctx, "flow template activation changed", "template_id", templateID, "active", active)
	return nil
}

// CreateQuestionnairePlan 创建问卷计划
func (s *TemplateCommandService) CreateQuestionnairePlan(ctx context.Context, cmd CreateQuestionnairePlanCommand) (string, error) {
	if len(cmd.Questions) == 0 {
		return "", domain.Validationf("questionnaire plan requires at least one question")
	}

	plan := &domain.QuestionnairePlan{
		PlanID: fmt.Sprintf("QPL-%d", idgen.GenID()),
		Name:   cmd.Name,
	}
	seen := make(map[string]bool, len(cmd.Questions))
	for _, input := range cmd.Questions {
		questionType := domain.QuestionType(input.Type)
		switch questionType {
		case domain.QuestionTypeText, domain.QuestionTypeNumber, domain.QuestionTypeCurrency,
			domain.QuestionTypeDate, domain.QuestionTypeBoolean, domain.QuestionTypeSelect:
		default:
			return "", domain.Validationf("unknown question type %q", input.Type)
		}
		if seen[input.Key] {
			return "", domain.Validationf("duplicate question key %q", input.Key)
		}
		seen[input.Key] = true
		if questionType == domain.QuestionTypeSelect && len(input.Options) == 0 {
			return "", domain.Validationf("select question %q requires options", input.Key)
		}

		optionsJSON := ""
		if len(input.Options) > 0 {
			data, err := json.Marshal(input.Options)
			if err != nil {
				return "", domain.Validationf("invalid options for question %q", input.Key)
			}
			optionsJSON = string(data)
		}
		plan.Questions = append(plan.Questions, domain.PlanQuestion{
			PlanID:      plan.PlanID,
			Key:         input.Key,
			Label:       input.Label,
			Type:        questionType,
			Required:    input.Required,
			Pattern:     input.Pattern,
			MinValue:    input.MinValue,
			MaxValue:    input.MaxValue,
			OptionsJSON: optionsJSON,
		})
	}

	if err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.CreateQuestionnairePlan(txCtx, plan)
	}); err != nil {
		return "", err
	}

	logging.Info(ctx, "questionnaire plan created", "plan_id", plan.PlanID, "question_count", len(plan.Questions))
	return plan.PlanID, nil
}

// CreateDocumentationPlan 创建资料计划
func (s *TemplateCommandService) CreateDocumentationPlan(ctx context.Context, cmd CreateDocumentationPlanCommand) (string, error) {
	if len(cmd.Documents) == 0 {
		return "", domain.Validationf("documentation plan requires at least one document definition")
	}

	plan := &domain.DocumentationPlan{
		PlanID: fmt.Sprintf("DPL-%d", idgen.GenID()),
		Name:   cmd.Name,
	}
	seen := make(map[string]bool, len(cmd.Documents))
	for _, input := range cmd.Documents {
		if seen[input.DocumentType] {
			return "", domain.Validationf("duplicate document type %q", input.DocumentType)
		}
		seen[input.DocumentType] = true

		required := true
		if input.Required != nil {
			required = *input.Required
		}
		autoApprove := true
		if input.AutoApprove != nil {
			autoApprove = *input.AutoApprove
		}
		plan.Definitions = append(plan.Definitions, domain.PlanDocumentDefinition{
			PlanID:       plan.PlanID,
			DocumentType: input.DocumentType,
			Required:     required,
			UploaderRole: input.UploaderRole,
			AutoApprove:  autoApprove,
		})
	}
	stageSeen := make(map[int]bool, len(cmd.Stages))
	for _, input := range cmd.Stages {
		if stageSeen[input.SortOrder] {
			return "", domain.Validationf("duplicate stage sort order %d", input.SortOrder)
		}
		stageSeen[input.SortOrder] = true
		plan.Stages = append(plan.Stages, domain.PlanApprovalStage{
			PlanID:          plan.PlanID,
			SortOrder:       input.SortOrder,
			Name:            input.Name,
			ReviewerOrgType: input.ReviewerOrgType,
		})
	}
	for order := 1; order <= len(cmd.Stages); order++ {
		if !stageSeen[order] {
			return "", domain.Validationf("stage sort orders must be contiguous, missing %d", order)
		}
	}

	if err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.CreateDocumentationPlan(txCtx, plan)
	}); err != nil {
		return "", err
	}

	logging.Info(ctx, "documentation plan created",
		"plan_id", plan.PlanID,
		"document_count", len(plan.Definitions),
		"stage_count", len(plan.Stages))
	return plan.PlanID, nil
}

// CreateGatePlan 创建闸门计划
func (s *TemplateCommandService) CreateGatePlan(ctx context.Context, cmd CreateGatePlanCommand) (string, error) {
	requiredApprovals := cmd.RequiredApprovals
	if requiredApprovals < 1 {
		requiredApprovals = 1
	}

	plan := &domain.GatePlan{
		PlanID:            fmt.Sprintf("GPL-%d", idgen.GenID()),
		Name:              cmd.Name,
		RequiredApprovals: requiredApprovals,
		ReviewerRole:      cmd.ReviewerRole,
	}
	if err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.CreateGatePlan(txCtx, plan)
	}); err != nil {
		return "", err
	}

	logging.Info(ctx, "gate plan created", "plan_id", plan.PlanID, "required_approvals", plan.RequiredApprovals)
	return plan.PlanID, nil
}
