package application

import (
	"context"
	"fmt"
	"time"

	"github.com/mortgagecore/platform/internal/onboarding/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/logging"
)

// OnboardingCommandService 处理入驻工作流的命令操作
// 每个用例是一个事务：实例变更、阶段推进、组织激活与 Outbox 事件写入一起提交。
type OnboardingCommandService struct {
	repo      domain.OnboardingRepository
	templates domain.TemplateRepository
	orgs      domain.OrganizationStore
	publisher domain.EventPublisher
}

// NewOnboardingCommandService 创建命令服务
func NewOnboardingCommandService(
	repo domain.OnboardingRepository,
	templates domain.TemplateRepository,
	orgs domain.OrganizationStore,
	publisher domain.EventPublisher,
) *OnboardingCommandService {
	return &OnboardingCommandService{
		repo:      repo,
		templates: templates,
		orgs:      orgs,
		publisher: publisher,
	}
}

// StartOnboarding 为组织实例化入驻工作流
// 模板在此刻深拷贝为快照；每组织至多一个实例；提供负责人时立即激活。
func (s *OnboardingCommandService) StartOnboarding(ctx context.Context, cmd StartOnboardingCommand) (*OnboardingDTO, error) {
	now := time.Now()
	var onboarding *domain.OrganizationOnboarding

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		exists, err := s.repo.ExistsForOrganization(txCtx, cmd.OrganizationID)
		if err != nil {
			return err
		}
		if exists {
			return domain.Conflictf("organization %s already has an onboarding workflow", cmd.OrganizationID)
		}

		flow, err := s.templates.ResolveFlow(txCtx, cmd.FlowTemplateID)
		if err != nil {
			return err
		}
		if !flow.Template.Active {
			return domain.Validationf("flow template %s is not active", cmd.FlowTemplateID)
		}
		if len(flow.Phases) == 0 {
			return domain.Validationf("flow template %s has no phases", cmd.FlowTemplateID)
		}

		onboarding = domain.NewOrganizationOnboarding(
			fmt.Sprintf("ONB-%d", idgen.GenID()), cmd.TenantID, cmd.OrganizationID, flow, now)
		phases, err := domain.MaterializePhases(onboarding.OnboardingID, flow)
		if err != nil {
			return err
		}
		onboarding.Phases = phases

		if cmd.AssigneeID != "" {
			onboarding.AssigneeID = cmd.AssigneeID
			if _, err := onboarding.Activate(txCtx, now); err != nil {
				return err
			}
		}

		if err := s.repo.Create(txCtx, onboarding); err != nil {
			return err
		}

		s.publishInTx(txCtx, domain.OnboardingStartedEventType, onboarding.OnboardingID, domain.OnboardingStartedEvent{
			OnboardingID:   onboarding.OnboardingID,
			TenantID:       onboarding.TenantID,
			OrganizationID: onboarding.OrganizationID,
			FlowTemplateID: onboarding.FlowTemplateID,
			PhaseCount:     len(onboarding.Phases),
			AssigneeID:     onboarding.AssigneeID,
			Timestamp:      now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info(ctx, "onboarding workflow created",
		"onboarding_id", onboarding.OnboardingID,
		"organization_id", onboarding.OrganizationID,
		"template_id", onboarding.FlowTemplateID,
		"status", onboarding.Status)
	return toOnboardingDTO(onboarding), nil
}

// Activate 启动一个待启动的实例，序号最小的阶段进入进行中
// 对已激活实例重复调用返回 Validation，绝不重置在途进度。
func (s *OnboardingCommandService) Activate(ctx context.Context, cmd ActivateOnboardingCommand) (*OnboardingDTO, error) {
	now := time.Now()
	var onboarding *domain.OrganizationOnboarding

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		onboarding, err = s.repo.GetByOrganization(txCtx, cmd.TenantID, cmd.OrganizationID)
		if err != nil {
			return err
		}
		first, err := onboarding.Activate(txCtx, now)
		if err != nil {
			return err
		}
		if err := s.repo.SavePhase(txCtx, first); err != nil {
			return err
		}
		return s.repo.Save(txCtx, onboarding)
	})
	if err != nil {
		return nil, err
	}

	logging.Info(ctx, "onboarding workflow activated",
		"onboarding_id", onboarding.OnboardingID,
		"current_phase_id", onboarding.CurrentPhaseID)
	return toOnboardingDTO(onboarding), nil
}

// SubmitAnswers 提交一批问卷字段答案
// 全部必填字段作答后阶段自动完成并推进到下一阶段。
func (s *OnboardingCommandService) SubmitAnswers(ctx context.Context, cmd SubmitAnswersCommand) (*OnboardingDTO, error) {
	now := time.Now()
	var onboarding *domain.OrganizationOnboarding

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		onboarding, err = s.repo.GetByOrganization(txCtx, cmd.TenantID, cmd.OrganizationID)
		if err != nil {
			return err
		}
		phase, err := s.operablePhase(onboarding, cmd.PhaseID, domain.PhaseCategoryQuestionnaire)
		if err != nil {
			return err
		}
		ext := phase.Questionnaire

		answers := make([]domain.FieldAnswer, 0, len(cmd.Answers))
		for _, answer := range cmd.Answers {
			answers = append(answers, domain.FieldAnswer{FieldID: answer.FieldID, Value: answer.Value})
		}
		if err := ext.SubmitAnswers(answers, now); err != nil {
			return err
		}

		if err := s.repo.SaveQuestionnaire(txCtx, ext); err != nil {
			return err
		}
		for i := range ext.Fields {
			if err := s.repo.SaveField(txCtx, &ext.Fields[i]); err != nil {
				return err
			}
		}

		if ext.RequiredSatisfied() {
			return s.completeAndAdvance(txCtx, onboarding, phase, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info(ctx, "questionnaire answers submitted",
		"onboarding_id", onboarding.OnboardingID,
		"phase_id", cmd.PhaseID,
		"answer_count", len(cmd.Answers),
		"status", onboarding.Status)
	return toOnboardingDTO(onboarding), nil
}

// UploadDocument 登记一次文档上传
// 上传者必须是组织的有效成员；必需文档齐备后阶段自动完成并推进。
func (s *OnboardingCommandService) UploadDocument(ctx context.Context, cmd UploadDocumentCommand) (*OnboardingDTO, error) {
	now := time.Now()
	var onboarding *domain.OrganizationOnboarding

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		onboarding, err = s.repo.GetByOrganization(txCtx, cmd.TenantID, cmd.OrganizationID)
		if err != nil {
			return err
		}
		phase, err := s.operablePhase(onboarding, cmd.PhaseID, domain.PhaseCategoryDocumentation)
		if err != nil {
			return err
		}
		ext := phase.Documentation

		role, err := s.orgs.FindActiveMembership(txCtx, cmd.OrganizationID, cmd.UploaderID)
		if err != nil {
			return err
		}
		if role == "" {
			return domain.Forbiddenf("uploader %s is not an active member of organization %s", cmd.UploaderID, cmd.OrganizationID)
		}

		upload := domain.DocumentUpload{
			DocumentType: cmd.DocumentType,
			URL:          cmd.URL,
			FileName:     cmd.FileName,
		}
		if err := ext.RecordUpload(upload, cmd.UploaderID, now); err != nil {
			return err
		}

		if ext.RequiredSatisfied() {
			ext.CompleteAllStages(now)
			for i := range ext.StageProgress {
				if err := s.repo.SaveStageProgress(txCtx, &ext.StageProgress[i]); err != nil {
					return err
				}
			}
		}
		if err := s.repo.SaveDocumentation(txCtx, ext); err != nil {
			return err
		}

		if ext.RequiredSatisfied() {
			return s.completeAndAdvance(txCtx, onboarding, phase, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info(ctx, "document upload recorded",
		"onboarding_id", onboarding.OnboardingID,
		"phase_id", cmd.PhaseID,
		"document_type", cmd.DocumentType,
		"status", onboarding.Status)
	return toOnboardingDTO(onboarding), nil
}

// ReviewGate 提交一次闸门评审
// 评审记录先落库再结算后果：达到法定批准数推进；拒绝终结实例并停用组织；
// 要求整改只记录并通知，不改变状态机。
func (s *OnboardingCommandService) ReviewGate(ctx context.Context, cmd ReviewGateCommand) (*OnboardingDTO, error) {
	now := time.Now()
	var onboarding *domain.OrganizationOnboarding

	if !cmd.Decision.Valid() {
		return nil, domain.Validationf("unknown review decision %q", cmd.Decision)
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		onboarding, err = s.repo.GetByOrganization(txCtx, cmd.TenantID, cmd.OrganizationID)
		if err != nil {
			return err
		}
		phase, err := s.operablePhase(onboarding, cmd.PhaseID, domain.PhaseCategoryGate)
		if err != nil {
			return err
		}
		gate := phase.Gate

		if gate.HasReviewFrom(cmd.ReviewerID) {
			return domain.Conflictf("reviewer %s already reviewed gate %s", cmd.ReviewerID, phase.PhaseID)
		}

		review := domain.GateReview{
			ReviewID:   fmt.Sprintf("REV-%d", idgen.GenID()),
			PhaseID:    phase.PhaseID,
			ReviewerID: cmd.ReviewerID,
			Decision:   cmd.Decision,
			Notes:      cmd.Notes,
			ReviewedAt: now,
		}
		if err := s.repo.CreateReview(txCtx, &review); err != nil {
			return err
		}
		gate.Reviews = append(gate.Reviews, review)

		switch cmd.Decision {
		case domain.ReviewDecisionApproved:
			gate.RecordApproval()
			if err := s.repo.SaveGate(txCtx, gate); err != nil {
				return err
			}
			if gate.QuorumMet() {
				return s.completeAndAdvance(txCtx, onboarding, phase, now)
			}
			return nil

		case domain.ReviewDecisionRejected:
			gate.RecordRejection(cmd.Notes)
			if err := s.repo.SaveGate(txCtx, gate); err != nil {
				return err
			}
			halted, err := onboarding.Reject(txCtx, cmd.Notes, now)
			if err != nil {
				return err
			}
			if halted != nil {
				if err := s.repo.SavePhase(txCtx, halted); err != nil {
					return err
				}
			}
			if err := s.repo.Save(txCtx, onboarding); err != nil {
				return err
			}
			if err := s.orgs.SetStatus(txCtx, onboarding.OrganizationID, domain.OrgStatusSuspended); err != nil {
				return err
			}
			s.publishInTx(txCtx, domain.OnboardingRejectedEventType, onboarding.OnboardingID, domain.OnboardingRejectedEvent{
				OnboardingID:   onboarding.OnboardingID,
				OrganizationID: onboarding.OrganizationID,
				PhaseID:        phase.PhaseID,
				ReviewerID:     cmd.ReviewerID,
				Reason:         cmd.Notes,
				Timestamp:      now,
			})
			return nil

		default: // CHANGES_REQUESTED
			s.publishInTx(txCtx, domain.OnboardingChangesRequestedEventType, onboarding.OnboardingID, domain.ChangesRequestedEvent{
				OnboardingID:   onboarding.OnboardingID,
				OrganizationID: onboarding.OrganizationID,
				AssigneeID:     onboarding.AssigneeID,
				PhaseID:        phase.PhaseID,
				ReviewerID:     cmd.ReviewerID,
				Notes:          cmd.Notes,
				Timestamp:      now,
			})
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	logging.Info(ctx, "gate review recorded",
		"onboarding_id", onboarding.OnboardingID,
		"phase_id", cmd.PhaseID,
		"reviewer_id", cmd.ReviewerID,
		"decision", cmd.Decision,
		"status", onboarding.Status)
	return toOnboardingDTO(onboarding), nil
}

// Reassign 更换负责人
// 对待启动实例的指派同时触发激活。
func (s *OnboardingCommandService) Reassign(ctx context.Context, cmd ReassignCommand) (*OnboardingDTO, error) {
	now := time.Now()
	var onboarding *domain.OrganizationOnboarding

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		onboarding, err = s.repo.GetByOrganization(txCtx, cmd.TenantID, cmd.OrganizationID)
		if err != nil {
			return err
		}
		if err := onboarding.Reassign(cmd.AssigneeID); err != nil {
			return err
		}
		if onboarding.Status == domain.OnboardingStatusPending {
			first, err := onboarding.Activate(txCtx, now)
			if err != nil {
				return err
			}
			if err := s.repo.SavePhase(txCtx, first); err != nil {
				return err
			}
		}
		if err := s.repo.Save(txCtx, onboarding); err != nil {
			return err
		}

		s.publishInTx(txCtx, domain.OnboardingReassignedEventType, onboarding.OnboardingID, domain.OnboardingReassignedEvent{
			OnboardingID:   onboarding.OnboardingID,
			OrganizationID: onboarding.OrganizationID,
			AssigneeID:     cmd.AssigneeID,
			Timestamp:      now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info(ctx, "onboarding workflow reassigned",
		"onboarding_id", onboarding.OnboardingID,
		"assignee_id", cmd.AssigneeID,
		"status", onboarding.Status)
	return toOnboardingDTO(onboarding), nil
}

// operablePhase 定位请求阶段并校验归属、类别与进行中状态
func (s *OnboardingCommandService) operablePhase(onboarding *domain.OrganizationOnboarding, phaseID string, category domain.PhaseCategory) (*domain.Phase, error) {
	phase := onboarding.PhaseByID(phaseID)
	if phase == nil {
		return nil, domain.Forbiddenf("phase %s does not belong to onboarding %s", phaseID, onboarding.OnboardingID)
	}
	if err := phase.EnsureOperable(category); err != nil {
		return nil, err
	}
	switch category {
	case domain.PhaseCategoryQuestionnaire:
		if phase.Questionnaire == nil {
			return nil, domain.NotFoundf("questionnaire record for phase %s", phaseID)
		}
	case domain.PhaseCategoryDocumentation:
		if phase.Documentation == nil {
			return nil, domain.NotFoundf("documentation record for phase %s", phaseID)
		}
	case domain.PhaseCategoryGate:
		if phase.Gate == nil {
			return nil, domain.NotFoundf("gate record for phase %s", phaseID)
		}
	}
	return phase, nil
}

// completeAndAdvance 完成当前阶段并推进工作流
// 终结时同事务内激活组织；阶段完成与实例终结事件随事务经 Outbox 发出。
func (s *OnboardingCommandService) completeAndAdvance(txCtx context.Context, onboarding *domain.OrganizationOnboarding, phase *domain.Phase, now time.Time) error {
	result, err := onboarding.CompleteAndAdvance(txCtx, phase, now)
	if err != nil {
		return err
	}

	if err := s.repo.SavePhase(txCtx, result.Completed); err != nil {
		return err
	}
	if result.Activated != nil {
		if err := s.repo.SavePhase(txCtx, result.Activated); err != nil {
			return err
		}
	}
	if err := s.repo.Save(txCtx, onboarding); err != nil {
		return err
	}

	nextPhaseID := ""
	if result.Activated != nil {
		nextPhaseID = result.Activated.PhaseID
	}
	s.publishInTx(txCtx, domain.OnboardingPhaseCompletedEventType, onboarding.OnboardingID, domain.PhaseCompletedEvent{
		OnboardingID:   onboarding.OnboardingID,
		OrganizationID: onboarding.OrganizationID,
		AssigneeID:     onboarding.AssigneeID,
		PhaseID:        result.Completed.PhaseID,
		Category:       result.Completed.Category,
		SortOrder:      result.Completed.SortOrder,
		NextPhaseID:    nextPhaseID,
		Timestamp:      now,
	})

	if result.Finished {
		// 组织激活是工作流完成的一部分，失败则整体回滚
		if err := s.orgs.SetStatus(txCtx, onboarding.OrganizationID, domain.OrgStatusActive); err != nil {
			return err
		}
		s.publishInTx(txCtx, domain.OnboardingCompletedEventType, onboarding.OnboardingID, domain.OnboardingCompletedEvent{
			OnboardingID:   onboarding.OnboardingID,
			TenantID:       onboarding.TenantID,
			OrganizationID: onboarding.OrganizationID,
			Timestamp:      now,
		})
	}
	return nil
}

// publishInTx 经 Outbox 在事务内登记事件，失败只记日志不回滚业务写入
func (s *OnboardingCommandService) publishInTx(txCtx context.Context, topic, key string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishInTx(txCtx, contextx.GetTx(txCtx), topic, key, event); err != nil {
		logging.Warn(txCtx, "failed to enqueue onboarding event",
			"topic", topic,
			"key", key,
			"error", err)
	}
}
