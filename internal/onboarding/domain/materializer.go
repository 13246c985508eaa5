// 实例化器：把解析后的模板深拷贝为工作流阶段及其类别扩展。
// 阶段序号按模板排序重新编为连续的 1..N；快照在此刻固化。
package domain

import (
	"fmt"
	"sort"

	"github.com/wyfcoding/pkg/idgen"
)

// MaterializePhases 从解析后的模板生成全部阶段
// 每个阶段恰有一个与类别匹配的扩展记录；资料阶段记录其前序问卷阶段的血缘。
func MaterializePhases(onboardingID string, flow *ResolvedFlow) ([]Phase, error) {
	resolved := make([]ResolvedPhase, len(flow.Phases))
	copy(resolved, flow.Phases)
	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].Definition.SortOrder < resolved[j].Definition.SortOrder
	})

	phases := make([]Phase, 0, len(resolved))
	lastQuestionnaireID := ""
	for i, rp := range resolved {
		phase := Phase{
			PhaseID:          fmt.Sprintf("PH-%d", idgen.GenID()),
			OnboardingID:     onboardingID,
			SortOrder:        i + 1,
			Category:         rp.Definition.Category,
			Status:           PhaseStatusPending,
			RequiresPrevious: rp.Definition.RequiresPrevious,
		}

		switch rp.Definition.Category {
		case PhaseCategoryQuestionnaire:
			if rp.Questionnaire == nil {
				return nil, Validationf("template phase %d references missing questionnaire plan %s", rp.Definition.SortOrder, rp.Definition.PlanID)
			}
			questions := QuestionSnapshotsFromPlan(rp.Questionnaire)
			ext := &QuestionnairePhase{
				PhaseID:       phase.PhaseID,
				QuestionsJSON: marshalJSON(questions),
			}
			for _, question := range questions {
				ext.Fields = append(ext.Fields, QuestionnaireField{
					FieldID:     fmt.Sprintf("FLD-%d", idgen.GenID()),
					PhaseID:     phase.PhaseID,
					QuestionKey: question.Key,
					Required:    question.Required,
				})
			}
			phase.Questionnaire = ext
			lastQuestionnaireID = phase.PhaseID

		case PhaseCategoryDocumentation:
			if rp.Documentation == nil {
				return nil, Validationf("template phase %d references missing documentation plan %s", rp.Definition.SortOrder, rp.Definition.PlanID)
			}
			documents := DocumentSnapshotsFromPlan(rp.Documentation)
			required := 0
			for _, doc := range documents {
				if doc.Required {
					required++
				}
			}
			stages := StageSnapshotsFromPlan(rp.Documentation)
			sort.Slice(stages, func(a, b int) bool {
				return stages[a].SortOrder < stages[b].SortOrder
			})
			ext := &DocumentationPhase{
				PhaseID:                phase.PhaseID,
				DocumentsJSON:          marshalJSON(documents),
				StagesJSON:             marshalJSON(stages),
				RequiredDocumentsCount: required,
				SourceQuestionnaireID:  lastQuestionnaireID,
			}
			for j, stage := range stages {
				status := StageStatusPending
				if j == 0 {
					status = StageStatusInProgress
				}
				ext.StageProgress = append(ext.StageProgress, ApprovalStageProgress{
					PhaseID:   phase.PhaseID,
					SortOrder: stage.SortOrder,
					Name:      stage.Name,
					Status:    status,
				})
			}
			phase.Documentation = ext

		case PhaseCategoryGate:
			if rp.Gate == nil {
				return nil, Validationf("template phase %d references missing gate plan %s", rp.Definition.SortOrder, rp.Definition.PlanID)
			}
			requiredApprovals := rp.Gate.RequiredApprovals
			if requiredApprovals < 1 {
				requiredApprovals = 1
			}
			phase.Gate = &GatePhase{
				PhaseID:           phase.PhaseID,
				RequiredApprovals: requiredApprovals,
				ReviewerRole:      rp.Gate.ReviewerRole,
			}

		default:
			return nil, Validationf("template phase %d has unknown category %q", rp.Definition.SortOrder, rp.Definition.Category)
		}

		phases = append(phases, phase)
	}
	return phases, nil
}
