// 当前动作投影：只读推导“是什么卡住了流程、该由谁行动”。
// 仅观察状态，发现不一致时标记为系统条件，绝不就地修正。
package domain

// ActionCode 当前应执行的动作
type ActionCode string

const (
	ActionAssignStaff        ActionCode = "ASSIGN_STAFF"        // 需要指派负责人
	ActionStart              ActionCode = "START"               // 等待负责人启动
	ActionQuestionnaire      ActionCode = "QUESTIONNAIRE"       // 等待问卷作答
	ActionDocumentation      ActionCode = "DOCUMENTATION"       // 等待资料上传
	ActionGateReview         ActionCode = "GATE_REVIEW"         // 等待闸门评审
	ActionQuestionnaireStuck ActionCode = "QUESTIONNAIRE_STUCK" // 问卷已满足但阶段未关闭（系统标记）
	ActionComplete           ActionCode = "COMPLETE"            // 已完成
	ActionRejected           ActionCode = "REJECTED"            // 已拒绝
	ActionExpired            ActionCode = "EXPIRED"             // 已过期
	ActionNone               ActionCode = "NONE"
)

// ActorRole 应当行动的角色
type ActorRole string

const (
	ActorAssignee ActorRole = "ASSIGNEE"
	ActorAdmin    ActorRole = "ADMIN"
	ActorSystem   ActorRole = "SYSTEM"
	ActorNone     ActorRole = "NONE"
)

// CurrentAction 投影结果
type CurrentAction struct {
	Code    ActionCode `json:"code"`
	Actor   ActorRole  `json:"actor"`
	PhaseID string     `json:"phase_id,omitempty"`
	// 阻塞细节
	RemainingRequiredFields []string `json:"remaining_required_fields,omitempty"`
	RemainingDocuments      []string `json:"remaining_documents,omitempty"`
	OutstandingApprovals    int      `json:"outstanding_approvals,omitempty"`
	ChangesRequested        bool     `json:"changes_requested,omitempty"`
	// 观察到的状态不一致，由系统侧排查
	Inconsistency string `json:"inconsistency,omitempty"`
}

// DeriveCurrentAction 从实例状态推导当前动作，纯函数，不产生任何写入
func DeriveCurrentAction(o *OrganizationOnboarding) CurrentAction {
	switch o.Status {
	case OnboardingStatusCompleted:
		return CurrentAction{Code: ActionComplete, Actor: ActorNone}
	case OnboardingStatusRejected:
		return CurrentAction{Code: ActionRejected, Actor: ActorNone}
	case OnboardingStatusExpired:
		return CurrentAction{Code: ActionExpired, Actor: ActorNone}
	case OnboardingStatusPending:
		if o.AssigneeID == "" {
			return CurrentAction{Code: ActionAssignStaff, Actor: ActorAdmin}
		}
		return CurrentAction{Code: ActionStart, Actor: ActorAssignee}
	}

	phase := o.ActivePhase()
	if phase == nil {
		return CurrentAction{
			Code:          ActionNone,
			Actor:         ActorSystem,
			Inconsistency: "instance is in progress but no phase is active",
		}
	}

	switch phase.Category {
	case PhaseCategoryQuestionnaire:
		if phase.Questionnaire == nil {
			return missingExtension(phase)
		}
		remaining := phase.Questionnaire.RemainingRequired()
		if len(remaining) == 0 {
			// 必填已齐（或快照无必填字段）但阶段仍未关闭
			return CurrentAction{
				Code:          ActionQuestionnaireStuck,
				Actor:         ActorSystem,
				PhaseID:       phase.PhaseID,
				Inconsistency: "all required fields answered but phase still open",
			}
		}
		return CurrentAction{
			Code:                    ActionQuestionnaire,
			Actor:                   ActorAssignee,
			PhaseID:                 phase.PhaseID,
			RemainingRequiredFields: remaining,
		}
	case PhaseCategoryDocumentation:
		if phase.Documentation == nil {
			return missingExtension(phase)
		}
		action := CurrentAction{
			Code:               ActionDocumentation,
			Actor:              ActorAssignee,
			PhaseID:            phase.PhaseID,
			RemainingDocuments: phase.Documentation.RemainingRequired(),
		}
		if len(action.RemainingDocuments) == 0 {
			action.Actor = ActorSystem
			action.Inconsistency = "all required documents uploaded but phase still open"
		}
		return action
	case PhaseCategoryGate:
		if phase.Gate == nil {
			return missingExtension(phase)
		}
		changesRequested := false
		for i := range phase.Gate.Reviews {
			if phase.Gate.Reviews[i].Decision == ReviewDecisionChangesRequested {
				changesRequested = true
				break
			}
		}
		return CurrentAction{
			Code:                 ActionGateReview,
			Actor:                ActorAdmin,
			PhaseID:              phase.PhaseID,
			OutstandingApprovals: phase.Gate.OutstandingApprovals(),
			ChangesRequested:     changesRequested,
		}
	}

	return CurrentAction{Code: ActionNone, Actor: ActorNone, PhaseID: phase.PhaseID}
}

func missingExtension(phase *Phase) CurrentAction {
	return CurrentAction{
		Code:          ActionNone,
		Actor:         ActorSystem,
		PhaseID:       phase.PhaseID,
		Inconsistency: "phase has no extension record for its category",
	}
}
