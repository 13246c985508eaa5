package domain

import (
	"context"
	"testing"
	"time"
)

func TestDeriveCurrentActionTerminalAndPending(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(o *OrganizationOnboarding)
		wantCode ActionCode
		wantRole ActorRole
	}{
		{
			name:     "pending without assignee needs staffing",
			mutate:   func(o *OrganizationOnboarding) {},
			wantCode: ActionAssignStaff,
			wantRole: ActorAdmin,
		},
		{
			name:     "pending with assignee waits for start",
			mutate:   func(o *OrganizationOnboarding) { o.AssigneeID = "staff-1" },
			wantCode: ActionStart,
			wantRole: ActorAssignee,
		},
		{
			name:     "completed",
			mutate:   func(o *OrganizationOnboarding) { o.Status = OnboardingStatusCompleted },
			wantCode: ActionComplete,
			wantRole: ActorNone,
		},
		{
			name:     "rejected",
			mutate:   func(o *OrganizationOnboarding) { o.Status = OnboardingStatusRejected },
			wantCode: ActionRejected,
			wantRole: ActorNone,
		},
		{
			name:     "expired",
			mutate:   func(o *OrganizationOnboarding) { o.Status = OnboardingStatusExpired },
			wantCode: ActionExpired,
			wantRole: ActorNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOnboardingForTest(1)
			tt.mutate(o)
			action := DeriveCurrentAction(o)
			if action.Code != tt.wantCode || action.Actor != tt.wantRole {
				t.Errorf("DeriveCurrentAction() = %s/%s, want %s/%s", action.Code, action.Actor, tt.wantCode, tt.wantRole)
			}
		})
	}
}

func TestDeriveCurrentActionInProgress(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("no active phase is an inconsistency", func(t *testing.T) {
		o := newOnboardingForTest(1)
		o.Status = OnboardingStatusInProgress
		action := DeriveCurrentAction(o)
		if action.Code != ActionNone || action.Actor != ActorSystem {
			t.Errorf("action = %s/%s, want NONE/SYSTEM", action.Code, action.Actor)
		}
		if action.Inconsistency == "" {
			t.Error("no inconsistency reported")
		}
	})

	t.Run("questionnaire reports remaining required fields", func(t *testing.T) {
		o := newOnboardingForTest(1)
		o.Phases[0].Questionnaire = newQuestionnaireForTest([]QuestionSnapshot{
			{Key: "company_name", Type: QuestionTypeText, Required: true},
			{Key: "note", Type: QuestionTypeText, Required: false},
		})
		if _, err := o.Activate(ctx, now); err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		action := DeriveCurrentAction(o)
		if action.Code != ActionQuestionnaire || action.Actor != ActorAssignee {
			t.Errorf("action = %s/%s, want QUESTIONNAIRE/ASSIGNEE", action.Code, action.Actor)
		}
		if len(action.RemainingRequiredFields) != 1 || action.RemainingRequiredFields[0] != "company_name" {
			t.Errorf("RemainingRequiredFields = %v", action.RemainingRequiredFields)
		}
	})

	t.Run("satisfied questionnaire still open is stuck", func(t *testing.T) {
		o := newOnboardingForTest(1)
		ext := newQuestionnaireForTest([]QuestionSnapshot{
			{Key: "company_name", Type: QuestionTypeText, Required: true},
		})
		o.Phases[0].Questionnaire = ext
		if _, err := o.Activate(ctx, now); err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		if err := ext.SubmitAnswers([]FieldAnswer{{FieldID: "FLD-a", Value: "Acme"}}, now); err != nil {
			t.Fatalf("SubmitAnswers() error = %v", err)
		}
		action := DeriveCurrentAction(o)
		if action.Code != ActionQuestionnaireStuck || action.Actor != ActorSystem {
			t.Errorf("action = %s/%s, want QUESTIONNAIRE_STUCK/SYSTEM", action.Code, action.Actor)
		}
		if action.Inconsistency == "" {
			t.Error("stuck questionnaire must carry an inconsistency note")
		}
	})

	t.Run("documentation reports missing documents", func(t *testing.T) {
		o := newOnboardingForTest(1)
		o.Phases[0].Category = PhaseCategoryDocumentation
		o.Phases[0].Documentation = newDocumentationForTest()
		if _, err := o.Activate(ctx, now); err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		action := DeriveCurrentAction(o)
		if action.Code != ActionDocumentation || action.Actor != ActorAssignee {
			t.Errorf("action = %s/%s, want DOCUMENTATION/ASSIGNEE", action.Code, action.Actor)
		}
		if len(action.RemainingDocuments) != 2 {
			t.Errorf("RemainingDocuments = %v, want 2 entries", action.RemainingDocuments)
		}
	})

	t.Run("gate reports outstanding approvals and change requests", func(t *testing.T) {
		o := newOnboardingForTest(1)
		o.Phases[0].Category = PhaseCategoryGate
		o.Phases[0].Gate = &GatePhase{
			PhaseID:           o.Phases[0].PhaseID,
			RequiredApprovals: 2,
			ApprovalCount:     1,
			Reviews: []GateReview{
				{ReviewerID: "admin-1", Decision: ReviewDecisionApproved},
				{ReviewerID: "admin-2", Decision: ReviewDecisionChangesRequested},
			},
		}
		if _, err := o.Activate(ctx, now); err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		action := DeriveCurrentAction(o)
		if action.Code != ActionGateReview || action.Actor != ActorAdmin {
			t.Errorf("action = %s/%s, want GATE_REVIEW/ADMIN", action.Code, action.Actor)
		}
		if action.OutstandingApprovals != 1 {
			t.Errorf("OutstandingApprovals = %d, want 1", action.OutstandingApprovals)
		}
		if !action.ChangesRequested {
			t.Error("ChangesRequested = false with a pending change request")
		}
	})

	t.Run("missing extension is reported not repaired", func(t *testing.T) {
		o := newOnboardingForTest(1)
		if _, err := o.Activate(ctx, now); err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		action := DeriveCurrentAction(o)
		if action.Actor != ActorSystem || action.Inconsistency == "" {
			t.Errorf("action = %+v, want system inconsistency", action)
		}
	})
}
