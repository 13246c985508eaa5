package domain

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newOnboardingForTest(phaseCount int) *OrganizationOnboarding {
	flow := &ResolvedFlow{Template: &FlowTemplate{TemplateID: "TPL-1", Name: "standard", OrgType: "BANK"}}
	o := NewOrganizationOnboarding("ONB-1", "tenant-1", "ORG-1", flow, time.Now())
	categories := []PhaseCategory{PhaseCategoryQuestionnaire, PhaseCategoryDocumentation, PhaseCategoryGate}
	for i := 0; i < phaseCount; i++ {
		o.Phases = append(o.Phases, Phase{
			PhaseID:   "PH-" + string(rune('1'+i)),
			SortOrder: i + 1,
			Category:  categories[i%len(categories)],
			Status:    PhaseStatusPending,
		})
	}
	return o
}

func TestOnboardingActivate(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("no phases", func(t *testing.T) {
		o := newOnboardingForTest(0)
		if _, err := o.Activate(ctx, now); err == nil {
			t.Error("Activate() with no phases succeeded")
		}
	})

	t.Run("activates lowest order phase", func(t *testing.T) {
		o := newOnboardingForTest(3)
		first, err := o.Activate(ctx, now)
		if err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		if o.Status != OnboardingStatusInProgress {
			t.Errorf("status = %s, want IN_PROGRESS", o.Status)
		}
		if first.PhaseID != "PH-1" || first.Status != PhaseStatusInProgress {
			t.Errorf("first phase = %s/%s, want PH-1/IN_PROGRESS", first.PhaseID, first.Status)
		}
		if o.CurrentPhaseID != "PH-1" {
			t.Errorf("CurrentPhaseID = %s, want PH-1", o.CurrentPhaseID)
		}
	})

	t.Run("double activation fails without resetting progress", func(t *testing.T) {
		o := newOnboardingForTest(3)
		if _, err := o.Activate(ctx, now); err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		_, err := o.Activate(ctx, now)
		if err == nil {
			t.Fatal("second Activate() succeeded")
		}
		if !errors.Is(err, ErrValidation) {
			t.Errorf("error = %v, want validation", err)
		}
		if o.Status != OnboardingStatusInProgress || o.CurrentPhaseID != "PH-1" {
			t.Errorf("state mutated by failed activation: status=%s current=%s", o.Status, o.CurrentPhaseID)
		}
	})
}

func TestOnboardingCompleteAndAdvance(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	o := newOnboardingForTest(3)
	if _, err := o.Activate(ctx, now); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	// 第一阶段完成，第二阶段激活
	result, err := o.CompleteAndAdvance(ctx, o.PhaseByID("PH-1"), now)
	if err != nil {
		t.Fatalf("CompleteAndAdvance() error = %v", err)
	}
	if result.Finished {
		t.Error("Finished = true with phases remaining")
	}
	if result.Activated == nil || result.Activated.PhaseID != "PH-2" {
		t.Fatalf("Activated = %+v, want PH-2", result.Activated)
	}
	if o.CurrentPhaseID != "PH-2" {
		t.Errorf("CurrentPhaseID = %s, want PH-2", o.CurrentPhaseID)
	}
	if active := o.ActivePhase(); active == nil || active.PhaseID != "PH-2" {
		t.Errorf("ActivePhase() = %v, want PH-2", active)
	}

	// 未激活阶段不可完成
	if _, err := o.CompleteAndAdvance(ctx, o.PhaseByID("PH-3"), now); err == nil {
		t.Error("CompleteAndAdvance() on pending phase succeeded")
	}

	if _, err := o.CompleteAndAdvance(ctx, o.PhaseByID("PH-2"), now); err != nil {
		t.Fatalf("CompleteAndAdvance() error = %v", err)
	}

	// 最后阶段完成，实例终结
	result, err = o.CompleteAndAdvance(ctx, o.PhaseByID("PH-3"), now)
	if err != nil {
		t.Fatalf("CompleteAndAdvance() error = %v", err)
	}
	if !result.Finished || result.Activated != nil {
		t.Errorf("result = %+v, want finished with no activation", result)
	}
	if o.Status != OnboardingStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", o.Status)
	}
	if o.CompletedAt == nil || o.ApprovedAt == nil {
		t.Error("completion timestamps not set")
	}
}

func TestOnboardingReject(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	o := newOnboardingForTest(2)
	if _, err := o.Activate(ctx, now); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	halted, err := o.Reject(ctx, "failed compliance review", now)
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if o.Status != OnboardingStatusRejected {
		t.Errorf("status = %s, want REJECTED", o.Status)
	}
	if o.RejectionReason != "failed compliance review" {
		t.Errorf("RejectionReason = %q", o.RejectionReason)
	}

	// 终态实例不保留进行中的阶段
	if halted == nil || halted.PhaseID != "PH-1" || halted.Status != PhaseStatusPending {
		t.Errorf("halted phase = %+v, want PH-1 back to PENDING", halted)
	}
	if active := o.ActivePhase(); active != nil {
		t.Errorf("ActivePhase() = %s on rejected instance, want none", active.PhaseID)
	}

	// 终态不可再迁移
	if _, err := o.Reject(ctx, "again", now); err == nil {
		t.Error("Reject() on terminal instance succeeded")
	}
	if _, err := o.Activate(ctx, now); err == nil {
		t.Error("Activate() on terminal instance succeeded")
	}
}

func TestOnboardingRejectWithoutActivePhase(t *testing.T) {
	ctx := context.Background()
	o := newOnboardingForTest(1)
	halted, err := o.Reject(ctx, "never started", time.Now())
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if halted != nil {
		t.Errorf("halted phase = %+v on pending instance, want none", halted)
	}
}

func TestOnboardingExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	o := newOnboardingForTest(2)
	if _, err := o.Activate(ctx, now); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	halted, err := o.Expire(ctx)
	if err != nil {
		t.Fatalf("Expire() error = %v", err)
	}
	if o.Status != OnboardingStatusExpired {
		t.Errorf("status = %s, want EXPIRED", o.Status)
	}
	if halted == nil || halted.Status != PhaseStatusPending {
		t.Errorf("halted phase = %+v, want active phase back to PENDING", halted)
	}
	if active := o.ActivePhase(); active != nil {
		t.Errorf("ActivePhase() = %s on expired instance, want none", active.PhaseID)
	}
}

func TestOnboardingReassign(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	o := newOnboardingForTest(2)
	if err := o.Reassign("staff-1"); err != nil {
		t.Fatalf("Reassign() error = %v", err)
	}
	if o.AssigneeID != "staff-1" {
		t.Errorf("AssigneeID = %s, want staff-1", o.AssigneeID)
	}

	if _, err := o.Activate(ctx, now); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := o.Reassign("staff-2"); err != nil {
		t.Fatalf("Reassign() in progress error = %v", err)
	}
	// 指派变更不触碰阶段状态
	if active := o.ActivePhase(); active == nil || active.PhaseID != "PH-1" {
		t.Errorf("ActivePhase() = %v, want PH-1 untouched", active)
	}

	if _, err := o.Reject(ctx, "no", now); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if err := o.Reassign("staff-3"); err == nil {
		t.Error("Reassign() on terminal instance succeeded")
	}
}

func TestOnboardingStatusTerminal(t *testing.T) {
	tests := []struct {
		status OnboardingStatus
		want   bool
	}{
		{OnboardingStatusPending, false},
		{OnboardingStatusInProgress, false},
		{OnboardingStatusCompleted, true},
		{OnboardingStatusRejected, true},
		{OnboardingStatusExpired, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}
