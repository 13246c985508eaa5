package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newQuestionnaireForTest(questions []QuestionSnapshot) *QuestionnairePhase {
	ext := &QuestionnairePhase{
		PhaseID:       "PH-1",
		QuestionsJSON: marshalJSON(questions),
	}
	for i, q := range questions {
		ext.Fields = append(ext.Fields, QuestionnaireField{
			FieldID:     "FLD-" + string(rune('a'+i)),
			PhaseID:     "PH-1",
			QuestionKey: q.Key,
			Required:    q.Required,
		})
	}
	return ext
}

func TestQuestionnaireSubmitAnswers(t *testing.T) {
	questions := []QuestionSnapshot{
		{Key: "company_name", Type: QuestionTypeText, Required: true},
		{Key: "loan_volume", Type: QuestionTypeCurrency, Required: true, MinValue: "1000", MaxValue: "5000000"},
		{Key: "founded_on", Type: QuestionTypeDate, Required: false},
		{Key: "org_kind", Type: QuestionTypeSelect, Required: true, Options: []string{"BANK", "DEVELOPER"}},
		{Key: "licensed", Type: QuestionTypeBoolean, Required: false},
		{Key: "tax_id", Type: QuestionTypeText, Required: false, Pattern: `^\d{9}$`},
	}
	now := time.Now()

	tests := []struct {
		name    string
		answers []FieldAnswer
		wantErr string
	}{
		{
			name:    "valid text answer",
			answers: []FieldAnswer{{FieldID: "FLD-a", Value: "Acme Mortgage"}},
		},
		{
			name:    "unknown field ids are aggregated",
			answers: []FieldAnswer{{FieldID: "FLD-x", Value: "1"}, {FieldID: "FLD-y", Value: "2"}},
			wantErr: "unknown field ids: FLD-x, FLD-y",
		},
		{
			name:    "currency below minimum",
			answers: []FieldAnswer{{FieldID: "FLD-b", Value: "999.99"}},
			wantErr: "below minimum",
		},
		{
			name:    "currency above maximum",
			answers: []FieldAnswer{{FieldID: "FLD-b", Value: "5000000.01"}},
			wantErr: "above maximum",
		},
		{
			name:    "currency not numeric",
			answers: []FieldAnswer{{FieldID: "FLD-b", Value: "lots"}},
			wantErr: "expects a numeric value",
		},
		{
			name:    "invalid date",
			answers: []FieldAnswer{{FieldID: "FLD-c", Value: "31-12-2020"}},
			wantErr: "expects a date",
		},
		{
			name:    "select outside options",
			answers: []FieldAnswer{{FieldID: "FLD-d", Value: "PLATFORM"}},
			wantErr: "expects one of",
		},
		{
			name:    "boolean must be true or false",
			answers: []FieldAnswer{{FieldID: "FLD-e", Value: "yes"}},
			wantErr: "expects true or false",
		},
		{
			name:    "pattern mismatch",
			answers: []FieldAnswer{{FieldID: "FLD-f", Value: "12345"}},
			wantErr: "does not match required pattern",
		},
		{
			name: "batch of valid answers",
			answers: []FieldAnswer{
				{FieldID: "FLD-b", Value: "250000"},
				{FieldID: "FLD-c", Value: "2019-04-30"},
				{FieldID: "FLD-d", Value: "BANK"},
				{FieldID: "FLD-e", Value: "true"},
				{FieldID: "FLD-f", Value: "123456789"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := newQuestionnaireForTest(questions)
			err := ext.SubmitAnswers(tt.answers, now)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("SubmitAnswers() error = %v", err)
				}
				if ext.CompletedFieldsCount != len(tt.answers) {
					t.Errorf("CompletedFieldsCount = %d, want %d", ext.CompletedFieldsCount, len(tt.answers))
				}
				return
			}
			if err == nil {
				t.Fatal("SubmitAnswers() expected error, got nil")
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("error %v is not a validation error", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestQuestionnaireRequiredSatisfied(t *testing.T) {
	questions := []QuestionSnapshot{
		{Key: "a", Type: QuestionTypeText, Required: true},
		{Key: "b", Type: QuestionTypeText, Required: false},
	}
	now := time.Now()

	ext := newQuestionnaireForTest(questions)
	if ext.RequiredSatisfied() {
		t.Error("RequiredSatisfied() = true before any answer")
	}

	// 只答选填字段不满足
	if err := ext.SubmitAnswers([]FieldAnswer{{FieldID: "FLD-b", Value: "optional"}}, now); err != nil {
		t.Fatalf("SubmitAnswers() error = %v", err)
	}
	if ext.RequiredSatisfied() {
		t.Error("RequiredSatisfied() = true with required field unanswered")
	}
	if got := ext.RemainingRequired(); len(got) != 1 || got[0] != "a" {
		t.Errorf("RemainingRequired() = %v, want [a]", got)
	}

	if err := ext.SubmitAnswers([]FieldAnswer{{FieldID: "FLD-a", Value: "done"}}, now); err != nil {
		t.Fatalf("SubmitAnswers() error = %v", err)
	}
	if !ext.RequiredSatisfied() {
		t.Error("RequiredSatisfied() = false with all required answered")
	}
}

func TestQuestionnaireZeroRequiredNeverSatisfied(t *testing.T) {
	questions := []QuestionSnapshot{
		{Key: "a", Type: QuestionTypeText, Required: false},
	}
	ext := newQuestionnaireForTest(questions)
	if err := ext.SubmitAnswers([]FieldAnswer{{FieldID: "FLD-a", Value: "x"}}, time.Now()); err != nil {
		t.Fatalf("SubmitAnswers() error = %v", err)
	}
	// 零必填问卷不会自动完成
	if ext.RequiredSatisfied() {
		t.Error("RequiredSatisfied() = true for questionnaire without required fields")
	}
}

func newDocumentationForTest() *DocumentationPhase {
	documents := []DocumentSnapshot{
		{DocumentType: "BUSINESS_LICENSE", Required: true, AutoApprove: true},
		{DocumentType: "TAX_CERTIFICATE", Required: true, AutoApprove: true},
		{DocumentType: "BROCHURE", Required: false, AutoApprove: true},
	}
	stages := []StageSnapshot{
		{SortOrder: 1, Name: "initial review"},
		{SortOrder: 2, Name: "final review"},
	}
	return &DocumentationPhase{
		PhaseID:                "PH-2",
		DocumentsJSON:          marshalJSON(documents),
		StagesJSON:             marshalJSON(stages),
		RequiredDocumentsCount: 2,
		StageProgress: []ApprovalStageProgress{
			{PhaseID: "PH-2", SortOrder: 1, Name: "initial review", Status: StageStatusInProgress},
			{PhaseID: "PH-2", SortOrder: 2, Name: "final review", Status: StageStatusPending},
		},
	}
}

func TestDocumentationRecordUpload(t *testing.T) {
	now := time.Now()

	t.Run("unknown type lists valid types", func(t *testing.T) {
		ext := newDocumentationForTest()
		err := ext.RecordUpload(DocumentUpload{DocumentType: "PASSPORT", URL: "s3://x"}, "user-1", now)
		if err == nil || !errors.Is(err, ErrValidation) {
			t.Fatalf("RecordUpload() error = %v, want validation", err)
		}
		if !strings.Contains(err.Error(), "BUSINESS_LICENSE") {
			t.Errorf("error %q does not list valid types", err.Error())
		}
	})

	t.Run("duplicate upload rejected", func(t *testing.T) {
		ext := newDocumentationForTest()
		upload := DocumentUpload{DocumentType: "BUSINESS_LICENSE", URL: "s3://a", FileName: "license.pdf"}
		if err := ext.RecordUpload(upload, "user-1", now); err != nil {
			t.Fatalf("first RecordUpload() error = %v", err)
		}
		err := ext.RecordUpload(upload, "user-1", now)
		if err == nil || !errors.Is(err, ErrValidation) {
			t.Fatalf("second RecordUpload() error = %v, want validation", err)
		}
		if !strings.Contains(err.Error(), "already uploaded") {
			t.Errorf("error = %q, want already uploaded", err.Error())
		}
	})

	t.Run("optional upload does not advance required count", func(t *testing.T) {
		ext := newDocumentationForTest()
		if err := ext.RecordUpload(DocumentUpload{DocumentType: "BROCHURE", URL: "s3://b"}, "user-1", now); err != nil {
			t.Fatalf("RecordUpload() error = %v", err)
		}
		if ext.ApprovedDocumentsCount != 0 {
			t.Errorf("ApprovedDocumentsCount = %d, want 0", ext.ApprovedDocumentsCount)
		}
		if ext.RequiredSatisfied() {
			t.Error("RequiredSatisfied() = true with required documents missing")
		}
	})

	t.Run("all required uploads satisfy the phase", func(t *testing.T) {
		ext := newDocumentationForTest()
		for _, docType := range []string{"BUSINESS_LICENSE", "TAX_CERTIFICATE"} {
			if err := ext.RecordUpload(DocumentUpload{DocumentType: docType, URL: "s3://" + docType}, "user-1", now); err != nil {
				t.Fatalf("RecordUpload(%s) error = %v", docType, err)
			}
		}
		if ext.ApprovedDocumentsCount != 2 {
			t.Errorf("ApprovedDocumentsCount = %d, want 2", ext.ApprovedDocumentsCount)
		}
		if !ext.RequiredSatisfied() {
			t.Error("RequiredSatisfied() = false after all required uploads")
		}
		if remaining := ext.RemainingRequired(); len(remaining) != 0 {
			t.Errorf("RemainingRequired() = %v, want empty", remaining)
		}

		ext.CompleteAllStages(now)
		for _, stage := range ext.StageProgress {
			if stage.Status != StageStatusCompleted {
				t.Errorf("stage %d status = %s, want COMPLETED", stage.SortOrder, stage.Status)
			}
			if stage.CompletedAt == nil {
				t.Errorf("stage %d has no completion time", stage.SortOrder)
			}
		}
	})

	t.Run("ledger retains uploader and file name", func(t *testing.T) {
		ext := newDocumentationForTest()
		if err := ext.RecordUpload(DocumentUpload{DocumentType: "BUSINESS_LICENSE", URL: "s3://a", FileName: "license.pdf"}, "user-7", now); err != nil {
			t.Fatalf("RecordUpload() error = %v", err)
		}
		documents, err := ext.Documents()
		if err != nil {
			t.Fatalf("Documents() error = %v", err)
		}
		var entry *DocumentSnapshot
		for i := range documents {
			if documents[i].DocumentType == "BUSINESS_LICENSE" {
				entry = &documents[i]
			}
		}
		if entry == nil || !entry.Uploaded() {
			t.Fatal("ledger entry not marked uploaded")
		}
		if entry.UploadedByID != "user-7" || entry.FileName != "license.pdf" {
			t.Errorf("ledger entry = %+v, want uploader user-7 and license.pdf", entry)
		}
	})
}

func TestGatePhaseQuorum(t *testing.T) {
	gate := &GatePhase{PhaseID: "PH-3", RequiredApprovals: 2}

	if gate.QuorumMet() {
		t.Error("QuorumMet() = true with no approvals")
	}
	if got := gate.OutstandingApprovals(); got != 2 {
		t.Errorf("OutstandingApprovals() = %d, want 2", got)
	}

	gate.RecordApproval()
	if gate.QuorumMet() {
		t.Error("QuorumMet() = true with 1 of 2 approvals")
	}
	gate.RecordApproval()
	if !gate.QuorumMet() {
		t.Error("QuorumMet() = false with 2 of 2 approvals")
	}
	if got := gate.OutstandingApprovals(); got != 0 {
		t.Errorf("OutstandingApprovals() = %d, want 0", got)
	}

	gate.Reviews = append(gate.Reviews, GateReview{ReviewerID: "admin-1", Decision: ReviewDecisionApproved})
	if !gate.HasReviewFrom("admin-1") {
		t.Error("HasReviewFrom(admin-1) = false")
	}
	if gate.HasReviewFrom("admin-2") {
		t.Error("HasReviewFrom(admin-2) = true")
	}

	gate.RecordRejection("incomplete documents")
	if gate.RejectionCount != 1 || gate.RejectionReason != "incomplete documents" {
		t.Errorf("rejection not recorded: count=%d reason=%q", gate.RejectionCount, gate.RejectionReason)
	}
}

func TestPhaseLifecycle(t *testing.T) {
	now := time.Now()
	phase := &Phase{PhaseID: "PH-1", Category: PhaseCategoryQuestionnaire, Status: PhaseStatusPending}

	if err := phase.Complete(now); err == nil {
		t.Error("Complete() on pending phase succeeded")
	}
	if err := phase.Activate(now); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := phase.Activate(now); err == nil {
		t.Error("second Activate() succeeded")
	}

	if err := phase.EnsureOperable(PhaseCategoryGate); err == nil {
		t.Error("EnsureOperable() accepted mismatched category")
	}
	if err := phase.EnsureOperable(PhaseCategoryQuestionnaire); err != nil {
		t.Errorf("EnsureOperable() error = %v", err)
	}

	if err := phase.Complete(now); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if err := phase.EnsureOperable(PhaseCategoryQuestionnaire); err == nil {
		t.Error("EnsureOperable() accepted completed phase")
	}
}
