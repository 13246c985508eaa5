// 阶段实体及三类扩展记录：问卷、资料、闸门。
// 扩展记录与阶段一一对应，类别决定哪个扩展非空；快照字段在实例化时写入后不再变更结构。
package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PhaseStatus 阶段状态
type PhaseStatus string

const (
	PhaseStatusPending    PhaseStatus = "PENDING"     // 未激活
	PhaseStatusInProgress PhaseStatus = "IN_PROGRESS" // 进行中
	PhaseStatusCompleted  PhaseStatus = "COMPLETED"   // 已完成
)

// StageStatus 资料审批阶段状态
type StageStatus string

const (
	StageStatusPending    StageStatus = "PENDING"
	StageStatusInProgress StageStatus = "IN_PROGRESS"
	StageStatusCompleted  StageStatus = "COMPLETED"
)

// Phase 工作流实例中的单个阶段
// SortOrder 在实例内唯一且连续（1..N）。
type Phase struct {
	gorm.Model
	PhaseID          string        `gorm:"column:phase_id;type:varchar(64);uniqueIndex;not null" json:"phase_id"`
	OnboardingID     string        `gorm:"column:onboarding_id;type:varchar(64);index;not null" json:"onboarding_id"`
	SortOrder        int           `gorm:"column:sort_order;not null" json:"sort_order"`
	Category         PhaseCategory `gorm:"column:category;type:varchar(20);not null" json:"category"`
	Status           PhaseStatus   `gorm:"column:status;type:varchar(20);not null;default:'PENDING'" json:"status"`
	RequiresPrevious bool          `gorm:"column:requires_previous;default:true" json:"requires_previous"`
	ActivatedAt      *time.Time    `gorm:"column:activated_at" json:"activated_at"`
	CompletedAt      *time.Time    `gorm:"column:completed_at" json:"completed_at"`

	Questionnaire *QuestionnairePhase `gorm:"foreignKey:PhaseID;references:PhaseID" json:"questionnaire,omitempty"`
	Documentation *DocumentationPhase `gorm:"foreignKey:PhaseID;references:PhaseID" json:"documentation,omitempty"`
	Gate          *GatePhase          `gorm:"foreignKey:PhaseID;references:PhaseID" json:"gate,omitempty"`
}

// TableName 表名
func (Phase) TableName() string {
	return "onboarding_phases"
}

// Activate 将阶段置为进行中
func (p *Phase) Activate(now time.Time) error {
	if p.Status != PhaseStatusPending {
		return Validationf("phase %s cannot be activated from status %s", p.PhaseID, p.Status)
	}
	p.Status = PhaseStatusInProgress
	p.ActivatedAt = &now
	return nil
}

// Complete 将阶段置为已完成
func (p *Phase) Complete(now time.Time) error {
	if p.Status != PhaseStatusInProgress {
		return Validationf("phase %s cannot be completed from status %s", p.PhaseID, p.Status)
	}
	p.Status = PhaseStatusCompleted
	p.CompletedAt = &now
	return nil
}

// EnsureOperable 校验阶段处于进行中且类别匹配，是三类处理器共享的前置条件
func (p *Phase) EnsureOperable(category PhaseCategory) error {
	if p.Category != category {
		return Validationf("phase %s is %s, operation requires %s", p.PhaseID, p.Category, category)
	}
	if p.Status != PhaseStatusInProgress {
		return Validationf("phase %s is not in progress (status %s)", p.PhaseID, p.Status)
	}
	return nil
}

// QuestionnairePhase 问卷阶段扩展
// Questions 快照在实例化时写入；Fields 是随答题变化的活动记录。
type QuestionnairePhase struct {
	gorm.Model
	PhaseID              string `gorm:"column:phase_id;type:varchar(64);uniqueIndex;not null" json:"phase_id"`
	QuestionsJSON        string `gorm:"column:questions;type:json;not null" json:"-"`
	CompletedFieldsCount int    `gorm:"column:completed_fields_count;not null;default:0" json:"completed_fields_count"`

	Fields []QuestionnaireField `gorm:"foreignKey:PhaseID;references:PhaseID" json:"fields"`
}

// TableName 表名
func (QuestionnairePhase) TableName() string {
	return "onboarding_questionnaire_phases"
}

// QuestionnaireField 问卷字段活动记录
type QuestionnaireField struct {
	gorm.Model
	FieldID     string     `gorm:"column:field_id;type:varchar(64);uniqueIndex;not null" json:"field_id"`
	PhaseID     string     `gorm:"column:phase_id;type:varchar(64);index;not null" json:"phase_id"`
	QuestionKey string     `gorm:"column:question_key;type:varchar(64);not null" json:"question_key"`
	Required    bool       `gorm:"column:required;default:false" json:"required"`
	Answer      *string    `gorm:"column:answer;type:text" json:"answer"`
	SubmittedAt *time.Time `gorm:"column:submitted_at" json:"submitted_at"`
}

// TableName 表名
func (QuestionnaireField) TableName() string {
	return "onboarding_questionnaire_fields"
}

// Answered 字段是否已有非空答案
func (f *QuestionnaireField) Answered() bool {
	return f.Answer != nil
}

// Questions 解析问题快照
func (q *QuestionnairePhase) Questions() ([]QuestionSnapshot, error) {
	var questions []QuestionSnapshot
	if err := json.Unmarshal([]byte(q.QuestionsJSON), &questions); err != nil {
		return nil, fmt.Errorf("corrupt questionnaire snapshot for phase %s: %w", q.PhaseID, err)
	}
	return questions, nil
}

// FieldAnswer 单次提交中的一个字段答案
type FieldAnswer struct {
	FieldID string
	Value   string
}

// SubmitAnswers 写入一批字段答案并重算完成计数
// 未知 fieldId 集中在一个 Validation 错误里报出；答案按快照规则校验。
func (q *QuestionnairePhase) SubmitAnswers(answers []FieldAnswer, now time.Time) error {
	questions, err := q.Questions()
	if err != nil {
		return err
	}
	byKey := make(map[string]QuestionSnapshot, len(questions))
	for _, question := range questions {
		byKey[question.Key] = question
	}

	fieldByID := make(map[string]*QuestionnaireField, len(q.Fields))
	for i := range q.Fields {
		fieldByID[q.Fields[i].FieldID] = &q.Fields[i]
	}

	var unknown []string
	for _, answer := range answers {
		if _, ok := fieldByID[answer.FieldID]; !ok {
			unknown = append(unknown, answer.FieldID)
		}
	}
	if len(unknown) > 0 {
		return Validationf("unknown field ids: %s", strings.Join(unknown, ", "))
	}

	for _, answer := range answers {
		field := fieldByID[answer.FieldID]
		question, ok := byKey[field.QuestionKey]
		if ok {
			if err := validateAnswer(question, answer.Value); err != nil {
				return err
			}
		}
		value := answer.Value
		field.Answer = &value
		submitted := now
		field.SubmittedAt = &submitted
	}

	q.CompletedFieldsCount = 0
	for i := range q.Fields {
		if q.Fields[i].Answered() {
			q.CompletedFieldsCount++
		}
	}
	return nil
}

// RequiredSatisfied 所有必填字段均已作答，且至少存在一个必填字段
// 零必填问卷不会经此路径自动完成。
func (q *QuestionnairePhase) RequiredSatisfied() bool {
	required := 0
	for i := range q.Fields {
		if q.Fields[i].Required {
			required++
			if !q.Fields[i].Answered() {
				return false
			}
		}
	}
	return required > 0
}

// RemainingRequired 尚未作答的必填字段 key 列表
func (q *QuestionnairePhase) RemainingRequired() []string {
	var remaining []string
	for i := range q.Fields {
		if q.Fields[i].Required && !q.Fields[i].Answered() {
			remaining = append(remaining, q.Fields[i].QuestionKey)
		}
	}
	return remaining
}

// validateAnswer 按快照中的类型与规则校验答案
func validateAnswer(question QuestionSnapshot, value string) error {
	switch question.Type {
	case QuestionTypeNumber, QuestionTypeCurrency:
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return Validationf("field %s expects a numeric value, got %q", question.Key, value)
		}
		if question.MinValue != "" {
			if minimum, err := decimal.NewFromString(question.MinValue); err == nil && amount.Cmp(minimum) < 0 {
				return Validationf("field %s below minimum %s", question.Key, question.MinValue)
			}
		}
		if question.MaxValue != "" {
			if maximum, err := decimal.NewFromString(question.MaxValue); err == nil && amount.Cmp(maximum) > 0 {
				return Validationf("field %s above maximum %s", question.Key, question.MaxValue)
			}
		}
	case QuestionTypeDate:
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return Validationf("field %s expects a date (YYYY-MM-DD), got %q", question.Key, value)
		}
	case QuestionTypeBoolean:
		if value != "true" && value != "false" {
			return Validationf("field %s expects true or false, got %q", question.Key, value)
		}
	case QuestionTypeSelect:
		for _, option := range question.Options {
			if option == value {
				return nil
			}
		}
		return Validationf("field %s expects one of [%s], got %q", question.Key, strings.Join(question.Options, ", "), value)
	case QuestionTypeText:
		if question.Pattern != "" {
			matched, err := regexp.MatchString(question.Pattern, value)
			if err != nil || !matched {
				return Validationf("field %s does not match required pattern", question.Key)
			}
		}
	}
	return nil
}

// DocumentationPhase 资料阶段扩展
// Documents 快照即文档台账；RequiredDocumentsCount 在实例化时固定。
type DocumentationPhase struct {
	gorm.Model
	PhaseID                string `gorm:"column:phase_id;type:varchar(64);uniqueIndex;not null" json:"phase_id"`
	DocumentsJSON          string `gorm:"column:documents;type:json;not null" json:"-"`
	StagesJSON             string `gorm:"column:stages;type:json;not null" json:"-"`
	RequiredDocumentsCount int    `gorm:"column:required_documents_count;not null" json:"required_documents_count"`
	ApprovedDocumentsCount int    `gorm:"column:approved_documents_count;not null;default:0" json:"approved_documents_count"`
	// 血缘记录：该资料阶段由哪个问卷阶段引出（仅审计用途，不参与推进判定）
	SourceQuestionnaireID string `gorm:"column:source_questionnaire_id;type:varchar(64)" json:"source_questionnaire_id"`

	StageProgress []ApprovalStageProgress `gorm:"foreignKey:PhaseID;references:PhaseID" json:"stage_progress"`
}

// TableName 表名
func (DocumentationPhase) TableName() string {
	return "onboarding_documentation_phases"
}

// ApprovalStageProgress 审批阶段进度记录，每个快照阶段一条
type ApprovalStageProgress struct {
	gorm.Model
	PhaseID     string      `gorm:"column:phase_id;type:varchar(64);index;not null" json:"phase_id"`
	SortOrder   int         `gorm:"column:sort_order;not null" json:"sort_order"`
	Name        string      `gorm:"column:name;type:varchar(128)" json:"name"`
	Status      StageStatus `gorm:"column:status;type:varchar(20);not null;default:'PENDING'" json:"status"`
	CompletedAt *time.Time  `gorm:"column:completed_at" json:"completed_at"`
}

// TableName 表名
func (ApprovalStageProgress) TableName() string {
	return "onboarding_approval_stage_progress"
}

// Documents 解析文档台账
func (d *DocumentationPhase) Documents() ([]DocumentSnapshot, error) {
	var documents []DocumentSnapshot
	if err := json.Unmarshal([]byte(d.DocumentsJSON), &documents); err != nil {
		return nil, fmt.Errorf("corrupt document ledger for phase %s: %w", d.PhaseID, err)
	}
	return documents, nil
}

// DocumentUpload 一次文档上传的输入
type DocumentUpload struct {
	DocumentType string
	URL          string
	FileName     string
}

// RecordUpload 在台账上登记一次上传并重算已批准计数
// 同一类型重复上传被拒绝而非覆盖（one-shot-per-type 策略）。
func (d *DocumentationPhase) RecordUpload(upload DocumentUpload, uploaderID string, now time.Time) error {
	documents, err := d.Documents()
	if err != nil {
		return err
	}

	index := -1
	var validTypes []string
	for i := range documents {
		validTypes = append(validTypes, documents[i].DocumentType)
		if documents[i].DocumentType == upload.DocumentType {
			index = i
		}
	}
	if index < 0 {
		return Validationf("unknown document type %q, expected one of [%s]", upload.DocumentType, strings.Join(validTypes, ", "))
	}
	if documents[index].Uploaded() {
		return Validationf("document type %q already uploaded", upload.DocumentType)
	}

	uploaded := now
	documents[index].UploadedURL = upload.URL
	documents[index].FileName = upload.FileName
	documents[index].UploadedByID = uploaderID
	documents[index].UploadedAt = &uploaded

	approved := 0
	for i := range documents {
		if documents[i].Required && documents[i].Uploaded() {
			approved++
		}
	}
	d.ApprovedDocumentsCount = approved
	d.DocumentsJSON = marshalJSON(documents)
	return nil
}

// RequiredSatisfied 已批准计数达到必需计数
func (d *DocumentationPhase) RequiredSatisfied() bool {
	return d.ApprovedDocumentsCount >= d.RequiredDocumentsCount
}

// RemainingRequired 尚未上传的必需文档类型列表
func (d *DocumentationPhase) RemainingRequired() []string {
	documents, err := d.Documents()
	if err != nil {
		return nil
	}
	var remaining []string
	for i := range documents {
		if documents[i].Required && !documents[i].Uploaded() {
			remaining = append(remaining, documents[i].DocumentType)
		}
	}
	return remaining
}

// CompleteAllStages 文档齐备时一并关闭全部审批阶段
// 分阶段审批元数据保留在快照中备扩展，当前上传路径视为同时满足。
func (d *DocumentationPhase) CompleteAllStages(now time.Time) {
	sort.Slice(d.StageProgress, func(i, j int) bool {
		return d.StageProgress[i].SortOrder < d.StageProgress[j].SortOrder
	})
	for i := range d.StageProgress {
		if d.StageProgress[i].Status != StageStatusCompleted {
			d.StageProgress[i].Status = StageStatusCompleted
			completed := now
			d.StageProgress[i].CompletedAt = &completed
		}
	}
}

// GatePhase 闸门阶段扩展
type GatePhase struct {
	gorm.Model
	PhaseID           string `gorm:"column:phase_id;type:varchar(64);uniqueIndex;not null" json:"phase_id"`
	RequiredApprovals int    `gorm:"column:required_approvals;not null;default:1" json:"required_approvals"`
	ApprovalCount     int    `gorm:"column:approval_count;not null;default:0" json:"approval_count"`
	RejectionCount    int    `gorm:"column:rejection_count;not null;default:0" json:"rejection_count"`
	RejectionReason   string `gorm:"column:rejection_reason;type:varchar(512)" json:"rejection_reason"`
	ReviewerRole      string `gorm:"column:reviewer_role;type:varchar(32)" json:"reviewer_role"`

	Reviews []GateReview `gorm:"foreignKey:PhaseID;references:PhaseID" json:"reviews"`
}

// TableName 表名
func (GatePhase) TableName() string {
	return "onboarding_gate_phases"
}

// HasReviewFrom 该审核人是否已提交过评审
func (g *GatePhase) HasReviewFrom(reviewerID string) bool {
	for i := range g.Reviews {
		if g.Reviews[i].ReviewerID == reviewerID {
			return true
		}
	}
	return false
}

// RecordApproval 记录一次批准
func (g *GatePhase) RecordApproval() {
	g.ApprovalCount++
}

// RecordRejection 记录一次拒绝及原因
func (g *GatePhase) RecordRejection(reason string) {
	g.RejectionCount++
	g.RejectionReason = reason
}

// QuorumMet 批准数是否已达法定数量
func (g *GatePhase) QuorumMet() bool {
	return g.ApprovalCount >= g.RequiredApprovals
}

// OutstandingApprovals 距离法定数量还差多少批准
func (g *GatePhase) OutstandingApprovals() int {
	remaining := g.RequiredApprovals - g.ApprovalCount
	if remaining < 0 {
		return 0
	}
	return remaining
}
