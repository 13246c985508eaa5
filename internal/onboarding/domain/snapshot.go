package domain

import (
	"encoding/json"
	"time"
)

// TemplateSnapshot 实例创建时刻对模板的不可变深拷贝
// 保证后续模板编辑不会影响在途工作流（审计口径以快照为准）。
type TemplateSnapshot struct {
	TemplateID string                  `json:"template_id"`
	Name       string                  `json:"name"`
	OrgType    string                  `json:"org_type"`
	TakenAt    time.Time               `json:"taken_at"`
	Phases     []PhaseTemplateSnapshot `json:"phases"`
}

// PhaseTemplateSnapshot 快照中的阶段定义
type PhaseTemplateSnapshot struct {
	SortOrder        int           `json:"sort_order"`
	Category         PhaseCategory `json:"category"`
	PlanID           string        `json:"plan_id"`
	RequiresPrevious bool          `json:"requires_previous"`
}

// QuestionSnapshot 问卷阶段持有的问题快照
type QuestionSnapshot struct {
	Key      string       `json:"key"`
	Label    string       `json:"label"`
	Type     QuestionType `json:"type"`
	Required bool         `json:"required"`
	Pattern  string       `json:"pattern,omitempty"`
	MinValue string       `json:"min_value,omitempty"`
	MaxValue string       `json:"max_value,omitempty"`
	Options  []string     `json:"options,omitempty"`
}

// DocumentSnapshot 资料阶段的文档台账条目
// 快照即台账：上传信息直接写回条目，不设独立上传表。
type DocumentSnapshot struct {
	DocumentType string     `json:"document_type"`
	Required     bool       `json:"required"`
	UploaderRole string     `json:"uploader_role,omitempty"`
	AutoApprove  bool       `json:"auto_approve"`
	UploadedURL  string     `json:"uploaded_url,omitempty"`
	FileName     string     `json:"file_name,omitempty"`
	UploadedByID string     `json:"uploaded_by_id,omitempty"`
	UploadedAt   *time.Time `json:"uploaded_at,omitempty"`
}

// Uploaded 是否已记录上传
func (d DocumentSnapshot) Uploaded() bool {
	return d.UploadedAt != nil
}

// StageSnapshot 资料阶段的审批阶段快照
type StageSnapshot struct {
	SortOrder       int    `json:"sort_order"`
	Name            string `json:"name"`
	ReviewerOrgType string `json:"reviewer_org_type,omitempty"`
}

// marshalJSON 快照统一序列化入口，失败时返回空对象而不是中断流程
func marshalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// SnapshotFromResolvedFlow 从解析后的模板生成实例级快照
func SnapshotFromResolvedFlow(flow *ResolvedFlow, now time.Time) TemplateSnapshot {
	snapshot := TemplateSnapshot{
		TemplateID: flow.Template.TemplateID,
		Name:       flow.Template.Name,
		OrgType:    flow.Template.OrgType,
		TakenAt:    now,
	}
	for _, phase := range flow.Phases {
		snapshot.Phases = append(snapshot.Phases, PhaseTemplateSnapshot{
			SortOrder:        phase.Definition.SortOrder,
			Category:         phase.Definition.Category,
			PlanID:           phase.Definition.PlanID,
			RequiresPrevious: phase.Definition.RequiresPrevious,
		})
	}
	return snapshot
}

// QuestionSnapshotsFromPlan 深拷贝问卷计划的问题定义
func QuestionSnapshotsFromPlan(plan *QuestionnairePlan) []QuestionSnapshot {
	snapshots := make([]QuestionSnapshot, 0, len(plan.Questions))
	for _, q := range plan.Questions {
		var options []string
		if q.OptionsJSON != "" {
			// 选项解析失败按无选项处理，校验时会报 Validation
			_ = json.Unmarshal([]byte(q.OptionsJSON), &options)
		}
		snapshots = append(snapshots, QuestionSnapshot{
			Key:      q.Key,
			Label:    q.Label,
			Type:     q.Type,
			Required: q.Required,
			Pattern:  q.Pattern,
			MinValue: q.MinValue,
			MaxValue: q.MaxValue,
			Options:  options,
		})
	}
	return snapshots
}

// DocumentSnapshotsFromPlan 深拷贝资料计划的文档定义
func DocumentSnapshotsFromPlan(plan *DocumentationPlan) []DocumentSnapshot {
	snapshots := make([]DocumentSnapshot, 0, len(plan.Definitions))
	for _, def := range plan.Definitions {
		snapshots = append(snapshots, DocumentSnapshot{
			DocumentType: def.DocumentType,
			Required:     def.Required,
			UploaderRole: def.UploaderRole,
			AutoApprove:  def.AutoApprove,
		})
	}
	return snapshots
}

// StageSnapshotsFromPlan 深拷贝资料计划的审批阶段定义
func StageSnapshotsFromPlan(plan *DocumentationPlan) []StageSnapshot {
	snapshots := make([]StageSnapshot, 0, len(plan.Stages))
	for _, stage := range plan.Stages {
		snapshots = append(snapshots, StageSnapshot{
			SortOrder:       stage.SortOrder,
			Name:            stage.Name,
			ReviewerOrgType: stage.ReviewerOrgType,
		})
	}
	return snapshots
}
