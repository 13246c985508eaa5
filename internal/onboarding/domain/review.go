package domain

import (
	"time"

	"gorm.io/gorm"
)

// ReviewDecision 闸门评审决定
type ReviewDecision string

const (
	ReviewDecisionApproved         ReviewDecision = "APPROVED"
	ReviewDecisionRejected         ReviewDecision = "REJECTED"
	ReviewDecisionChangesRequested ReviewDecision = "CHANGES_REQUESTED"
)

// Valid 是否为已知决定
func (d ReviewDecision) Valid() bool {
	switch d {
	case ReviewDecisionApproved, ReviewDecisionRejected, ReviewDecisionChangesRequested:
		return true
	}
	return false
}

// GateReview 闸门评审记录
// 先落记录再决定后果：即使评审导致整个工作流被拒，记录本身也要保留。
// 同一审核人对同一闸门至多一条记录（唯一索引兜底并发）。
type GateReview struct {
	gorm.Model
	ReviewID   string         `gorm:"column:review_id;type:varchar(64);uniqueIndex;not null" json:"review_id"`
	PhaseID    string         `gorm:"column:phase_id;type:varchar(64);uniqueIndex:uk_gate_reviewer;not null" json:"phase_id"`
	ReviewerID string         `gorm:"column:reviewer_id;type:varchar(64);uniqueIndex:uk_gate_reviewer;not null" json:"reviewer_id"`
	Decision   ReviewDecision `gorm:"column:decision;type:varchar(20);not null" json:"decision"`
	Notes      string         `gorm:"column:notes;type:varchar(1024)" json:"notes"`
	ReviewedAt time.Time      `gorm:"column:reviewed_at;not null" json:"reviewed_at"`
}

// TableName 表名
func (GateReview) TableName() string {
	return "onboarding_gate_reviews"
}
