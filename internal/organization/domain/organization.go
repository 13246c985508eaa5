// 包 domain 组织与成员关系的领域模型
package domain

import (
	"context"

	"gorm.io/gorm"
)

// OrganizationStatus 组织生命周期状态
type OrganizationStatus string

const (
	OrgStatusOnboarding OrganizationStatus = "ONBOARDING" // 入驻流程进行中
	OrgStatusActive     OrganizationStatus = "ACTIVE"     // 入驻完成，可参与业务
	OrgStatusSuspended  OrganizationStatus = "SUSPENDED"  // 入驻被拒或被停用
)

// Valid 是否为已知状态
func (s OrganizationStatus) Valid() bool {
	switch s {
	case OrgStatusOnboarding, OrgStatusActive, OrgStatusSuspended:
		return true
	}
	return false
}

// Organization 平台上的机构（银行、开发商、平台方）
type Organization struct {
	gorm.Model
	OrganizationID string             `gorm:"column:organization_id;type:varchar(64);uniqueIndex;not null" json:"organization_id"`
	TenantID       string             `gorm:"column:tenant_id;type:varchar(64);index;not null" json:"tenant_id"`
	Name           string             `gorm:"column:name;type:varchar(128);not null" json:"name"`
	OrgType        string             `gorm:"column:org_type;type:varchar(32);index" json:"org_type"`
	Status         OrganizationStatus `gorm:"column:status;type:varchar(20);not null;default:'ONBOARDING'" json:"status"`
}

// TableName 表名
func (Organization) TableName() string {
	return "organizations"
}

// MembershipStatus 成员关系状态
type MembershipStatus string

const (
	MembershipStatusActive   MembershipStatus = "ACTIVE"
	MembershipStatusDisabled MembershipStatus = "DISABLED"
)

// Membership 用户与组织的成员关系
type Membership struct {
	gorm.Model
	OrganizationID string           `gorm:"column:organization_id;type:varchar(64);uniqueIndex:uk_org_member;not null" json:"organization_id"`
	UserID         string           `gorm:"column:user_id;type:varchar(64);uniqueIndex:uk_org_member;not null" json:"user_id"`
	Role           string           `gorm:"column:role;type:varchar(32);not null" json:"role"`
	Status         MembershipStatus `gorm:"column:status;type:varchar(20);not null;default:'ACTIVE'" json:"status"`
}

// TableName 表名
func (Membership) TableName() string {
	return "organization_memberships"
}

// OrganizationRepository 组织仓储接口
type OrganizationRepository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, organizationID string) (*Organization, error)
	SetStatus(ctx context.Context, organizationID string, status OrganizationStatus) error

	AddMember(ctx context.Context, membership *Membership) error
	FindActiveMembership(ctx context.Context, organizationID, userID string) (*Membership, error)
}
