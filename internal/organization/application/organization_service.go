// 包 application 组织模块的用例逻辑
package application

import (
	"context"
	"fmt"

	"github.com/mortgagecore/platform/internal/organization/domain"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/logging"
)

// OrganizationService 组织用例服务
// FindActiveMembership 与 SetStatus 以字符串契约暴露，供入驻工作流同事务调用。
type OrganizationService struct {
	repo domain.OrganizationRepository
}

// NewOrganizationService 创建组织服务
func NewOrganizationService(repo domain.OrganizationRepository) *OrganizationService {
	return &OrganizationService{repo: repo}
}

// CreateOrganizationCommand 创建组织
type CreateOrganizationCommand struct {
	TenantID string `json:"tenant_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	OrgType  string `json:"org_type" binding:"required"`
	// 创建者自动成为 OWNER 成员
	CreatorID string `json:"creator_id" binding:"required"`
}

// CreateOrganization 创建组织（初始状态 ONBOARDING），创建者成为 OWNER
func (s *OrganizationService) CreateOrganization(ctx context.Context, cmd CreateOrganizationCommand) (*domain.Organization, error) {
	org := &domain.Organization{
		OrganizationID: fmt.Sprintf("ORG-%d", idgen.GenID()),
		TenantID:       cmd.TenantID,
		Name:           cmd.Name,
		OrgType:        cmd.OrgType,
		Status:         domain.OrgStatusOnboarding,
	}
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, err
	}
	membership := &domain.Membership{
		OrganizationID: org.OrganizationID,
		UserID:         cmd.CreatorID,
		Role:           "OWNER",
		Status:         domain.MembershipStatusActive,
	}
	if err := s.repo.AddMember(ctx, membership); err != nil {
		return nil, err
	}

	logging.Info(ctx, "organization created",
		"organization_id", org.OrganizationID,
		"tenant_id", org.TenantID,
		"org_type", org.OrgType)
	return org, nil
}

// GetOrganization 查询组织
func (s *OrganizationService) GetOrganization(ctx context.Context, organizationID string) (*domain.Organization, error) {
	return s.repo.GetByID(ctx, organizationID)
}

// AddMember 为组织添加成员
func (s *OrganizationService) AddMember(ctx context.Context, organizationID, userID, role string) error {
	if role == "" {
		return domain.Validationf("member role is required")
	}
	membership := &domain.Membership{
		OrganizationID: organizationID,
		UserID:         userID,
		Role:           role,
		Status:         domain.MembershipStatusActive,
	}
	return s.repo.AddMember(ctx, membership)
}

// FindActiveMembership 查找有效成员关系，不存在时返回空角色
func (s *OrganizationService) FindActiveMembership(ctx context.Context, organizationID, userID string) (string, error) {
	membership, err := s.repo.FindActiveMembership(ctx, organizationID, userID)
	if err != nil {
		return "", err
	}
	if membership == nil {
		return "", nil
	}
	return membership.Role, nil
}

// SetStatus 切换组织生命周期状态
// 通过上下文中的事务句柄加入调用方事务（入驻完成激活、被拒停用）。
func (s *OrganizationService) SetStatus(ctx context.Context, organizationID, status string) error {
	target := domain.OrganizationStatus(status)
	if !target.Valid() {
		return domain.Validationf("unknown organization status %q", status)
	}
	if err := s.repo.SetStatus(ctx, organizationID, target); err != nil {
		return err
	}
	logging.Info(ctx, "organization status changed",
		"organization_id", organizationID,
		"status", status)
	return nil
}
