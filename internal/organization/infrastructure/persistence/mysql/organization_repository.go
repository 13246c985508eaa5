// 包 mysql 组织模块的 GORM 仓储实现
package mysql

import (
	"context"
	"errors"

	"github.com/mortgagecore/platform/internal/organization/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// organizationRepository 组织仓储
type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository 创建组织仓储
func NewOrganizationRepository(db *gorm.DB) domain.OrganizationRepository {
	return &organizationRepository{db: db}
}

// getDB 优先使用上下文中的事务句柄，使组织状态变更能加入调用方事务
func (r *organizationRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// Create 持久化组织
func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	return r.getDB(ctx).Create(org).Error
}

// GetByID 按业务主键加载组织
func (r *organizationRepository) GetByID(ctx context.Context, organizationID string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.getDB(ctx).Where("organization_id = ?", organizationID).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("organization %s", organizationID)
		}
		return nil, err
	}
	return &org, nil
}

// SetStatus 切换组织生命周期状态
func (r *organizationRepository) SetStatus(ctx context.Context, organizationID string, status domain.OrganizationStatus) error {
	result := r.getDB(ctx).Model(&domain.Organization{}).
		Where("organization_id = ?", organizationID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundf("organization %s", organizationID)
	}
	return nil
}

// AddMember 新增成员关系
func (r *organizationRepository) AddMember(ctx context.Context, membership *domain.Membership) error {
	return r.getDB(ctx).Create(membership).Error
}

// FindActiveMembership 查找有效成员关系，不存在时返回 (nil, nil)
func (r *organizationRepository) FindActiveMembership(ctx context.Context, organizationID, userID string) (*domain.Membership, error) {
	var membership domain.Membership
	err := r.getDB(ctx).
		Where("organization_id = ? AND user_id = ? AND status = ?", organizationID, userID, domain.MembershipStatusActive).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &membership, nil
}
