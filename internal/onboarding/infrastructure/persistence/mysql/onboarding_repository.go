// 包 mysql 入驻工作流的 GORM 仓储实现
package mysql

import (
	"context"
	"errors"

	"github.com/mortgagecore/platform/internal/onboarding/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// onboardingRepository 工作流实例仓储
type onboardingRepository struct {
	db *gorm.DB
}

// NewOnboardingRepository 创建工作流实例仓储
func NewOnboardingRepository(db *gorm.DB) domain.OnboardingRepository {
	return &onboardingRepository{db: db}
}

// getDB 优先使用上下文中的事务句柄
func (r *onboardingRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// WithTx 打开事务并把句柄注入上下文，供同事务内的仓储调用复用
func (r *onboardingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return fn(txCtx)
	})
}

// Create 持久化实例及全部阶段、扩展与字段（级联写入）
func (r *onboardingRepository) Create(ctx context.Context, onboarding *domain.OrganizationOnboarding) error {
	return r.getDB(ctx).Create(onboarding).Error
}

// Save 仅更新实例行，阶段与扩展由细粒度方法保存
func (r *onboardingRepository) Save(ctx context.Context, onboarding *domain.OrganizationOnboarding) error {
	return r.getDB(ctx).Omit(clause.Associations).Save(onboarding).Error
}

// SavePhase 更新单个阶段行
func (r *onboardingRepository) SavePhase(ctx context.Context, phase *domain.Phase) error {
	return r.getDB(ctx).Omit(clause.Associations).Save(phase).Error
}

// SaveQuestionnaire 更新问卷扩展行
func (r *onboardingRepository) SaveQuestionnaire(ctx context.Context, ext *domain.QuestionnairePhase) error {
	return r.getDB(ctx).Omit(clause.Associations).Save(ext).Error
}

// SaveField 更新问卷字段行
func (r *onboardingRepository) SaveField(ctx context.Context, field *domain.QuestionnaireField) error {
	return r.getDB(ctx).Save(field).Error
}

// SaveDocumentation 更新资料扩展行
func (r *onboardingRepository) SaveDocumentation(ctx context.Context, ext *domain.DocumentationPhase) error {
	return r.getDB(ctx).Omit(clause.Associations).Save(ext).Error
}

// SaveStageProgress 更新审批阶段进度行
func (r *onboardingRepository) SaveStageProgress(ctx context.Context, stage *domain.ApprovalStageProgress) error {
	return r.getDB(ctx).Save(stage).Error
}

// SaveGate 更新闸门扩展行
func (r *onboardingRepository) SaveGate(ctx context.Context, ext *domain.GatePhase) error {
	return r.getDB(ctx).Omit(clause.Associations).Save(ext).Error
}

// CreateReview 追加一条评审记录（唯一索引兜底同一审核人并发重复提交）
func (r *onboardingRepository) CreateReview(ctx context.Context, review *domain.GateReview) error {
	err := r.getDB(ctx).Create(review).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.Conflictf("reviewer %s already reviewed gate %s", review.ReviewerID, review.PhaseID)
	}
	return err
}

// GetByOrganization 加载实例全貌：阶段、三类扩展、字段、进度与评审记录
func (r *onboardingRepository) GetByOrganization(ctx context.Context, tenantID, organizationID string) (*domain.OrganizationOnboarding, error) {
	var onboarding domain.OrganizationOnboarding
	err := r.getDB(ctx).
		Preload("Phases.Questionnaire.Fields").
		Preload("Phases.Documentation.StageProgress").
		Preload("Phases.Gate.Reviews").
		Where("tenant_id = ? AND organization_id = ?", tenantID, organizationID).
		First(&onboarding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("onboarding workflow for organization %s", organizationID)
		}
		return nil, err
	}
	onboarding.InitFSM()
	onboarding.SortPhases()
	return &onboarding, nil
}

// GetByID 按业务主键加载实例全貌
func (r *onboardingRepository) GetByID(ctx context.Context, onboardingID string) (*domain.OrganizationOnboarding, error) {
	var onboarding domain.OrganizationOnboarding
	err := r.getDB(ctx).
		Preload("Phases.Questionnaire.Fields").
		Preload("Phases.Documentation.StageProgress").
		Preload("Phases.Gate.Reviews").
		Where("onboarding_id = ?", onboardingID).
		First(&onboarding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("onboarding workflow %s", onboardingID)
		}
		return nil, err
	}
	onboarding.InitFSM()
	onboarding.SortPhases()
	return &onboarding, nil
}

// ExistsForOrganization 组织是否已有工作流实例（1:1 约束的前置检查）
func (r *onboardingRepository) ExistsForOrganization(ctx context.Context, organizationID string) (bool, error) {
	var count int64
	err := r.getDB(ctx).Model(&domain.OrganizationOnboarding{}).
		Where("organization_id = ?", organizationID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
