package mysql

import (
	"context"
	"errors"

	"github.com/mortgagecore/platform/internal/onboarding/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// templateRepository 流程模板与计划仓储
type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository 创建模板仓储
func NewTemplateRepository(db *gorm.DB) domain.TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// WithTx 打开事务并把句柄注入上下文
func (r *templateRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return fn(txCtx)
	})
}

// Create 持久化模板及阶段定义
func (r *templateRepository) Create(ctx context.Context, template *domain.FlowTemplate) error {
	return r.getDB(ctx).Create(template).Error
}

// CreateQuestionnairePlan 持久化问卷计划及问题定义
func (r *templateRepository) CreateQuestionnairePlan(ctx context.Context, plan *domain.QuestionnairePlan) error {
	return r.getDB(ctx).Create(plan).Error
}

// CreateDocumentationPlan 持久化资料计划及文档与审批阶段定义
func (r *templateRepository) CreateDocumentationPlan(ctx context.Context, plan *domain.DocumentationPlan) error {
	return r.getDB(ctx).Create(plan).Error
}

// CreateGatePlan 持久化闸门计划
func (r *templateRepository) CreateGatePlan(ctx context.Context, plan *domain.GatePlan) error {
	return r.getDB(ctx).Create(plan).Error
}

// SetActive 启用或停用模板
func (r *templateRepository) SetActive(ctx context.Context, templateID string, active bool) error {
	result := r.getDB(ctx).Model(&domain.FlowTemplate{}).
		Where("template_id = ?", templateID).
		Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundf("flow template %s", templateID)
	}
	return nil
}

// Get 加载模板及阶段定义（阶段按序号升序）
func (r *templateRepository) Get(ctx context.Context, templateID string) (*domain.FlowTemplate, error) {
	var template domain.FlowTemplate
	err := r.getDB(ctx).
		Preload("Phases", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("template_id = ?", templateID).
		First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("flow template %s", templateID)
		}
		return nil, err
	}
	return &template, nil
}

// List 按租户分页查询模板
func (r *templateRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.FlowTemplate, int64, error) {
	db := r.getDB(ctx)

	var total int64
	if err := db.Model(&domain.FlowTemplate{}).Where("tenant_id = ?", tenantID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var templates []*domain.FlowTemplate
	err := db.
		Preload("Phases", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&templates).Error
	if err != nil {
		return nil, 0, err
	}
	return templates, total, nil
}

// ResolveFlow 加载模板并逐阶段解析其引用的计划
// 引用的计划缺失视为模板配置错误，返回 NotFound。
func (r *templateRepository) ResolveFlow(ctx context.Context, templateID string) (*domain.ResolvedFlow, error) {
	template, err := r.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	db := r.getDB(ctx)
	flow := &domain.ResolvedFlow{Template: template}
	for _, definition := range template.Phases {
		resolved := domain.ResolvedPhase{Definition: definition}
		switch definition.Category {
		case domain.PhaseCategoryQuestionnaire:
			var plan domain.QuestionnairePlan
			err := db.Preload("Questions").Where("plan_id = ?", definition.PlanID).First(&plan).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, domain.NotFoundf("questionnaire plan %s referenced by template %s", definition.PlanID, templateID)
				}
				return nil, err
			}
			resolved.Questionnaire = &plan
		case domain.PhaseCategoryDocumentation:
			var plan domain.DocumentationPlan
			err := db.Preload("Definitions").Preload("Stages", func(db *gorm.DB) *gorm.DB {
				return db.Order("sort_order ASC")
			}).Where("plan_id = ?", definition.PlanID).First(&plan).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, domain.NotFoundf("documentation plan %s referenced by template %s", definition.PlanID, templateID)
				}
				return nil, err
			}
			resolved.Documentation = &plan
		case domain.PhaseCategoryGate:
			var plan domain.GatePlan
			err := db.Where("plan_id = ?", definition.PlanID).First(&plan).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, domain.NotFoundf("gate plan %s referenced by template %s", definition.PlanID, templateID)
				}
				return nil, err
			}
			resolved.Gate = &plan
		default:
			return nil, domain.Validationf("template %s phase %d has unknown category %q", templateID, definition.SortOrder, definition.Category)
		}
		flow.Phases = append(flow.Phases, resolved)
	}
	return flow, nil
}
