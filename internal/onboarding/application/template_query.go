package application

import (
	"context"

	"github.com/mortgagecore/platform/internal/onboarding/domain"
)

// TemplateQueryService 模板只读查询
type TemplateQueryService struct {
	repo domain.TemplateRepository
}

// NewTemplateQueryService 创建模板查询服务
func NewTemplateQueryService(repo domain.TemplateRepository) *TemplateQueryService {
	return &TemplateQueryService{repo: repo}
}

// GetTemplate 查询单个模板及其阶段定义
func (s *TemplateQueryService) GetTemplate(ctx context.Context, templateID string) (*FlowTemplateDTO, error) {
	template, err := s.repo.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return toTemplateDTO(template), nil
}

// ListTemplates 按租户分页查询模板
func (s *TemplateQueryService) ListTemplates(ctx context.Context, tenantID string, limit, offset int) ([]*FlowTemplateDTO, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	templates, total, err := s.repo.List(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]*FlowTemplateDTO, 0, len(templates))
	for _, template := range templates {
		dtos = append(dtos, toTemplateDTO(template))
	}
	return dtos, total, nil
}
