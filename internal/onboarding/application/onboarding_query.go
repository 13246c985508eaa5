package application

import (
	"context"

	"github.com/mortgagecore/platform/internal/onboarding/domain"
)

// OnboardingQueryService 处理入驻工作流的只读查询
type OnboardingQueryService struct {
	repo domain.OnboardingRepository
}

// NewOnboardingQueryService 创建查询服务
func NewOnboardingQueryService(repo domain.OnboardingRepository) *OnboardingQueryService {
	return &OnboardingQueryService{repo: repo}
}

// GetWorkflow 查询组织的工作流实例全貌（阶段、扩展、评审记录）
func (s *OnboardingQueryService) GetWorkflow(ctx context.Context, tenantID, organizationID string) (*OnboardingDTO, error) {
	onboarding, err := s.repo.GetByOrganization(ctx, tenantID, organizationID)
	if err != nil {
		return nil, err
	}
	return toOnboardingDTO(onboarding), nil
}

// GetByID 按业务主键查询工作流实例
func (s *OnboardingQueryService) GetByID(ctx context.Context, onboardingID string) (*OnboardingDTO, error) {
	onboarding, err := s.repo.GetByID(ctx, onboardingID)
	if err != nil {
		return nil, err
	}
	return toOnboardingDTO(onboarding), nil
}

// GetCurrentAction 推导当前应执行的动作（纯读，不产生写入）
// 发现状态不一致时以系统动作形式报出，由运维侧排查。
func (s *OnboardingQueryService) GetCurrentAction(ctx context.Context, tenantID, organizationID string) (*domain.CurrentAction, error) {
	onboarding, err := s.repo.GetByOrganization(ctx, tenantID, organizationID)
	if err != nil {
		return nil, err
	}
	action := domain.DeriveCurrentAction(onboarding)
	return &action, nil
}
