// 包 http 入驻工作流的 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mortgagecore/platform/internal/onboarding/application"
	"github.com/mortgagecore/platform/internal/onboarding/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// OnboardingHandler 入驻工作流 HTTP 处理器
type OnboardingHandler struct {
	commands *application.OnboardingCommandService
	queries  *application.OnboardingQueryService
}

// NewOnboardingHandler 创建工作流处理器
func NewOnboardingHandler(commands *application.OnboardingCommandService, queries *application.OnboardingQueryService) *OnboardingHandler {
	return &OnboardingHandler{commands: commands, queries: queries}
}

// RegisterRoutes 注册路由
func (h *OnboardingHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/onboarding")
	{
		api.POST("/workflows", h.StartWorkflow)
		api.POST("/workflows/activate", h.ActivateWorkflow)
		api.POST("/workflows/answers", h.SubmitAnswers)
		api.POST("/workflows/documents", h.UploadDocument)
		api.POST("/workflows/reviews", h.ReviewGate)
		api.POST("/workflows/reassign", h.Reassign)
		api.GET("/organizations/:org_id/workflow", h.GetWorkflow)
		api.GET("/organizations/:org_id/current-action", h.GetCurrentAction)
	}
}

// StartWorkflow 为组织实例化入驻工作流
func (h *OnboardingHandler) StartWorkflow(c *gin.Context) {
	var cmd application.StartOnboardingCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	dto, err := h.commands.StartOnboarding(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto)
}

// ActivateWorkflow 启动待启动的实例
func (h *OnboardingHandler) ActivateWorkflow(c *gin.Context) {
	var cmd application.ActivateOnboardingCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	dto, err := h.commands.Activate(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto)
}

// SubmitAnswers 提交问卷字段答案
func (h *OnboardingHandler) SubmitAnswers(c *gin.Context) {
	var cmd application.SubmitAnswersCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	dto, err := h.commands.SubmitAnswers(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto)
}

// UploadDocument 登记文档上传
func (h *OnboardingHandler) UploadDocument(c *gin.Context) {
	var cmd application.UploadDocumentCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	dto, err := h.commands.UploadDocument(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto)
}

// ReviewGate 提交闸门评审
func (h *OnboardingHandler) ReviewGate(c *gin.Context) {
	var cmd application.ReviewGateCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	dto, err := h.commands.ReviewGate(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto)
}

// Reassign 更换工作流负责人
func (h *OnboardingHandler) Reassign(c *gin.Context) {
	var cmd application.ReassignCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	dto, err := h.commands.Reassign(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto)
}

// GetWorkflow 查询组织的工作流全貌
func (h *OnboardingHandler) GetWorkflow(c *gin.Context) {
	organizationID := c.Param("org_id")
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "tenant_id is required", "")
		return
	}

	dto, err := h.queries.GetWorkflow(c.Request.Context(), tenantID, organizationID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto)
}

// GetCurrentAction 查询当前应执行的动作
func (h *OnboardingHandler) GetCurrentAction(c *gin.Context) {
	organizationID := c.Param("org_id")
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "tenant_id is required", "")
		return
	}

	action, err := h.queries.GetCurrentAction(c.Request.Context(), tenantID, organizationID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, action)
}

// TemplateHandler 流程模板 HTTP 处理器
type TemplateHandler struct {
	commands *application.TemplateCommandService
	queries  *application.TemplateQueryService
}

// NewTemplateHandler 创建模板处理器
func NewTemplateHandler(commands *application.TemplateCommandService, queries *application.TemplateQueryService) *TemplateHandler {
	return &TemplateHandler{commands: commands, queries: queries}
}

// RegisterRoutes 注册路由
func (h *TemplateHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/onboarding/templates")
	{
		api.POST("", h.CreateTemplate)
		api.GET("", h.ListTemplates)
		api.GET("/:id", h.GetTemplate)
		api.PUT("/:id/active", h.SetActive)
		api.POST("/questionnaire-plans", h.CreateQuestionnairePlan)
		api.POST("/documentation-plans", h.CreateDocumentationPlan)
		api.POST("/gate-plans", h.CreateGatePlan)
	}
}

// CreateTemplate 创建流程模板
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var cmd application.CreateTemplateCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	dto, err := h.commands.CreateTemplate(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto)
}

// ListTemplates 按租户分页查询模板
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "tenant_id is required", "")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid offset", "")
		return
	}

	templates, total, err := h.queries.ListTemplates(c.Request.Context(), tenantID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"templates": templates, "total": total})
}

// GetTemplate 查询单个模板
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	dto, err := h.queries.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto)
}

// SetActive 启用或停用模板
func (h *TemplateHandler) SetActive(c *gin.Context) {
	var body struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.commands.SetTemplateActive(c.Request.Context(), c.Param("id"), *body.Active); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"template_id": c.Param("id"), "active": *body.Active})
}

// CreateQuestionnairePlan 创建问卷计划
func (h *TemplateHandler) CreateQuestionnairePlan(c *gin.Context) {
	var cmd application.CreateQuestionnairePlanCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	planID, err := h.commands.CreateQuestionnairePlan(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"plan_id": planID})
}

// CreateDocumentationPlan 创建资料计划
func (h *TemplateHandler) CreateDocumentationPlan(c *gin.Context) {
	var cmd application.CreateDocumentationPlanCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	planID, err := h.commands.CreateDocumentationPlan(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"plan_id": planID})
}

// CreateGatePlan 创建闸门计划
func (h *TemplateHandler) CreateGatePlan(c *gin.Context) {
	var cmd application.CreateGatePlanCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	planID, err := h.commands.CreateGatePlan(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"plan_id": planID})
}

// writeError 按错误分类映射 HTTP 状态码
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	}
	if status == http.StatusInternalServerError {
		logging.Error(c.Request.Context(), "onboarding request failed",
			"path", c.FullPath(),
			"error", err)
	}
	response.ErrorWithStatus(c, status, err.Error(), "")
}
