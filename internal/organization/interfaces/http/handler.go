// 包 http 组织模块的 HTTP 接口
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mortgagecore/platform/internal/organization/application"
	"github.com/mortgagecore/platform/internal/organization/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// OrganizationHandler 组织 HTTP 处理器
type OrganizationHandler struct {
	app *application.OrganizationService
}

// NewOrganizationHandler 创建组织处理器
func NewOrganizationHandler(app *application.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *OrganizationHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/organizations")
	{
		api.POST("", h.CreateOrganization)
		api.GET("/:id", h.GetOrganization)
		api.POST("/:id/members", h.AddMember)
	}
}

// CreateOrganization 创建组织
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	var cmd application.CreateOrganizationCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	org, err := h.app.CreateOrganization(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, org)
}

// GetOrganization 查询组织
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	org, err := h.app.GetOrganization(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, org)
}

// AddMember 为组织添加成员
func (h *OrganizationHandler) AddMember(c *gin.Context) {
	var body struct {
		UserID string `json:"user_id" binding:"required"`
		Role   string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.app.AddMember(c.Request.Context(), c.Param("id"), body.UserID, body.Role); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"organization_id": c.Param("id"), "user_id": body.UserID, "role": body.Role})
}

// writeError 按错误分类映射 HTTP 状态码
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		logging.Error(c.Request.Context(), "organization request failed",
			"path", c.FullPath(),
			"error", err)
	}
	response.ErrorWithStatus(c, status, err.Error(), "")
}
