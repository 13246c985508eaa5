package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mortgagecore/platform/internal/notification/application"
	"github.com/wyfcoding/pkg/logging"
)

// HTTP 处理器
// 负责处理与通知相关的 HTTP 请求
type NotificationHandler struct {
	app *application.NotificationService // 通知应用服务
}

// 创建 HTTP 处理器实例
// app: 注入的通知应用服务
func NewNotificationHandler(app *application.NotificationService) *NotificationHandler {
	return &NotificationHandler{app: app}
}

// 注册路由
// 将处理器方法绑定到 Gin 路由引擎
func (h *NotificationHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/notifications")
	{
		api.GET("/history", h.GetNotificationHistory)
	}
}

// GetNotificationHistory 获取通知历史
func (h *NotificationHandler) GetNotificationHistory(c *gin.Context) {
	recipient := c.Query("recipient")
	if recipient == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient is required"})
		return
	}

	limitStr := c.DefaultQuery("limit", "10")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	offsetStr := c.DefaultQuery("offset", "0")
	offset, err := strconv.Atoi(offsetStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	notifications, total, err := h.app.ListNotifications(c.Request.Context(), recipient, limit, offset)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to get notification history", "recipient", recipient, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "total": total})
}
