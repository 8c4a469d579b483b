// File: internal/activity/handler.go
package activity

import (
	"devops_platform_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the activity feed.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new activity handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts /logs. adminMW guards the platform wide listing.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	logs := router.Group("/logs", authMW)
	{
		logs.GET("/my", h.myLogs)
		logs.GET("", adminMW, h.allLogs)
	}
}

func (h *Handler) myLogs(c *gin.Context) {
	cc := common.GetCurrentContext(c)
	lo, err := common.GetLimitOffset(c, 20, 200)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	items, err := h.service.ListOwn(c.Request.Context(), cc.Email, lo)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondList(c, "Activity retrieved.", int64(len(items)), items)
}

func (h *Handler) allLogs(c *gin.Context) {
	lo, err := common.GetLimitOffset(c, 20, 500)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	f := Filter{
		Action:    c.Query("action"),
		Email:     c.Query("email"),
		Namespace: c.Query("namespace"),
	}

	items, total, err := h.service.List(c.Request.Context(), f, lo)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondList(c, "Activity retrieved.", total, items)
}
