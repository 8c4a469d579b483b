// File: internal/onboarding/handler.go
package onboarding

import (
	"devops_platform_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles the onboarding endpoints.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new onboarding handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts /onboarding. limitMW throttles registration.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, limitMW gin.HandlerFunc) {
	g := router.Group("/onboarding")
	{
		g.POST("/register", limitMW, h.register)
		g.GET("/me/status", authMW, h.status)
	}
}

func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Register: invalid request body", zap.Error(err))
		common.RespondWithError(c, common.BindError(err))
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, resp.Msg, resp)
}

func (h *Handler) status(c *gin.Context) {
	resp, err := h.service.Status(c.Request.Context(), common.GetCurrentContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Tenant status retrieved.", resp)
}
