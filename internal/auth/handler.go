// File: internal/auth/handler.go
package auth

import (
	"errors"

	"devops_platform_backend/internal/activity"
	"devops_platform_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	service   Service
	blocklist TokenBlocklistService
	activity  activity.Service
	logger    *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(
	service Service,
	blocklist TokenBlocklistService,
	activityService activity.Service,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		service:   service,
		blocklist: blocklist,
		activity:  activityService,
		logger:    logger,
	}
}

// RegisterRoutes sets up the routes for authentication operations.
// limitMW throttles credential guessing on login.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, limitMW gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", limitMW, h.login)
		authGroup.POST("/logout", authMW, h.logout)
		authGroup.GET("/me", authMW, h.me)
	}
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Login: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	h.activity.Record(c.Request.Context(), activity.Entry{
		UserEmail: resp.User.Email,
		TenantNS:  resp.Tenant.K8sNamespace,
		Action:    activity.ActionLogin,
		Details:   map[string]interface{}{"role": resp.User.Role},
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	common.RespondOK(c, "Login successful.", resp)
}

func (h *Handler) logout(c *gin.Context) {
	jti, expiresAt := common.GetTokenIDFromContext(c)
	if err := h.blocklist.AddToBlocklist(c.Request.Context(), jti, expiresAt); err != nil {
		h.logger.Error("Logout: failed to blocklist token", zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not revoke token."))
		return
	}
	common.RespondOK(c, "Logged out.", gin.H{"ok": true})
}

func (h *Handler) me(c *gin.Context) {
	cc := common.GetCurrentContext(c)
	if cc == nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}
	common.RespondOK(c, "Current user.", cc)
}
