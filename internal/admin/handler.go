// File: internal/admin/handler.go
package admin

import (
	"errors"
	"io"
	"strconv"

	"devops_platform_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles the platform admin tenant endpoints.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new admin handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts /admin/tenants behind authMW and platformAdminMW.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, platformAdminMW gin.HandlerFunc) {
	tenants := router.Group("/admin/tenants", authMW, platformAdminMW)
	{
		tenants.GET("", h.listTenants)
		tenants.GET("/pending", h.listPending)
		tenants.POST("/:id/approve", h.approve)
		tenants.POST("/:id/reject", h.reject)
	}
}

func (h *Handler) listTenants(c *gin.Context) {
	list, err := h.service.ListTenants(c.Request.Context(), c.Query("status"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Tenants retrieved.", list)
}

func (h *Handler) listPending(c *gin.Context) {
	items, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Pending tenants retrieved.", items)
}

func (h *Handler) approve(c *gin.Context) {
	id, err := parseTenantID(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	res, err := h.service.Approve(c.Request.Context(), common.GetCurrentContext(c), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Tenant approved.", res)
}

func (h *Handler) reject(c *gin.Context) {
	id, err := parseTenantID(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	var req RejectRequest
	// the body is optional
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		common.RespondWithError(c, common.BindError(err))
		return
	}

	res, err := h.service.Reject(c.Request.Context(), common.GetCurrentContext(c), id, req.Reason)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Tenant rejected.", res)
}

func parseTenantID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, common.ErrBadRequest.WithDetails("Invalid tenant ID.")
	}
	return uint(id), nil
}
