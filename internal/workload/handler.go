// File: internal/workload/handler.go
package workload

import (
	"context"

	"devops_platform_backend/internal/activity"
	"devops_platform_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles the tenant application endpoints.
type Handler struct {
	service  Service
	activity activity.Service
	logger   *zap.Logger
}

// NewHandler creates a new workload handler.
func NewHandler(service Service, activityService activity.Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, activity: activityService, logger: logger}
}

// RegisterRoutes mounts /apps behind authMW and nsMW, plus the public spec
// validation endpoint.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, nsMW gin.HandlerFunc) {
	router.POST("/_debug/validate-appspec", h.validateSpec)

	apps := router.Group("/apps", authMW, nsMW)
	{
		apps.POST("/deploy", h.deploy)
		apps.POST("/scale", h.scale)
		apps.GET("/status", h.Status)

		bg := apps.Group("/bluegreen")
		bg.POST("/prepare", h.prepare)
		bg.POST("/promote", h.promote)
		bg.POST("/rollback", h.rollback)
	}
}

func bindSpec(c *gin.Context) (*AppSpec, bool) {
	spec := NewAppSpec()
	if err := c.ShouldBindJSON(&spec); err != nil {
		common.RespondWithError(c, common.BindError(err))
		return nil, false
	}
	return &spec, true
}

func (h *Handler) validateSpec(c *gin.Context) {
	spec, ok := bindSpec(c)
	if !ok {
		return
	}
	common.RespondOK(c, "AppSpec is valid.", ValidateResponse{OK: true, Received: *spec, FullImage: spec.FullImage()})
}

func (h *Handler) deploy(c *gin.Context) {
	spec, ok := bindSpec(c)
	if !ok {
		return
	}
	cc := common.GetCurrentContext(c)

	res, err := h.service.Deploy(c.Request.Context(), cc.Namespace, spec)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	h.activity.Record(c.Request.Context(), activity.EntryFromRequest(c, cc, activity.ActionDeploy, map[string]interface{}{
		"name":     spec.Name,
		"image":    spec.FullImage(),
		"replicas": spec.Replicas,
	}))
	common.RespondOK(c, "Application deployed.", res)
}

func (h *Handler) scale(c *gin.Context) {
	var req ScaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindError(err))
		return
	}
	cc := common.GetCurrentContext(c)

	res, err := h.service.Scale(c.Request.Context(), cc.Namespace, req.Name, int32(req.Replicas))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	h.activity.Record(c.Request.Context(), activity.EntryFromRequest(c, cc, activity.ActionScale, map[string]interface{}{
		"name":     req.Name,
		"replicas": req.Replicas,
	}))
	common.RespondOK(c, "Application scaled.", res)
}

// Status lists deployments in the caller's namespace. It also backs the
// legacy /monitor/apps route.
func (h *Handler) Status(c *gin.Context) {
	cc := common.GetCurrentContext(c)
	res, err := h.service.Status(c.Request.Context(), cc.Namespace, c.Query("name"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Application status retrieved.", res)
}

func (h *Handler) prepare(c *gin.Context) {
	spec, ok := bindSpec(c)
	if !ok {
		return
	}
	cc := common.GetCurrentContext(c)

	res, err := h.service.PrepareBlueGreen(c.Request.Context(), cc.Namespace, spec)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	h.recordBlueGreen(c, cc, activity.ActionBlueGreenPrepare, res)
	common.RespondOK(c, "Blue/green deployment prepared.", res)
}

func (h *Handler) promote(c *gin.Context) {
	h.switchColor(c, activity.ActionBlueGreenPromote, h.service.Promote, "Blue/green deployment promoted.")
}

func (h *Handler) rollback(c *gin.Context) {
	h.switchColor(c, activity.ActionBlueGreenRollback, h.service.Rollback, "Blue/green deployment rolled back.")
}

func (h *Handler) switchColor(c *gin.Context, action string, op func(ctx context.Context, ns, name string) (*BlueGreenResult, error), msg string) {
	var req NameNS
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindError(err))
		return
	}
	cc := common.GetCurrentContext(c)

	res, err := op(c.Request.Context(), cc.Namespace, req.Name)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	h.recordBlueGreen(c, cc, action, res)
	common.RespondOK(c, msg, res)
}

func (h *Handler) recordBlueGreen(c *gin.Context, cc *common.CurrentContext, action string, res *BlueGreenResult) {
	details := map[string]interface{}{
		"name":     res.Name,
		"color":    res.Color,
		"active":   res.Active,
		"previous": res.Previous,
	}
	if res.Image != "" {
		details["image"] = res.Image
	}
	h.activity.Record(c.Request.Context(), activity.EntryFromRequest(c, cc, action, details))
}
