// File: internal/monitor/handler.go
package monitor

import (
	"strconv"
	"time"

	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves /monitor.
type Handler struct {
	service Service
	cfg     *config.Config
	logger  *zap.Logger
}

// NewHandler creates a new monitor handler.
func NewHandler(service Service, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{service: service, cfg: cfg, logger: logger}
}

// RegisterRoutes mounts /monitor. appsStatus backs the legacy /monitor/apps
// route and runs behind nsMW.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, nsMW, appsStatus gin.HandlerFunc) {
	mon := router.Group("/monitor", authMW)
	{
		mon.GET("/grafana_url", h.grafanaURL)
		mon.GET("/apps", nsMW, appsStatus)
		mon.GET("/pods", h.pods)
		mon.GET("/overview", h.overview)
		mon.GET("/logs", h.logs)
		mon.GET("/events", h.events)
		mon.GET("/metrics", h.metrics)
	}
}

// namespace resolves the namespace to query. Tenants always get the one in
// their token; platform admins may pick another with ?ns=. Whatever its
// source, the result must pass ALLOWED_NAMESPACES.
func (h *Handler) namespace(c *gin.Context) (string, bool) {
	cc := common.GetCurrentContext(c)
	if cc == nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return "", false
	}

	ns := cc.Namespace
	if override := c.Query("ns"); override != "" && override != ns {
		if !cc.IsPlatformAdmin() {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("Only platform admins may query another namespace."))
			return "", false
		}
		ns = override
	}
	if ns == "" {
		common.RespondWithError(c, common.ErrForbidden.WithDetails("Tenant has no namespace yet."))
		return "", false
	}
	if !h.cfg.NamespaceAllowed(ns) {
		common.RespondWithError(c, common.ErrForbidden.WithDetails("namespace not allowed"))
		return "", false
	}
	return ns, true
}

func requireApp(c *gin.Context) (string, bool) {
	app := c.Query("app")
	if app == "" {
		common.RespondWithError(c, common.NewValidationAPIError(map[string]string{
			"app": "The app query parameter is required.",
		}))
		return "", false
	}
	if !common.IsDNS1123Label(app) {
		common.RespondWithError(c, common.NewValidationAPIError(map[string]string{
			"app": "The app query parameter must be a DNS-1123 label.",
		}))
		return "", false
	}
	return app, true
}

func (h *Handler) scope(c *gin.Context) (string, string, bool) {
	ns, ok := h.namespace(c)
	if !ok {
		return "", "", false
	}
	app, ok := requireApp(c)
	if !ok {
		return "", "", false
	}
	return ns, app, true
}

func (h *Handler) grafanaURL(c *gin.Context) {
	ns, app, ok := h.scope(c)
	if !ok {
		return
	}
	res, err := h.service.GrafanaURL(ns, app)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Dashboard URL built.", res)
}

func (h *Handler) pods(c *gin.Context) {
	ns, app, ok := h.scope(c)
	if !ok {
		return
	}
	res, err := h.service.Pods(c.Request.Context(), ns, app)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Pods retrieved.", res)
}

func (h *Handler) overview(c *gin.Context) {
	ns, app, ok := h.scope(c)
	if !ok {
		return
	}
	res, err := h.service.Overview(c.Request.Context(), ns, app)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Overview retrieved.", res)
}

func (h *Handler) logs(c *gin.Context) {
	ns, app, ok := h.scope(c)
	if !ok {
		return
	}
	lo, err := common.GetLimitOffset(c, 200, 5000)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	res, err := h.service.Logs(c.Request.Context(), ns, app, c.Query("q"), lo.Limit)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Logs retrieved.", res)
}

func (h *Handler) events(c *gin.Context) {
	ns, app, ok := h.scope(c)
	if !ok {
		return
	}
	since := 3600
	if raw := c.Query("since"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			common.RespondWithError(c, common.NewValidationAPIError(map[string]string{
				"since": "The since field must be a non-negative number of seconds.",
			}))
			return
		}
		since = v
	}
	res, err := h.service.Events(c.Request.Context(), ns, app, time.Duration(since)*time.Second)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Events retrieved.", res)
}

func (h *Handler) metrics(c *gin.Context) {
	ns, ok := h.namespace(c)
	if !ok {
		return
	}
	res, err := h.service.RequestRate(c.Request.Context(), ns)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Metrics retrieved.", res)
}
