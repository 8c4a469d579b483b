// File: internal/alerts/handler.go
package alerts

import (
	"io"

	"devops_platform_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// WebhookResult is returned to Alertmanager.
type WebhookResult struct {
	OK        bool `json:"ok"`
	Processed int  `json:"processed"`
}

// TestResult reports where the test mail went.
type TestResult struct {
	OK bool   `json:"ok"`
	To string `json:"to"`
}

// Handler serves /alerts.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new alerts handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the Alertmanager receiver behind limitMW and the test
// endpoint behind authMW and adminMW.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, limitMW, authMW, adminMW gin.HandlerFunc) {
	group := router.Group("/alerts")
	{
		group.POST("", limitMW, h.webhook)
		group.POST("/test", authMW, adminMW, h.test)
	}
}

func (h *Handler) webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid JSON"))
		return
	}
	alerts, err := ParseWebhook(body)
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid JSON"))
		return
	}
	if len(alerts) == 0 {
		common.RespondOK(c, "No alerts.", WebhookResult{OK: true})
		return
	}

	processed := h.service.Process(c.Request.Context(), alerts)
	h.logger.Info("Alertmanager webhook handled", zap.Int("alerts", len(alerts)), zap.Int("processed", processed))
	common.RespondOK(c, "Alerts processed.", WebhookResult{OK: true, Processed: processed})
}

func (h *Handler) test(c *gin.Context) {
	to, err := h.service.SendTest(c.Request.Context(), c.Query("to"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Test alert sent.", TestResult{OK: true, To: to})
}
