// File: internal/alerts/service.go
package alerts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/config"
	"devops_platform_backend/internal/platform/mailer"
	"devops_platform_backend/internal/platform/metrics"
	"devops_platform_backend/internal/tenant"
	"devops_platform_backend/internal/user"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ErrInvalidPayload is returned for webhook bodies that are not JSON.
var ErrInvalidPayload = errors.New("invalid JSON")

// Alert is one Alertmanager alert reduced to what the notification shows.
type Alert struct {
	Status      string
	Name        string
	Namespace   string
	Severity    string
	Description string
}

// Subject formats the notification subject line.
func (a Alert) Subject() string {
	return fmt.Sprintf("[SmartDevOps][%s] %s ns=%s severity=%s",
		strings.ToUpper(a.Status), a.Name, a.Namespace, a.Severity)
}

// ParseWebhook reads the alerts array of an Alertmanager webhook payload.
func ParseWebhook(body []byte) ([]Alert, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidPayload
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, ErrInvalidPayload
	}

	var out []Alert
	root.Get("alerts").ForEach(func(_, a gjson.Result) bool {
		out = append(out, Alert{
			Status:      firstNonEmpty(a.Get("status").String(), "firing"),
			Name:        firstNonEmpty(a.Get("labels.alertname").String(), "Alert"),
			Namespace:   firstNonEmpty(a.Get("labels.namespace").String(), "unknown"),
			Severity:    firstNonEmpty(a.Get("labels.severity").String(), "info"),
			Description: firstNonEmpty(a.Get("annotations.description").String(), a.Get("annotations.summary").String(), "No description"),
		})
		return true
	})
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var alertTemplate = template.Must(template.New("alert").Parse(`<div style="font-family: sans-serif; line-height:1.6">
  <h2>SmartDevOps Alert</h2>
  <p><b>Status:</b> {{.Status}}</p>
  <p><b>Alert:</b> {{.Name}}</p>
  <p><b>Namespace:</b> {{.Namespace}}</p>
  <p><b>Severity:</b> {{.Severity}}</p>
  <p><b>Description:</b><br/>{{.Description}}</p>
  <hr/>
  <small>Sent automatically by SmartDevOps Alert Webhook.</small>
</div>`))

// RenderHTML renders the notification body.
func RenderHTML(a Alert) (string, error) {
	var buf bytes.Buffer
	if err := alertTemplate.Execute(&buf, a); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Service routes alerts to the people owning the affected namespace.
type Service interface {
	Process(ctx context.Context, alerts []Alert) int
	ResolveRecipient(ctx context.Context, namespace string) string
	SendTest(ctx context.Context, to string) (string, error)
}

type service struct {
	tenants tenant.Repository
	users   user.Repository
	mail    mailer.Sender
	metrics *metrics.Metrics
	cfg     *config.Config
	logger  *zap.Logger
}

// NewService creates a new alerts service.
func NewService(
	tenants tenant.Repository,
	users user.Repository,
	mail mailer.Sender,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &service{
		tenants: tenants,
		users:   users,
		mail:    mail,
		metrics: m,
		cfg:     cfg,
		logger:  logger.Named("AlertsService"),
	}
}

// ResolveRecipient picks the tenant user for namespace, falling back to
// ALERTS_FALLBACK_EMAIL when the namespace has no tenant or users.
func (s *service) ResolveRecipient(ctx context.Context, namespace string) string {
	fallback := s.cfg.AlertsFallbackEmail
	if namespace == "" || namespace == "unknown" {
		return fallback
	}

	t, err := s.tenants.FindByNamespace(ctx, namespace)
	if err != nil {
		if _, ok := common.IsAPIError(err); !ok {
			s.logger.Error("Tenant lookup failed", zap.String("namespace", namespace), zap.Error(err))
		}
		return fallback
	}
	users, err := s.users.FindByTenant(ctx, t.ID)
	if err != nil {
		s.logger.Error("User lookup failed", zap.Uint("tenantID", t.ID), zap.Error(err))
		return fallback
	}
	if u := user.PickAlertRecipient(users); u != nil && u.Email != "" {
		return u.Email
	}
	return fallback
}

// Process mails every alert and returns how many were delivered. A failed
// delivery is logged and does not stop the batch.
func (s *service) Process(ctx context.Context, alerts []Alert) int {
	processed := 0
	for _, a := range alerts {
		to := s.ResolveRecipient(ctx, a.Namespace)
		if to == "" {
			s.logger.Warn("No recipient for alert", zap.String("alert", a.Name), zap.String("namespace", a.Namespace))
			s.metrics.RecordAlertDelivery(false)
			continue
		}

		body, err := RenderHTML(a)
		if err == nil {
			err = s.mail.SendHTML(ctx, to, a.Subject(), body)
		}
		s.metrics.RecordAlertDelivery(err == nil)
		if err != nil {
			s.logger.Warn("Failed to deliver alert",
				zap.String("to", to), zap.String("alert", a.Name), zap.String("namespace", a.Namespace), zap.Error(err))
			continue
		}
		processed++
	}
	return processed
}

func (s *service) SendTest(ctx context.Context, to string) (string, error) {
	if to == "" {
		to = s.cfg.AlertsFallbackEmail
	}
	if to == "" {
		return "", common.NewValidationAPIError(map[string]string{
			"to": "No recipient given and ALERTS_FALLBACK_EMAIL is not set.",
		})
	}

	err := s.mail.SendHTML(ctx, to, "[SmartDevOps] Test Alert",
		"<b>This is a test email from SmartDevOps alert webhook.</b>")
	s.metrics.RecordAlertDelivery(err == nil)
	if err != nil {
		if errors.Is(err, mailer.ErrNotConfigured) {
			return "", common.ErrServiceUnavailable.WithDetails(err.Error())
		}
		return "", common.ErrInternalServer.WithDetails(err.Error())
	}
	return to, nil
}
