// File: internal/onboarding/webhook.go
package onboarding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"devops_platform_backend/internal/config"
)

const webhookTimeout = 5 * time.Second

// Notifier posts onboarding events to an external endpoint.
type Notifier interface {
	Notify(ctx context.Context, payload interface{}) error
}

type webhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier posts to ONBOARDING_WEBHOOK_URL. With no URL set,
// Notify is a no-op.
func NewWebhookNotifier(cfg *config.Config) Notifier {
	return &webhookNotifier{url: cfg.OnboardingWebhookURL, client: &http.Client{Timeout: webhookTimeout}}
}

func (n *webhookNotifier) Notify(ctx context.Context, payload interface{}) error {
	if n.url == "" {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
