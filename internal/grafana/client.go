// File: internal/grafana/client.go
package grafana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"devops_platform_backend/internal/config"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	// DefaultFolderTitle and DefaultFolderUID name the folder app dashboards live in.
	DefaultFolderTitle = "Apps"
	DefaultFolderUID   = "apps-folder"
	// DefaultDashboardUID is the dashboard the tenant UI links to.
	DefaultDashboardUID = "app-observability"
)

var (
	// ErrNoBaseURL is returned when GRAFANA_URL is unset.
	ErrNoBaseURL = errors.New("GRAFANA_URL is not set")
	// ErrNoToken is returned by API calls when GRAFANA_TOKEN is unset.
	ErrNoToken = errors.New("GRAFANA_TOKEN is not set, cannot call the Grafana API")
)

// DashboardURL builds the link a tenant opens for one app. Without a
// dashboard UID it falls back to the Grafana home page.
func DashboardURL(cfg *config.Config, ns, app string) (string, error) {
	base := strings.TrimRight(cfg.GrafanaURL, "/")
	if base == "" {
		return "", ErrNoBaseURL
	}
	uid := strings.TrimSpace(cfg.GrafanaDashboardUID)
	if uid == "" {
		return base + "/?orgId=1", nil
	}
	slug := strings.TrimSpace(cfg.GrafanaDashboardSlug)
	if slug == "" {
		slug = "kubernetes-app"
	}
	return fmt.Sprintf("%s/d/%s/%s?var-namespace=%s&var-app=%s",
		base, uid, slug, url.QueryEscape(ns), url.QueryEscape(app)), nil
}

// Folder is the subset of the Grafana folder object the platform reads.
type Folder struct {
	ID    int64  `json:"id"`
	UID   string `json:"uid"`
	Title string `json:"title"`
}

// DashboardResult is the Grafana answer to a dashboard save.
type DashboardResult struct {
	ID      int64  `json:"id"`
	UID     string `json:"uid"`
	URL     string `json:"url"`
	Status  string `json:"status"`
	Version int64  `json:"version"`
}

// Client provisions folders and dashboards through the Grafana HTTP API.
type Client interface {
	EnsureFolder(ctx context.Context, title, uid string) (*Folder, error)
	UpsertDashboard(ctx context.Context, folderUID string, dashboard map[string]interface{}) (*DashboardResult, error)
}

type httpClient struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a Grafana API client from GRAFANA_URL and GRAFANA_TOKEN.
func NewClient(cfg *config.Config, logger *zap.Logger) Client {
	return &httpClient{
		baseURL: strings.TrimRight(cfg.GrafanaURL, "/"),
		token:   cfg.GrafanaToken,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger.Named("Grafana"),
	}
}

func (c *httpClient) EnsureFolder(ctx context.Context, title, uid string) (*Folder, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/folders/"+url.PathEscape(uid), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusOK {
		c.logger.Debug("Grafana folder exists", zap.String("uid", uid))
		return parseFolder(body), nil
	}

	status, body, err = c.do(ctx, http.MethodPost, "/api/folders", map[string]string{"uid": uid, "title": title})
	if err != nil {
		return nil, err
	}
	if status >= http.StatusMultipleChoices {
		return nil, apiError("create folder", status, body)
	}
	c.logger.Info("Grafana folder created", zap.String("uid", uid), zap.String("title", title))
	return parseFolder(body), nil
}

func (c *httpClient) UpsertDashboard(ctx context.Context, folderUID string, dashboard map[string]interface{}) (*DashboardResult, error) {
	payload := map[string]interface{}{
		"dashboard": dashboard,
		"overwrite": true,
		"message":   "provisioned by devops-platform",
	}
	if folderUID != "" {
		payload["folderUid"] = folderUID
	}

	status, body, err := c.do(ctx, http.MethodPost, "/api/dashboards/db", payload)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusMultipleChoices {
		return nil, apiError("save dashboard", status, body)
	}

	res := gjson.ParseBytes(body)
	out := &DashboardResult{
		ID:      res.Get("id").Int(),
		UID:     res.Get("uid").String(),
		URL:     res.Get("url").String(),
		Status:  res.Get("status").String(),
		Version: res.Get("version").Int(),
	}
	c.logger.Info("Grafana dashboard saved", zap.String("uid", out.UID), zap.Int64("version", out.Version))
	return out, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, payload interface{}) (int, []byte, error) {
	if c.baseURL == "" {
		return 0, nil, ErrNoBaseURL
	}
	if c.token == "" {
		return 0, nil, ErrNoToken
	}

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode grafana payload: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("grafana %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read grafana response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func parseFolder(body []byte) *Folder {
	res := gjson.ParseBytes(body)
	return &Folder{
		ID:    res.Get("id").Int(),
		UID:   res.Get("uid").String(),
		Title: res.Get("title").String(),
	}
}

func apiError(op string, status int, body []byte) error {
	msg := gjson.GetBytes(body, "message").String()
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	return fmt.Errorf("grafana %s: status %d: %s", op, status, msg)
}
