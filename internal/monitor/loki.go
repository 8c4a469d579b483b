// File: internal/monitor/loki.go
package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"devops_platform_backend/internal/config"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// LokiQuery is one query_range request.
type LokiQuery struct {
	Query string
	Start time.Time
	End   time.Time
	Limit int
}

// LokiStatusError is returned when Loki answers with a non-200 status.
type LokiStatusError struct {
	StatusCode int
	Message    string
}

func (e *LokiStatusError) Error() string {
	return fmt.Sprintf("loki returned %d: %s", e.StatusCode, e.Message)
}

// LokiClient reads log lines from Loki.
type LokiClient interface {
	QueryRange(ctx context.Context, q LokiQuery) ([]LogLine, error)
}

type lokiClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewLokiClient creates a client for LOKI_URL.
func NewLokiClient(cfg *config.Config, logger *zap.Logger) LokiClient {
	return &lokiClient{
		baseURL: strings.TrimRight(cfg.LokiURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger.Named("Loki"),
	}
}

func (l *lokiClient) QueryRange(ctx context.Context, q LokiQuery) ([]LogLine, error) {
	params := url.Values{}
	params.Set("query", q.Query)
	params.Set("start", strconv.FormatInt(q.Start.UnixNano(), 10))
	params.Set("end", strconv.FormatInt(q.End.UnixNano(), 10))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("direction", "backward")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/loki/api/v1/query_range?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		l.logger.Debug("Loki query rejected", zap.String("query", q.Query), zap.Int("status", resp.StatusCode))
		return nil, &LokiStatusError{StatusCode: resp.StatusCode, Message: msg}
	}
	return parseStreams(body), nil
}

// parseStreams flattens data.result[].values into log lines.
func parseStreams(body []byte) []LogLine {
	items := []LogLine{}
	gjson.GetBytes(body, "data.result").ForEach(func(_, stream gjson.Result) bool {
		labels := map[string]string{}
		stream.Get("stream").ForEach(func(k, v gjson.Result) bool {
			labels[k.String()] = v.String()
			return true
		})
		stream.Get("values").ForEach(func(_, pair gjson.Result) bool {
			items = append(items, LogLine{
				TS:     pair.Get("0").String(),
				Line:   pair.Get("1").String(),
				Labels: labels,
			})
			return true
		})
		return true
	})
	return items
}
