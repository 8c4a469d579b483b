// File: internal/monitor/prometheus.go
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"devops_platform_backend/internal/config"

	promapi "github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"go.uber.org/zap"
)

const promTimeout = 10 * time.Second

// ErrPrometheusDisabled is returned by queries when PROM_URL is unset.
var ErrPrometheusDisabled = errors.New("PROM_URL is not set")

// Querier runs PromQL instant queries.
type Querier interface {
	Vector(ctx context.Context, query string) (model.Vector, error)
}

type promQuerier struct {
	api    promv1.API
	logger *zap.Logger
}

// NewQuerier creates a Prometheus HTTP API querier for PROM_URL.
func NewQuerier(cfg *config.Config, logger *zap.Logger) (Querier, error) {
	if cfg.PrometheusURL == "" {
		logger.Warn("PROM_URL is not set, monitor overview and metrics are disabled")
		return disabledQuerier{}, nil
	}
	client, err := promapi.NewClient(promapi.Config{Address: cfg.PrometheusURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	return &promQuerier{api: promv1.NewAPI(client), logger: logger.Named("Prometheus")}, nil
}

func (q *promQuerier) Vector(ctx context.Context, query string) (model.Vector, error) {
	ctx, cancel := context.WithTimeout(ctx, promTimeout)
	defer cancel()

	val, warnings, err := q.api.Query(ctx, query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("prometheus query %q: %w", query, err)
	}
	if len(warnings) > 0 {
		q.logger.Debug("Prometheus query warnings", zap.String("query", query), zap.Strings("warnings", warnings))
	}

	switch v := val.(type) {
	case model.Vector:
		return v, nil
	case *model.Scalar:
		return model.Vector{&model.Sample{Value: v.Value, Timestamp: v.Timestamp}}, nil
	default:
		return nil, fmt.Errorf("prometheus query %q: unexpected result type %s", query, val.Type())
	}
}

type disabledQuerier struct{}

func (disabledQuerier) Vector(context.Context, string) (model.Vector, error) {
	return nil, ErrPrometheusDisabled
}

// firstValue returns the value of the first sample, or false when the vector is empty.
func firstValue(v model.Vector) (float64, bool) {
	if len(v) == 0 {
		return 0, false
	}
	return float64(v[0].Value), true
}
