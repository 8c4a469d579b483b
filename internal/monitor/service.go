// File: internal/monitor/service.go
package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/config"
	"devops_platform_backend/internal/grafana"

	"github.com/prometheus/common/model"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const logWindow = 15 * time.Minute

// Service answers the observability queries of one tenant namespace.
type Service interface {
	GrafanaURL(ns, app string) (*GrafanaURLResponse, error)
	Pods(ctx context.Context, ns, app string) ([]PodItem, error)
	Overview(ctx context.Context, ns, app string) (*Overview, error)
	Logs(ctx context.Context, ns, app, filter string, limit int) (*LogsResponse, error)
	Events(ctx context.Context, ns, app string, since time.Duration) (*EventsResponse, error)
	RequestRate(ctx context.Context, ns string) (*MetricsResponse, error)
}

type service struct {
	client kubernetes.Interface
	prom   Querier
	loki   LokiClient
	cfg    *config.Config
	logger *zap.Logger
}

// NewService creates a new monitor service.
func NewService(client kubernetes.Interface, prom Querier, loki LokiClient, cfg *config.Config, logger *zap.Logger) Service {
	return &service{
		client: client,
		prom:   prom,
		loki:   loki,
		cfg:    cfg,
		logger: logger.Named("MonitorService"),
	}
}

func (s *service) GrafanaURL(ns, app string) (*GrafanaURLResponse, error) {
	u, err := grafana.DashboardURL(s.cfg, ns, app)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails(err.Error())
	}
	return &GrafanaURLResponse{URL: u}, nil
}

func (s *service) Pods(ctx context.Context, ns, app string) ([]PodItem, error) {
	pods, err := s.client.CoreV1().Pods(ns).List(ctx, metav1.ListOptions{LabelSelector: "app=" + app})
	if err != nil {
		return nil, kubeError(err)
	}

	now := time.Now()
	out := make([]PodItem, 0, len(pods.Items))
	for i := range pods.Items {
		p := &pods.Items[i]
		item := PodItem{
			Name:       p.Name,
			Phase:      string(p.Status.Phase),
			AgeSeconds: int64(now.Sub(p.CreationTimestamp.Time).Seconds()),
		}
		if item.Phase == "" {
			item.Phase = "Unknown"
		}
		if len(p.Status.ContainerStatuses) > 0 {
			cs := p.Status.ContainerStatuses[0]
			item.Ready = cs.Ready
			item.Image = cs.Image
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *service) Overview(ctx context.Context, ns, app string) (*Overview, error) {
	podRe := regexp.QuoteMeta(app) + ".*"

	out := &Overview{
		Namespace: ns,
		App:       app,
		Replicas: Replicas{
			Desired:   s.scalarInt(ctx, fmt.Sprintf(`kube_deployment_status_replicas{namespace=%q,deployment=%q}`, ns, app)),
			Available: s.scalarInt(ctx, fmt.Sprintf(`kube_deployment_status_replicas_available{namespace=%q,deployment=%q}`, ns, app)),
		},
		CPUMCores: []PodCPU{},
		MemBytes:  []PodMemory{},
	}

	cpu, err := s.prom.Vector(ctx, fmt.Sprintf(
		`sum by(pod) (rate(container_cpu_usage_seconds_total{namespace=%q, pod=~%q, image!=""}[5m]))`, ns, podRe))
	if err != nil {
		return nil, promError(err)
	}
	for _, smp := range cpu {
		out.CPUMCores = append(out.CPUMCores, PodCPU{
			Pod:    string(smp.Metric["pod"]),
			MCores: math.Round(float64(smp.Value)*1000*10) / 10,
		})
	}

	mem, err := s.prom.Vector(ctx, fmt.Sprintf(
		`max by(pod) (container_memory_working_set_bytes{namespace=%q, pod=~%q, image!=""})`, ns, podRe))
	if err != nil {
		return nil, promError(err)
	}
	for _, smp := range mem {
		out.MemBytes = append(out.MemBytes, PodMemory{Pod: string(smp.Metric["pod"]), Bytes: float64(smp.Value)})
	}

	out.HTTP = s.httpStats(ctx, ns, app)
	return out, nil
}

// httpStats is best effort: apps without request metrics yield nil.
func (s *service) httpStats(ctx context.Context, ns, app string) *HTTPStats {
	errs, err := s.prom.Vector(ctx, fmt.Sprintf(
		`sum(rate(http_requests_total{namespace=%q, app=%q, status=~"5.."}[5m]))`, ns, app))
	if err != nil {
		s.logger.Debug("HTTP error rate unavailable", zap.String("namespace", ns), zap.String("app", app), zap.Error(err))
		return nil
	}
	lat, err := s.prom.Vector(ctx, fmt.Sprintf(
		`histogram_quantile(0.95, sum by(le) (rate(http_request_duration_seconds_bucket{namespace=%q, app=%q}[5m])))`, ns, app))
	if err != nil {
		s.logger.Debug("HTTP latency unavailable", zap.String("namespace", ns), zap.String("app", app), zap.Error(err))
		return nil
	}

	stats := &HTTPStats{}
	if v, ok := firstValue(errs); ok && !math.IsNaN(v) {
		stats.ErrorsRate = v
	}
	if v, ok := firstValue(lat); ok && !math.IsNaN(v) {
		ms := v * 1000
		stats.P95Ms = &ms
	}
	return stats
}

func (s *service) scalarInt(ctx context.Context, query string) int {
	v, err := s.prom.Vector(ctx, query)
	if err != nil {
		s.logger.Debug("Replica query failed", zap.String("query", query), zap.Error(err))
		return 0
	}
	f, ok := firstValue(v)
	if !ok || math.IsNaN(f) {
		return 0
	}
	return int(f)
}

func (s *service) Logs(ctx context.Context, ns, app, filter string, limit int) (*LogsResponse, error) {
	end := time.Now()
	q := LokiQuery{
		Query: fmt.Sprintf(`{namespace=%q, pod=~%q}`, ns, regexp.QuoteMeta(app)+".*") + lineFilter(filter),
		Start: end.Add(-logWindow),
		End:   end,
		Limit: limit,
	}

	lines, err := s.loki.QueryRange(ctx, q)
	if err == nil {
		return &LogsResponse{Items: lines}, nil
	}
	var first *LokiStatusError
	if !errors.As(err, &first) {
		return nil, common.ErrBadGateway.WithDetails("Loki request failed: " + err.Error())
	}

	// Streams without a pod label still carry the app name in the line.
	q.Query = fmt.Sprintf(`{namespace=%q} |= %q`, ns, app) + lineFilter(filter)
	lines, err = s.loki.QueryRange(ctx, q)
	if err == nil {
		return &LogsResponse{Items: lines}, nil
	}
	var second *LokiStatusError
	if errors.As(err, &second) {
		s.logger.Warn("Loki rejected both log queries", zap.String("namespace", ns), zap.String("app", app), zap.String("error", first.Message))
		return nil, common.ErrBadGateway.WithDetails("Loki error: " + first.Message)
	}
	return nil, common.ErrBadGateway.WithDetails("Loki request failed: " + err.Error())
}

func lineFilter(filter string) string {
	if filter == "" {
		return ""
	}
	return " |= " + strconv.Quote(filter)
}

func (s *service) Events(ctx context.Context, ns, app string, since time.Duration) (*EventsResponse, error) {
	list, err := s.client.CoreV1().Events(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, kubeError(err)
	}

	var cutoff time.Time
	if since > 0 {
		cutoff = time.Now().Add(-since)
	}

	type stamped struct {
		item EventItem
		at   time.Time
	}
	var matched []stamped
	for i := range list.Items {
		e := &list.Items[i]
		if app != "" && !strings.Contains(e.InvolvedObject.Name, app) {
			continue
		}
		at := eventTime(e)
		if !cutoff.IsZero() && !at.IsZero() && at.Before(cutoff) {
			continue
		}

		item := EventItem{
			Type:    e.Type,
			Reason:  e.Reason,
			Message: e.Message,
			Regarding: EventRef{
				Kind: e.InvolvedObject.Kind,
				Name: e.InvolvedObject.Name,
				UID:  string(e.InvolvedObject.UID),
			},
		}
		if !at.IsZero() {
			ts := at.UTC().Format(time.RFC3339)
			item.TS = &ts
		}
		matched = append(matched, stamped{item: item, at: at})
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].at.After(matched[j].at) })
	out := &EventsResponse{Items: make([]EventItem, 0, len(matched))}
	for _, m := range matched {
		out.Items = append(out.Items, m.item)
	}
	return out, nil
}

func eventTime(e *corev1.Event) time.Time {
	switch {
	case !e.LastTimestamp.IsZero():
		return e.LastTimestamp.Time
	case !e.EventTime.IsZero():
		return e.EventTime.Time
	case !e.FirstTimestamp.IsZero():
		return e.FirstTimestamp.Time
	default:
		return e.CreationTimestamp.Time
	}
}

func (s *service) RequestRate(ctx context.Context, ns string) (*MetricsResponse, error) {
	query := fmt.Sprintf(`sum(rate(http_requests_total{namespace=%q}[5m]))`, ns)
	vec, err := s.prom.Vector(ctx, query)
	if err != nil {
		return nil, promError(err)
	}
	return &MetricsResponse{Query: query, Result: toSamples(vec)}, nil
}

func toSamples(vec model.Vector) []Sample {
	out := make([]Sample, 0, len(vec))
	for _, smp := range vec {
		labels := make(map[string]string, len(smp.Metric))
		for k, v := range smp.Metric {
			labels[string(k)] = string(v)
		}
		val := float64(smp.Value)
		if math.IsNaN(val) {
			val = 0
		}
		out = append(out, Sample{Metric: labels, Value: val})
	}
	return out
}

func promError(err error) error {
	if errors.Is(err, ErrPrometheusDisabled) {
		return common.ErrServiceUnavailable.WithDetails(err.Error())
	}
	return common.ErrBadGateway.WithDetails("Prometheus query failed: " + err.Error())
}

func kubeError(err error) error {
	return common.ErrInternalServer.WithDetails(err.Error())
}
