package monitor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes/fake"
)

// fakePrometheus answers instant queries by matching on the metric name.
func fakePrometheus(t *testing.T, httpMetrics bool) *httptest.Server {
	t.Helper()
	vector := func(samples ...string) string {
		return `{"status":"success","data":{"resultType":"vector","result":[` + strings.Join(samples, ",") + `]}}`
	}
	sample := func(pod, value string) string {
		metric := "{}"
		if pod != "" {
			metric = fmt.Sprintf(`{"pod":%q}`, pod)
		}
		return fmt.Sprintf(`{"metric":%s,"value":[1700000000,%q]}`, metric, value)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.FormValue("query")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(q, "kube_deployment_status_replicas_available"):
			_, _ = w.Write([]byte(vector(sample("", "2"))))
		case strings.Contains(q, "kube_deployment_status_replicas"):
			_, _ = w.Write([]byte(vector(sample("", "3"))))
		case strings.Contains(q, "container_cpu_usage_seconds_total"):
			_, _ = w.Write([]byte(vector(sample("web-1", "0.01234"), sample("web-2", "0.002"))))
		case strings.Contains(q, "container_memory_working_set_bytes"):
			_, _ = w.Write([]byte(vector(sample("web-1", "1048576"))))
		case strings.Contains(q, "histogram_quantile"), strings.Contains(q, `status=~"5.."`):
			if !httpMetrics {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"status":"error","errorType":"bad_data","error":"unknown metric"}`))
				return
			}
			if strings.Contains(q, "histogram_quantile") {
				_, _ = w.Write([]byte(vector(sample("", "0.2"))))
				return
			}
			_, _ = w.Write([]byte(vector(sample("", "0.5"))))
		case strings.Contains(q, "http_requests_total"):
			_, _ = w.Write([]byte(vector(sample("", "4.2"))))
		default:
			_, _ = w.Write([]byte(vector()))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// fakeLoki serves query_range. With rejectPrimary it answers 400 to pod
// regex selectors so the text filter fallback runs.
func fakeLoki(t *testing.T, rejectPrimary bool, seen *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/query_range" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		q := r.URL.Query()
		*seen = append(*seen, q.Get("query"))
		assert.Equal(t, "backward", q.Get("direction"))
		if rejectPrimary && strings.Contains(q.Get("query"), "pod=~") {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"parse error at line 1"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"success","data":{"resultType":"streams","result":[
			{"stream":{"namespace":"team-a","pod":"web-1"},"values":[["1700000000000000002","second"],["1700000000000000001","first"]]}
		]}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type MonitorServiceTestSuite struct {
	suite.Suite
	client *fake.Clientset
	cfg    *config.Config
}

func (s *MonitorServiceTestSuite) SetupTest() {
	s.client = fake.NewSimpleClientset()
	s.cfg = &config.Config{
		GrafanaURL:           "https://grafana.example.com",
		GrafanaDashboardUID:  "uid1",
		GrafanaDashboardSlug: "kubernetes-app",
	}
}

func (s *MonitorServiceTestSuite) newService(promURL, lokiURL string) Service {
	cfg := *s.cfg
	cfg.PrometheusURL = promURL
	cfg.LokiURL = lokiURL
	prom, err := NewQuerier(&cfg, zap.NewNop())
	s.Require().NoError(err)
	return NewService(s.client, prom, NewLokiClient(&cfg, zap.NewNop()), &cfg, zap.NewNop())
}

func (s *MonitorServiceTestSuite) TestGrafanaURL() {
	svc := s.newService("", "")
	res, err := svc.GrafanaURL("team-a", "web")
	s.Require().NoError(err)
	s.Equal("https://grafana.example.com/d/uid1/kubernetes-app?var-namespace=team-a&var-app=web", res.URL)

	s.cfg.GrafanaURL = ""
	_, err = s.newService("", "").GrafanaURL("team-a", "web")
	apiErr, ok := common.IsAPIError(err)
	s.Require().True(ok)
	s.Equal(http.StatusInternalServerError, apiErr.StatusCode)
}

func (s *MonitorServiceTestSuite) TestPods() {
	ctx := context.Background()
	created := metav1.NewTime(time.Now().Add(-2 * time.Minute))
	_, err := s.client.CoreV1().Pods("team-a").Create(ctx, &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "web-1", Namespace: "team-a", Labels: map[string]string{"app": "web"}, CreationTimestamp: created},
		Status: corev1.PodStatus{
			Phase:             corev1.PodRunning,
			ContainerStatuses: []corev1.ContainerStatus{{Name: "web", Ready: true, Image: "nginx:1.27"}},
		},
	}, metav1.CreateOptions{})
	s.Require().NoError(err)
	_, err = s.client.CoreV1().Pods("team-a").Create(ctx, &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "web-2", Namespace: "team-a", Labels: map[string]string{"app": "web"}, CreationTimestamp: created},
	}, metav1.CreateOptions{})
	s.Require().NoError(err)
	_, err = s.client.CoreV1().Pods("team-a").Create(ctx, &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "db-1", Namespace: "team-a", Labels: map[string]string{"app": "db"}},
	}, metav1.CreateOptions{})
	s.Require().NoError(err)

	pods, err := s.newService("", "").Pods(ctx, "team-a", "web")
	s.Require().NoError(err)
	s.Require().Len(pods, 2)

	byName := map[string]PodItem{}
	for _, p := range pods {
		byName[p.Name] = p
	}
	s.Equal("Running", byName["web-1"].Phase)
	s.True(byName["web-1"].Ready)
	s.Equal("nginx:1.27", byName["web-1"].Image)
	s.GreaterOrEqual(byName["web-1"].AgeSeconds, int64(119))
	s.Equal("Unknown", byName["web-2"].Phase)
	s.False(byName["web-2"].Ready)
}

func (s *MonitorServiceTestSuite) TestOverview() {
	prom := fakePrometheus(s.T(), true)
	res, err := s.newService(prom.URL, "").Overview(context.Background(), "team-a", "web")
	s.Require().NoError(err)

	s.Equal(Replicas{Desired: 3, Available: 2}, res.Replicas)
	s.Require().Len(res.CPUMCores, 2)
	s.Equal("web-1", res.CPUMCores[0].Pod)
	s.InDelta(12.3, res.CPUMCores[0].MCores, 0.001)
	s.InDelta(2.0, res.CPUMCores[1].MCores, 0.001)
	s.Require().Len(res.MemBytes, 1)
	s.Equal(float64(1048576), res.MemBytes[0].Bytes)

	s.Require().NotNil(res.HTTP)
	s.InDelta(0.5, res.HTTP.ErrorsRate, 0.0001)
	s.Require().NotNil(res.HTTP.P95Ms)
	s.InDelta(200.0, *res.HTTP.P95Ms, 0.0001)
}

func (s *MonitorServiceTestSuite) TestOverview_WithoutHTTPMetrics() {
	prom := fakePrometheus(s.T(), false)
	res, err := s.newService(prom.URL, "").Overview(context.Background(), "team-a", "web")
	s.Require().NoError(err)
	s.Nil(res.HTTP)
	s.Len(res.CPUMCores, 2)
}

func (s *MonitorServiceTestSuite) TestOverview_PrometheusDisabled() {
	_, err := s.newService("", "").Overview(context.Background(), "team-a", "web")
	apiErr, ok := common.IsAPIError(err)
	s.Require().True(ok)
	s.Equal(http.StatusServiceUnavailable, apiErr.StatusCode)
}

func (s *MonitorServiceTestSuite) TestRequestRate() {
	prom := fakePrometheus(s.T(), true)
	res, err := s.newService(prom.URL, "").RequestRate(context.Background(), "team-a")
	s.Require().NoError(err)
	s.Equal(`sum(rate(http_requests_total{namespace="team-a"}[5m]))`, res.Query)
	s.Require().Len(res.Result, 1)
	s.InDelta(4.2, res.Result[0].Value, 0.0001)
}

func (s *MonitorServiceTestSuite) TestLogs() {
	var seen []string
	loki := fakeLoki(s.T(), false, &seen)

	res, err := s.newService("", loki.URL).Logs(context.Background(), "team-a", "web", "", 50)
	s.Require().NoError(err)
	s.Require().Len(res.Items, 2)
	s.Equal("second", res.Items[0].Line)
	s.Equal("web-1", res.Items[0].Labels["pod"])
	s.Equal([]string{`{namespace="team-a", pod=~"web.*"}`}, seen)
}

func (s *MonitorServiceTestSuite) TestLogs_FallbackWithFilter() {
	var seen []string
	loki := fakeLoki(s.T(), true, &seen)

	res, err := s.newService("", loki.URL).Logs(context.Background(), "team-a", "web", "error", 50)
	s.Require().NoError(err)
	s.Len(res.Items, 2)
	s.Require().Len(seen, 2)
	s.Equal(`{namespace="team-a"} |= "web" |= "error"`, seen[1])
}

func (s *MonitorServiceTestSuite) TestLogs_UpstreamErrors() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"too many outstanding requests"}`))
	}))
	defer srv.Close()

	_, err := s.newService("", srv.URL).Logs(context.Background(), "team-a", "web", "", 10)
	apiErr, ok := common.IsAPIError(err)
	s.Require().True(ok)
	s.Equal(http.StatusBadGateway, apiErr.StatusCode)
	s.Equal("Loki error: too many outstanding requests", apiErr.Details)

	_, err = s.newService("", "http://127.0.0.1:1").Logs(context.Background(), "team-a", "web", "", 10)
	apiErr, ok = common.IsAPIError(err)
	s.Require().True(ok)
	s.Equal(http.StatusBadGateway, apiErr.StatusCode)
	s.Contains(apiErr.Details, "Loki request failed")
}

func (s *MonitorServiceTestSuite) TestEvents() {
	ctx := context.Background()
	now := time.Now()
	mk := func(name, object string, at time.Time) {
		_, err := s.client.CoreV1().Events("team-a").Create(ctx, &corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Name: name, Namespace: "team-a"},
			InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: object, UID: types.UID("uid-" + name)},
			Type:           corev1.EventTypeWarning,
			Reason:         "BackOff",
			Message:        "restarting " + object,
			LastTimestamp:  metav1.NewTime(at),
		}, metav1.CreateOptions{})
		s.Require().NoError(err)
	}
	mk("e1", "web-1", now.Add(-10*time.Minute))
	mk("e2", "web-2", now.Add(-1*time.Minute))
	mk("e3", "db-1", now.Add(-1*time.Minute))
	mk("e4", "web-3", now.Add(-3*time.Hour))

	res, err := s.newService("", "").Events(ctx, "team-a", "web", time.Hour)
	s.Require().NoError(err)
	s.Require().Len(res.Items, 2)
	s.Equal("web-2", res.Items[0].Regarding.Name)
	s.Equal("web-1", res.Items[1].Regarding.Name)
	s.Equal("uid-e1", res.Items[1].Regarding.UID)
	s.Require().NotNil(res.Items[0].TS)

	res, err = s.newService("", "").Events(ctx, "team-a", "web", 0)
	s.Require().NoError(err)
	s.Len(res.Items, 3)
}

func TestMonitorServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MonitorServiceTestSuite))
}

func TestParseStreams_Empty(t *testing.T) {
	items := parseStreams([]byte(`{"data":{"result":[]}}`))
	require.NotNil(t, items)
	assert.Empty(t, items)
}
