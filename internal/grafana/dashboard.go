package grafana

// AppObservabilityDashboard returns the dashboard model linked from the
// tenant UI. It is parameterised by the namespace and app template variables.
func AppObservabilityDashboard(uid string) map[string]interface{} {
	if uid == "" {
		uid = DefaultDashboardUID
	}
	return map[string]interface{}{
		"uid":           uid,
		"title":         "App Observability",
		"tags":          []string{"devops-platform"},
		"timezone":      "browser",
		"schemaVersion": 39,
		"time":          map[string]string{"from": "now-6h", "to": "now"},
		"templating": map[string]interface{}{
			"list": []interface{}{
				textVariable("namespace"),
				textVariable("app"),
			},
		},
		"panels": []interface{}{
			timeseriesPanel(1, "CPU (mcores)", 0, 0,
				`sum by(pod) (rate(container_cpu_usage_seconds_total{namespace="$namespace", pod=~"$app.*", image!=""}[5m])) * 1000`),
			timeseriesPanel(2, "Memory (bytes)", 12, 0,
				`max by(pod) (container_memory_working_set_bytes{namespace="$namespace", pod=~"$app.*", image!=""})`),
			timeseriesPanel(3, "HTTP 5xx rate", 0, 8,
				`sum(rate(http_requests_total{namespace="$namespace", app="$app", status=~"5.."}[5m]))`),
			timeseriesPanel(4, "HTTP p95 latency (s)", 12, 8,
				`histogram_quantile(0.95, sum by(le) (rate(http_request_duration_seconds_bucket{namespace="$namespace", app="$app"}[5m])))`),
			map[string]interface{}{
				"id":         5,
				"type":       "logs",
				"title":      "Logs",
				"gridPos":    map[string]int{"x": 0, "y": 16, "w": 24, "h": 10},
				"datasource": map[string]string{"type": "loki"},
				"targets": []interface{}{
					map[string]string{"refId": "A", "expr": `{namespace="$namespace", pod=~"$app.*"}`},
				},
			},
		},
	}
}

func textVariable(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":  name,
		"type":  "textbox",
		"label": name,
		"query": "",
	}
}

func timeseriesPanel(id int, title string, x, y int, expr string) map[string]interface{} {
	return map[string]interface{}{
		"id":         id,
		"type":       "timeseries",
		"title":      title,
		"gridPos":    map[string]int{"x": x, "y": y, "w": 12, "h": 8},
		"datasource": map[string]string{"type": "prometheus"},
		"targets": []interface{}{
			map[string]string{"refId": "A", "expr": expr},
		},
	}
}
