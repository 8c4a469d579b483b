// File: internal/monitor/model.go
package monitor

// PodItem is one pod of an app.
type PodItem struct {
	Name       string `json:"name"`
	Phase      string `json:"phase"`
	Ready      bool   `json:"ready"`
	AgeSeconds int64  `json:"age_seconds"`
	Image      string `json:"image"`
}

// Replicas is the desired/available pair reported by kube-state-metrics.
type Replicas struct {
	Desired   int `json:"desired"`
	Available int `json:"available"`
}

// PodCPU is the CPU usage of one pod in millicores.
type PodCPU struct {
	Pod    string  `json:"pod"`
	MCores float64 `json:"mcores"`
}

// PodMemory is the working set of one pod.
type PodMemory struct {
	Pod   string  `json:"pod"`
	Bytes float64 `json:"bytes"`
}

// HTTPStats holds the optional request metrics an app exports itself.
type HTTPStats struct {
	ErrorsRate float64  `json:"errors_rate"`
	P95Ms      *float64 `json:"p95_ms"`
}

// Overview summarises an app from Prometheus.
type Overview struct {
	Namespace string      `json:"namespace"`
	App       string      `json:"app"`
	Replicas  Replicas    `json:"replicas"`
	CPUMCores []PodCPU    `json:"cpu_mcores"`
	MemBytes  []PodMemory `json:"mem_bytes"`
	HTTP      *HTTPStats  `json:"http"`
}

// LogLine is one Loki entry.
type LogLine struct {
	TS     string            `json:"ts"`
	Line   string            `json:"line"`
	Labels map[string]string `json:"labels"`
}

// LogsResponse wraps Loki entries.
type LogsResponse struct {
	Items []LogLine `json:"items"`
}

// EventRef identifies the object an event is about.
type EventRef struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	UID  string `json:"uid"`
}

// EventItem is one Kubernetes event.
type EventItem struct {
	Type      string   `json:"type"`
	Reason    string   `json:"reason"`
	Message   string   `json:"message"`
	TS        *string  `json:"ts"`
	Regarding EventRef `json:"regarding"`
}

// EventsResponse wraps events.
type EventsResponse struct {
	Items []EventItem `json:"items"`
}

// Sample is one element of an instant vector.
type Sample struct {
	Metric map[string]string `json:"metric"`
	Value  float64           `json:"value"`
}

// MetricsResponse is the request rate of a namespace.
type MetricsResponse struct {
	Query  string   `json:"query"`
	Result []Sample `json:"result"`
}

// GrafanaURLResponse carries the dashboard link.
type GrafanaURLResponse struct {
	URL string `json:"url"`
}
