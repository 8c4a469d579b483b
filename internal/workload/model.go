// File: internal/workload/model.go
package workload

import "fmt"

// EnvVar is a container environment variable.
type EnvVar struct {
	Name  string `json:"name" binding:"required,min=1"`
	Value string `json:"value"`
}

// AppSpec describes an application to deploy into the caller's namespace.
type AppSpec struct {
	Name          string `json:"name" binding:"required,max=63,dns1123"`
	AppLabel      string `json:"app_label,omitempty" binding:"omitempty,max=63"`
	ServiceName   string `json:"service_name,omitempty" binding:"omitempty,max=63,dns1123"`
	ContainerName string `json:"container_name,omitempty" binding:"omitempty,max=63,dns1123"`

	Image string `json:"image" binding:"required"`
	Tag   string `json:"tag" binding:"required"`
	Port  int    `json:"port" binding:"required,gte=1,lte=65535"`

	HealthPath    string `json:"health_path"`
	ReadinessPath string `json:"readiness_path"`
	MetricsPath   string `json:"metrics_path"`

	Replicas  int                          `json:"replicas" binding:"gte=1,lte=50"`
	Env       []EnvVar                     `json:"env" binding:"dive"`
	Resources map[string]map[string]string `json:"resources"`
}

// NewAppSpec returns a spec holding the defaults. Request bodies are decoded
// on top of it so absent fields keep their default while explicit values,
// including empty strings, win.
func NewAppSpec() AppSpec {
	return AppSpec{
		HealthPath:    "/healthz",
		ReadinessPath: "/ready",
		MetricsPath:   "/metrics",
		Replicas:      1,
		Env:           []EnvVar{},
		Resources: map[string]map[string]string{
			"requests": {"cpu": "100m", "memory": "128Mi"},
			"limits":   {"cpu": "500m", "memory": "512Mi"},
		},
	}
}

// FullImage returns "image:tag".
func (s *AppSpec) FullImage() string {
	return fmt.Sprintf("%s:%s", s.Image, s.Tag)
}

// EffectiveAppLabel is the value of the "app" selector label.
func (s *AppSpec) EffectiveAppLabel() string {
	if s.AppLabel != "" {
		return s.AppLabel
	}
	return s.Name
}

// EffectiveServiceName is the Service managed for the app.
func (s *AppSpec) EffectiveServiceName() string {
	if s.ServiceName != "" {
		return s.ServiceName
	}
	return s.Name
}

// EffectiveContainerName is the container patched inside the pod template.
func (s *AppSpec) EffectiveContainerName() string {
	if s.ContainerName != "" {
		return s.ContainerName
	}
	return s.Name
}

// ScaleRequest changes the replica count of a deployed app.
type ScaleRequest struct {
	Name      string `json:"name" binding:"required"`
	Replicas  int    `json:"replicas" binding:"required,gte=1,lte=100"`
	Namespace string `json:"namespace,omitempty"`
}

// NameNS names an app. Namespace is accepted for compatibility and ignored.
type NameNS struct {
	Name      string `json:"name" binding:"required"`
	Namespace string `json:"namespace,omitempty"`
}

// StatusItem summarises one deployment.
type StatusItem struct {
	Name       string            `json:"name"`
	Image      string            `json:"image"`
	Desired    int32             `json:"desired"`
	Current    int32             `json:"current"`
	Available  int32             `json:"available"`
	Updated    int32             `json:"updated"`
	Conditions map[string]string `json:"conditions"`
}

// StatusResponse lists deployment summaries.
type StatusResponse struct {
	Items []StatusItem `json:"items"`
}

// ValidateResponse echoes a spec after validation.
type ValidateResponse struct {
	OK        bool    `json:"ok"`
	Received  AppSpec `json:"received"`
	FullImage string  `json:"full_image"`
}
