// File: internal/workload/objects.go
package workload

import (
	"fmt"

	"devops_platform_backend/internal/platform/kube"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"
)

const (
	appLabel   = "app"
	colorLabel = "color"
)

// buildContainer converts spec into the app container.
func buildContainer(spec *AppSpec) (corev1.Container, error) {
	resources, err := buildResources(spec.Resources)
	if err != nil {
		return corev1.Container{}, err
	}

	env := make([]corev1.EnvVar, 0, len(spec.Env))
	for _, e := range spec.Env {
		env = append(env, corev1.EnvVar{Name: e.Name, Value: e.Value})
	}

	readinessPath := spec.ReadinessPath
	if readinessPath == "" {
		readinessPath = spec.HealthPath
	}
	port := intstr.FromInt32(int32(spec.Port))

	return corev1.Container{
		Name:            spec.EffectiveContainerName(),
		Image:           spec.FullImage(),
		ImagePullPolicy: corev1.PullAlways,
		Ports:           []corev1.ContainerPort{{ContainerPort: int32(spec.Port)}},
		Env:             env,
		LivenessProbe: &corev1.Probe{
			ProbeHandler: corev1.ProbeHandler{
				HTTPGet: &corev1.HTTPGetAction{Path: spec.HealthPath, Port: port},
			},
			InitialDelaySeconds: 10,
			PeriodSeconds:       10,
			TimeoutSeconds:      2,
			FailureThreshold:    3,
		},
		ReadinessProbe: &corev1.Probe{
			ProbeHandler: corev1.ProbeHandler{
				HTTPGet: &corev1.HTTPGetAction{Path: readinessPath, Port: port},
			},
			InitialDelaySeconds: 5,
			PeriodSeconds:       5,
			TimeoutSeconds:      2,
			FailureThreshold:    3,
		},
		Resources: resources,
		SecurityContext: &corev1.SecurityContext{
			RunAsUser:                ptr.To[int64](1001),
			RunAsNonRoot:             ptr.To(true),
			AllowPrivilegeEscalation: ptr.To(false),
		},
	}, nil
}

func buildResources(in map[string]map[string]string) (corev1.ResourceRequirements, error) {
	var out corev1.ResourceRequirements
	for kind, values := range in {
		list := corev1.ResourceList{}
		for name, raw := range values {
			q, err := resource.ParseQuantity(raw)
			if err != nil {
				return out, fmt.Errorf("invalid %s.%s quantity %q: %w", kind, name, raw, err)
			}
			list[corev1.ResourceName(name)] = q
		}
		switch kind {
		case "requests":
			out.Requests = list
		case "limits":
			out.Limits = list
		default:
			return out, fmt.Errorf("unknown resources key %q (expected requests or limits)", kind)
		}
	}
	return out, nil
}

// buildDeployment renders a Deployment whose selector is selector and whose
// pods carry the platform labels plus selector. The Service fronting the app
// is recorded in an annotation.
func buildDeployment(name string, spec *AppSpec, selector map[string]string) (*appsv1.Deployment, error) {
	container, err := buildContainer(spec)
	if err != nil {
		return nil, err
	}
	labels := kube.PlatformLabels(selector)
	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{
			Name:        name,
			Labels:      labels,
			Annotations: map[string]string{ServiceAnnotation: spec.EffectiveServiceName()},
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(int32(spec.Replicas)),
			Selector: &metav1.LabelSelector{MatchLabels: selector},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec:       corev1.PodSpec{Containers: []corev1.Container{container}},
			},
		},
	}, nil
}

// buildService renders the ClusterIP Service created for a new app.
func buildService(spec *AppSpec) *corev1.Service {
	return &corev1.Service{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: metav1.ObjectMeta{
			Name:   spec.EffectiveServiceName(),
			Labels: kube.PlatformLabels(map[string]string{appLabel: spec.EffectiveAppLabel()}),
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: map[string]string{appLabel: spec.EffectiveAppLabel()},
			Ports: []corev1.ServicePort{{
				Name:       "http",
				Port:       int32(spec.Port),
				TargetPort: intstr.FromInt32(int32(spec.Port)),
			}},
		},
	}
}

func toStatusItem(d *appsv1.Deployment) StatusItem {
	item := StatusItem{
		Name:       d.Name,
		Current:    d.Status.Replicas,
		Available:  d.Status.AvailableReplicas,
		Updated:    d.Status.UpdatedReplicas,
		Conditions: map[string]string{},
	}
	if d.Spec.Replicas != nil {
		item.Desired = *d.Spec.Replicas
	}
	if cs := d.Spec.Template.Spec.Containers; len(cs) > 0 {
		item.Image = cs[0].Image
	}
	for _, c := range d.Status.Conditions {
		item.Conditions[string(c.Type)] = string(c.Status)
	}
	return item
}
