// File: internal/workload/bluegreen.go
package workload

import (
	"context"
	"encoding/json"
	"fmt"

	"devops_platform_backend/internal/common"

	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
)

// Deployment colors. ColorStable marks the pods of the plain app
// deployment once an app enters its first blue/green round.
const (
	ColorBlue   = "blue"
	ColorGreen  = "green"
	ColorStable = "stable"
)

// Service annotations recording which color receives traffic, and the
// deployment annotation naming the Service in front of a deployment.
const (
	ActiveColorAnnotation   = "devops-platform/active-color"
	PreviousColorAnnotation = "devops-platform/previous-color"
	ServiceAnnotation       = "devops-platform/service"
)

// BlueGreenResult describes the traffic state after a blue/green step.
type BlueGreenResult struct {
	OK         bool   `json:"ok"`
	Name       string `json:"name"`
	Service    string `json:"service"`
	Deployment string `json:"deployment"`
	Color      string `json:"color"`
	Active     string `json:"active"`
	Previous   string `json:"previous"`
	Image      string `json:"image,omitempty"`
}

// IdleColor returns the color that does not receive traffic.
func IdleColor(active string) string {
	if active == ColorGreen {
		return ColorBlue
	}
	return ColorGreen
}

// ColorDeploymentName names the deployment of one color.
func ColorDeploymentName(name, color string) string {
	return fmt.Sprintf("%s-%s", name, color)
}

// PrepareBlueGreen makes sure the Service exists and rolls the spec out to
// the idle color. The Service selector always carries a color before the
// idle deployment is written, so the idle pods get no traffic.
func (s *service) PrepareBlueGreen(ctx context.Context, ns string, spec *AppSpec) (res *BlueGreenResult, err error) {
	defer s.observe(OpPrepare, ns, spec.Name, &err)

	svc, err := s.upsertService(ctx, ns, spec)
	if err != nil {
		return nil, err
	}
	active := svc.Annotations[ActiveColorAnnotation]
	if active == "" {
		if svc, err = s.pinStable(ctx, ns, spec.Name, svc); err != nil {
			return nil, err
		}
		active = ColorStable
	}
	idle := IdleColor(active)

	name := ColorDeploymentName(spec.Name, idle)
	selector := map[string]string{appLabel: spec.EffectiveAppLabel(), colorLabel: idle}
	if _, err := s.upsertDeployment(ctx, ns, name, spec, selector); err != nil {
		return nil, err
	}

	s.logger.Info("Blue/green prepared",
		zap.String("namespace", ns),
		zap.String("app", spec.Name),
		zap.String("color", idle),
		zap.String("image", spec.FullImage()),
	)
	return &BlueGreenResult{
		OK:         true,
		Name:       spec.Name,
		Service:    svc.Name,
		Deployment: name,
		Color:      idle,
		Active:     active,
		Previous:   svc.Annotations[PreviousColorAnnotation],
		Image:      spec.FullImage(),
	}, nil
}

// Promote points the Service at the prepared idle color.
func (s *service) Promote(ctx context.Context, ns, name string) (res *BlueGreenResult, err error) {
	defer s.observe(OpPromote, ns, name, &err)

	svc, err := s.serviceFor(ctx, ns, name)
	if err != nil {
		return nil, err
	}
	active := svc.Annotations[ActiveColorAnnotation]
	target := IdleColor(active)

	deployment := ColorDeploymentName(name, target)
	if _, err := s.client.AppsV1().Deployments(ns).Get(ctx, deployment, metav1.GetOptions{}); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, common.ErrConflict.WithDetails(fmt.Sprintf("Deployment %s is not prepared", deployment))
		}
		return nil, kubeError(err)
	}

	updated, err := s.switchTraffic(ctx, ns, svc, target, active)
	if err != nil {
		return nil, err
	}
	return &BlueGreenResult{
		OK:         true,
		Name:       name,
		Service:    updated.Name,
		Deployment: deployment,
		Color:      target,
		Active:     target,
		Previous:   active,
	}, nil
}

// Rollback sends traffic back to the previously active color.
func (s *service) Rollback(ctx context.Context, ns, name string) (res *BlueGreenResult, err error) {
	defer s.observe(OpRollback, ns, name, &err)

	svc, err := s.serviceFor(ctx, ns, name)
	if err != nil {
		return nil, err
	}
	active := svc.Annotations[ActiveColorAnnotation]
	previous := svc.Annotations[PreviousColorAnnotation]
	if active == "" || previous == "" {
		return nil, common.ErrConflict.WithDetails("Nothing to roll back: no color has been promoted")
	}

	updated, err := s.switchTraffic(ctx, ns, svc, previous, active)
	if err != nil {
		return nil, err
	}

	deployment := ColorDeploymentName(name, previous)
	if previous == ColorStable {
		deployment = name
	}
	return &BlueGreenResult{
		OK:         true,
		Name:       name,
		Service:    updated.Name,
		Deployment: deployment,
		Color:      previous,
		Active:     previous,
		Previous:   active,
	}, nil
}

// pinStable labels the pods of the plain app deployment, if there is one,
// with the stable color and narrows the Service selector to that color.
func (s *service) pinStable(ctx context.Context, ns, name string, svc *corev1.Service) (*corev1.Service, error) {
	patch, err := json.Marshal(map[string]interface{}{
		"spec": map[string]interface{}{
			"template": map[string]interface{}{
				"metadata": map[string]interface{}{
					"labels": map[string]string{colorLabel: ColorStable},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	_, err = s.client.AppsV1().Deployments(ns).Patch(ctx, name, types.StrategicMergePatchType, patch, metav1.PatchOptions{FieldManager: fieldOwner})
	if err != nil && !apierrors.IsNotFound(err) {
		return nil, kubeError(err)
	}
	return s.switchTraffic(ctx, ns, svc, ColorStable, "")
}

// serviceFor returns the Service in front of the color deployments of an
// app. Prepare records its name on each color deployment; apps without one
// fall back to a Service named like the app.
func (s *service) serviceFor(ctx context.Context, ns, name string) (*corev1.Service, error) {
	svcName := name
	for _, color := range []string{ColorGreen, ColorBlue} {
		d, err := s.client.AppsV1().Deployments(ns).Get(ctx, ColorDeploymentName(name, color), metav1.GetOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				continue
			}
			return nil, kubeError(err)
		}
		if v := d.Annotations[ServiceAnnotation]; v != "" {
			svcName = v
			break
		}
	}
	svc, err := s.client.CoreV1().Services(ns).Get(ctx, svcName, metav1.GetOptions{})
	if err != nil {
		return nil, kubeError(err)
	}
	return svc, nil
}

// switchTraffic sets the Service color selector to color and records the
// transition in annotations.
func (s *service) switchTraffic(ctx context.Context, ns string, svc *corev1.Service, color, previous string) (*corev1.Service, error) {
	patch, err := json.Marshal(map[string]interface{}{
		"metadata": map[string]interface{}{
			"annotations": map[string]string{
				ActiveColorAnnotation:   color,
				PreviousColorAnnotation: previous,
			},
		},
		"spec": map[string]interface{}{
			"selector": map[string]string{colorLabel: color},
		},
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.client.CoreV1().Services(ns).Patch(ctx, svc.Name, types.MergePatchType, patch, metav1.PatchOptions{FieldManager: fieldOwner})
	if err != nil {
		return nil, kubeError(err)
	}
	s.logger.Info("Service traffic switched",
		zap.String("namespace", ns),
		zap.String("service", svc.Name),
		zap.String("from", previous),
		zap.String("to", color),
	)
	return updated, nil
}
