// File: internal/workload/service.go
package workload

import (
	"context"
	"encoding/json"
	"fmt"

	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/platform/kube"
	"devops_platform_backend/internal/platform/metrics"

	"go.uber.org/zap"
	appsv1 "k8s.io/api/apps/v1"
	autoscalingv1 "k8s.io/api/autoscaling/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
)

// Operation names used for metrics.
const (
	OpDeploy   = "deploy"
	OpScale    = "scale"
	OpPrepare  = "bluegreen_prepare"
	OpPromote  = "bluegreen_promote"
	OpRollback = "bluegreen_rollback"

	fieldOwner = "devops-platform"
)

// DeployResult holds the objects written by a deploy.
type DeployResult struct {
	Deployment *appsv1.Deployment `json:"deployment"`
	Service    *corev1.Service    `json:"service"`
}

// Service manages tenant applications on Kubernetes. Every call is scoped to
// the namespace passed in, which callers take from the access token.
type Service interface {
	Deploy(ctx context.Context, ns string, spec *AppSpec) (*DeployResult, error)
	Scale(ctx context.Context, ns, name string, replicas int32) (*autoscalingv1.Scale, error)
	Status(ctx context.Context, ns, name string) (*StatusResponse, error)
	PrepareBlueGreen(ctx context.Context, ns string, spec *AppSpec) (*BlueGreenResult, error)
	Promote(ctx context.Context, ns, name string) (*BlueGreenResult, error)
	Rollback(ctx context.Context, ns, name string) (*BlueGreenResult, error)
}

type service struct {
	client  kubernetes.Interface
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a new workload service.
func NewService(client kubernetes.Interface, m *metrics.Metrics, logger *zap.Logger) Service {
	return &service{client: client, metrics: m, logger: logger.Named("WorkloadService")}
}

func (s *service) Deploy(ctx context.Context, ns string, spec *AppSpec) (res *DeployResult, err error) {
	defer s.observe(OpDeploy, ns, spec.Name, &err)

	selector := map[string]string{appLabel: spec.EffectiveAppLabel()}
	d, err := s.upsertDeployment(ctx, ns, spec.Name, spec, selector)
	if err != nil {
		return nil, err
	}
	svc, err := s.upsertService(ctx, ns, spec)
	if err != nil {
		return nil, err
	}
	return &DeployResult{Deployment: d, Service: svc}, nil
}

func (s *service) Scale(ctx context.Context, ns, name string, replicas int32) (sc *autoscalingv1.Scale, err error) {
	defer s.observe(OpScale, ns, name, &err)

	deployments := s.client.AppsV1().Deployments(ns)
	current, err := deployments.GetScale(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, kubeError(err)
	}
	current.Spec.Replicas = replicas
	sc, err = deployments.UpdateScale(ctx, name, current, metav1.UpdateOptions{FieldManager: fieldOwner})
	if err != nil {
		return nil, kubeError(err)
	}
	return sc, nil
}

func (s *service) Status(ctx context.Context, ns, name string) (*StatusResponse, error) {
	deployments := s.client.AppsV1().Deployments(ns)
	var list []appsv1.Deployment
	if name != "" {
		d, err := deployments.Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return nil, kubeError(err)
		}
		list = append(list, *d)
	} else {
		all, err := deployments.List(ctx, metav1.ListOptions{LabelSelector: kube.ManagedBySelector})
		if err != nil {
			return nil, kubeError(err)
		}
		list = all.Items
	}

	items := make([]StatusItem, 0, len(list))
	for i := range list {
		items = append(items, toStatusItem(&list[i]))
	}
	return &StatusResponse{Items: items}, nil
}

// upsertDeployment creates the Deployment or, when it exists, patches its
// labels, replicas and pod template. The selector of an existing Deployment
// is immutable and left alone.
func (s *service) upsertDeployment(ctx context.Context, ns, name string, spec *AppSpec, selector map[string]string) (*appsv1.Deployment, error) {
	desired, err := buildDeployment(name, spec, selector)
	if err != nil {
		return nil, common.ErrUnprocessableEntity.WithDetails(err.Error())
	}

	deployments := s.client.AppsV1().Deployments(ns)
	if _, err := deployments.Get(ctx, name, metav1.GetOptions{}); err != nil {
		if !apierrors.IsNotFound(err) {
			return nil, kubeError(err)
		}
		created, err := deployments.Create(ctx, desired, metav1.CreateOptions{FieldManager: fieldOwner})
		if err != nil {
			return nil, kubeError(err)
		}
		s.logger.Info("Deployment created", zap.String("namespace", ns), zap.String("name", name))
		return created, nil
	}

	patch, err := json.Marshal(map[string]interface{}{
		"metadata": map[string]interface{}{
			"labels":      desired.Labels,
			"annotations": desired.Annotations,
		},
		"spec": map[string]interface{}{
			"replicas": desired.Spec.Replicas,
			"template": desired.Spec.Template,
		},
	})
	if err != nil {
		return nil, err
	}
	patched, err := deployments.Patch(ctx, name, types.StrategicMergePatchType, patch, metav1.PatchOptions{FieldManager: fieldOwner})
	if err != nil {
		return nil, kubeError(err)
	}
	s.logger.Info("Deployment patched", zap.String("namespace", ns), zap.String("name", name))
	return patched, nil
}

// upsertService creates a ClusterIP Service or, when one exists, patches
// only its labels and selector so type and ports (e.g. a NodePort) survive.
func (s *service) upsertService(ctx context.Context, ns string, spec *AppSpec) (*corev1.Service, error) {
	services := s.client.CoreV1().Services(ns)
	name := spec.EffectiveServiceName()

	if _, err := services.Get(ctx, name, metav1.GetOptions{}); err != nil {
		if !apierrors.IsNotFound(err) {
			return nil, kubeError(err)
		}
		created, err := services.Create(ctx, buildService(spec), metav1.CreateOptions{FieldManager: fieldOwner})
		if err != nil {
			return nil, kubeError(err)
		}
		s.logger.Info("Service created", zap.String("namespace", ns), zap.String("name", name))
		return created, nil
	}

	patch, err := json.Marshal(map[string]interface{}{
		"metadata": map[string]interface{}{
			"labels": kube.PlatformLabels(map[string]string{appLabel: spec.EffectiveAppLabel()}),
		},
		"spec": map[string]interface{}{
			"selector": map[string]string{appLabel: spec.EffectiveAppLabel()},
		},
	})
	if err != nil {
		return nil, err
	}
	patched, err := services.Patch(ctx, name, types.StrategicMergePatchType, patch, metav1.PatchOptions{FieldManager: fieldOwner})
	if err != nil {
		return nil, kubeError(err)
	}
	return patched, nil
}

func (s *service) observe(op, ns, name string, errp *error) {
	success := *errp == nil
	s.metrics.RecordWorkloadOp(op, success)
	if !success {
		s.logger.Warn("Workload operation failed",
			zap.String("operation", op),
			zap.String("namespace", ns),
			zap.String("name", name),
			zap.Error(*errp),
		)
	}
}

// kubeError surfaces a Kubernetes API failure as a 500 carrying its text.
func kubeError(err error) error {
	if _, ok := common.IsAPIError(err); ok {
		return err
	}
	return common.ErrInternalServer.WithDetails(fmt.Sprint(err))
}
