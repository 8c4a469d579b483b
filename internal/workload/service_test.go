package workload

import (
	"context"
	"net/http"
	"testing"

	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/platform/kube"
	"devops_platform_backend/internal/platform/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	appsv1 "k8s.io/api/apps/v1"
	autoscalingv1 "k8s.io/api/autoscaling/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

const testNS = "tenant-a"

// withScaleSubresource teaches the fake clientset the deployments/scale
// subresource, which its object tracker does not model.
func withScaleSubresource(client *fake.Clientset) {
	gvr := appsv1.SchemeGroupVersion.WithResource("deployments")
	client.PrependReactor("get", "deployments", func(a k8stesting.Action) (bool, runtime.Object, error) {
		if a.GetSubresource() != "scale" {
			return false, nil, nil
		}
		obj, err := client.Tracker().Get(gvr, a.GetNamespace(), a.(k8stesting.GetAction).GetName())
		if err != nil {
			return true, nil, err
		}
		d := obj.(*appsv1.Deployment)
		return true, &autoscalingv1.Scale{
			ObjectMeta: metav1.ObjectMeta{Name: d.Name, Namespace: d.Namespace},
			Spec:       autoscalingv1.ScaleSpec{Replicas: *d.Spec.Replicas},
		}, nil
	})
	client.PrependReactor("update", "deployments", func(a k8stesting.Action) (bool, runtime.Object, error) {
		if a.GetSubresource() != "scale" {
			return false, nil, nil
		}
		sc := a.(k8stesting.UpdateAction).GetObject().(*autoscalingv1.Scale)
		obj, err := client.Tracker().Get(gvr, a.GetNamespace(), sc.Name)
		if err != nil {
			return true, nil, err
		}
		d := obj.(*appsv1.Deployment).DeepCopy()
		d.Spec.Replicas = &sc.Spec.Replicas
		if err := client.Tracker().Update(gvr, d, a.GetNamespace()); err != nil {
			return true, nil, err
		}
		return true, sc, nil
	})
}

func newSpec(name, tag string) *AppSpec {
	spec := NewAppSpec()
	spec.Name = name
	spec.Image = "registry.local/" + name
	spec.Tag = tag
	spec.Port = 8080
	spec.Env = []EnvVar{{Name: "NODE_ENV", Value: "production"}}
	return &spec
}

type WorkloadServiceTestSuite struct {
	suite.Suite
	client  *fake.Clientset
	service Service
	ctx     context.Context
}

func (s *WorkloadServiceTestSuite) SetupTest() {
	s.client = fake.NewSimpleClientset()
	withScaleSubresource(s.client)
	s.service = NewService(s.client, metrics.New(), zap.NewNop())
	s.ctx = context.Background()
}

func (s *WorkloadServiceTestSuite) deployment(name string) *appsv1.Deployment {
	d, err := s.client.AppsV1().Deployments(testNS).Get(s.ctx, name, metav1.GetOptions{})
	s.Require().NoError(err)
	return d
}

func (s *WorkloadServiceTestSuite) svc(name string) *corev1.Service {
	svc, err := s.client.CoreV1().Services(testNS).Get(s.ctx, name, metav1.GetOptions{})
	s.Require().NoError(err)
	return svc
}

func (s *WorkloadServiceTestSuite) TestDeploy_CreatesDeploymentAndService() {
	spec := newSpec("web", "v1")
	spec.ReadinessPath = ""

	res, err := s.service.Deploy(s.ctx, testNS, spec)
	s.Require().NoError(err)
	s.Equal("web", res.Deployment.Name)
	s.Equal("web", res.Service.Name)

	d := s.deployment("web")
	s.Equal(map[string]string{"app": "web"}, d.Spec.Selector.MatchLabels)
	s.True(kube.IsPlatformManaged(d.Labels))
	s.Equal("web", d.Spec.Template.Labels["app"])
	s.Equal(int32(1), *d.Spec.Replicas)

	s.Require().Len(d.Spec.Template.Spec.Containers, 1)
	c := d.Spec.Template.Spec.Containers[0]
	s.Equal("web", c.Name)
	s.Equal("registry.local/web:v1", c.Image)
	s.Equal(corev1.PullAlways, c.ImagePullPolicy)
	s.Equal(int32(8080), c.Ports[0].ContainerPort)
	s.Equal("/healthz", c.LivenessProbe.HTTPGet.Path)
	s.Equal(int32(10), c.LivenessProbe.InitialDelaySeconds)
	s.Equal("/healthz", c.ReadinessProbe.HTTPGet.Path, "empty readiness path falls back to health path")
	s.Equal(int32(5), c.ReadinessProbe.PeriodSeconds)
	s.Equal(int64(1001), *c.SecurityContext.RunAsUser)
	s.True(*c.SecurityContext.RunAsNonRoot)
	s.False(*c.SecurityContext.AllowPrivilegeEscalation)
	s.True(resource.MustParse("100m").Equal(c.Resources.Requests[corev1.ResourceCPU]))
	s.True(resource.MustParse("512Mi").Equal(c.Resources.Limits[corev1.ResourceMemory]))
	s.Equal([]corev1.EnvVar{{Name: "NODE_ENV", Value: "production"}}, c.Env)

	svc := s.svc("web")
	s.Equal(corev1.ServiceTypeClusterIP, svc.Spec.Type)
	s.Equal(map[string]string{"app": "web"}, svc.Spec.Selector)
	s.Require().Len(svc.Spec.Ports, 1)
	s.Equal("http", svc.Spec.Ports[0].Name)
	s.Equal(intstr.FromInt32(8080), svc.Spec.Ports[0].TargetPort)
}

func (s *WorkloadServiceTestSuite) TestDeploy_AdoptsExistingObjects() {
	existing := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "node-svc", Namespace: testNS},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeNodePort,
			Selector: map[string]string{"app": "legacy"},
			Ports:    []corev1.ServicePort{{Name: "web", Port: 80, NodePort: 30080}},
		},
	}
	_, err := s.client.CoreV1().Services(testNS).Create(s.ctx, existing, metav1.CreateOptions{})
	s.Require().NoError(err)

	spec := newSpec("api", "v1")
	spec.ServiceName = "node-svc"
	spec.AppLabel = "api-app"
	spec.ContainerName = "nodejs"
	_, err = s.service.Deploy(s.ctx, testNS, spec)
	s.Require().NoError(err)

	spec.Tag = "v2"
	spec.Replicas = 3
	_, err = s.service.Deploy(s.ctx, testNS, spec)
	s.Require().NoError(err)

	d := s.deployment("api")
	s.Equal(int32(3), *d.Spec.Replicas)
	s.Equal(map[string]string{"app": "api-app"}, d.Spec.Selector.MatchLabels)
	s.Require().Len(d.Spec.Template.Spec.Containers, 1)
	s.Equal("nodejs", d.Spec.Template.Spec.Containers[0].Name)
	s.Equal("registry.local/api:v2", d.Spec.Template.Spec.Containers[0].Image)

	svc := s.svc("node-svc")
	s.Equal(corev1.ServiceTypeNodePort, svc.Spec.Type)
	s.Equal(int32(30080), svc.Spec.Ports[0].NodePort)
	s.Equal("api-app", svc.Spec.Selector["app"])
	s.True(kube.IsPlatformManaged(svc.Labels))
}

func (s *WorkloadServiceTestSuite) TestDeploy_InvalidResources() {
	spec := newSpec("web", "v1")
	spec.Resources = map[string]map[string]string{"limits": {"cpu": "lots"}}

	_, err := s.service.Deploy(s.ctx, testNS, spec)
	apiErr, ok := common.IsAPIError(err)
	s.Require().True(ok)
	s.Equal(http.StatusUnprocessableEntity, apiErr.StatusCode)
}

func (s *WorkloadServiceTestSuite) TestScale() {
	_, err := s.service.Deploy(s.ctx, testNS, newSpec("web", "v1"))
	s.Require().NoError(err)

	sc, err := s.service.Scale(s.ctx, testNS, "web", 4)
	s.Require().NoError(err)
	s.Equal(int32(4), sc.Spec.Replicas)
	s.Equal(int32(4), *s.deployment("web").Spec.Replicas)

	_, err = s.service.Scale(s.ctx, testNS, "missing", 2)
	apiErr, ok := common.IsAPIError(err)
	s.Require().True(ok)
	s.Equal(http.StatusInternalServerError, apiErr.StatusCode)
}

func (s *WorkloadServiceTestSuite) TestStatus() {
	_, err := s.service.Deploy(s.ctx, testNS, newSpec("web", "v1"))
	s.Require().NoError(err)
	_, err = s.service.Deploy(s.ctx, testNS, newSpec("worker", "v7"))
	s.Require().NoError(err)
	unmanaged := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: "manual", Namespace: testNS}}
	_, err = s.client.AppsV1().Deployments(testNS).Create(s.ctx, unmanaged, metav1.CreateOptions{})
	s.Require().NoError(err)

	all, err := s.service.Status(s.ctx, testNS, "")
	s.Require().NoError(err)
	s.Len(all.Items, 2)

	one, err := s.service.Status(s.ctx, testNS, "manual")
	s.Require().NoError(err)
	s.Require().Len(one.Items, 1)
	s.Equal(StatusItem{Name: "manual", Conditions: map[string]string{}}, one.Items[0])

	named, err := s.service.Status(s.ctx, testNS, "worker")
	s.Require().NoError(err)
	s.Equal("registry.local/worker:v7", named.Items[0].Image)
	s.Equal(int32(1), named.Items[0].Desired)

	_, err = s.service.Status(s.ctx, "other-tenant", "web")
	s.Error(err)
}

// routes reports whether the Service named svcName selects the pods of the
// deployment named deployment.
func (s *WorkloadServiceTestSuite) routes(svcName, deployment string) bool {
	selector := labels.SelectorFromSet(s.svc(svcName).Spec.Selector)
	return selector.Matches(labels.Set(s.deployment(deployment).Spec.Template.Labels))
}

func (s *WorkloadServiceTestSuite) TestBlueGreen_Lifecycle() {
	res, err := s.service.PrepareBlueGreen(s.ctx, testNS, newSpec("shop", "v1"))
	s.Require().NoError(err)
	s.Equal(ColorGreen, res.Color)
	s.Equal("shop-green", res.Deployment)
	s.Equal(ColorStable, res.Active)

	green := s.deployment("shop-green")
	s.Equal(map[string]string{"app": "shop", "color": "green"}, green.Spec.Selector.MatchLabels)
	s.Equal(map[string]string{"app": "shop", "color": "stable"}, s.svc("shop").Spec.Selector)
	s.False(s.routes("shop", "shop-green"), "idle color must not receive traffic")

	res, err = s.service.Promote(s.ctx, testNS, "shop")
	s.Require().NoError(err)
	s.Equal(ColorGreen, res.Active)
	s.Equal(ColorStable, res.Previous)
	svc := s.svc("shop")
	s.Equal("green", svc.Spec.Selector["color"])
	s.Equal("green", svc.Annotations[ActiveColorAnnotation])
	s.True(s.routes("shop", "shop-green"))

	res, err = s.service.PrepareBlueGreen(s.ctx, testNS, newSpec("shop", "v2"))
	s.Require().NoError(err)
	s.Equal(ColorBlue, res.Color)
	s.Equal("registry.local/shop:v2", s.deployment("shop-blue").Spec.Template.Spec.Containers[0].Image)
	s.Equal("green", s.svc("shop").Spec.Selector["color"], "prepare must not move traffic")
	s.False(s.routes("shop", "shop-blue"))

	res, err = s.service.Promote(s.ctx, testNS, "shop")
	s.Require().NoError(err)
	s.Equal(ColorBlue, res.Active)
	s.Equal(ColorGreen, res.Previous)
	s.True(s.routes("shop", "shop-blue"))
	s.False(s.routes("shop", "shop-green"))

	res, err = s.service.Rollback(s.ctx, testNS, "shop")
	s.Require().NoError(err)
	s.Equal(ColorGreen, res.Active)
	s.Equal(ColorBlue, res.Previous)
	svc = s.svc("shop")
	s.Equal("green", svc.Spec.Selector["color"])
	s.Equal("blue", svc.Annotations[PreviousColorAnnotation])
}

func (s *WorkloadServiceTestSuite) TestBlueGreen_FirstPreparePinsRunningApp() {
	_, err := s.service.Deploy(s.ctx, testNS, newSpec("shop", "v1"))
	s.Require().NoError(err)
	s.True(s.routes("shop", "shop"))

	_, err = s.service.PrepareBlueGreen(s.ctx, testNS, newSpec("shop", "v2"))
	s.Require().NoError(err)

	stable := s.deployment("shop")
	s.Equal(ColorStable, stable.Spec.Template.Labels["color"])
	s.Equal(map[string]string{"app": "shop"}, stable.Spec.Selector.MatchLabels)
	s.True(s.routes("shop", "shop"), "running app keeps serving")
	s.False(s.routes("shop", "shop-green"))

	_, err = s.service.Promote(s.ctx, testNS, "shop")
	s.Require().NoError(err)
	s.False(s.routes("shop", "shop"))

	res, err := s.service.Rollback(s.ctx, testNS, "shop")
	s.Require().NoError(err)
	s.Equal(ColorStable, res.Active)
	s.Equal("shop", res.Deployment)
	s.True(s.routes("shop", "shop"))
	s.False(s.routes("shop", "shop-green"))
}

func (s *WorkloadServiceTestSuite) TestBlueGreen_CustomServiceName() {
	spec := newSpec("shop", "v1")
	spec.ServiceName = "shop-svc"

	res, err := s.service.PrepareBlueGreen(s.ctx, testNS, spec)
	s.Require().NoError(err)
	s.Equal("shop-svc", res.Service)
	s.Equal("shop-svc", s.deployment("shop-green").Annotations[ServiceAnnotation])

	res, err = s.service.Promote(s.ctx, testNS, "shop")
	s.Require().NoError(err)
	s.Equal("shop-svc", res.Service)
	s.True(s.routes("shop-svc", "shop-green"))

	res, err = s.service.Rollback(s.ctx, testNS, "shop")
	s.Require().NoError(err)
	s.Equal("shop-svc", res.Service)
	s.Equal(ColorStable, s.svc("shop-svc").Spec.Selector["color"])
}

func (s *WorkloadServiceTestSuite) TestBlueGreen_RollbackNeedsPromotion() {
	_, err := s.service.PrepareBlueGreen(s.ctx, testNS, newSpec("shop", "v1"))
	s.Require().NoError(err)

	_, err = s.service.Rollback(s.ctx, testNS, "shop")
	apiErr, ok := common.IsAPIError(err)
	s.Require().True(ok)
	s.Equal(http.StatusConflict, apiErr.StatusCode)

	_, err = s.service.Promote(s.ctx, testNS, "shop")
	s.Require().NoError(err)
	_, err = s.service.Rollback(s.ctx, testNS, "shop")
	s.Require().NoError(err)
	s.Equal(map[string]string{"app": "shop", "color": "stable"}, s.svc("shop").Spec.Selector)
}

func (s *WorkloadServiceTestSuite) TestBlueGreen_PromoteRequiresPreparedColor() {
	_, err := s.service.Deploy(s.ctx, testNS, newSpec("shop", "v1"))
	s.Require().NoError(err)

	_, err = s.service.Promote(s.ctx, testNS, "shop")
	apiErr, ok := common.IsAPIError(err)
	s.Require().True(ok)
	s.Equal(http.StatusConflict, apiErr.StatusCode)

	_, err = s.service.Promote(s.ctx, testNS, "ghost")
	apiErr, ok = common.IsAPIError(err)
	s.Require().True(ok)
	s.Equal(http.StatusInternalServerError, apiErr.StatusCode)
}

func TestWorkloadServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WorkloadServiceTestSuite))
}

func TestAppSpecHelpers(t *testing.T) {
	spec := NewAppSpec()
	spec.Name = "web"
	spec.Image = "nginx"
	spec.Tag = "1.27"
	assert.Equal(t, "nginx:1.27", spec.FullImage())
	assert.Equal(t, "web", spec.EffectiveAppLabel())
	assert.Equal(t, "web", spec.EffectiveServiceName())
	assert.Equal(t, "web", spec.EffectiveContainerName())

	spec.AppLabel, spec.ServiceName, spec.ContainerName = "lbl", "svc", "ctr"
	assert.Equal(t, "lbl", spec.EffectiveAppLabel())
	assert.Equal(t, "svc", spec.EffectiveServiceName())
	assert.Equal(t, "ctr", spec.EffectiveContainerName())

	assert.Equal(t, ColorGreen, IdleColor(""))
	assert.Equal(t, ColorGreen, IdleColor(ColorBlue))
	assert.Equal(t, ColorBlue, IdleColor(ColorGreen))
}

func TestBuildResources_UnknownKey(t *testing.T) {
	_, err := buildResources(map[string]map[string]string{"claims": {"cpu": "1"}})
	require.Error(t, err)
}
