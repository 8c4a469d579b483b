// File: internal/provisioning/provisioner.go
package provisioning

import (
	"context"
	"fmt"

	"devops_platform_backend/internal/config"
	"devops_platform_backend/internal/platform/kube"

	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Names of the objects created inside every tenant namespace.
const (
	NetworkPolicyName  = "default-deny"
	ServiceAccountName = "tenant-admin"
	RoleName           = "tenant-admin-role"
	RoleBindingName    = "tenant-admin-binding"
)

// Summary reports which objects a provisioning pass created. Objects that
// already existed are listed under Existing.
type Summary struct {
	Namespace string   `json:"namespace"`
	Created   []string `json:"created"`
	Existing  []string `json:"existing"`
}

func (s *Summary) note(kind string, err error) error {
	switch {
	case err == nil:
		s.Created = append(s.Created, kind)
		return nil
	case apierrors.IsAlreadyExists(err):
		s.Existing = append(s.Existing, kind)
		return nil
	default:
		return fmt.Errorf("create %s in %s: %w", kind, s.Namespace, err)
	}
}

// Provisioner manages the lifecycle of tenant namespaces.
type Provisioner interface {
	CreateTenantNamespace(ctx context.Context, ns string) (*Summary, error)
	// DeleteTenantNamespace removes ns when it carries the platform labels.
	// It reports whether a delete was issued.
	DeleteTenantNamespace(ctx context.Context, ns string) (bool, error)
	// ForeignNamespace reports whether ns is the platform's own namespace or
	// exists without the platform labels.
	ForeignNamespace(ctx context.Context, ns string) (bool, error)
}

type kubeProvisioner struct {
	client     kubernetes.Interface
	platformNS string
	logger     *zap.Logger
}

// NewProvisioner creates a Provisioner backed by the given clientset. The
// namespace the platform runs in is never handed to or removed for a tenant.
func NewProvisioner(client kubernetes.Interface, cfg *config.Config, logger *zap.Logger) Provisioner {
	return &kubeProvisioner{
		client:     client,
		platformNS: kube.ResolveNamespace(cfg),
		logger:     logger.Named("Provisioner"),
	}
}

func (p *kubeProvisioner) CreateTenantNamespace(ctx context.Context, ns string) (*Summary, error) {
	if ns == "" {
		return nil, fmt.Errorf("tenant namespace is empty")
	}
	sum := &Summary{Namespace: ns}

	_, err := p.client.CoreV1().Namespaces().Create(ctx, &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: ns, Labels: kube.PlatformLabels(nil)},
	}, metav1.CreateOptions{})
	if err := sum.note("namespace", err); err != nil {
		return nil, err
	}

	_, err = p.client.NetworkingV1().NetworkPolicies(ns).Create(ctx, &networkingv1.NetworkPolicy{
		ObjectMeta: metav1.ObjectMeta{Name: NetworkPolicyName, Namespace: ns, Labels: kube.PlatformLabels(nil)},
		Spec: networkingv1.NetworkPolicySpec{
			PodSelector: metav1.LabelSelector{},
			PolicyTypes: []networkingv1.PolicyType{networkingv1.PolicyTypeIngress, networkingv1.PolicyTypeEgress},
		},
	}, metav1.CreateOptions{})
	if err := sum.note("networkpolicy", err); err != nil {
		return nil, err
	}

	_, err = p.client.CoreV1().ServiceAccounts(ns).Create(ctx, &corev1.ServiceAccount{
		ObjectMeta: metav1.ObjectMeta{Name: ServiceAccountName, Namespace: ns},
	}, metav1.CreateOptions{})
	if err := sum.note("serviceaccount", err); err != nil {
		return nil, err
	}

	_, err = p.client.RbacV1().Roles(ns).Create(ctx, &rbacv1.Role{
		ObjectMeta: metav1.ObjectMeta{Name: RoleName, Namespace: ns},
		Rules: []rbacv1.PolicyRule{{
			APIGroups: []string{"", "apps", "batch", "extensions"},
			Resources: []string{"pods", "deployments", "services", "configmaps", "secrets", "jobs"},
			Verbs:     []string{"get", "list", "watch", "create", "update", "patch", "delete"},
		}},
	}, metav1.CreateOptions{})
	if err := sum.note("role", err); err != nil {
		return nil, err
	}

	_, err = p.client.RbacV1().RoleBindings(ns).Create(ctx, &rbacv1.RoleBinding{
		ObjectMeta: metav1.ObjectMeta{Name: RoleBindingName, Namespace: ns},
		Subjects: []rbacv1.Subject{{
			Kind:      rbacv1.ServiceAccountKind,
			Name:      ServiceAccountName,
			Namespace: ns,
		}},
		RoleRef: rbacv1.RoleRef{
			APIGroup: rbacv1.GroupName,
			Kind:     "Role",
			Name:     RoleName,
		},
	}, metav1.CreateOptions{})
	if err := sum.note("rolebinding", err); err != nil {
		return nil, err
	}

	p.logger.Info("Tenant namespace provisioned",
		zap.String("namespace", ns),
		zap.Strings("created", sum.Created),
		zap.Strings("existing", sum.Existing),
	)
	return sum, nil
}

func (p *kubeProvisioner) DeleteTenantNamespace(ctx context.Context, ns string) (bool, error) {
	if ns == "" {
		return false, nil
	}
	if ns == p.platformNS {
		p.logger.Warn("Refusing to delete the platform namespace", zap.String("namespace", ns))
		return false, nil
	}
	existing, err := p.client.CoreV1().Namespaces().Get(ctx, ns, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("get namespace %s: %w", ns, err)
	}
	if !kube.IsPlatformManaged(existing.Labels) {
		p.logger.Warn("Refusing to delete namespace not managed by the platform", zap.String("namespace", ns))
		return false, nil
	}

	err = p.client.CoreV1().Namespaces().Delete(ctx, ns, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return false, fmt.Errorf("delete namespace %s: %w", ns, err)
	}
	p.logger.Info("Tenant namespace deleted", zap.String("namespace", ns))
	return true, nil
}

func (p *kubeProvisioner) ForeignNamespace(ctx context.Context, ns string) (bool, error) {
	if ns == p.platformNS {
		return true, nil
	}
	existing, err := p.client.CoreV1().Namespaces().Get(ctx, ns, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("get namespace %s: %w", ns, err)
	}
	return !kube.IsPlatformManaged(existing.Labels), nil
}
