// File: internal/platform/kube/client.go
package kube

import (
	"fmt"
	"os"
	"strings"

	"devops_platform_backend/internal/config"

	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

const serviceAccountNamespaceFile = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"

// NewClientset builds a clientset from the in-cluster service account, falling
// back to KUBECONFIG (or ~/.kube/config) for local development.
func NewClientset(cfg *config.Config, logger *zap.Logger) (kubernetes.Interface, error) {
	restCfg, err := rest.InClusterConfig()
	if err != nil {
		logger.Debug("In-cluster config unavailable, falling back to kubeconfig", zap.Error(err))
		restCfg, err = kubeconfigLoader(cfg.KubeConfigPath).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load kubernetes config: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}
	logger.Info("Kubernetes client initialized", zap.String("host", restCfg.Host))
	return clientset, nil
}

func kubeconfigLoader(path string) clientcmd.ClientConfig {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if path != "" {
		rules.ExplicitPath = path
	}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{})
}

// ResolveNamespace picks the namespace the platform itself runs in:
// PLATFORM_NAMESPACE, then the mounted service account namespace, then the
// active kubeconfig context, then DEFAULT_NAMESPACE.
func ResolveNamespace(cfg *config.Config) string {
	if cfg.PlatformNamespace != "" {
		return cfg.PlatformNamespace
	}
	if raw, err := os.ReadFile(serviceAccountNamespaceFile); err == nil {
		if ns := strings.TrimSpace(string(raw)); ns != "" {
			return ns
		}
	}
	if ns, _, err := kubeconfigLoader(cfg.KubeConfigPath).Namespace(); err == nil && ns != "" {
		return ns
	}
	if cfg.DefaultNamespace != "" {
		return cfg.DefaultNamespace
	}
	return "default"
}
