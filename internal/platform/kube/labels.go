// File: internal/platform/kube/labels.go
package kube

const (
	ManagedByValue    = "cloud-devops-platform"
	ManagedByLabel    = "managed-by"
	K8sManagedByLabel = "app.kubernetes.io/managed-by"

	// ManagedBySelector lists objects created by the platform.
	ManagedBySelector = ManagedByLabel + "=" + ManagedByValue
)

// PlatformLabels returns the platform ownership labels merged with extra.
func PlatformLabels(extra map[string]string) map[string]string {
	labels := map[string]string{
		ManagedByLabel:    ManagedByValue,
		K8sManagedByLabel: ManagedByValue,
	}
	for k, v := range extra {
		labels[k] = v
	}
	return labels
}

// IsPlatformManaged reports whether labels carry the platform ownership mark.
func IsPlatformManaged(labels map[string]string) bool {
	return labels[ManagedByLabel] == ManagedByValue || labels[K8sManagedByLabel] == ManagedByValue
}
