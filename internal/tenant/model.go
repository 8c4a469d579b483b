// File: internal/tenant/model.go
package tenant

import (
	"devops_platform_backend/internal/common"
)

// Tenant lifecycle states.
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusRejected = "rejected"
)

// Tenant is a customer organisation owning one Kubernetes namespace.
type Tenant struct {
	common.BaseModel
	Name         string  `gorm:"type:varchar(200);uniqueIndex;not null" json:"name"`
	K8sNamespace *string `gorm:"column:k8s_namespace;type:varchar(63);uniqueIndex" json:"k8s_namespace"`
	Status       string  `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
}

// TableName specifies the table name for the Tenant model.
func (Tenant) TableName() string {
	return "tenants"
}

// Namespace returns the assigned namespace or "".
func (t *Tenant) Namespace() string {
	if t.K8sNamespace == nil {
		return ""
	}
	return *t.K8sNamespace
}

// SetNamespace assigns ns, storing NULL for "".
func (t *Tenant) SetNamespace(ns string) {
	if ns == "" {
		t.K8sNamespace = nil
		return
	}
	t.K8sNamespace = &ns
}

// IsActive reports whether the tenant has been approved.
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}
