// File: internal/admin/model.go
package admin

// TenantItem is one row of the tenant listing.
type TenantItem struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Status       string  `json:"status"`
	K8sNamespace *string `json:"k8s_namespace"`
}

// TenantList wraps the tenant listing.
type TenantList struct {
	Items []TenantItem `json:"items"`
}

// PendingTenant is a registration waiting for review.
type PendingTenant struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	K8sNamespace string `json:"k8s_namespace"`
}

// ApproveResult is returned by the approve endpoint.
type ApproveResult struct {
	OK           bool   `json:"ok"`
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	K8sNamespace string `json:"k8s_namespace"`
	Status       string `json:"status"`
}

// RejectRequest is the optional body of the reject endpoint.
type RejectRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// RejectResult is returned by the reject endpoint.
type RejectResult struct {
	OK     bool   `json:"ok"`
	ID     uint   `json:"id"`
	Status string `json:"status"`
}
