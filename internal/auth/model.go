// File: internal/auth/model.go
package auth

import (
	"devops_platform_backend/internal/user"
)

// LoginRequest defines the structure for login requests.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginTenant is the tenant block of a login response.
type LoginTenant struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	K8sNamespace string `json:"k8s_namespace"`
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	ExpiresIn   int64             `json:"expires_in"`
	User        user.UserResponse `json:"user"`
	Tenant      LoginTenant       `json:"tenant"`
}
