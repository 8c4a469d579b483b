// File: internal/common/context_helpers.go
package common

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CurrentContext is the caller identity carried by the access token.
type CurrentContext struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	TenantID  uint   `json:"tenant_id"`
	Namespace string `json:"k8s_namespace"`
}

// IsPlatformAdmin reports whether the caller manages the whole platform.
func (cc *CurrentContext) IsPlatformAdmin() bool {
	return cc != nil && cc.Role == RolePlatformAdmin
}

// GetTokenFromContext retrieves the JWT token string from the Authorization header.
// Returns an empty string if not found.
func GetTokenFromContext(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], AuthorizationTypeBearer) {
		return ""
	}
	return parts[1]
}

// GetCurrentContext returns the identity stored by the auth middleware, or nil.
func GetCurrentContext(c *gin.Context) *CurrentContext {
	val, exists := c.Get(CurrentContextKey)
	if !exists {
		return nil
	}
	cc, ok := val.(*CurrentContext)
	if !ok {
		return nil
	}
	return cc
}

// GetUserRoleFromContext retrieves the user role from the Gin context.
func GetUserRoleFromContext(c *gin.Context) string {
	if cc := GetCurrentContext(c); cc != nil {
		return cc.Role
	}
	return ""
}

// GetTokenIDFromContext returns the JTI and expiry of the presented token.
func GetTokenIDFromContext(c *gin.Context) (string, time.Time) {
	jti := c.GetString(TokenIDKey)
	exp, _ := c.Get(TokenExpiryKey)
	expiresAt, _ := exp.(time.Time)
	return jti, expiresAt
}
