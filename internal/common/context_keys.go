// File: internal/common/context_keys.go
package common

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// CurrentContextKey stores the *CurrentContext resolved from the JWT
	CurrentContextKey = "currentContext"
	// TokenIDKey stores the JTI of the presented token
	TokenIDKey = "tokenID"
	// TokenExpiryKey stores the expiry of the presented token
	TokenExpiryKey = "tokenExpiry"
	// LoggerKey stores a request scoped *zap.Logger
	LoggerKey = "logger"
)

// Roles understood by the platform.
const (
	RolePlatformAdmin = "platform_admin"
	RoleAdmin         = "admin"
	RoleTenantAdmin   = "tenant_admin"
	RoleDevOps        = "devops"
	RoleClient        = "client"
	RoleUser          = "user"
	RolePendingUser   = "pending_user"
)
