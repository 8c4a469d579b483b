// File: internal/middleware/auth.go
package middleware

import (
	"devops_platform_backend/internal/auth"
	"devops_platform_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware validates the Bearer token, rejects revoked tokens and stores
// the caller identity in the Gin context.
func AuthMiddleware(tokenService auth.TokenService, blocklist auth.TokenBlocklistService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := common.GetTokenFromContext(c)
		if tokenString == "" {
			logger.Debug("Bearer token missing or malformed")
			common.RespondWithError(c, common.ErrUnauthorized)
			return
		}

		claims, err := tokenService.ValidateToken(tokenString)
		if err != nil {
			logger.Debug("Token validation failed", zap.Error(err))
			common.RespondWithError(c, common.ErrUnauthorized)
			return
		}

		revoked, err := blocklist.IsBlocklisted(c.Request.Context(), claims.ID)
		if err != nil {
			logger.Error("Blocklist lookup failed", zap.Error(err))
			common.RespondWithError(c, common.ErrInternalServer)
			return
		}
		if revoked {
			logger.Debug("Revoked token presented", zap.String("jti", claims.ID))
			common.RespondWithError(c, common.ErrUnauthorized)
			return
		}

		cc := claims.CurrentContext()
		c.Set(common.CurrentContextKey, cc)
		c.Set(common.TokenIDKey, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(common.TokenExpiryKey, claims.ExpiresAt.Time)
		}

		logger.Debug("User authenticated successfully",
			zap.String("email", cc.Email),
			zap.String("role", cc.Role),
			zap.Uint("tenantID", cc.TenantID),
		)
		c.Next()
	}
}

// RequireNamespace rejects tokens that carry no tenant namespace, such as the
// short lived token issued at registration.
func RequireNamespace() gin.HandlerFunc {
	return func(c *gin.Context) {
		cc := common.GetCurrentContext(c)
		if cc == nil {
			common.RespondWithError(c, common.ErrUnauthorized)
			return
		}
		if cc.Namespace == "" {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("Tenant has no namespace yet."))
			return
		}
		c.Next()
	}
}

// RoleAuthMiddleware creates a middleware to check if the authenticated user has one of the required roles.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := common.GetUserRoleFromContext(c)
		if userRole == "" {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("User role not found in context."))
			return
		}

		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}
