// File: internal/auth/service.go
package auth

import (
	"context"

	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/config"
	"devops_platform_backend/internal/tenant"
	"devops_platform_backend/internal/user"

	"go.uber.org/zap"
)

var errInvalidCredentials = common.ErrUnauthorized.WithDetails("Invalid credentials or tenant inactive")

// Service authenticates users against their tenant.
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
}

type service struct {
	users   user.Repository
	tenants tenant.Repository
	tokens  TokenService
	hasher  PasswordHasher
	cfg     *config.Config
	logger  *zap.Logger
}

// NewService creates a new auth service.
func NewService(
	users user.Repository,
	tenants tenant.Repository,
	tokens TokenService,
	hasher PasswordHasher,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &service{
		users:   users,
		tenants: tenants,
		tokens:  tokens,
		hasher:  hasher,
		cfg:     cfg,
		logger:  logger.Named("AuthService"),
	}
}

// Login succeeds only for a known user with a matching password whose tenant
// exists and is active. Every failure looks the same to the caller.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apiErr, ok := common.IsAPIError(err); ok && apiErr.StatusCode == 404 {
			s.logger.Info("Login: unknown email", zap.String("email", email))
			return nil, errInvalidCredentials
		}
		s.logger.Error("Login: user lookup failed", zap.Error(err))
		return nil, err
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		s.logger.Info("Login: password mismatch", zap.String("email", u.Email))
		return nil, errInvalidCredentials
	}

	t, err := s.tenants.FindByID(ctx, u.TenantID)
	if err != nil {
		if apiErr, ok := common.IsAPIError(err); ok && apiErr.StatusCode == 404 {
			s.logger.Warn("Login: tenant missing", zap.String("email", u.Email), zap.Uint("tenantID", u.TenantID))
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !t.IsActive() {
		s.logger.Info("Login: tenant not active", zap.String("email", u.Email), zap.String("status", t.Status))
		return nil, errInvalidCredentials
	}

	identity := common.CurrentContext{
		Email:     u.Email,
		Role:      u.EffectiveRole(),
		TenantID:  t.ID,
		Namespace: t.Namespace(),
	}
	token, _, err := s.tokens.GenerateAccessToken(identity, s.cfg.JWTExpiry)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Could not issue access token.")
	}

	s.logger.Info("User logged in", zap.String("email", u.Email), zap.Uint("tenantID", t.ID))
	return &LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.cfg.JWTExpiry.Seconds()),
		User:        user.ToUserResponse(u),
		Tenant: LoginTenant{
			ID:           t.ID,
			Name:         t.Name,
			K8sNamespace: t.Namespace(),
		},
	}, nil
}
