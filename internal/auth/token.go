// File: internal/auth/token.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Claims is the access token payload: sub carries the email.
type Claims struct {
	TenantID  uint   `json:"tid"`
	Namespace string `json:"ns,omitempty"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// CurrentContext converts validated claims into the request identity.
func (c *Claims) CurrentContext() *common.CurrentContext {
	role := c.Role
	if role == "" {
		role = common.RoleUser
	}
	return &common.CurrentContext{
		Email:     c.Subject,
		Role:      role,
		TenantID:  c.TenantID,
		Namespace: c.Namespace,
	}
}

// TokenService issues and validates access tokens.
type TokenService interface {
	GenerateAccessToken(identity common.CurrentContext, ttl time.Duration) (string, time.Time, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type JWTService struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewJWTService creates a new HS256 token service.
func NewJWTService(cfg *config.Config, logger *zap.Logger) TokenService {
	return &JWTService{cfg: cfg, logger: logger.Named("JWTService")}
}

func (s *JWTService) GenerateAccessToken(identity common.CurrentContext, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expirationTime := now.Add(ttl)

	claims := &Claims{
		TenantID:  identity.TenantID,
		Namespace: identity.Namespace,
		Role:      identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("could not sign access token: %w", err)
	}
	return tokenString, expirationTime, nil
}

// ValidateToken checks signature, algorithm and expiry, then requires sub and tid.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		s.logger.Debug("Failed to validate token", zap.Error(err))
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" || claims.TenantID == 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
