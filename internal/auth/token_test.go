package auth

import (
	"testing"
	"time"

	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTokenService(secret string) TokenService {
	return NewJWTService(&config.Config{JWTSecret: secret}, zap.NewNop())
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTokenService("unit-secret")
	identity := common.CurrentContext{Email: "a@t.io", Role: common.RoleDevOps, TenantID: 4, Namespace: "team-a"}

	tok, exp, err := svc.GenerateAccessToken(identity, 12*time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), exp, 5*time.Second)

	claims, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "a@t.io", claims.Subject)
	assert.Equal(t, uint(4), claims.TenantID)
	assert.Equal(t, "team-a", claims.Namespace)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, &identity, claims.CurrentContext())
}

func TestJWTService_Rejects(t *testing.T) {
	svc := newTokenService("unit-secret")
	identity := common.CurrentContext{Email: "a@t.io", Role: common.RoleDevOps, TenantID: 4, Namespace: "team-a"}

	expired, _, err := svc.GenerateAccessToken(identity, -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.Error(t, err)

	foreign, _, err := newTokenService("other-secret").GenerateAccessToken(identity, time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.Error(t, err)

	noTenant, _, err := svc.GenerateAccessToken(common.CurrentContext{Email: "a@t.io"}, time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(noTenant)
	assert.Error(t, err)
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	svc := newTokenService("unit-secret")
	claims := &Claims{TenantID: 1, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "a@t.io",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(tok)
	assert.Error(t, err)
}

func TestClaims_DefaultRole(t *testing.T) {
	c := &Claims{TenantID: 1, RegisteredClaims: jwt.RegisteredClaims{Subject: "a@t.io"}}
	assert.Equal(t, common.RoleUser, c.CurrentContext().Role)
}
