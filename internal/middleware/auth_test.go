package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"devops_platform_backend/internal/auth"
	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authFixture struct {
	tokens    auth.TokenService
	blocklist *auth.InMemoryBlocklistService
	router    *gin.Engine
}

func newAuthFixture(t *testing.T) *authFixture {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: "middleware-test-secret"}
	f := &authFixture{
		tokens:    auth.NewJWTService(cfg, zap.NewNop()),
		blocklist: auth.NewInMemoryBlocklistService(auth.InMemoryBlocklistConfig{DefaultExpiration: time.Hour, CleanupInterval: time.Hour}),
		router:    gin.New(),
	}
	authMW := AuthMiddleware(f.tokens, f.blocklist, zap.NewNop())
	f.router.GET("/me", authMW, func(c *gin.Context) {
		c.JSON(http.StatusOK, common.GetCurrentContext(c))
	})
	f.router.GET("/apps", authMW, RequireNamespace(), func(c *gin.Context) { c.Status(http.StatusOK) })
	f.router.GET("/admin", authMW, RoleAuthMiddleware(common.RolePlatformAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	return f
}

func (f *authFixture) token(t *testing.T, cc common.CurrentContext) string {
	tok, _, err := f.tokens.GenerateAccessToken(cc, time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *authFixture) do(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_RejectsMissingAndInvalid(t *testing.T) {
	f := newAuthFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do("/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do("/me", "garbage").Code)

	w := f.do("/me", "garbage")
	assert.Contains(t, w.Body.String(), "Invalid or expired token")
}

func TestAuthMiddleware_AcceptsValidToken(t *testing.T) {
	f := newAuthFixture(t)
	tok := f.token(t, common.CurrentContext{Email: "a@t.io", Role: common.RoleDevOps, TenantID: 3, Namespace: "team-a"})

	w := f.do("/me", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"k8s_namespace":"team-a"`)
	assert.Equal(t, http.StatusOK, f.do("/apps", tok).Code)
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	f := newAuthFixture(t)
	tok := f.token(t, common.CurrentContext{Email: "a@t.io", Role: common.RoleDevOps, TenantID: 3, Namespace: "team-a"})
	claims, err := f.tokens.ValidateToken(tok)
	require.NoError(t, err)

	require.NoError(t, f.blocklist.AddToBlocklist(context.Background(), claims.ID, claims.ExpiresAt.Time))
	assert.Equal(t, http.StatusUnauthorized, f.do("/me", tok).Code)
}

func TestRequireNamespace_PendingToken(t *testing.T) {
	f := newAuthFixture(t)
	tok := f.token(t, common.CurrentContext{Email: "new@t.io", Role: common.RolePendingUser, TenantID: 9})

	assert.Equal(t, http.StatusOK, f.do("/me", tok).Code)
	assert.Equal(t, http.StatusForbidden, f.do("/apps", tok).Code)
}

func TestRoleAuthMiddleware(t *testing.T) {
	f := newAuthFixture(t)
	admin := f.token(t, common.CurrentContext{Email: "root@t.io", Role: common.RolePlatformAdmin, TenantID: 1, Namespace: "default"})
	user := f.token(t, common.CurrentContext{Email: "u@t.io", Role: common.RoleTenantAdmin, TenantID: 2, Namespace: "team"})

	assert.Equal(t, http.StatusOK, f.do("/admin", admin).Code)
	assert.Equal(t, http.StatusForbidden, f.do("/admin", user).Code)
}
