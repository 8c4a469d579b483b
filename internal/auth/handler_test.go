package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"devops_platform_backend/internal/activity"
	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/config"
	"devops_platform_backend/internal/platform/database/dbtest"
	"devops_platform_backend/internal/tenant"
	"devops_platform_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HandlerTestSuite drives the auth routes against an in-memory database.
type HandlerTestSuite struct {
	suite.Suite
	Router    *gin.Engine
	DB        *gorm.DB
	Tokens    TokenService
	Blocklist *InMemoryBlocklistService
	Activity  activity.Service
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.DB = dbtest.New(s.T(), &tenant.Tenant{}, &user.User{}, &activity.Log{})
	cfg := &config.Config{JWTSecret: "handler-secret", JWTExpiry: time.Hour}
	logger := zap.NewNop()

	tenants := tenant.NewGORMRepository(s.DB)
	users := user.NewGORMRepository(s.DB)
	hasher := NewPasswordHasher()
	s.Tokens = NewJWTService(cfg, logger)
	s.Blocklist = NewInMemoryBlocklistService(InMemoryBlocklistConfig{DefaultExpiration: time.Hour, CleanupInterval: time.Hour})
	s.Activity = activity.NewService(activity.NewGORMRepository(s.DB), logger)

	ctx := context.Background()
	demo := &tenant.Tenant{Name: "Demo", Status: tenant.StatusActive}
	demo.SetNamespace("default")
	s.Require().NoError(tenants.Create(ctx, demo))
	pending := &tenant.Tenant{Name: "Pending Co", Status: tenant.StatusPending}
	s.Require().NoError(tenants.Create(ctx, pending))

	hash, err := hasher.Hash("admin123")
	s.Require().NoError(err)
	s.Require().NoError(users.Create(ctx, &user.User{Email: "root@demo.io", PasswordHash: hash, Role: common.RolePlatformAdmin, TenantID: demo.ID}))
	s.Require().NoError(users.Create(ctx, &user.User{Email: "wait@pending.io", PasswordHash: hash, Role: common.RolePendingUser, TenantID: pending.ID}))

	svc := NewService(users, tenants, s.Tokens, hasher, cfg, logger)
	h := NewHandler(svc, s.Blocklist, s.Activity, logger)

	authMW := s.authMiddleware()
	noLimit := func(c *gin.Context) { c.Next() }
	s.Router = gin.New()
	h.RegisterRoutes(s.Router.Group("/api"), authMW, noLimit)
}

// authMiddleware mirrors middleware.AuthMiddleware without importing it.
func (s *HandlerTestSuite) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := s.Tokens.ValidateToken(common.GetTokenFromContext(c))
		if err != nil {
			common.RespondWithError(c, common.ErrUnauthorized)
			return
		}
		if revoked, _ := s.Blocklist.IsBlocklisted(c.Request.Context(), claims.ID); revoked {
			common.RespondWithError(c, common.ErrUnauthorized)
			return
		}
		c.Set(common.CurrentContextKey, claims.CurrentContext())
		c.Set(common.TokenIDKey, claims.ID)
		c.Set(common.TokenExpiryKey, claims.ExpiresAt.Time)
		c.Next()
	}
}

func (s *HandlerTestSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) login(email, password string) (*httptest.ResponseRecorder, string) {
	w := s.request(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	var body struct {
		Data LoginResponse `json:"data"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body.Data.AccessToken
}

func (s *HandlerTestSuite) TestLogin_Success() {
	w, token := s.login("root@demo.io", "admin123")
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(token)
	s.Contains(w.Body.String(), `"k8s_namespace":"default"`)

	items, err := s.Activity.ListOwn(context.Background(), "root@demo.io", common.LimitOffset{Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(activity.ActionLogin, items[0].Action)
}

func (s *HandlerTestSuite) TestLogin_Failures() {
	w, _ := s.login("root@demo.io", "wrong")
	s.Equal(http.StatusUnauthorized, w.Code)

	w, _ = s.login("wait@pending.io", "admin123")
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.request(http.MethodPost, "/api/auth/login", "", gin.H{"email": "not-an-email", "password": "x"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlerTestSuite) TestMeAndLogout() {
	_, token := s.login("root@demo.io", "admin123")

	w := s.request(http.MethodGet, "/api/auth/me", token, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"role":"platform_admin"`)

	w = s.request(http.MethodPost, "/api/auth/logout", token, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/auth/me", token, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
