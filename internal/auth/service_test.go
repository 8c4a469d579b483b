package auth

import (
	"context"
	"testing"
	"time"

	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/config"
	"devops_platform_backend/internal/tenant"
	"devops_platform_backend/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock type for user.Repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) FindByTenant(ctx context.Context, tenantID uint) ([]user.User, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]user.User), args.Error(1)
}

func (m *MockUserRepository) PromoteRole(ctx context.Context, tenantID uint, from, to string) (int64, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

// MockTenantRepository is a mock type for tenant.Repository
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uint) (*tenant.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindByName(ctx context.Context, name string) (*tenant.Tenant, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindByNamespace(ctx context.Context, ns string) (*tenant.Tenant, error) {
	args := m.Called(ctx, ns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) List(ctx context.Context, status string) ([]tenant.Tenant, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTenantRepository) NamespaceTaken(ctx context.Context, ns string, excludeID uint) (bool, error) {
	args := m.Called(ctx, ns, excludeID)
	return args.Bool(0), args.Error(1)
}

type AuthServiceTestSuite struct {
	service     Service
	mockUsers   *MockUserRepository
	mockTenants *MockTenantRepository
	tokens      TokenService
	hash        string
}

func setupAuthServiceTestSuite(t *testing.T) *AuthServiceTestSuite {
	ts := &AuthServiceTestSuite{
		mockUsers:   new(MockUserRepository),
		mockTenants: new(MockTenantRepository),
	}
	cfg := &config.Config{JWTSecret: "svc-secret", JWTExpiry: 12 * time.Hour}
	hasher := NewPasswordHasher()
	ts.tokens = NewJWTService(cfg, zap.NewNop())

	var err error
	ts.hash, err = hasher.Hash("admin123")
	require.NoError(t, err)

	ts.service = NewService(ts.mockUsers, ts.mockTenants, ts.tokens, hasher, cfg, zap.NewNop())
	return ts
}

func activeTenant(id uint, ns string) *tenant.Tenant {
	t := &tenant.Tenant{BaseModel: common.BaseModel{ID: id}, Name: "Demo", Status: tenant.StatusActive}
	t.SetNamespace(ns)
	return t
}

func TestAuthService_Login_Success(t *testing.T) {
	ts := setupAuthServiceTestSuite(t)
	ctx := context.Background()

	u := &user.User{BaseModel: common.BaseModel{ID: 1}, Email: "root@t.io", PasswordHash: ts.hash, Role: common.RolePlatformAdmin, TenantID: 5}
	ts.mockUsers.On("FindByEmail", ctx, "root@t.io").Return(u, nil)
	ts.mockTenants.On("FindByID", ctx, uint(5)).Return(activeTenant(5, "default"), nil)

	resp, err := ts.service.Login(ctx, "root@t.io", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, int64(43200), resp.ExpiresIn)
	assert.Equal(t, "default", resp.Tenant.K8sNamespace)
	assert.Equal(t, common.RolePlatformAdmin, resp.User.Role)

	claims, err := ts.tokens.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "default", claims.Namespace)
	assert.Equal(t, uint(5), claims.TenantID)

	ts.mockUsers.AssertExpectations(t)
	ts.mockTenants.AssertExpectations(t)
}

func TestAuthService_Login_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		ts := setupAuthServiceTestSuite(t)
		ts.mockUsers.On("FindByEmail", ctx, "x@t.io").Return(nil, common.ErrNotFound)

		_, err := ts.service.Login(ctx, "x@t.io", "admin123")
		assertUnauthorized(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		ts := setupAuthServiceTestSuite(t)
		ts.mockUsers.On("FindByEmail", ctx, "root@t.io").Return(&user.User{Email: "root@t.io", PasswordHash: ts.hash, TenantID: 5}, nil)

		_, err := ts.service.Login(ctx, "root@t.io", "nope")
		assertUnauthorized(t, err)
		ts.mockTenants.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("pending tenant", func(t *testing.T) {
		ts := setupAuthServiceTestSuite(t)
		ts.mockUsers.On("FindByEmail", ctx, "root@t.io").Return(&user.User{Email: "root@t.io", PasswordHash: ts.hash, TenantID: 5}, nil)
		pending := activeTenant(5, "acme")
		pending.Status = tenant.StatusPending
		ts.mockTenants.On("FindByID", ctx, uint(5)).Return(pending, nil)

		_, err := ts.service.Login(ctx, "root@t.io", "admin123")
		assertUnauthorized(t, err)
	})

	t.Run("missing tenant", func(t *testing.T) {
		ts := setupAuthServiceTestSuite(t)
		ts.mockUsers.On("FindByEmail", ctx, "root@t.io").Return(&user.User{Email: "root@t.io", PasswordHash: ts.hash, TenantID: 5}, nil)
		ts.mockTenants.On("FindByID", ctx, uint(5)).Return(nil, common.ErrNotFound.WithDetails("Tenant not found"))

		_, err := ts.service.Login(ctx, "root@t.io", "admin123")
		assertUnauthorized(t, err)
	})
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok, "expected APIError, got %v", err)
	assert.Equal(t, 401, apiErr.StatusCode)
}
