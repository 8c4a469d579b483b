// File: internal/onboarding/service.go
package onboarding

import (
	"context"
	"errors"
	"fmt"

	"devops_platform_backend/internal/audit"
	"devops_platform_backend/internal/auth"
	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/config"
	"devops_platform_backend/internal/platform/mailer"
	"devops_platform_backend/internal/tenant"
	"devops_platform_backend/internal/user"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const registeredMsg = "Tenant registered successfully. Pending approval."

// Service defines the self-service onboarding use cases.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Status(ctx context.Context, cc *common.CurrentContext) (*StatusResponse, error)
}

type service struct {
	db       *gorm.DB
	tenants  tenant.Repository
	users    user.Repository
	tokens   auth.TokenService
	hasher   auth.PasswordHasher
	mail     mailer.Sender
	notifier Notifier
	cfg      *config.Config
	logger   *zap.Logger
}

// NewService creates a new onboarding service.
func NewService(
	db *gorm.DB,
	tenants tenant.Repository,
	users user.Repository,
	tokens auth.TokenService,
	hasher auth.PasswordHasher,
	mail mailer.Sender,
	notifier Notifier,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &service{
		db:       db,
		tenants:  tenants,
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		mail:     mail,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.Named("OnboardingService"),
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := user.NormalizeEmail(req.Email)

	if _, err := s.tenants.FindByName(ctx, req.Company); err == nil {
		return nil, common.ErrConflict.WithDetails("Company already exists")
	} else if !isNotFound(err) {
		return nil, s.internal("lookup company", err)
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, common.ErrConflict.WithDetails("Email already registered")
	} else if !isNotFound(err) {
		return nil, s.internal("lookup email", err)
	}
	taken, err := s.tenants.NamespaceTaken(ctx, req.Namespace, 0)
	if err != nil {
		return nil, s.internal("lookup namespace", err)
	}
	if taken {
		return nil, common.ErrConflict.WithDetails("Namespace already requested")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, s.internal("hash password", err)
	}

	t := &tenant.Tenant{Name: req.Company, Status: tenant.StatusPending}
	t.SetNamespace(req.Namespace)
	u := &user.User{Email: email, PasswordHash: hash, Role: common.RolePendingUser}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tenant.NewGORMRepository(tx).Create(ctx, t); err != nil {
			return err
		}
		u.TenantID = t.ID
		if err := user.NewGORMRepository(tx).Create(ctx, u); err != nil {
			return err
		}
		return audit.NewGORMRecorder(tx, s.logger).Record(ctx, t.ID, audit.ActionRegister, email, audit.ResultOK)
	})
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		return nil, s.internal("create tenant", err)
	}
	s.logger.Info("Tenant registered", zap.Uint("tenantID", t.ID), zap.String("company", t.Name), zap.String("email", email))

	s.announce(ctx, req, email)

	token, _, err := s.tokens.GenerateAccessToken(common.CurrentContext{
		Email:    email,
		Role:     common.RolePendingUser,
		TenantID: t.ID,
	}, s.cfg.PendingTokenExpiry)
	if err != nil {
		return nil, s.internal("issue token", err)
	}

	return &RegisterResponse{OK: true, Msg: registeredMsg, AccessToken: token, TokenType: "bearer"}, nil
}

// announce tells the platform admins about a registration. Delivery is best
// effort.
func (s *service) announce(ctx context.Context, req RegisterRequest, email string) {
	if s.cfg.AdminEmail != "" {
		subject := fmt.Sprintf("[Smart DevOps] New tenant request: %s", req.Company)
		body := fmt.Sprintf("Tenant: %s\nNamespace: %s\nAdmin: %s", req.Company, req.Namespace, email)
		if req.Note != "" {
			body += "\nNote: " + req.Note
		}
		if err := s.mail.Send(ctx, s.cfg.AdminEmail, subject, body); err != nil && !errors.Is(err, mailer.ErrNotConfigured) {
			s.logger.Warn("Failed to email admin about registration", zap.Error(err))
		}
	}

	event := registerEvent{Event: "tenant.register", Company: req.Company, Email: email}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn("Onboarding webhook failed", zap.Error(err))
	}
}

func (s *service) Status(ctx context.Context, cc *common.CurrentContext) (*StatusResponse, error) {
	u, err := s.users.FindByEmail(ctx, cc.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrNotFound.WithDetails("User not found")
		}
		return nil, s.internal("lookup user", err)
	}
	t, err := s.tenants.FindByID(ctx, u.TenantID)
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrNotFound.WithDetails("Tenant not found")
		}
		return nil, s.internal("lookup tenant", err)
	}
	return &StatusResponse{Status: t.Status}, nil
}

func (s *service) internal(op string, err error) error {
	s.logger.Error("Onboarding failed", zap.String("op", op), zap.Error(err))
	return common.ErrInternalServer.WithDetails("Could not complete registration request.")
}

func isNotFound(err error) bool {
	apiErr, ok := common.IsAPIError(err)
	return ok && apiErr.StatusCode == common.ErrNotFound.StatusCode
}
