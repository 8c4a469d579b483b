// File: internal/admin/service.go
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"devops_platform_backend/internal/audit"
	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/platform/crypto"
	"devops_platform_backend/internal/platform/mailer"
	"devops_platform_backend/internal/provisioning"
	"devops_platform_backend/internal/tenant"
	"devops_platform_backend/internal/user"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	approvedSubject = "[Smart DevOps] Your account is approved"
	approvedBody    = "You can sign in now."

	maxNamespaceLen = 63
	shortIDLen      = 6
)

// ProvisioningQueue accepts tenants whose namespace should be provisioned.
type ProvisioningQueue interface {
	Enqueue(tenantID uint) bool
}

// Service defines the platform administration use cases.
type Service interface {
	ListTenants(ctx context.Context, status string) (*TenantList, error)
	ListPending(ctx context.Context) ([]PendingTenant, error)
	Approve(ctx context.Context, actor *common.CurrentContext, tenantID uint) (*ApproveResult, error)
	Reject(ctx context.Context, actor *common.CurrentContext, tenantID uint, reason string) (*RejectResult, error)
}

type service struct {
	db          *gorm.DB
	tenants     tenant.Repository
	users       user.Repository
	provisioner provisioning.Provisioner
	queue       ProvisioningQueue
	mail        mailer.Sender
	logger      *zap.Logger
}

// NewService creates a new admin service.
func NewService(
	db *gorm.DB,
	tenants tenant.Repository,
	users user.Repository,
	provisioner provisioning.Provisioner,
	queue ProvisioningQueue,
	mail mailer.Sender,
	logger *zap.Logger,
) Service {
	return &service{
		db:          db,
		tenants:     tenants,
		users:       users,
		provisioner: provisioner,
		queue:       queue,
		mail:        mail,
		logger:      logger.Named("AdminService"),
	}
}

func (s *service) ListTenants(ctx context.Context, status string) (*TenantList, error) {
	rows, err := s.tenants.List(ctx, strings.TrimSpace(status))
	if err != nil {
		s.logger.Error("Failed to list tenants", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load tenants.")
	}
	items := make([]TenantItem, 0, len(rows))
	for _, t := range rows {
		items = append(items, TenantItem{ID: t.ID, Name: t.Name, Status: t.Status, K8sNamespace: t.K8sNamespace})
	}
	return &TenantList{Items: items}, nil
}

func (s *service) ListPending(ctx context.Context) ([]PendingTenant, error) {
	rows, err := s.tenants.List(ctx, tenant.StatusPending)
	if err != nil {
		s.logger.Error("Failed to list pending tenants", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load tenants.")
	}
	out := make([]PendingTenant, 0, len(rows))
	for _, t := range rows {
		item := PendingTenant{ID: t.ID, Name: t.Name, K8sNamespace: t.Namespace()}
		if u, err := s.firstUser(ctx, t.ID); err == nil && u != nil {
			item.Email = u.Email
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *service) Approve(ctx context.Context, actor *common.CurrentContext, tenantID uint) (*ApproveResult, error) {
	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	switch t.Status {
	case tenant.StatusActive:
		return approveResult(t), nil
	case tenant.StatusRejected:
		return nil, common.ErrConflict.WithDetails("Tenant is rejected")
	}

	ns, err := s.pickNamespace(ctx, t)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t.SetNamespace(ns)
		t.Status = tenant.StatusActive
		if err := tenant.NewGORMRepository(tx).Update(ctx, t); err != nil {
			return err
		}
		if _, err := user.NewGORMRepository(tx).PromoteRole(ctx, t.ID, common.RolePendingUser, common.RoleTenantAdmin); err != nil {
			return fmt.Errorf("promote pending users: %w", err)
		}
		if _, err := provisioning.NewGORMRunRepository(tx).Queue(ctx, t.ID); err != nil {
			return fmt.Errorf("queue provisioning run: %w", err)
		}
		return audit.NewGORMRecorder(tx, s.logger).Record(ctx, t.ID, audit.ActionApprove, actor.Email, audit.ResultOK)
	})
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		s.logger.Error("Failed to approve tenant", zap.Uint("tenantID", tenantID), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not approve tenant.")
	}

	s.queue.Enqueue(t.ID)
	s.logger.Info("Tenant approved",
		zap.Uint("tenantID", t.ID),
		zap.String("namespace", ns),
		zap.String("actor", actor.Email),
	)

	if u, err := s.firstUser(ctx, t.ID); err == nil && u != nil {
		s.notify(ctx, u.Email, approvedSubject, approvedBody)
	}
	return approveResult(t), nil
}

func (s *service) Reject(ctx context.Context, actor *common.CurrentContext, tenantID uint, reason string) (*RejectResult, error) {
	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t.Status == tenant.StatusActive {
		return nil, common.ErrConflict.WithDetails("Tenant already active")
	}

	result := strings.TrimSpace(reason)
	if result == "" {
		result = tenant.StatusRejected
	}
	ns := t.Namespace()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t.Status = tenant.StatusRejected
		// release the requested name so it can be registered again
		t.SetNamespace("")
		if err := tenant.NewGORMRepository(tx).Update(ctx, t); err != nil {
			return err
		}
		return audit.NewGORMRecorder(tx, s.logger).Record(ctx, t.ID, audit.ActionReject, actor.Email, result)
	})
	if err != nil {
		s.logger.Error("Failed to reject tenant", zap.Uint("tenantID", tenantID), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not reject tenant.")
	}

	// the provisioner only removes namespaces carrying the platform labels
	if ns != "" {
		if _, err := s.provisioner.DeleteTenantNamespace(ctx, ns); err != nil {
			s.logger.Warn("Failed to remove namespace of rejected tenant",
				zap.Uint("tenantID", t.ID),
				zap.String("namespace", ns),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Tenant rejected", zap.Uint("tenantID", t.ID), zap.String("actor", actor.Email))
	return &RejectResult{OK: true, ID: t.ID, Status: tenant.StatusRejected}, nil
}

// pickNamespace keeps the namespace requested at registration when no other
// tenant holds it and it is not an unmanaged cluster namespace. Otherwise a
// name is derived from the tenant name.
func (s *service) pickNamespace(ctx context.Context, t *tenant.Tenant) (string, error) {
	if requested := t.Namespace(); requested != "" {
		taken, err := s.tenants.NamespaceTaken(ctx, requested, t.ID)
		if err != nil {
			return "", err
		}
		foreign, err := s.provisioner.ForeignNamespace(ctx, requested)
		if err != nil {
			s.logger.Error("Failed to inspect requested namespace", zap.String("namespace", requested), zap.Error(err))
			return "", common.ErrInternalServer.WithDetails(err.Error())
		}
		if !taken && !foreign {
			return requested, nil
		}
		s.logger.Info("Requested namespace unavailable, generating one",
			zap.String("namespace", requested),
			zap.Bool("taken", taken),
			zap.Bool("foreign", foreign),
		)
	}

	for attempt := 0; attempt < 5; attempt++ {
		ns, err := GenerateNamespace(t.Name)
		if err != nil {
			return "", err
		}
		taken, err := s.tenants.NamespaceTaken(ctx, ns, t.ID)
		if err != nil {
			return "", err
		}
		if !taken {
			return ns, nil
		}
	}
	return "", common.ErrConflict.WithDetails("Could not allocate a unique namespace")
}

func (s *service) firstUser(ctx context.Context, tenantID uint) (*user.User, error) {
	users, err := s.users.FindByTenant(ctx, tenantID)
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return &users[0], nil
}

func (s *service) notify(ctx context.Context, to, subject, body string) {
	if err := s.mail.Send(ctx, to, subject, body); err != nil && !errors.Is(err, mailer.ErrNotConfigured) {
		s.logger.Warn("Failed to send approval email", zap.String("to", to), zap.Error(err))
	}
}

// GenerateNamespace builds "tenant-<slug>-<shortid>" within the DNS-1123
// label limit.
func GenerateNamespace(name string) (string, error) {
	id, err := crypto.ShortID(shortIDLen)
	if err != nil {
		return "", err
	}
	base := strings.Trim(strings.ReplaceAll(slug.Make(name), "_", "-"), "-")
	if base == "" {
		base = "tenant"
	}
	room := maxNamespaceLen - len("tenant-") - 1 - shortIDLen
	if len(base) > room {
		base = strings.TrimRight(base[:room], "-")
	}
	return fmt.Sprintf("tenant-%s-%s", base, id), nil
}

func approveResult(t *tenant.Tenant) *ApproveResult {
	return &ApproveResult{OK: true, ID: t.ID, Name: t.Name, K8sNamespace: t.Namespace(), Status: tenant.StatusActive}
}
