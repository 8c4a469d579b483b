// File: internal/activity/service.go
package activity

import (
	"context"

	"devops_platform_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Service records and lists user activity.
type Service interface {
	// Record stores e. Failures are logged and never surface to the caller.
	Record(ctx context.Context, e Entry)
	ListOwn(ctx context.Context, email string, lo common.LimitOffset) ([]OwnLogItem, error)
	List(ctx context.Context, f Filter, lo common.LimitOffset) ([]Log, int64, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger.Named("ActivityService")}
}

func (s *service) Record(ctx context.Context, e Entry) {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	l := &Log{
		UserEmail: e.UserEmail,
		TenantNS:  e.TenantNS,
		Action:    e.Action,
		Details:   e.Details,
		IP:        e.IP,
		UserAgent: e.UserAgent,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		s.logger.Warn("Failed to record activity",
			zap.String("action", e.Action),
			zap.String("email", e.UserEmail),
			zap.Error(err),
		)
	}
}

func (s *service) ListOwn(ctx context.Context, email string, lo common.LimitOffset) ([]OwnLogItem, error) {
	logs, err := s.repo.ListByEmail(ctx, email, lo)
	if err != nil {
		s.logger.Error("Failed to list own activity", zap.String("email", email), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load activity logs.")
	}
	return toOwnLogItems(logs), nil
}

func (s *service) List(ctx context.Context, f Filter, lo common.LimitOffset) ([]Log, int64, error) {
	logs, total, err := s.repo.List(ctx, f, lo)
	if err != nil {
		s.logger.Error("Failed to list activity", zap.Any("filter", f), zap.Error(err))
		return nil, 0, common.ErrInternalServer.WithDetails("Could not load activity logs.")
	}
	return logs, total, nil
}

// EntryFromRequest fills caller identity, IP and user agent from the request.
func EntryFromRequest(c *gin.Context, cc *common.CurrentContext, action string, details map[string]interface{}) Entry {
	e := Entry{
		Action:    action,
		Details:   details,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if cc != nil {
		e.UserEmail = cc.Email
		e.TenantNS = cc.Namespace
	}
	return e
}
