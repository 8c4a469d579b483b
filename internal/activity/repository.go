// File: internal/activity/repository.go
package activity

import (
	"context"

	"devops_platform_backend/internal/common"

	"gorm.io/gorm"
)

// Repository defines the interface for activity log storage.
type Repository interface {
	Create(ctx context.Context, l *Log) error
	ListByEmail(ctx context.Context, email string, lo common.LimitOffset) ([]Log, error)
	List(ctx context.Context, f Filter, lo common.LimitOffset) ([]Log, int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM activity repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, l *Log) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *gormRepository) ListByEmail(ctx context.Context, email string, lo common.LimitOffset) ([]Log, error) {
	var logs []Log
	err := r.db.WithContext(ctx).
		Where("user_email = ?", email).
		Order("created_at DESC, id DESC").
		Limit(lo.Limit).Offset(lo.Offset).
		Find(&logs).Error
	return logs, err
}

// List returns one page of matching logs plus the total number of matches.
func (r *gormRepository) List(ctx context.Context, f Filter, lo common.LimitOffset) ([]Log, int64, error) {
	q := r.db.WithContext(ctx).Model(&Log{})
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Email != "" {
		q = q.Where("user_email = ?", f.Email)
	}
	if f.Namespace != "" {
		q = q.Where("tenant_ns = ?", f.Namespace)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []Log
	err := q.Order("created_at DESC, id DESC").Limit(lo.Limit).Offset(lo.Offset).Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
