// File: internal/tenant/repository.go
package tenant

import (
	"context"
	"errors"
	"strings"

	"devops_platform_backend/internal/common"

	"gorm.io/gorm"
)

// Repository defines the interface for tenant data operations.
type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	FindByID(ctx context.Context, id uint) (*Tenant, error)
	FindByName(ctx context.Context, name string) (*Tenant, error)
	FindByNamespace(ctx context.Context, ns string) (*Tenant, error)
	List(ctx context.Context, status string) ([]Tenant, error)
	Update(ctx context.Context, t *Tenant) error
	NamespaceTaken(ctx context.Context, ns string, excludeID uint) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM tenant repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, t *Tenant) error {
	t.Name = strings.TrimSpace(t.Name)
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if isDuplicate(err) {
			return common.ErrConflict.WithDetails("Company already exists")
		}
		return err
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uint) (*Tenant, error) {
	var t Tenant
	err := r.db.WithContext(ctx).First(&t, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Tenant not found")
		}
		return nil, err
	}
	return &t, nil
}

func (r *gormRepository) FindByName(ctx context.Context, name string) (*Tenant, error) {
	var t Tenant
	err := r.db.WithContext(ctx).Where("name = ?", strings.TrimSpace(name)).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Tenant not found")
		}
		return nil, err
	}
	return &t, nil
}

func (r *gormRepository) FindByNamespace(ctx context.Context, ns string) (*Tenant, error) {
	var t Tenant
	err := r.db.WithContext(ctx).Where("k8s_namespace = ?", ns).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Tenant not found for namespace")
		}
		return nil, err
	}
	return &t, nil
}

// List returns tenants newest first, optionally filtered by status.
func (r *gormRepository) List(ctx context.Context, status string) ([]Tenant, error) {
	var tenants []Tenant
	q := r.db.WithContext(ctx).Model(&Tenant{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("id DESC").Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *gormRepository) Update(ctx context.Context, t *Tenant) error {
	if err := r.db.WithContext(ctx).Save(t).Error; err != nil {
		if isDuplicate(err) {
			return common.ErrConflict.WithDetails("Tenant name or namespace already in use")
		}
		return err
	}
	return nil
}

func (r *gormRepository) NamespaceTaken(ctx context.Context, ns string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Tenant{}).
		Where("k8s_namespace = ? AND id <> ?", ns, excludeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
