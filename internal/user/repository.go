// File: internal/user/repository.go
package user

import (
	"context"
	"errors"
	"strings"

	"devops_platform_backend/internal/common"

	"gorm.io/gorm"
)

// Repository defines the interface for user data operations.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByTenant(ctx context.Context, tenantID uint) ([]User, error)
	PromoteRole(ctx context.Context, tenantID uint, from, to string) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new user record into the database.
func (r *gormRepository) Create(ctx context.Context, user *User) error {
	user.Email = NormalizeEmail(user.Email)
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(strings.ToLower(err.Error()), "unique constraint") ||
			strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return common.ErrConflict.WithDetails("User with this email already exists.")
		}
		return err
	}
	return nil
}

// FindByEmail retrieves a user by their email address.
func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var userModel User
	err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found")
		}
		return nil, err
	}
	return &userModel, nil
}

// FindByTenant lists a tenant's users in creation order.
func (r *gormRepository) FindByTenant(ctx context.Context, tenantID uint) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("id ASC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// PromoteRole moves every user of a tenant holding role from to role to.
func (r *gormRepository) PromoteRole(ctx context.Context, tenantID uint, from, to string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&User{}).
		Where("tenant_id = ? AND role = ?", tenantID, from).
		Update("role", to)
	return res.RowsAffected, res.Error
}
