// File: internal/provisioning/run.go
package provisioning

import (
	"context"
	"errors"
	"time"

	"devops_platform_backend/internal/common"

	"gorm.io/gorm"
)

// Run states.
const (
	RunQueued  = "queued"
	RunRunning = "running"
	RunDone    = "done"
	RunFailed  = "failed"
)

// Run tracks provisioning of one tenant's namespace.
type Run struct {
	common.BaseModel
	TenantID  uint    `gorm:"not null;uniqueIndex" json:"tenant_id"`
	Status    string  `gorm:"type:varchar(20);not null;default:'queued'" json:"status"`
	Retries   int     `gorm:"not null;default:0" json:"retries"`
	LastError *string `gorm:"type:text" json:"last_error"`
}

// TableName specifies the table name for the Run model.
func (Run) TableName() string {
	return "provisioning_runs"
}

// RunRepository defines the interface for provisioning run data operations.
type RunRepository interface {
	// Queue creates the tenant's run or moves an existing one back to queued.
	Queue(ctx context.Context, tenantID uint) (*Run, error)
	FindByTenant(ctx context.Context, tenantID uint) (*Run, error)
	Save(ctx context.Context, run *Run) error
	// ListRetryable returns failed runs with fewer than maxRetries attempts,
	// runs still waiting in the queued state and running runs not touched
	// since staleBefore.
	ListRetryable(ctx context.Context, maxRetries int, staleBefore time.Time) ([]Run, error)
	// Claim moves the tenant's run to running when it is queued, failed or
	// running but stale. It reports false when another attempt holds it.
	Claim(ctx context.Context, tenantID uint, staleBefore time.Time) (bool, error)
}

type gormRunRepository struct {
	db *gorm.DB
}

// NewGORMRunRepository creates a new GORM provisioning run repository.
func NewGORMRunRepository(db *gorm.DB) RunRepository {
	return &gormRunRepository{db: db}
}

func (r *gormRunRepository) Queue(ctx context.Context, tenantID uint) (*Run, error) {
	run, err := r.FindByTenant(ctx, tenantID)
	if err != nil {
		if apiErr, ok := common.IsAPIError(err); !ok || apiErr.StatusCode != common.ErrNotFound.StatusCode {
			return nil, err
		}
		run = &Run{TenantID: tenantID, Status: RunQueued}
		if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
			return nil, err
		}
		return run, nil
	}
	run.Status = RunQueued
	return run, r.Save(ctx, run)
}

func (r *gormRunRepository) FindByTenant(ctx context.Context, tenantID uint) (*Run, error) {
	var run Run
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Provisioning run not found")
		}
		return nil, err
	}
	return &run, nil
}

func (r *gormRunRepository) Save(ctx context.Context, run *Run) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *gormRunRepository) ListRetryable(ctx context.Context, maxRetries int, staleBefore time.Time) ([]Run, error) {
	var runs []Run
	err := r.db.WithContext(ctx).
		Where("(status = ? AND retries < ?) OR status = ? OR (status = ? AND updated_at < ?)",
			RunFailed, maxRetries, RunQueued, RunRunning, staleBefore).
		Order("id ASC").
		Find(&runs).Error
	return runs, err
}

func (r *gormRunRepository) Claim(ctx context.Context, tenantID uint, staleBefore time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Run{}).
		Where("tenant_id = ? AND (status IN ? OR (status = ? AND updated_at < ?))",
			tenantID, []string{RunQueued, RunFailed}, RunRunning, staleBefore).
		Updates(map[string]interface{}{"status": RunRunning, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
