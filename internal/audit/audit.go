// File: internal/audit/audit.go
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actions written by the tenant lifecycle.
const (
	ActionRegister  = "register"
	ActionApprove   = "approve"
	ActionReject    = "reject"
	ActionProvision = "provision"

	ResultOK = "ok"

	// SystemActor marks entries written by background work.
	SystemActor = "system"
)

// Log is an append-only record of a tenant lifecycle event.
type Log struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID   uint      `gorm:"not null;index" json:"tenant_id"`
	Action     string    `gorm:"type:varchar(64);not null" json:"action"`
	ActorEmail string    `gorm:"type:varchar(255);not null" json:"actor_email"`
	Result     string    `gorm:"type:text;not null;default:'ok'" json:"result"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for the Log model.
func (Log) TableName() string {
	return "audit_logs"
}

// Recorder appends audit entries.
type Recorder interface {
	Record(ctx context.Context, tenantID uint, action, actor, result string) error
	ListByTenant(ctx context.Context, tenantID uint) ([]Log, error)
}

type gormRecorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGORMRecorder creates a new GORM backed audit recorder.
func NewGORMRecorder(db *gorm.DB, logger *zap.Logger) Recorder {
	return &gormRecorder{db: db, logger: logger.Named("Audit")}
}

func (r *gormRecorder) Record(ctx context.Context, tenantID uint, action, actor, result string) error {
	if result == "" {
		result = ResultOK
	}
	entry := &Log{TenantID: tenantID, Action: action, ActorEmail: actor, Result: result}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.logger.Error("Failed to write audit log",
			zap.Uint("tenantID", tenantID),
			zap.String("action", action),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *gormRecorder) ListByTenant(ctx context.Context, tenantID uint) ([]Log, error) {
	var logs []Log
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("id ASC").Find(&logs).Error
	return logs, err
}
