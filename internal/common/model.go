// File: internal/common/model.go
package common

import (
	"time"
)

// BaseModel defines common fields for GORM models.
// IDs are integers so they stay stable in URLs and JWT claims.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}
