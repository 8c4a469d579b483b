// File: internal/activity/model.go
package activity

import (
	"time"
)

// Well-known actions.
const (
	ActionLogin             = "login"
	ActionDeploy            = "deploy"
	ActionScale             = "scale"
	ActionBlueGreenPrepare  = "bluegreen_prepare"
	ActionBlueGreenPromote  = "bluegreen_promote"
	ActionBlueGreenRollback = "bluegreen_rollback"
)

// Log is one user-visible action recorded for the activity feed.
type Log struct {
	ID        uint                   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserEmail string                 `gorm:"type:varchar(255);index;not null" json:"user_email"`
	TenantNS  string                 `gorm:"column:tenant_ns;type:varchar(63);index" json:"tenant_ns,omitempty"`
	Action    string                 `gorm:"type:varchar(64);index;not null" json:"action"`
	Details   map[string]interface{} `gorm:"serializer:json;type:text" json:"details"`
	IP        string                 `gorm:"type:varchar(64)" json:"ip"`
	UserAgent string                 `gorm:"type:varchar(512)" json:"user_agent"`
	CreatedAt time.Time              `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the Log model.
func (Log) TableName() string {
	return "activity_logs"
}

// Filter narrows the admin listing. Empty fields match everything.
type Filter struct {
	Action    string
	Email     string
	Namespace string
}

// Entry is what callers hand to Service.Record.
type Entry struct {
	UserEmail string
	TenantNS  string
	Action    string
	Details   map[string]interface{}
	IP        string
	UserAgent string
}

// OwnLogItem is the /logs/my projection, which omits the namespace.
type OwnLogItem struct {
	ID        uint                   `json:"id"`
	UserEmail string                 `json:"user_email"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details"`
	IP        string                 `json:"ip"`
	UserAgent string                 `json:"user_agent"`
	CreatedAt time.Time              `json:"created_at"`
}

func toOwnLogItems(logs []Log) []OwnLogItem {
	items := make([]OwnLogItem, 0, len(logs))
	for _, l := range logs {
		items = append(items, OwnLogItem{
			ID:        l.ID,
			UserEmail: l.UserEmail,
			Action:    l.Action,
			Details:   l.Details,
			IP:        l.IP,
			UserAgent: l.UserAgent,
			CreatedAt: l.CreatedAt,
		})
	}
	return items
}
