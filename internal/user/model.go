// File: internal/user/model.go
package user

import (
	"devops_platform_backend/internal/common"
)

// User is a person signing in to the platform on behalf of a tenant.
type User struct {
	common.BaseModel
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Role         string `gorm:"type:varchar(50);not null;default:'user'" json:"role"`
	TenantID     uint   `gorm:"not null;index" json:"tenant_id"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// EffectiveRole falls back to "user" for rows created without a role.
func (u *User) EffectiveRole() string {
	if u.Role == "" {
		return common.RoleUser
	}
	return u.Role
}

// UserResponse is the public projection of a User.
type UserResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ToUserResponse converts a User model to a UserResponse DTO.
func ToUserResponse(u *User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Role: u.EffectiveRole()}
}

// alertRecipientPriority orders roles when picking who receives alert mail.
var alertRecipientPriority = []string{
	common.RoleClient,
	common.RoleDevOps,
	common.RoleTenantAdmin,
	common.RolePlatformAdmin,
}

// PickAlertRecipient returns the user whose role ranks first in
// client > devops > tenant_admin > platform_admin; other roles rank last.
// Ties keep the input order.
func PickAlertRecipient(users []User) *User {
	rank := func(role string) int {
		for i, r := range alertRecipientPriority {
			if r == role {
				return i
			}
		}
		return len(alertRecipientPriority)
	}

	var best *User
	bestRank := len(alertRecipientPriority) + 1
	for i := range users {
		if r := rank(users[i].Role); r < bestRank {
			best, bestRank = &users[i], r
		}
	}
	return best
}
