package model

import (
	"time"
)

// Workspace roles
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// WorkspaceUser represents the association between users and workspaces
// This enables multi-tenancy by allowing users to belong to multiple workspaces
type WorkspaceUser struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	WorkspaceID string    `json:"workspace_id" gorm:"type:varchar(32);uniqueIndex:idx_workspace_member;not null"`
	UserID      string    `json:"user_id" gorm:"type:varchar(32);uniqueIndex:idx_workspace_member;not null"`
	Role        string    `json:"role" gorm:"type:varchar(50);not null;default:'member'"` // Role within workspace: 'owner' or 'member'
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	User      User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Workspace Workspace `json:"workspace,omitempty" gorm:"foreignKey:WorkspaceID"`
}
