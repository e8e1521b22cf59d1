package model

import (
	"time"

	"gorm.io/gorm"
)

// Folder access levels granted to workspace members without an explicit
// folder role. A folder with no access level is restricted to members that
// hold a role on it.
const (
	FolderAccessWrite = "write"
	FolderAccessRead  = "read"
)

// Folder roles
const (
	FolderRoleOwner  = "owner"
	FolderRoleEditor = "editor"
	FolderRoleViewer = "viewer"
)

// Folder groups links under a workspace with its own access control
type Folder struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	WorkspaceID string         `json:"workspace_id" gorm:"type:varchar(32);index;not null"`
	AccessLevel *string        `json:"access_level,omitempty" gorm:"type:varchar(10)"` // "write", "read" or NULL for restricted
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate hook will be called before creating a new Folder record
func (f *Folder) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == "" {
		f.ID = NewID()
	}
	return nil
}

// FolderUser assigns a folder-specific role to a workspace member
type FolderUser struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	FolderID  string    `json:"folder_id" gorm:"type:varchar(32);uniqueIndex:idx_folder_member;not null"`
	UserID    string    `json:"user_id" gorm:"type:varchar(32);uniqueIndex:idx_folder_member;not null"`
	Role      string    `json:"role" gorm:"type:varchar(50);not null"` // 'owner', 'editor' or 'viewer'
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
