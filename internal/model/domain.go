package model

import (
	"time"

	"gorm.io/gorm"
)

// Domain represents a custom domain attached to a workspace
type Domain struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	Slug        string         `json:"slug" gorm:"type:varchar(190);uniqueIndex;not null"` // The hostname itself, e.g. "go.acme.com"
	WorkspaceID string         `json:"workspace_id" gorm:"type:varchar(32);index;not null"`
	IsPrimary   bool           `json:"primary" gorm:"default:false"`
	Verified    bool           `json:"verified" gorm:"default:false"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate hook will be called before creating a new Domain record
func (d *Domain) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == "" {
		d.ID = NewID()
	}
	return nil
}
