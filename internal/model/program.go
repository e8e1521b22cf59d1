package model

import (
	"time"

	"gorm.io/gorm"
)

// Program represents a workspace's partner program
type Program struct {
	ID              string         `json:"id" gorm:"primaryKey"`
	WorkspaceID     string         `json:"workspace_id" gorm:"type:varchar(32);index;not null"`
	Name            string         `json:"name" gorm:"type:varchar(100);not null"`
	ApplicationForm string         `json:"application_form" gorm:"type:jsonb"` // Serialized application form definition
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate hook will be called before creating a new Program record
func (p *Program) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}
