package model

import (
	"time"

	"gorm.io/gorm"
)

// Partner represents an affiliate partner in the shared directory
type Partner struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(190);not null;index"`
	Email     string         `json:"email" gorm:"type:varchar(190);uniqueIndex"`
	Image     *string        `json:"image,omitempty" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate hook will be called before creating a new Partner record
func (p *Partner) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}
