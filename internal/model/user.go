package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents the user model stored in the database
type User struct {
	ID               string         `json:"id" gorm:"primaryKey"`
	Name             string         `json:"name" gorm:"type:varchar(100)"`
	Email            string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	DefaultWorkspace *string        `json:"default_workspace,omitempty" gorm:"type:varchar(48);index"` // Slug of the user's default workspace
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate hook will be called before creating a new User record
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}
