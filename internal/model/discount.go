package model

import (
	"time"

	"gorm.io/gorm"
)

// Discount types
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFlat       = "flat"
)

// Discount represents a partner-program discount owned by a workspace
type Discount struct {
	ID                string         `json:"id" gorm:"primaryKey"`
	WorkspaceID       string         `json:"workspace_id" gorm:"type:varchar(32);index;not null"`
	Amount            int64          `json:"amount" gorm:"not null"` // Percent for 'percentage', cents for 'flat'
	Type              string         `json:"type" gorm:"type:varchar(20);not null;default:'percentage'"`
	MaxDurationMonths *int           `json:"max_duration_months,omitempty"` // NULL means the discount recurs forever
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate hook will be called before creating a new Discount record
func (d *Discount) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == "" {
		d.ID = NewID()
	}
	return nil
}

// DiscountPartner marks a partner as eligible for a discount
type DiscountPartner struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	DiscountID string    `json:"discount_id" gorm:"type:varchar(32);uniqueIndex:idx_discount_partner;not null"`
	PartnerID  string    `json:"partner_id" gorm:"type:varchar(32);uniqueIndex:idx_discount_partner;not null"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Partner Partner `json:"partner,omitempty" gorm:"foreignKey:PartnerID"`
}
