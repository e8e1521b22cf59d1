package model

import (
	"time"

	"gorm.io/gorm"
)

// Plan tiers, lowest to highest
const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanBusiness   = "business"
	PlanAdvanced   = "advanced"
	PlanEnterprise = "enterprise"
)

var planRank = map[string]int{
	PlanFree:       0,
	PlanPro:        1,
	PlanBusiness:   2,
	PlanAdvanced:   3,
	PlanEnterprise: 4,
}

// Workspace represents the workspace model stored in the database
// This is the core of our multi-tenant architecture
type Workspace struct {
	ID                string         `json:"id" gorm:"primaryKey"`
	Name              string         `json:"name" gorm:"type:varchar(100);not null"`
	Slug              string         `json:"slug" gorm:"type:varchar(48);uniqueIndex;not null"`
	Logo              *string        `json:"logo,omitempty" gorm:"type:text"`
	Plan              string         `json:"plan" gorm:"type:varchar(20);not null;default:'free'"`
	ConversionEnabled bool           `json:"conversion_enabled" gorm:"default:false"`
	AllowedHostnames  []string       `json:"allowed_hostnames" gorm:"serializer:json"`
	DefaultFolderID   *string        `json:"default_folder_id,omitempty" gorm:"type:varchar(32)"`
	PartnersEnabled   bool           `json:"partners_enabled" gorm:"default:false"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate hook will be called before creating a new Workspace record
func (w *Workspace) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == "" {
		w.ID = NewID()
	}
	if w.Plan == "" {
		w.Plan = PlanFree
	}
	return nil
}

// PlanAtLeast reports whether the workspace plan is at or above the given tier.
// Unknown plans rank below free.
func (w *Workspace) PlanAtLeast(plan string) bool {
	rank, ok := planRank[w.Plan]
	if !ok {
		rank = -1
	}
	return rank >= planRank[plan]
}

// PaidPlan reports whether the workspace is on any paid tier
func (w *Workspace) PaidPlan() bool {
	return w.Plan != PlanFree && w.Plan != ""
}
