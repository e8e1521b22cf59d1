package model

import (
	"time"
)

// UsageReport aggregates per-workspace usage for the current billing period
type UsageReport struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	WorkspaceID string    `json:"workspace_id" gorm:"type:varchar(32);uniqueIndex;not null"`
	Links       int64     `json:"links" gorm:"default:0"`
	Clicks      int64     `json:"clicks" gorm:"default:0"`
	PeriodStart time.Time `json:"period_start"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
