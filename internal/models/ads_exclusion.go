package models

import "time"

// Exclusion sync states.
const (
	ExclusionPending = "pending"
	ExclusionSynced  = "synced"
	ExclusionFailed  = "failed"
)

// GoogleAdsExclusion records the intent to exclude a blocked IP from a
// paid campaign. One row per (campaign, IP) block. Status transitions
// are driven by the downstream ads-platform sync, not by this service.
type GoogleAdsExclusion struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	CampaignName string    `json:"campaign_name" gorm:"index"`
	ExcludedIP   string    `json:"excluded_ip" gorm:"index"`
	Reason       string    `json:"reason"`
	Status       string    `json:"status" gorm:"index;default:pending"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	ExcludedAt   time.Time `json:"excluded_at"`
	CreatedAt    time.Time `json:"created_at"`
}
