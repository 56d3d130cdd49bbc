package models

import "time"

// BlockedIP is the rolling blocklist. At most one row exists per IP;
// re-blocking an already known IP updates the row in place.
type BlockedIP struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	IPAddress string `json:"ip_address" gorm:"uniqueIndex;not null"`
	Reason    string `json:"reason"`
	RiskScore int    `json:"risk_score"`
	IsVPN     bool   `json:"is_vpn"`
	IsProxy   bool   `json:"is_proxy"`
	Country   string `json:"country"`
	City      string `json:"city"`
	UserAgent string `json:"user_agent"` // of the triggering click
	IsActive  bool   `json:"is_active" gorm:"index;default:true"`
	Notes     string `json:"notes"`

	BlockedAt   time.Time `json:"blocked_at"`
	LastClickAt time.Time `json:"last_click_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type BlockIPRequest struct {
	IPAddress string `json:"ipAddress" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
	Notes     string `json:"notes"`
}

type UnblockIPRequest struct {
	IPAddress string `json:"ipAddress" binding:"required"`
}

type AnalyzeIPRequest struct {
	IPAddress string `json:"ipAddress" binding:"required"`
}
