package models

import "time"

// ClickEvent is one recorded click on a monetized download button.
// Fraud fields are computed once at insert time and never revised;
// the table is an append-only ledger.
type ClickEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AppID     string    `json:"app_id" gorm:"index"`
	IPAddress string    `json:"ip_address" gorm:"index;not null"`
	UserAgent string    `json:"user_agent"`
	Referrer  string    `json:"referrer"`
	SessionID string    `json:"session_id"`
	Language  string    `json:"language"`

	// Client telemetry captured before the click fired.
	ScreenResolution string `json:"screen_resolution"`
	Timezone         string `json:"timezone"`
	ClickDuration    int64  `json:"click_duration"`     // press-to-release, ms
	PageViewDuration int64  `json:"page_view_duration"` // ms
	MouseMovements   int    `json:"mouse_movements"`
	KeyboardEvents   int    `json:"keyboard_events"`
	ScrollEvents     int    `json:"scroll_events"`

	// Derived at ingest from reputation + history prior to this event.
	IsVPN        bool   `json:"is_vpn"`
	IsProxy      bool   `json:"is_proxy"`
	IsBot        bool   `json:"is_bot"`
	RiskScore    int    `json:"risk_score"`
	Country      string `json:"country" gorm:"index"`
	City         string `json:"city"`
	IsFraudulent bool   `json:"is_fraudulent" gorm:"index"`
	FraudReason  string `json:"fraud_reason"`

	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

// TrackClickRequest is the telemetry payload posted by the front end.
type TrackClickRequest struct {
	AppID            string `json:"appId" binding:"required"`
	ScreenResolution string `json:"screenResolution"`
	Timezone         string `json:"timezone"`
	ClickDuration    int64  `json:"clickDuration"`
	PageViewDuration int64  `json:"pageViewDuration"`
	MouseMovements   int    `json:"mouseMovements"`
	KeyboardEvents   int    `json:"keyboardEvents"`
	ScrollEvents     int    `json:"scrollEvents"`
}

// FraudStats is the dashboard aggregate payload.
type FraudStats struct {
	TotalClicks      int64            `json:"total_clicks"`
	FraudulentClicks int64            `json:"fraudulent_clicks"`
	BlockedIPs       int64            `json:"blocked_ips"`
	LastHourClicks   int64            `json:"last_hour_clicks"`
	LastHourFraud    int64            `json:"last_hour_fraud"`
	TopReasons       []ReasonCount    `json:"top_reasons"`
	ByCountry        []CountryCount   `json:"by_country"`
}

type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int64  `json:"count"`
}

type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}
