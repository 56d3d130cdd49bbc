package models

import "time"

// Rule classification values.
const (
	RuleTypeBehavioral = "behavioral"
	RuleTypeIPBased    = "ip_based"

	RuleActionBlock = "block"
	RuleActionFlag  = "flag"
)

// FraudDetectionRule is a declarative policy record. Rules are seeded
// at initialization and editable by admins; they surface on the
// dashboard but do not parameterize the scoring weights.
type FraudDetectionRule struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null"`
	Description string    `json:"description"`
	RuleType    string    `json:"rule_type"`
	Conditions  string    `json:"conditions"` // structured predicate, JSON
	Action      string    `json:"action"`
	Severity    int       `json:"severity"` // 1-10
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RuleUpdateRequest struct {
	Description *string `json:"description"`
	Conditions  *string `json:"conditions"`
	Action      *string `json:"action"`
	Severity    *int    `json:"severity"`
	IsActive    *bool   `json:"isActive"`
}

// DefaultRules returns the seed policy set. Seeding skips names that
// already exist, so re-running initialization is safe.
func DefaultRules() []FraudDetectionRule {
	return []FraudDetectionRule{
		{
			Name:        "high_click_frequency",
			Description: "More than 5 clicks per minute from a single IP",
			RuleType:    RuleTypeBehavioral,
			Conditions:  `{"clicks_per_minute": {"gt": 5}}`,
			Action:      RuleActionFlag,
			Severity:    6,
			IsActive:    true,
		},
		{
			Name:        "extreme_click_frequency",
			Description: "More than 10 clicks per minute from a single IP",
			RuleType:    RuleTypeBehavioral,
			Conditions:  `{"clicks_per_minute": {"gt": 10}}`,
			Action:      RuleActionBlock,
			Severity:    9,
			IsActive:    true,
		},
		{
			Name:        "fast_clicking",
			Description: "Average click duration under 800ms across the trailing day",
			RuleType:    RuleTypeBehavioral,
			Conditions:  `{"avg_click_duration_ms": {"lt": 800}}`,
			Action:      RuleActionFlag,
			Severity:    5,
			IsActive:    true,
		},
		{
			Name:        "no_user_interaction",
			Description: "Repeated clicks with no mouse, keyboard or scroll activity",
			RuleType:    RuleTypeBehavioral,
			Conditions:  `{"mouse_movements": 0, "min_events": 3}`,
			Action:      RuleActionFlag,
			Severity:    5,
			IsActive:    true,
		},
		{
			Name:        "known_vpn_range",
			Description: "IP inside a known VPN provider range",
			RuleType:    RuleTypeIPBased,
			Conditions:  `{"is_vpn": true}`,
			Action:      RuleActionFlag,
			Severity:    7,
			IsActive:    true,
		},
		{
			Name:        "datacenter_ip",
			Description: "IP inside a known hosting provider range",
			RuleType:    RuleTypeIPBased,
			Conditions:  `{"is_proxy": true}`,
			Action:      RuleActionFlag,
			Severity:    6,
			IsActive:    true,
		},
	}
}
