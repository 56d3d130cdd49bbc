package repository

import (
	"errors"
	"time"

	"clickguard/internal/models"
)

// ErrNotFound is returned by lookups and updates keyed on a missing row.
var ErrNotFound = errors.New("record not found")

// ClickStore is the append-only click ledger. Events are never updated
// or deleted by this service.
type ClickStore interface {
	Create(event *models.ClickEvent) error
	// ListByIPSince returns the IP's events with since <= timestamp < before,
	// oldest first.
	ListByIPSince(ip string, since, before time.Time) ([]models.ClickEvent, error)
	List(fraudulentOnly bool, limit, offset int) ([]models.ClickEvent, error)
	CountSince(since time.Time) (total int64, fraudulent int64, err error)
	TopReasons(since time.Time, limit int) ([]models.ReasonCount, error)
	CountByCountry(since time.Time) ([]models.CountryCount, error)
}

// BlockStore maintains the blocklist. Upsert is keyed on IP address and
// must tolerate two concurrent blocks of the same fresh IP.
type BlockStore interface {
	Upsert(block *models.BlockedIP) error
	// FindActive returns the active block row for the IP, or nil when the
	// IP is not actively blocked (inactive rows are excluded).
	FindActive(ip string) (*models.BlockedIP, error)
	// Deactivate clears isActive. A missing row reports found=false, not
	// an error.
	Deactivate(ip string) (found bool, err error)
	ListActive(limit, offset int) ([]models.BlockedIP, error)
	CountActive() (int64, error)
}

// RuleStore manages the declarative fraud policy records.
type RuleStore interface {
	// SeedDefaults inserts rules whose name does not exist yet and
	// reports how many were created.
	SeedDefaults(rules []models.FraudDetectionRule) (created int, err error)
	List() ([]models.FraudDetectionRule, error)
	Update(id uint, req models.RuleUpdateRequest) (*models.FraudDetectionRule, error)
}

// ExclusionStore records ads-exclusion propagation intents.
type ExclusionStore interface {
	CreateBatch(exclusions []models.GoogleAdsExclusion) error
	List(limit, offset int) ([]models.GoogleAdsExclusion, error)
}

// Store bundles the four tables behind one value for wiring.
type Store struct {
	Clicks     ClickStore
	Blocks     BlockStore
	Rules      RuleStore
	Exclusions ExclusionStore
}
