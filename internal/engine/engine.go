package engine

import (
	"fmt"
	"strings"
	"time"

	"clickguard/internal/behavior"
	"clickguard/internal/models"
	"clickguard/internal/reputation"
	"clickguard/internal/repository"

	"github.com/sirupsen/logrus"
)

// ReasonAnalysisFailed is returned when scoring itself faulted and the
// engine failed open.
const ReasonAnalysisFailed = "Analysis failed"

// StructuralAnalyzer scores an IP from its address alone.
type StructuralAnalyzer interface {
	Analyze(ip string) reputation.Assessment
}

// BehavioralAnalyzer scores an IP from its trailing click history.
type BehavioralAnalyzer interface {
	Analyze(ip string, now time.Time) (behavior.Report, error)
}

// BlockNotifier receives newly blocked IPs for asynchronous downstream
// propagation (ads exclusions, Kafka). Implementations must not block.
type BlockNotifier interface {
	NotifyBlock(block models.BlockedIP)
}

// ClickData is the fully extracted click, ready for scoring.
type ClickData struct {
	AppID            string
	IPAddress        string
	UserAgent        string
	Referrer         string
	SessionID        string
	Language         string
	ScreenResolution string
	Timezone         string
	ClickDuration    int64
	PageViewDuration int64
	MouseMovements   int
	KeyboardEvents   int
	ScrollEvents     int
	Timestamp        time.Time
}

// Verdict is the synchronous answer to one click.
type Verdict struct {
	Allowed   bool   `json:"allowed"`
	RiskScore int    `json:"risk_score"`
	Reason    string `json:"reason,omitempty"`
}

// IPAnalysis is the dry-run view of an IP, used by /analyze-ip and
// manual-block pre-checks. No click is recorded.
type IPAnalysis struct {
	IPAddress      string   `json:"ip_address"`
	RiskScore      int      `json:"risk_score"`
	WouldBlock     bool     `json:"would_block"`
	AlreadyBlocked bool     `json:"already_blocked"`
	IsVPN          bool     `json:"is_vpn"`
	IsProxy        bool     `json:"is_proxy"`
	Country        string   `json:"country"`
	City           string   `json:"city"`
	Factors        []string `json:"factors"`
}

// Engine combines structural and behavioral signals into one verdict
// and owns every write that follows from it.
type Engine struct {
	clicks     repository.ClickStore
	blocks     repository.BlockStore
	structural StructuralAnalyzer
	behavioral BehavioralAnalyzer
	notifier   BlockNotifier
	threshold  int
	logger     *logrus.Logger
}

func New(
	clicks repository.ClickStore,
	blocks repository.BlockStore,
	structural StructuralAnalyzer,
	behavioral BehavioralAnalyzer,
	notifier BlockNotifier,
	threshold int,
	logger *logrus.Logger,
) *Engine {
	return &Engine{
		clicks:     clicks,
		blocks:     blocks,
		structural: structural,
		behavioral: behavioral,
		notifier:   notifier,
		threshold:  threshold,
		logger:     logger,
	}
}

// EvaluateClick scores one click, persists it to the ledger, and blocks
// the IP when the score crosses the threshold.
//
// Failure policy: an analyzer or store-read fault fails open (allowed,
// score 0); a ledger insert fault never withholds the verdict. Blocking
// legitimate traffic over an internal error costs more than one
// unscored fraudulent click.
func (e *Engine) EvaluateClick(data ClickData) Verdict {
	now := data.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	// Active block short-circuits scoring entirely. The click is still
	// ledgered for audit.
	existing, err := e.blocks.FindActive(data.IPAddress)
	if err != nil {
		return e.failOpen(data, now, err)
	}
	if existing != nil {
		reason := "IP already blocked: " + existing.Reason
		e.recordEvent(data, now, eventFields{
			isVPN: existing.IsVPN, isProxy: existing.IsProxy, isBot: true,
			country: existing.Country, city: existing.City,
			riskScore: existing.RiskScore, isFraudulent: true, reason: reason,
		})
		return Verdict{Allowed: false, RiskScore: existing.RiskScore, Reason: reason}
	}

	structural := e.structural.Analyze(data.IPAddress)
	behavioral, err := e.behavioral.Analyze(data.IPAddress, now)
	if err != nil {
		return e.failOpen(data, now, err)
	}

	riskScore := structural.Score + behavioral.Score
	factors := append(append([]string{}, structural.Factors...), behavioral.Factors...)
	reason := strings.Join(factors, ", ")
	shouldBlock := riskScore >= e.threshold

	e.recordEvent(data, now, eventFields{
		isVPN: structural.IsVPN, isProxy: structural.IsProxy,
		isBot:   len(behavioral.Factors) > 0,
		country: structural.Country, city: structural.City,
		riskScore: riskScore, isFraudulent: shouldBlock, reason: reason,
	})

	if shouldBlock {
		e.applyBlock(models.BlockedIP{
			IPAddress:   data.IPAddress,
			Reason:      reason,
			RiskScore:   riskScore,
			IsVPN:       structural.IsVPN,
			IsProxy:     structural.IsProxy,
			Country:     structural.Country,
			City:        structural.City,
			UserAgent:   data.UserAgent,
			IsActive:    true,
			BlockedAt:   now,
			LastClickAt: now,
		})
		return Verdict{Allowed: false, RiskScore: riskScore, Reason: reason}
	}

	return Verdict{Allowed: true, RiskScore: riskScore, Reason: reason}
}

type eventFields struct {
	isVPN, isProxy, isBot bool
	country, city         string
	riskScore             int
	isFraudulent          bool
	reason                string
}

func (e *Engine) recordEvent(data ClickData, now time.Time, f eventFields) {
	event := models.ClickEvent{
		AppID:            data.AppID,
		IPAddress:        data.IPAddress,
		UserAgent:        data.UserAgent,
		Referrer:         data.Referrer,
		SessionID:        data.SessionID,
		Language:         data.Language,
		ScreenResolution: data.ScreenResolution,
		Timezone:         data.Timezone,
		ClickDuration:    data.ClickDuration,
		PageViewDuration: data.PageViewDuration,
		MouseMovements:   data.MouseMovements,
		KeyboardEvents:   data.KeyboardEvents,
		ScrollEvents:     data.ScrollEvents,
		IsVPN:            f.isVPN,
		IsProxy:          f.isProxy,
		IsBot:            f.isBot,
		RiskScore:        f.riskScore,
		Country:          f.country,
		City:             f.city,
		IsFraudulent:     f.isFraudulent,
		FraudReason:      f.reason,
		Timestamp:        now,
	}

	// Best effort: a ledger outage must never block traffic.
	if err := e.clicks.Create(&event); err != nil {
		e.logger.WithError(err).WithField("ip", data.IPAddress).Error("Failed to record click event")
	}
}

func (e *Engine) failOpen(data ClickData, now time.Time, cause error) Verdict {
	e.logger.WithError(cause).WithField("ip", data.IPAddress).Error("Fraud analysis failed, allowing click")
	e.recordEvent(data, now, eventFields{reason: ReasonAnalysisFailed})
	return Verdict{Allowed: true, RiskScore: 0, Reason: ReasonAnalysisFailed}
}

func (e *Engine) applyBlock(block models.BlockedIP) {
	if err := e.blocks.Upsert(&block); err != nil {
		e.logger.WithError(err).WithField("ip", block.IPAddress).Error("Failed to upsert blocked IP")
		return
	}

	e.logger.WithFields(logrus.Fields{
		"ip":         block.IPAddress,
		"risk_score": block.RiskScore,
		"reason":     block.Reason,
	}).Warn("IP blocked")

	if e.notifier != nil {
		e.notifier.NotifyBlock(block)
	}
}

// EvaluateIP runs the full analysis without recording a click.
func (e *Engine) EvaluateIP(ip string) (IPAnalysis, error) {
	existing, err := e.blocks.FindActive(ip)
	if err != nil {
		return IPAnalysis{}, fmt.Errorf("blocklist lookup: %w", err)
	}
	if existing != nil {
		return IPAnalysis{
			IPAddress:      ip,
			RiskScore:      existing.RiskScore,
			WouldBlock:     true,
			AlreadyBlocked: true,
			IsVPN:          existing.IsVPN,
			IsProxy:        existing.IsProxy,
			Country:        existing.Country,
			City:           existing.City,
			Factors:        []string{"IP already blocked: " + existing.Reason},
		}, nil
	}

	structural := e.structural.Analyze(ip)
	behavioral, err := e.behavioral.Analyze(ip, time.Now())
	if err != nil {
		return IPAnalysis{}, fmt.Errorf("behavioral analysis: %w", err)
	}

	riskScore := structural.Score + behavioral.Score
	return IPAnalysis{
		IPAddress:  ip,
		RiskScore:  riskScore,
		WouldBlock: riskScore >= e.threshold,
		IsVPN:      structural.IsVPN,
		IsProxy:    structural.IsProxy,
		Country:    structural.Country,
		City:       structural.City,
		Factors:    append(append([]string{}, structural.Factors...), behavioral.Factors...),
	}, nil
}

// BlockIP is the manual admin block: reputation is consulted for the
// structural fields, the given reason wins.
func (e *Engine) BlockIP(ip, reason, notes string) (*models.BlockedIP, error) {
	structural := e.structural.Analyze(ip)
	now := time.Now()

	block := models.BlockedIP{
		IPAddress:   ip,
		Reason:      reason,
		RiskScore:   structural.Score,
		IsVPN:       structural.IsVPN,
		IsProxy:     structural.IsProxy,
		Country:     structural.Country,
		City:        structural.City,
		Notes:       notes,
		IsActive:    true,
		BlockedAt:   now,
		LastClickAt: now,
	}

	if err := e.blocks.Upsert(&block); err != nil {
		return nil, fmt.Errorf("blocklist upsert: %w", err)
	}

	if e.notifier != nil {
		e.notifier.NotifyBlock(block)
	}

	return &block, nil
}

// UnblockIP deactivates the block row. A missing row is a no-op.
func (e *Engine) UnblockIP(ip string) (bool, error) {
	return e.blocks.Deactivate(ip)
}

// Threshold reports the configured block boundary.
func (e *Engine) Threshold() int {
	return e.threshold
}
