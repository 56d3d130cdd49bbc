package behavior

import (
	"math"
	"time"

	"clickguard/internal/models"
)

// Window and weight policy for behavioral signals.
const (
	historyWindow   = 24 * time.Hour
	frequencyWindow = time.Minute

	extremeFrequencyScore = 40
	highFrequencyScore    = 25
	fastClickScore        = 30
	noMouseScore          = 20
	noInteractionScore    = 15
	patternScore          = 10 // per additional pattern-match factor

	fastClickThresholdMs = 800
	regularityCVLimit    = 0.10
)

// Factor strings surfaced in fraud reasons.
const (
	FactorExtremeFrequency = "Extremely high click frequency"
	FactorHighFrequency    = "High click frequency"
	FactorFastClicks       = "Suspiciously fast clicking"
	FactorNoMouse          = "No mouse movements detected"
	FactorNoInteraction    = "No user interaction detected"
	FactorRegularIntervals = "Regular click intervals detected"
	FactorIdenticalUA      = "Identical user agents"
	FactorIdenticalDevice  = "Identical device fingerprint"
)

// ClickReader is the slice of the ledger the analyzer needs.
type ClickReader interface {
	ListByIPSince(ip string, since, before time.Time) ([]models.ClickEvent, error)
}

// Report is the behavioral risk view of one IP's trailing-24h history.
type Report struct {
	Score   int
	Factors []string
}

// Analyzer computes behavioral fraud signals over the click ledger.
// It is read-only; persisting the event under evaluation is the
// decision engine's job, after scoring.
type Analyzer struct {
	clicks ClickReader
}

func NewAnalyzer(clicks ClickReader) *Analyzer {
	return &Analyzer{clicks: clicks}
}

// Analyze scores the IP's history strictly before now. The click being
// evaluated must not be in the ledger yet; earlier verdicts are never
// recomputed when later clicks arrive.
func (a *Analyzer) Analyze(ip string, now time.Time) (Report, error) {
	events, err := a.clicks.ListByIPSince(ip, now.Add(-historyWindow), now)
	if err != nil {
		return Report{}, err
	}

	var report Report

	if score, factor := frequencySignal(events, now); score > 0 {
		report.Score += score
		report.Factors = append(report.Factors, factor)
	}

	if avg, ok := averageClickDuration(events); ok && avg < fastClickThresholdMs {
		report.Score += fastClickScore
		report.Factors = append(report.Factors, FactorFastClicks)
	}

	if len(events) > 3 && noneWithMouse(events) {
		report.Score += noMouseScore
		report.Factors = append(report.Factors, FactorNoMouse)
	}

	if len(events) > 5 && noneWithInteraction(events) {
		report.Score += noInteractionScore
		report.Factors = append(report.Factors, FactorNoInteraction)
	}

	for _, factor := range patternFactors(events) {
		report.Score += patternScore
		report.Factors = append(report.Factors, factor)
	}

	return report, nil
}

// frequencySignal tiers clicks in the trailing minute. The two tiers
// are mutually exclusive; the higher one wins.
func frequencySignal(events []models.ClickEvent, now time.Time) (int, string) {
	cutoff := now.Add(-frequencyWindow)
	count := 0
	for _, e := range events {
		if !e.Timestamp.Before(cutoff) {
			count++
		}
	}
	switch {
	case count > 10:
		return extremeFrequencyScore, FactorExtremeFrequency
	case count > 5:
		return highFrequencyScore, FactorHighFrequency
	}
	return 0, ""
}

func averageClickDuration(events []models.ClickEvent) (float64, bool) {
	var sum int64
	var n int
	for _, e := range events {
		if e.ClickDuration > 0 {
			sum += e.ClickDuration
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

func noneWithMouse(events []models.ClickEvent) bool {
	for _, e := range events {
		if e.MouseMovements > 0 {
			return false
		}
	}
	return true
}

func noneWithInteraction(events []models.ClickEvent) bool {
	for _, e := range events {
		if e.KeyboardEvents > 0 || e.ScrollEvents > 0 {
			return false
		}
	}
	return true
}

// patternFactors collects the generic bot-pattern matches: metronomic
// click cadence and fingerprint collisions across sessions.
func patternFactors(events []models.ClickEvent) []string {
	var factors []string

	if hasRegularIntervals(events) {
		factors = append(factors, FactorRegularIntervals)
	}

	factors = append(factors, fingerprintCollisions(events)...)

	return factors
}

// hasRegularIntervals reports whether inter-click deltas are nearly
// constant (coefficient of variation under 10%). Humans do not click
// on a metronome.
func hasRegularIntervals(events []models.ClickEvent) bool {
	if len(events) < 3 {
		return false
	}

	deltas := make([]float64, 0, len(events)-1)
	for i := 1; i < len(events); i++ {
		deltas = append(deltas, events[i].Timestamp.Sub(events[i-1].Timestamp).Seconds())
	}

	var sum float64
	for _, d := range deltas {
		sum += d
	}
	mean := sum / float64(len(deltas))
	if mean <= 0 {
		return true // identical timestamps: maximally regular
	}

	var variance float64
	for _, d := range deltas {
		variance += (d - mean) * (d - mean)
	}
	variance /= float64(len(deltas))

	return math.Sqrt(variance)/mean < regularityCVLimit
}

// fingerprintCollisions flags repeated user agents and, within a
// repeated user agent, identical screen resolution plus timezone.
// Distinct sessions sharing an exact device fingerprint imply spoofing.
func fingerprintCollisions(events []models.ClickEvent) []string {
	uaCounts := make(map[string][]models.ClickEvent)
	withUA := 0
	for _, e := range events {
		if e.UserAgent == "" {
			continue
		}
		withUA++
		uaCounts[e.UserAgent] = append(uaCounts[e.UserAgent], e)
	}
	if withUA < 2 {
		return nil
	}

	uaCollision := false
	deviceCollision := false
	for _, group := range uaCounts {
		if len(group) < 2 {
			continue
		}
		uaCollision = true
		if hasDeviceCollision(group) {
			deviceCollision = true
		}
	}

	var factors []string
	if uaCollision {
		factors = append(factors, FactorIdenticalUA)
	}
	if deviceCollision {
		factors = append(factors, FactorIdenticalDevice)
	}
	return factors
}

func hasDeviceCollision(group []models.ClickEvent) bool {
	seen := make(map[string]int)
	for _, e := range group {
		if e.ScreenResolution == "" || e.Timezone == "" {
			continue
		}
		key := e.ScreenResolution + "|" + e.Timezone
		seen[key]++
		if seen[key] >= 2 {
			return true
		}
	}
	return false
}
