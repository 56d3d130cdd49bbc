package behavior

import (
	"testing"
	"time"

	"clickguard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	events []models.ClickEvent
	err    error
}

func (s *stubReader) ListByIPSince(ip string, since, before time.Time) ([]models.ClickEvent, error) {
	return s.events, s.err
}

func click(ts time.Time, mutate ...func(*models.ClickEvent)) models.ClickEvent {
	e := models.ClickEvent{
		IPAddress:     "203.0.113.9",
		Timestamp:     ts,
		ClickDuration: 1500,
	}
	for _, m := range mutate {
		m(&e)
	}
	return e
}

func TestEmptyHistoryScoresZero(t *testing.T) {
	a := NewAnalyzer(&stubReader{})

	report, err := a.Analyze("203.0.113.9", time.Now())

	require.NoError(t, err)
	assert.Zero(t, report.Score)
	assert.Empty(t, report.Factors)
}

func TestFrequencyTiers(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		count      int
		wantScore  int
		wantFactor string
	}{
		{"below threshold", 5, 0, ""},
		{"high", 6, highFrequencyScore, FactorHighFrequency},
		{"high upper bound", 10, highFrequencyScore, FactorHighFrequency},
		{"extreme", 11, extremeFrequencyScore, FactorExtremeFrequency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []models.ClickEvent
			for i := 0; i < tt.count; i++ {
				// Triangular spacing keeps everything inside the trailing
				// minute while the deltas stay irregular enough that no
				// pattern factor fires.
				offset := time.Duration(i*(i+1)/2+1) * time.Second
				events = append(events, click(now.Add(-offset), func(e *models.ClickEvent) {
					e.MouseMovements = i + 1
					e.KeyboardEvents = 1
				}))
			}

			a := NewAnalyzer(&stubReader{events: events})
			report, err := a.Analyze("203.0.113.9", now)

			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, report.Score)
			if tt.wantFactor != "" {
				assert.Contains(t, report.Factors, tt.wantFactor)
			}
		})
	}
}

func TestFastClickingSignal(t *testing.T) {
	now := time.Now()
	events := []models.ClickEvent{
		click(now.Add(-10*time.Hour), func(e *models.ClickEvent) {
			e.ClickDuration = 300
			e.MouseMovements = 3
		}),
		click(now.Add(-2*time.Hour), func(e *models.ClickEvent) {
			e.ClickDuration = 500
			e.MouseMovements = 4
		}),
	}

	a := NewAnalyzer(&stubReader{events: events})
	report, err := a.Analyze("203.0.113.9", now)

	require.NoError(t, err)
	assert.Equal(t, fastClickScore, report.Score)
	assert.Equal(t, []string{FactorFastClicks}, report.Factors)
}

func TestNoMouseSignalRequiresFourEvents(t *testing.T) {
	now := time.Now()

	build := func(n int) []models.ClickEvent {
		var events []models.ClickEvent
		for i := 0; i < n; i++ {
			offset := time.Duration(i*i+1) * time.Minute
			events = append(events, click(now.Add(-offset), func(e *models.ClickEvent) {
				e.KeyboardEvents = 1
			}))
		}
		return events
	}

	a := NewAnalyzer(&stubReader{events: build(3)})
	report, err := a.Analyze("203.0.113.9", now)
	require.NoError(t, err)
	assert.NotContains(t, report.Factors, FactorNoMouse)

	a = NewAnalyzer(&stubReader{events: build(4)})
	report, err = a.Analyze("203.0.113.9", now)
	require.NoError(t, err)
	assert.Contains(t, report.Factors, FactorNoMouse)
}

func TestNoInteractionSignal(t *testing.T) {
	now := time.Now()
	var events []models.ClickEvent
	for i := 0; i < 6; i++ {
		offset := time.Duration(i*i+1) * time.Minute
		events = append(events, click(now.Add(-offset), func(e *models.ClickEvent) {
			e.MouseMovements = 2 // mouse only, no keyboard/scroll
		}))
	}

	a := NewAnalyzer(&stubReader{events: events})
	report, err := a.Analyze("203.0.113.9", now)

	require.NoError(t, err)
	assert.Contains(t, report.Factors, FactorNoInteraction)
	assert.NotContains(t, report.Factors, FactorNoMouse)
}

func TestRegularIntervalsDetected(t *testing.T) {
	now := time.Now()
	var events []models.ClickEvent
	for i := 0; i < 5; i++ {
		events = append(events, click(now.Add(-time.Duration(60-i*10)*time.Second), func(e *models.ClickEvent) {
			e.MouseMovements = 1
			e.KeyboardEvents = 1
		}))
	}

	a := NewAnalyzer(&stubReader{events: events})
	report, err := a.Analyze("203.0.113.9", now)

	require.NoError(t, err)
	assert.Contains(t, report.Factors, FactorRegularIntervals)
}

func TestFingerprintCollisions(t *testing.T) {
	now := time.Now()
	sameDevice := func(e *models.ClickEvent) {
		e.UserAgent = "Mozilla/5.0"
		e.ScreenResolution = "1920x1080"
		e.Timezone = "Europe/Berlin"
		e.MouseMovements = 1
		e.KeyboardEvents = 1
	}
	events := []models.ClickEvent{
		click(now.Add(-50*time.Minute), sameDevice),
		click(now.Add(-9*time.Minute), sameDevice),
	}

	a := NewAnalyzer(&stubReader{events: events})
	report, err := a.Analyze("203.0.113.9", now)

	require.NoError(t, err)
	assert.Contains(t, report.Factors, FactorIdenticalUA)
	assert.Contains(t, report.Factors, FactorIdenticalDevice)
	assert.Equal(t, 2*patternScore, report.Score)
}

func TestSingleUserAgentNoCollision(t *testing.T) {
	now := time.Now()
	events := []models.ClickEvent{
		click(now.Add(-30*time.Minute), func(e *models.ClickEvent) {
			e.UserAgent = "Mozilla/5.0"
			e.MouseMovements = 1
		}),
	}

	a := NewAnalyzer(&stubReader{events: events})
	report, err := a.Analyze("203.0.113.9", now)

	require.NoError(t, err)
	assert.NotContains(t, report.Factors, FactorIdenticalUA)
}

func TestReaderErrorPropagates(t *testing.T) {
	a := NewAnalyzer(&stubReader{err: assert.AnError})

	_, err := a.Analyze("203.0.113.9", time.Now())

	assert.Error(t, err)
}

func TestBotBurstAccumulatesSignals(t *testing.T) {
	// 11 clicks in the last 30 seconds, all 200ms, no interaction,
	// identical user agent: the profile of a curl loop.
	now := time.Now()
	var events []models.ClickEvent
	for i := 0; i < 11; i++ {
		events = append(events, click(now.Add(-time.Duration(30-i*2)*time.Second), func(e *models.ClickEvent) {
			e.ClickDuration = 200
			e.UserAgent = "curl/7.68"
		}))
	}

	a := NewAnalyzer(&stubReader{events: events})
	report, err := a.Analyze("203.0.113.9", now)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.Score, 40+30+20+10)
	assert.Contains(t, report.Factors, FactorExtremeFrequency)
	assert.Contains(t, report.Factors, FactorFastClicks)
	assert.Contains(t, report.Factors, FactorNoMouse)
	assert.Contains(t, report.Factors, FactorIdenticalUA)
}
