package engine

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"clickguard/internal/behavior"
	"clickguard/internal/models"
	"clickguard/internal/reputation"
	"clickguard/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStructural struct {
	calls      int
	assessment reputation.Assessment
}

func (s *stubStructural) Analyze(ip string) reputation.Assessment {
	s.calls++
	return s.assessment
}

type stubBehavioral struct {
	calls  int
	report behavior.Report
	err    error
}

func (s *stubBehavioral) Analyze(ip string, now time.Time) (behavior.Report, error) {
	s.calls++
	return s.report, s.err
}

type recordingNotifier struct {
	blocks []models.BlockedIP
}

func (r *recordingNotifier) NotifyBlock(block models.BlockedIP) {
	r.blocks = append(r.blocks, block)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestEngine(store *repository.MemoryStore, structural StructuralAnalyzer, behavioral BehavioralAnalyzer, notifier BlockNotifier) *Engine {
	return New(store, store, structural, behavioral, notifier, 70, quietLogger())
}

func TestAlreadyBlockedShortCircuits(t *testing.T) {
	store := repository.NewMemoryStore()
	require.NoError(t, store.Upsert(&models.BlockedIP{
		IPAddress: "203.0.113.9",
		Reason:    "Extremely high click frequency",
		RiskScore: 120,
	}))

	structural := &stubStructural{}
	behavioral := &stubBehavioral{}
	eng := newTestEngine(store, structural, behavioral, nil)

	verdict := eng.EvaluateClick(ClickData{IPAddress: "203.0.113.9"})

	assert.False(t, verdict.Allowed)
	assert.Equal(t, 120, verdict.RiskScore)
	assert.True(t, strings.HasPrefix(verdict.Reason, "IP already blocked:"))

	// No recomputation for an actively blocked IP.
	assert.Zero(t, structural.calls)
	assert.Zero(t, behavioral.calls)

	// The click is still ledgered for audit.
	events, err := store.List(true, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].IsFraudulent)
}

func TestThresholdBoundary(t *testing.T) {
	tests := []struct {
		score   int
		allowed bool
	}{
		{69, true},
		{70, false},
	}

	for _, tt := range tests {
		store := repository.NewMemoryStore()
		notifier := &recordingNotifier{}
		eng := newTestEngine(store,
			&stubStructural{assessment: reputation.Assessment{Score: tt.score}},
			&stubBehavioral{}, notifier)

		verdict := eng.EvaluateClick(ClickData{IPAddress: "198.51.100.7"})

		assert.Equal(t, tt.allowed, verdict.Allowed, "score %d", tt.score)
		assert.Equal(t, tt.score, verdict.RiskScore)

		block, err := store.FindActive("198.51.100.7")
		require.NoError(t, err)
		if tt.allowed {
			assert.Nil(t, block)
			assert.Empty(t, notifier.blocks)
		} else {
			require.NotNil(t, block)
			assert.Len(t, notifier.blocks, 1)
		}
	}
}

func TestFailOpenOnAnalyzerError(t *testing.T) {
	store := repository.NewMemoryStore()
	eng := newTestEngine(store,
		&stubStructural{assessment: reputation.Assessment{Score: 50}},
		&stubBehavioral{err: errors.New("ledger timeout")}, nil)

	verdict := eng.EvaluateClick(ClickData{IPAddress: "198.51.100.7"})

	assert.True(t, verdict.Allowed)
	assert.Zero(t, verdict.RiskScore)
	assert.Equal(t, ReasonAnalysisFailed, verdict.Reason)

	block, err := store.FindActive("198.51.100.7")
	require.NoError(t, err)
	assert.Nil(t, block)
}

type failingClickStore struct {
	*repository.MemoryStore
}

func (f *failingClickStore) Create(event *models.ClickEvent) error {
	return errors.New("insert failed")
}

func TestLedgerOutageNeverBlocks(t *testing.T) {
	store := repository.NewMemoryStore()
	eng := New(&failingClickStore{store}, store,
		&stubStructural{}, &stubBehavioral{}, nil, 70, quietLogger())

	verdict := eng.EvaluateClick(ClickData{IPAddress: "198.51.100.7"})

	assert.True(t, verdict.Allowed)
}

func TestManualBlockIdempotence(t *testing.T) {
	store := repository.NewMemoryStore()
	notifier := &recordingNotifier{}
	eng := newTestEngine(store, &stubStructural{}, &stubBehavioral{}, notifier)

	_, err := eng.BlockIP("198.51.100.7", "first reason", "")
	require.NoError(t, err)
	_, err = eng.BlockIP("198.51.100.7", "second reason", "")
	require.NoError(t, err)

	blocks, err := store.ListActive(10, 0)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "second reason", blocks[0].Reason)
	assert.True(t, blocks[0].IsActive)
	assert.Len(t, notifier.blocks, 2)
}

func TestUnblockRoundTrip(t *testing.T) {
	store := repository.NewMemoryStore()
	eng := newTestEngine(store, &stubStructural{}, &stubBehavioral{}, nil)

	_, err := eng.BlockIP("198.51.100.7", "manual review", "")
	require.NoError(t, err)

	found, err := eng.UnblockIP("198.51.100.7")
	require.NoError(t, err)
	assert.True(t, found)

	// Inactive rows are excluded from the active-block lookup.
	analysis, err := eng.EvaluateIP("198.51.100.7")
	require.NoError(t, err)
	assert.False(t, analysis.AlreadyBlocked)

	// Unknown IPs are a no-op, not an error.
	found, err = eng.UnblockIP("192.0.2.200")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEvaluateIPRecordsNothing(t *testing.T) {
	store := repository.NewMemoryStore()
	eng := newTestEngine(store,
		&stubStructural{assessment: reputation.Assessment{Score: 25, IsVPN: true}},
		&stubBehavioral{}, nil)

	analysis, err := eng.EvaluateIP("198.51.100.7")
	require.NoError(t, err)
	assert.Equal(t, 25, analysis.RiskScore)
	assert.False(t, analysis.WouldBlock)
	assert.True(t, analysis.IsVPN)

	events, err := store.List(false, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

// Full-stack scenario: a curl loop hammering the download button gets
// blocked mid-burst and stays blocked.
func TestCurlBurstGetsBlocked(t *testing.T) {
	store := repository.NewMemoryStore()
	notifier := &recordingNotifier{}
	structural := reputation.NewAnalyzer(reputation.DefaultLists(), nil)
	behavioral := behavior.NewAnalyzer(store)
	eng := New(store, store, structural, behavioral, notifier, 70, quietLogger())

	base := time.Now().Add(-30 * time.Second)
	var last Verdict
	for i := 0; i < 12; i++ {
		last = eng.EvaluateClick(ClickData{
			AppID:         "app-42",
			IPAddress:     "203.0.113.9",
			UserAgent:     "curl/7.68",
			ClickDuration: 200,
			Timestamp:     base.Add(time.Duration(i) * 2500 * time.Millisecond),
		})
	}

	assert.False(t, last.Allowed)

	block, err := store.FindActive("203.0.113.9")
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.False(t, block.IsVPN)
	assert.GreaterOrEqual(t, block.RiskScore, 70)
	assert.NotEmpty(t, notifier.blocks)

	// Every click, including blocked ones, is in the ledger.
	events, err := store.List(false, 50, 0)
	require.NoError(t, err)
	assert.Len(t, events, 12)
}

// A single ordinary click from a data-center IP scores its structural
// signal and nothing else.
func TestSingleDataCenterClickAllowed(t *testing.T) {
	store := repository.NewMemoryStore()
	structural := reputation.NewAnalyzer(reputation.DefaultLists(), nil)
	behavioral := behavior.NewAnalyzer(store)
	eng := New(store, store, structural, behavioral, nil, 70, quietLogger())

	verdict := eng.EvaluateClick(ClickData{
		AppID:          "app-42",
		IPAddress:      "8.8.8.8",
		UserAgent:      "Mozilla/5.0",
		ClickDuration:  1200,
		MouseMovements: 14,
		KeyboardEvents: 2,
		ScrollEvents:   5,
		Timestamp:      time.Now(),
	})

	assert.True(t, verdict.Allowed)
	assert.Equal(t, 20, verdict.RiskScore)

	events, err := store.List(false, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].IsProxy)
	assert.False(t, events[0].IsVPN)
	assert.False(t, events[0].IsFraudulent)
}
