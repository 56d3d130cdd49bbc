package services

import (
	"context"
	"io"
	"testing"
	"time"

	"clickguard/internal/models"
	"clickguard/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestProcessBatchFansOutPerCampaign(t *testing.T) {
	store := repository.NewMemoryStore().AsStore()
	q := NewExclusionQueue(store.Exclusions, nil, []string{"search-main", "display-retarget"}, quietLogger(), 16)

	blockedAt := time.Now()
	q.processBatch(context.Background(), []models.BlockedIP{
		{IPAddress: "203.0.113.9", Reason: "Extremely high click frequency", RiskScore: 110, BlockedAt: blockedAt},
	})

	exclusions, err := store.Exclusions.List(10, 0)
	require.NoError(t, err)
	require.Len(t, exclusions, 2)

	campaigns := map[string]bool{}
	for _, ex := range exclusions {
		campaigns[ex.CampaignName] = true
		assert.Equal(t, "203.0.113.9", ex.ExcludedIP)
		assert.Equal(t, models.ExclusionPending, ex.Status)
		assert.True(t, ex.IsActive)
	}
	assert.True(t, campaigns["search-main"])
	assert.True(t, campaigns["display-retarget"])
}

func TestProcessorDrainsQueue(t *testing.T) {
	store := repository.NewMemoryStore().AsStore()
	q := NewExclusionQueue(store.Exclusions, nil, []string{"search-main"}, quietLogger(), 16)

	q.NotifyBlock(models.BlockedIP{IPAddress: "203.0.113.9", Reason: "bot burst", BlockedAt: time.Now()})
	q.NotifyBlock(models.BlockedIP{IPAddress: "198.51.100.7", Reason: "vpn range", BlockedAt: time.Now()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.StartProcessor(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		exclusions, err := store.Exclusions.List(10, 0)
		return err == nil && len(exclusions) == 2
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	<-done
}

func TestFullQueueDropsInsteadOfBlocking(t *testing.T) {
	store := repository.NewMemoryStore().AsStore()
	q := NewExclusionQueue(store.Exclusions, nil, []string{"search-main"}, quietLogger(), 1)

	// No processor running: the second notice must not block the caller.
	q.NotifyBlock(models.BlockedIP{IPAddress: "203.0.113.9"})

	doneCh := make(chan struct{})
	go func() {
		q.NotifyBlock(models.BlockedIP{IPAddress: "198.51.100.7"})
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("NotifyBlock blocked on a full queue")
	}
}
