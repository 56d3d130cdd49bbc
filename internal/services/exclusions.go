package services

import (
	"context"
	"time"

	"clickguard/internal/kafka"
	"clickguard/internal/metrics"
	"clickguard/internal/models"
	"clickguard/internal/repository"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// ExclusionQueue propagates newly blocked IPs toward the ad platform:
// one GoogleAdsExclusion intent row per configured campaign, plus a
// block event on the Kafka topic. The request path only enqueues;
// everything else happens on the processor goroutine.
type ExclusionQueue struct {
	blocks     chan models.BlockedIP
	exclusions repository.ExclusionStore
	writer     *kafkago.Writer // nil disables publication (dev/test)
	campaigns  []string
	logger     *logrus.Logger
}

func NewExclusionQueue(
	exclusions repository.ExclusionStore,
	writer *kafkago.Writer,
	campaigns []string,
	logger *logrus.Logger,
	bufferSize int,
) *ExclusionQueue {
	return &ExclusionQueue{
		blocks:     make(chan models.BlockedIP, bufferSize),
		exclusions: exclusions,
		writer:     writer,
		campaigns:  campaigns,
		logger:     logger,
	}
}

// NotifyBlock enqueues a blocked IP for propagation. Never blocks the
// caller: when the queue is full the notice is dropped with a warning
// and the blocklist row remains the source of truth.
func (q *ExclusionQueue) NotifyBlock(block models.BlockedIP) {
	select {
	case q.blocks <- block:
		metrics.ExclusionsQueued.Inc()
		metrics.ExclusionQueueSize.Set(float64(len(q.blocks)))
	default:
		q.logger.WithField("ip", block.IPAddress).Warn("Exclusion queue is full, dropping notice")
	}
}

// StartProcessor drains the queue in batches until the context ends.
func (q *ExclusionQueue) StartProcessor(ctx context.Context) {
	batchSize := 100
	batchTimeout := 5 * time.Second
	batch := make([]models.BlockedIP, 0, batchSize)
	timer := time.NewTimer(batchTimeout)

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				q.processBatch(context.Background(), batch)
			}
			return
		case block := <-q.blocks:
			batch = append(batch, block)
			metrics.ExclusionQueueSize.Set(float64(len(q.blocks)))
			if len(batch) >= batchSize {
				q.processBatch(ctx, batch)
				batch = batch[:0]
				timer.Reset(batchTimeout)
			}
		case <-timer.C:
			if len(batch) > 0 {
				q.processBatch(ctx, batch)
				batch = batch[:0]
			}
			timer.Reset(batchTimeout)
		}
	}
}

func (q *ExclusionQueue) processBatch(ctx context.Context, blocks []models.BlockedIP) {
	rows := make([]models.GoogleAdsExclusion, 0, len(blocks)*len(q.campaigns))
	for _, block := range blocks {
		for _, campaign := range q.campaigns {
			rows = append(rows, models.GoogleAdsExclusion{
				CampaignName: campaign,
				ExcludedIP:   block.IPAddress,
				Reason:       block.Reason,
				Status:       models.ExclusionPending,
				IsActive:     true,
				ExcludedAt:   block.BlockedAt,
			})
		}
	}

	// Insert with retry; exclusion intents are the audit trail for what
	// was sent downstream, so they should not be lost to a hiccup.
	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		if err := q.exclusions.CreateBatch(rows); err != nil {
			q.logger.WithError(err).Warnf("Failed to insert exclusion batch (attempt %d/%d)", i+1, maxRetries)
			if i == maxRetries-1 {
				q.logger.WithError(err).Error("Failed to insert exclusion intents after all retries")
			}
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}
		break
	}

	if q.writer == nil {
		return
	}
	for _, block := range blocks {
		kafka.PublishBlockEvent(ctx, q.writer, q.logger, kafka.BlockEvent{
			IPAddress: block.IPAddress,
			Reason:    block.Reason,
			RiskScore: block.RiskScore,
			Country:   block.Country,
			Campaigns: q.campaigns,
			BlockedAt: block.BlockedAt,
		})
	}
}
