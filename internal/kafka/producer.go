package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// BlockEvent is the message published for every newly blocked IP. The
// downstream Google Ads sync consumes this topic to push exclusions to
// the ads platform.
type BlockEvent struct {
	IPAddress string    `json:"ip_address"`
	Reason    string    `json:"reason"`
	RiskScore int       `json:"risk_score"`
	Country   string    `json:"country"`
	Campaigns []string  `json:"campaigns"`
	BlockedAt time.Time `json:"blocked_at"`
}

// NewBlockEventWriter builds the writer for the blocked-IPs topic.
func NewBlockEventWriter(brokerURL, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokerURL),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

// PublishBlockEvent writes one block event, keyed by IP so re-blocks of
// the same address land on the same partition in order. Best effort:
// failures are logged, never propagated to the request path.
func PublishBlockEvent(ctx context.Context, writer *kafka.Writer, log *logrus.Logger, event BlockEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("Failed to marshal block event")
		return
	}

	err = writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.IPAddress),
		Value: value,
	})
	if err != nil {
		log.WithError(err).WithField("ip", event.IPAddress).Error("Failed to publish block event")
	}
}
