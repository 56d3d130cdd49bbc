package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Consumer reads block events back off the topic. Used by the ads-sync
// worker process, which translates them into Google Ads API calls.
type Consumer struct {
	reader *kafka.Reader
	logger *logrus.Logger
}

func NewConsumer(brokerURL, topic, groupID string, logger *logrus.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{brokerURL},
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	return &Consumer{
		reader: reader,
		logger: logger,
	}
}

// ReadBlockEvent blocks until the next block event arrives.
func (c *Consumer) ReadBlockEvent(ctx context.Context) (BlockEvent, error) {
	message, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return BlockEvent{}, fmt.Errorf("failed to read message: %w", err)
	}

	var event BlockEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return BlockEvent{}, fmt.Errorf("failed to decode block event: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"ip":        event.IPAddress,
		"topic":     message.Topic,
		"partition": message.Partition,
		"offset":    message.Offset,
	}).Debug("Read block event")

	return event, nil
}

func (c *Consumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
