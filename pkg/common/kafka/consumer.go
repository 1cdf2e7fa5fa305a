package kafka

import (
	"context"
	"encoding/json"

	"github.com/renalview/monitor/pkg/common/config"
	"github.com/renalview/monitor/pkg/common/logger"
	"github.com/renalview/monitor/pkg/common/models"
	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
}

type EventHandler func(ctx context.Context, event models.Event) error

func NewConsumer(topic string, groupID string) *Consumer {
	cfg := config.Load()
	if groupID == "" {
		groupID = cfg.KafkaGroupID
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,    // dashboard events are tiny and latency-sensitive
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{reader: reader}
}

// Consume feeds events to handler until ctx is cancelled. Messages are
// committed whether or not the handler errors: the activity feed is a lossy
// display surface and a bad event must never wedge the partition.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			message, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.WithComponent("kafka").WithError(err).Error("Failed to fetch message")
				continue
			}

			var event models.Event
			if err := json.Unmarshal(message.Value, &event); err != nil {
				logger.WithComponent("kafka").WithError(err).Error("Failed to unmarshal event")
				c.reader.CommitMessages(ctx, message)
				continue
			}

			if err := handler(ctx, event); err != nil {
				logger.WithComponent("kafka").WithError(err).WithFields(map[string]interface{}{
					"event_id": event.ID,
				}).Error("Failed to process event")
			}

			if err := c.reader.CommitMessages(ctx, message); err != nil {
				logger.WithComponent("kafka").WithError(err).Error("Failed to commit message")
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
