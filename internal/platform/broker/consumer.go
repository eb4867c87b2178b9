package broker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"ventasWs/internal/modules/realtime/domain"
)

type KafkaConsumer struct {
	reader *kafka.Reader
}

// NewKafkaConsumer joins groupID on topic. Relay consumers must use a group id
// unique to the instance so that every instance sees every envelope.
func NewKafkaConsumer(brokers []string, groupID string, topic string) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			GroupID:     groupID,
			Topic:       topic,
			StartOffset: kafka.LastOffset,
		}),
	}
}

// Consume reads envelopes until ctx is done. Undecodable messages and handler
// failures are logged and skipped.
func (c *KafkaConsumer) Consume(ctx context.Context, handler func(*domain.RelayEnvelope) error) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			slog.Warn("kafka read error", slog.Any("error", err))
			continue
		}
		env, err := decodeMessage(m)
		if err != nil {
			slog.Warn("kafka message dropped", slog.String("topic", m.Topic), slog.Int64("offset", m.Offset), slog.Any("error", err))
			continue
		}
		slog.Debug("kafka message consumed",
			slog.String("topic", m.Topic),
			slog.Int("partition", m.Partition),
			slog.Int64("offset", m.Offset),
			slog.String("group", env.Group),
			slog.String("event", env.Event),
			slog.String("origin", env.Origin),
		)
		if err := handler(env); err != nil {
			slog.Warn("kafka handler error", slog.Any("error", err))
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

func decodeMessage(m kafka.Message) (*domain.RelayEnvelope, error) {
	return domain.DecodeRelayEnvelope(m.Value, m.Topic)
}
