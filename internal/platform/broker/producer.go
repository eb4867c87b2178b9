package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ventasWs/internal/modules/realtime/application/port"
	"ventasWs/internal/modules/realtime/domain"
)

// KafkaPublisher writes hub publishes to the relay topic, tagged with the
// instance origin and keyed by group so one group stays on one partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	origin string
	now    func() time.Time
}

func NewKafkaPublisher(brokers []string, topic, origin string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		origin: origin,
		now:    time.Now,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, group, event string, payload any) error {
	msg, err := p.message(group, event, payload)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", event, err)
	}
	return nil
}

func (p *KafkaPublisher) message(group, event string, payload any) (kafka.Message, error) {
	env, err := domain.NewRelayEnvelope(p.origin, group, event, payload, p.now())
	if err != nil {
		return kafka.Message{}, err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal relay envelope: %w", err)
	}
	return kafka.Message{Key: []byte(group), Value: value, Time: env.Timestamp}, nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var _ port.Publisher = (*KafkaPublisher)(nil)
