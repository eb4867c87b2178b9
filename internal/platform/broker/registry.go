package broker

import (
	"context"
	"log/slog"
	"sync"

	"ventasWs/internal/modules/realtime/domain"
	"ventasWs/internal/modules/realtime/infrastructure"
)

// StartKafkaConsumers runs one consumer per registered topic and blocks until
// all of them return, which happens once ctx is done.
func StartKafkaConsumers(
	ctx context.Context,
	registry *infrastructure.HandlerRegistry,
	brokers []string,
	groupID string,
) {
	if len(brokers) == 0 {
		slog.Warn("kafka relay disabled: no brokers configured")
		return
	}
	var wg sync.WaitGroup
	for _, topic := range registry.Topics() {
		wg.Add(1)
		go func(tp string) {
			defer wg.Done()
			consumer := NewKafkaConsumer(brokers, groupID, tp)
			defer consumer.Close()
			slog.Info("kafka consumer started", slog.String("topic", tp), slog.String("groupId", groupID))
			_ = consumer.Consume(ctx, func(env *domain.RelayEnvelope) error {
				return registry.Dispatch(ctx, env)
			})
		}(topic)
	}
	wg.Wait()
}
