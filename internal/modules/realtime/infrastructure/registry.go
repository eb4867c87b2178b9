package infrastructure

import (
	"context"
	"log/slog"

	"ventasWs/internal/modules/realtime/application/port"
	"ventasWs/internal/modules/realtime/domain"
)

// HandlerRegistry routes relay envelopes to the handler registered for their source topic.
type HandlerRegistry struct {
	handlers map[string]port.TopicHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]port.TopicHandler)}
}

func (r *HandlerRegistry) Register(h port.TopicHandler) {
	r.handlers[h.Topic()] = h
}

// Topics lists the registered source topics.
func (r *HandlerRegistry) Topics() []string {
	topics := make([]string, 0, len(r.handlers))
	for topic := range r.handlers {
		topics = append(topics, topic)
	}
	return topics
}

func (r *HandlerRegistry) Dispatch(ctx context.Context, env *domain.RelayEnvelope) error {
	if handler, ok := r.handlers[env.Source]; ok {
		return handler.Handle(ctx, env)
	}
	slog.Debug("relay envelope without handler", slog.String("source", env.Source), slog.String("event", env.Event))
	return nil
}
