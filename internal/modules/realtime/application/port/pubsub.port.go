package port

import (
	"context"

	"ventasWs/internal/modules/realtime/domain"
)

// Publisher delivers a named payload to every member of a group. Implementations
// are the local hub and the cross-instance relays.
type Publisher interface {
	Publish(ctx context.Context, group, event string, payload any) error
}

// RelayConsumer reads envelopes from the cross-instance bus until ctx is done.
type RelayConsumer interface {
	Consume(ctx context.Context, handler func(*domain.RelayEnvelope) error) error
}

// TopicHandler define la interfaz que deben implementar los handlers registrados por tópico.
type TopicHandler interface {
	Topic() string
	Handle(ctx context.Context, env *domain.RelayEnvelope) error
}

// ChangeNotifier is the contract mutation endpoints call after a commit.
// It never reports failures: notifications are best-effort.
type ChangeNotifier interface {
	Created(ctx context.Context, entityType string, record any)
	Updated(ctx context.Context, entityType string, record any)
	Deleted(ctx context.Context, entityType string, id any, record any)
}
