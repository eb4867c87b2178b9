package handler

import (
	"context"
	"log/slog"
	"strings"

	"ventasWs/internal/modules/realtime/application/port"
	"ventasWs/internal/modules/realtime/application/usecase"
	"ventasWs/internal/modules/realtime/domain"
)

// RelayStreamHandler forwards envelopes read from one bus topic to the local hub.
// Envelopes written by this instance are skipped when origin is set, because
// the relay publisher already fanned them out locally.
type RelayStreamHandler struct {
	topic       string
	origin      string
	allowed     map[string]struct{}
	broadcastUC *usecase.BroadcastUseCase
}

func NewRelayStreamHandler(topic, origin string, allowedEvents []string, broadcastUC *usecase.BroadcastUseCase) *RelayStreamHandler {
	allowed := make(map[string]struct{}, len(allowedEvents))
	for _, ev := range allowedEvents {
		if v := strings.TrimSpace(ev); v != "" {
			allowed[v] = struct{}{}
		}
	}
	return &RelayStreamHandler{
		topic:       strings.TrimSpace(topic),
		origin:      strings.TrimSpace(origin),
		allowed:     allowed,
		broadcastUC: broadcastUC,
	}
}

func (h *RelayStreamHandler) Topic() string { return h.topic }

func (h *RelayStreamHandler) Handle(ctx context.Context, env *domain.RelayEnvelope) error {
	if env == nil {
		return nil
	}
	if h.origin != "" && env.Origin == h.origin {
		return nil
	}
	if len(h.allowed) > 0 {
		if _, ok := h.allowed[env.Event]; !ok {
			slog.Debug("relay event filtered", slog.String("topic", h.topic), slog.String("event", env.Event))
			return nil
		}
	}
	return h.broadcastUC.Execute(ctx, env)
}

var _ port.TopicHandler = (*RelayStreamHandler)(nil)
