package usecase

import (
	"context"
	"log/slog"

	"ventasWs/internal/modules/realtime/application/port"
	"ventasWs/internal/modules/realtime/domain"
)

// BroadcastUseCase replays envelopes read from the relay bus into the local hub.
type BroadcastUseCase struct {
	hub port.Publisher
}

func NewBroadcastUseCase(hub port.Publisher) *BroadcastUseCase {
	return &BroadcastUseCase{hub: hub}
}

func (uc *BroadcastUseCase) Execute(ctx context.Context, env *domain.RelayEnvelope) error {
	if env == nil {
		return nil
	}
	if err := uc.hub.Publish(ctx, env.Group, env.Event, env.Data); err != nil {
		slog.Warn("relay broadcast failed", slog.String("group", env.Group), slog.String("event", env.Event), slog.String("origin", env.Origin), slog.Any("error", err))
		return err
	}
	return nil
}
