package infrastructure

import (
	"context"
	"errors"

	"ventasWs/internal/modules/realtime/application/port"
)

// RelayPublisher delivers to the local hub first and then forwards the same
// publish to the cross-instance bus. Local clients are served even when the
// bus is unavailable; both failures are reported together.
type RelayPublisher struct {
	local  port.Publisher
	remote port.Publisher
}

func NewRelayPublisher(local, remote port.Publisher) *RelayPublisher {
	return &RelayPublisher{local: local, remote: remote}
}

func (p *RelayPublisher) Publish(ctx context.Context, group, event string, payload any) error {
	var errs []error
	if err := p.local.Publish(ctx, group, event, payload); err != nil {
		errs = append(errs, err)
	}
	if p.remote != nil {
		if err := p.remote.Publish(ctx, group, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ port.Publisher = (*RelayPublisher)(nil)
