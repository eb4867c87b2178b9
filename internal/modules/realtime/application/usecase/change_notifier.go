package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ventasWs/internal/modules/realtime/application/port"
	"ventasWs/internal/modules/realtime/domain"
)

// ChangeNotifier turns committed mutations into ChangeEvents and publishes each
// one exactly once. Publish failures are logged and swallowed: the write already
// succeeded and live updates are best-effort.
type ChangeNotifier struct {
	publisher port.Publisher
	group     string
	now       func() time.Time
}

// NewChangeNotifier publica en group, o en el grupo por defecto si viene vacío.
func NewChangeNotifier(publisher port.Publisher, group string) *ChangeNotifier {
	group = domain.NormalizeGroup(group)
	if group == "" {
		group = domain.DefaultGroup
	}
	return &ChangeNotifier{publisher: publisher, group: group, now: time.Now}
}

func (n *ChangeNotifier) Created(ctx context.Context, entityType string, record any) {
	n.publish(ctx, entityType, domain.ActionCreated, record, nil)
}

func (n *ChangeNotifier) Updated(ctx context.Context, entityType string, record any) {
	n.publish(ctx, entityType, domain.ActionUpdated, record, nil)
}

// Deleted publishes according to the entity's delete policy: soft-deleted
// entities ship the inactive record, removed entities ship only the identifier.
func (n *ChangeNotifier) Deleted(ctx context.Context, entityType string, id any, record any) {
	policy := domain.PolicyFor(entityType)
	switch policy.Delete {
	case domain.DeleteRemove:
		n.publish(ctx, entityType, domain.ActionDeleted, nil, id)
	default:
		n.publish(ctx, entityType, domain.ActionDeleted, record, id)
	}
}

// Notify publishes a pre-built event. Unlike the mutation hooks it reports
// validation errors, for callers that accept events from outside the process.
func (n *ChangeNotifier) Notify(ctx context.Context, event domain.ChangeEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = n.now()
	}
	built, err := domain.NewChangeEvent(event.EntityType, event.Action, event.Data, event.ID, event.Timestamp)
	if err != nil {
		return err
	}
	n.send(ctx, built)
	return nil
}

func (n *ChangeNotifier) publish(ctx context.Context, entityType string, action domain.Action, data, id any) {
	event, err := domain.NewChangeEvent(entityType, action, data, id, n.now())
	if err != nil {
		slog.Error("change event rejected", slog.String("entity", strings.TrimSpace(entityType)), slog.String("action", string(action)), slog.Any("error", err))
		return
	}
	n.send(ctx, event)
}

func (n *ChangeNotifier) send(ctx context.Context, event domain.ChangeEvent) {
	if err := n.publisher.Publish(ctx, n.group, domain.EventEntityChanged, event); err != nil {
		slog.Warn("change event publish failed", slog.String("entity", event.EntityType), slog.String("action", string(event.Action)), slog.String("group", n.group), slog.Any("error", err))
		return
	}
	slog.Debug("change event published", slog.String("entity", event.EntityType), slog.String("action", string(event.Action)), slog.String("group", n.group))
}

var _ port.ChangeNotifier = (*ChangeNotifier)(nil)
