package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ventasWs/internal/modules/inventory/application/port"
	"ventasWs/internal/modules/inventory/domain"
	realtimeport "ventasWs/internal/modules/realtime/application/port"
	realtime "ventasWs/internal/modules/realtime/domain"
)

// Service runs the mutation endpoints of one entity type. Each successful
// write is followed by exactly one change notification carrying the record
// re-read from the repository.
type Service[E any, P domain.Entity[E]] struct {
	repo     port.Repository[E]
	notifier realtimeport.ChangeNotifier
	policy   realtime.EntityPolicy
	now      func() time.Time
	// softDelete is set for models carrying an active flag.
	softDelete bool
}

// NewService crea el caso de uso CRUD de una entidad y resuelve su política de borrado.
func NewService[E any, P domain.Entity[E]](repo port.Repository[E], notifier realtimeport.ChangeNotifier) *Service[E, P] {
	var zero E
	_, soft := any(P(&zero)).(domain.Activatable)
	return &Service[E, P]{
		repo:       repo,
		notifier:   notifier,
		policy:     realtime.PolicyFor(P(&zero).EntityType()),
		now:        time.Now,
		softDelete: soft,
	}
}

func (s *Service[E, P]) EntityType() string { return s.policy.EntityType }

func (s *Service[E, P]) List(ctx context.Context, query domain.PagedQuery) ([]E, int64, error) {
	return s.repo.List(ctx, query.Normalize())
}

func (s *Service[E, P]) Create(ctx context.Context, record P) (P, error) {
	if record == nil {
		return nil, domain.ErrInvalidRecord
	}
	record.SetPrimaryKey(0)
	if d, ok := any(record).(domain.Defaulter); ok {
		d.ApplyDefaults(s.now())
	}
	if err := s.repo.Create(ctx, (*E)(record)); err != nil {
		return nil, fmt.Errorf("create %s: %w", s.policy.EntityType, err)
	}
	canonical := s.reload(ctx, record)
	s.notifier.Created(ctx, s.policy.EntityType, canonical)
	return canonical, nil
}

func (s *Service[E, P]) Update(ctx context.Context, record P) (P, error) {
	if record == nil || record.PrimaryKey() <= 0 {
		return nil, fmt.Errorf("%w: %s requires %s", domain.ErrInvalidRecord, s.policy.EntityType, s.policy.IDField)
	}
	if err := s.repo.Update(ctx, (*E)(record)); err != nil {
		return nil, fmt.Errorf("update %s %d: %w", s.policy.EntityType, record.PrimaryKey(), err)
	}
	canonical := s.reload(ctx, record)
	s.notifier.Updated(ctx, s.policy.EntityType, canonical)
	return canonical, nil
}

// Delete keeps the row of every model with an active flag and removes the
// others. The event follows the entity policy, so remove-policy types still
// announce only the id.
func (s *Service[E, P]) Delete(ctx context.Context, id int) (P, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %s requires %s", domain.ErrInvalidRecord, s.policy.EntityType, s.policy.IDField)
	}
	deleted, err := s.repo.Delete(ctx, id, s.softDelete)
	if err != nil {
		return nil, fmt.Errorf("delete %s %d: %w", s.policy.EntityType, id, err)
	}
	s.notifier.Deleted(ctx, s.policy.EntityType, id, P(deleted))
	return P(deleted), nil
}

// reload fetches the stored record with its navigations. The request payload
// is used when the read fails, so a committed write is still announced.
func (s *Service[E, P]) reload(ctx context.Context, record P) P {
	stored, err := s.repo.Find(ctx, record.PrimaryKey())
	if err != nil {
		slog.Warn("reload after write failed", slog.String("entity", s.policy.EntityType), slog.Int("id", record.PrimaryKey()), slog.Any("error", err))
		return record
	}
	return P(stored)
}
