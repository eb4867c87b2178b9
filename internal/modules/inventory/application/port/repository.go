package port

import (
	"context"

	"ventasWs/internal/modules/inventory/domain"
)

// Repository persists one model type. Find, List and Delete return records
// with their navigation fields populated.
type Repository[E any] interface {
	List(ctx context.Context, query domain.PagedQuery) ([]E, int64, error)
	Find(ctx context.Context, id int) (*E, error)
	Create(ctx context.Context, record *E) error
	Update(ctx context.Context, record *E) error
	// Delete removes the row, or clears its active flag when soft is set, and
	// returns the record as it stood after the operation.
	Delete(ctx context.Context, id int, soft bool) (*E, error)
}
