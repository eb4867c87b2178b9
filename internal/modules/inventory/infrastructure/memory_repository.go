package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"ventasWs/internal/modules/inventory/application/port"
	"ventasWs/internal/modules/inventory/domain"
)

// MemoryRepository keeps records in process. It backs the server when no
// database is configured and the use case tests.
type MemoryRepository[E any, P domain.Entity[E]] struct {
	mu      sync.RWMutex
	items   map[int]E
	nextID  int
	resolve func(ctx context.Context, record *E)
}

func NewMemoryRepository[E any, P domain.Entity[E]]() *MemoryRepository[E, P] {
	return &MemoryRepository[E, P]{items: make(map[int]E)}
}

// ResolveWith sets the function that fills navigation fields on every
// record returned by the repository. Stored rows keep only foreign keys.
func (r *MemoryRepository[E, P]) ResolveWith(resolve func(ctx context.Context, record *E)) {
	r.mu.Lock()
	r.resolve = resolve
	r.mu.Unlock()
}

func (r *MemoryRepository[E, P]) withNavigations(ctx context.Context, record *E) *E {
	r.mu.RLock()
	resolve := r.resolve
	r.mu.RUnlock()
	if resolve != nil {
		resolve(ctx, record)
	}
	return record
}

func (r *MemoryRepository[E, P]) List(ctx context.Context, query domain.PagedQuery) ([]E, int64, error) {
	query = query.Normalize()
	r.mu.RLock()
	matched := make([]E, 0, len(r.items))
	for _, item := range r.items {
		if hiddenInactive(P(&item)) {
			continue
		}
		if matches(P(&item), query.Search) {
			matched = append(matched, item)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return P(&matched[i]).PrimaryKey() > P(&matched[j]).PrimaryKey()
	})
	total := int64(len(matched))
	if query.Paged() {
		start := min(query.Offset(), len(matched))
		end := min(start+query.Limit, len(matched))
		matched = matched[start:end]
	}
	for i := range matched {
		r.withNavigations(ctx, &matched[i])
	}
	return matched, total, nil
}

func hiddenInactive(record domain.Record) bool {
	a, ok := record.(domain.ActiveOnly)
	return ok && !a.Active()
}

func matches(record domain.Record, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return false
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	for _, name := range record.SearchFields() {
		if value, ok := fields[name]; ok && strings.Contains(strings.ToLower(fmt.Sprint(value)), term) {
			return true
		}
	}
	return false
}

func (r *MemoryRepository[E, P]) Find(ctx context.Context, id int) (*E, error) {
	r.mu.RLock()
	item, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.withNavigations(ctx, &item), nil
}

func (r *MemoryRepository[E, P]) Create(_ context.Context, record *E) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	P(record).SetPrimaryKey(r.nextID)
	r.items[r.nextID] = *record
	return nil
}

func (r *MemoryRepository[E, P]) Update(_ context.Context, record *E) error {
	id := P(record).PrimaryKey()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrNotFound
	}
	r.items[id] = *record
	return nil
}

func (r *MemoryRepository[E, P]) Delete(ctx context.Context, id int, soft bool) (*E, error) {
	r.mu.Lock()
	item, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	if a, isActivatable := any(P(&item)).(domain.Activatable); soft && isActivatable {
		a.SetActive(false)
		r.items[id] = item
	} else {
		delete(r.items, id)
	}
	r.mu.Unlock()
	return r.withNavigations(ctx, &item), nil
}

var _ port.Repository[domain.Producto] = (*MemoryRepository[domain.Producto, *domain.Producto])(nil)
