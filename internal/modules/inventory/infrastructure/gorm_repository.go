package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ventasWs/internal/modules/inventory/application/port"
	"ventasWs/internal/modules/inventory/domain"
)

// GormRepository stores one model type through gorm. Reads preload every
// association so records leave with their navigation fields.
type GormRepository[E any, P domain.Entity[E]] struct {
	db   *gorm.DB
	cols modelColumns
}

func NewGormRepository[E any, P domain.Entity[E]](db *gorm.DB) (*GormRepository[E, P], error) {
	var zero E
	cols, err := resolveColumns(&zero, db.NamingStrategy, P(&zero).SearchFields())
	if err != nil {
		return nil, err
	}
	return &GormRepository[E, P]{db: db, cols: cols}, nil
}

func (r *GormRepository[E, P]) search(term string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || len(r.cols.search) == 0 {
			return tx
		}
		clauses := make([]string, 0, len(r.cols.search))
		args := make([]any, 0, len(r.cols.search))
		for _, column := range r.cols.search {
			clauses = append(clauses, "LOWER("+column+") LIKE ?")
			args = append(args, "%"+term+"%")
		}
		return tx.Where(strings.Join(clauses, " OR "), args...)
	}
}

func (r *GormRepository[E, P]) activeRows(tx *gorm.DB) *gorm.DB {
	if !r.cols.activeOnly {
		return tx
	}
	return tx.Where(r.cols.active+" = ?", true)
}

func (r *GormRepository[E, P]) List(ctx context.Context, query domain.PagedQuery) ([]E, int64, error) {
	query = query.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(new(E)).Scopes(r.activeRows, r.search(query.Search)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	tx := r.db.WithContext(ctx).Scopes(r.activeRows, r.search(query.Search)).
		Preload(clause.Associations).
		Order(r.cols.primaryKey + " DESC")
	if query.Paged() {
		tx = tx.Offset(query.Offset()).Limit(query.Limit)
	}
	var items []E
	if err := tx.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("list: %w", err)
	}
	return items, total, nil
}

func (r *GormRepository[E, P]) Find(ctx context.Context, id int) (*E, error) {
	return r.find(r.db.WithContext(ctx).Preload(clause.Associations), id)
}

func (r *GormRepository[E, P]) find(tx *gorm.DB, id int) (*E, error) {
	var item E
	if err := tx.First(&item, r.cols.primaryKey+" = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *GormRepository[E, P]) Create(ctx context.Context, record *E) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// Update overwrites the stored row. Navigation fields in the payload are ignored.
func (r *GormRepository[E, P]) Update(ctx context.Context, record *E) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.find(tx, P(record).PrimaryKey()); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(record).Error
	})
}

func (r *GormRepository[E, P]) Delete(ctx context.Context, id int, soft bool) (*E, error) {
	if soft && r.cols.active == "" {
		soft = false
	}
	var out *E
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.find(tx.Preload(clause.Associations), id)
		if err != nil {
			return err
		}
		if soft {
			res := tx.Model(new(E)).Where(r.cols.primaryKey+" = ?", id).Update(r.cols.active, false)
			if res.Error != nil {
				return res.Error
			}
			out, err = r.find(tx.Preload(clause.Associations), id)
			return err
		}
		if err := tx.Select(clause.Associations).Delete(existing).Error; err != nil {
			return err
		}
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var _ port.Repository[domain.Producto] = (*GormRepository[domain.Producto, *domain.Producto])(nil)
