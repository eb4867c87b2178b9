package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"ventasWs/internal/modules/inventory/application/port"
	"ventasWs/internal/modules/inventory/domain"
)

// Repositories groups one repository per managed entity type.
type Repositories struct {
	Productos   port.Repository[domain.Producto]
	Categorias  port.Repository[domain.Categoria]
	Proveedores port.Repository[domain.Proveedor]
	Usuarios    port.Repository[domain.Usuario]
	Ingresos    port.Repository[domain.Ingreso]
	Egresos     port.Repository[domain.Egreso]
	Ventas      port.Repository[domain.Venta]
	Roles       port.Repository[domain.Rol]
}

// DefaultRoles seeds the in-memory role table.
var DefaultRoles = []string{"Administrador", "Empleado"}

// NewMemoryRepositories crea los repositorios en memoria y enlaza cada uno
// con sus vecinos para completar las navegaciones, como hace el Preload de gorm.
func NewMemoryRepositories() *Repositories {
	productos := NewMemoryRepository[domain.Producto]()
	categorias := NewMemoryRepository[domain.Categoria]()
	proveedores := NewMemoryRepository[domain.Proveedor]()
	usuarios := NewMemoryRepository[domain.Usuario]()
	ingresos := NewMemoryRepository[domain.Ingreso]()
	egresos := NewMemoryRepository[domain.Egreso]()
	ventas := NewMemoryRepository[domain.Venta]()
	roles := NewMemoryRepository[domain.Rol]()

	ctx := context.Background()
	for _, name := range DefaultRoles {
		rol := &domain.Rol{Descripcion: name}
		rol.ApplyDefaults(time.Now())
		if err := roles.Create(ctx, rol); err != nil {
			slog.Warn("role seed failed", slog.String("rol", name), slog.Any("error", err))
		}
	}

	productos.ResolveWith(func(ctx context.Context, p *domain.Producto) {
		p.Categoria = lookup(ctx, categorias, p.IDCategoria)
		p.Proveedor = lookup(ctx, proveedores, p.IDProveedor)
	})
	usuarios.ResolveWith(func(ctx context.Context, u *domain.Usuario) {
		u.Rol = lookup(ctx, roles, u.IDRol)
	})
	ingresos.ResolveWith(func(ctx context.Context, i *domain.Ingreso) {
		i.Usuario = lookup(ctx, usuarios, i.IDUsuario)
	})
	egresos.ResolveWith(func(ctx context.Context, e *domain.Egreso) {
		e.Usuario = lookup(ctx, usuarios, e.IDUsuario)
	})
	ventas.ResolveWith(func(ctx context.Context, v *domain.Venta) {
		v.Usuario = lookup(ctx, usuarios, v.IDUsuario)
	})

	return &Repositories{
		Productos:   productos,
		Categorias:  categorias,
		Proveedores: proveedores,
		Usuarios:    usuarios,
		Ingresos:    ingresos,
		Egresos:     egresos,
		Ventas:      ventas,
		Roles:       roles,
	}
}

// lookup resolves an optional foreign key. A dangling key leaves the
// navigation empty, the same as a preload miss.
func lookup[E any](ctx context.Context, repo port.Repository[E], id *int) *E {
	if id == nil || *id <= 0 {
		return nil
	}
	record, err := repo.Find(ctx, *id)
	if err != nil {
		return nil
	}
	return record
}

func NewGormRepositories(db *gorm.DB) (*Repositories, error) {
	var errs []error
	productos, err := NewGormRepository[domain.Producto](db)
	errs = append(errs, err)
	categorias, err := NewGormRepository[domain.Categoria](db)
	errs = append(errs, err)
	proveedores, err := NewGormRepository[domain.Proveedor](db)
	errs = append(errs, err)
	usuarios, err := NewGormRepository[domain.Usuario](db)
	errs = append(errs, err)
	ingresos, err := NewGormRepository[domain.Ingreso](db)
	errs = append(errs, err)
	egresos, err := NewGormRepository[domain.Egreso](db)
	errs = append(errs, err)
	ventas, err := NewGormRepository[domain.Venta](db)
	errs = append(errs, err)
	roles, err := NewGormRepository[domain.Rol](db)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Repositories{
		Productos:   productos,
		Categorias:  categorias,
		Proveedores: proveedores,
		Usuarios:    usuarios,
		Ingresos:    ingresos,
		Egresos:     egresos,
		Ventas:      ventas,
		Roles:       roles,
	}, nil
}
