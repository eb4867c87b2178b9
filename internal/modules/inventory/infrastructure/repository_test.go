package infrastructure

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm/schema"

	"ventasWs/internal/modules/inventory/domain"
)

func TestResolveColumns(t *testing.T) {
	cols, err := resolveColumns(&domain.Producto{}, schema.NamingStrategy{}, (&domain.Producto{}).SearchFields())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cols.primaryKey != "id_producto" {
		t.Fatalf("unexpected primary key column: %s", cols.primaryKey)
	}
	if cols.active != "es_activo" {
		t.Fatalf("unexpected active column: %s", cols.active)
	}
	if len(cols.search) != 3 || cols.search[2] != "descripcion" {
		t.Fatalf("unexpected search columns: %v", cols.search)
	}

	ventas, err := resolveColumns(&domain.Venta{}, schema.NamingStrategy{}, (&domain.Venta{}).SearchFields())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ventas.active != "" {
		t.Fatalf("venta has no active column, got %s", ventas.active)
	}
	if ventas.search[0] != "numero_documento" {
		t.Fatalf("unexpected search columns: %v", ventas.search)
	}
	if cols.activeOnly || ventas.activeOnly {
		t.Fatal("only cash movements hide inactive rows")
	}

	egresos, err := resolveColumns(&domain.Egreso{}, schema.NamingStrategy{}, (&domain.Egreso{}).SearchFields())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !egresos.activeOnly || egresos.active != "es_activo" {
		t.Fatalf("egreso lists must filter on es_activo: %+v", egresos)
	}
}

func TestResolveColumnsRejectsUnknownSearchField(t *testing.T) {
	if _, err := resolveColumns(&domain.Categoria{}, schema.NamingStrategy{}, []string{"nope"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestMemoryRepositoryListSearchAndPaging(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository[domain.Producto]()
	for _, desc := range []string{"Martillo", "Clavos", "Martillo grande", "Serrucho"} {
		if err := repo.Create(ctx, &domain.Producto{Descripcion: desc}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, total, err := repo.List(ctx, domain.PagedQuery{})
	if err != nil || total != 4 || len(all) != 4 {
		t.Fatalf("unexpected list: %d/%d (%v)", len(all), total, err)
	}
	if all[0].IDProducto != 4 {
		t.Fatalf("expected newest first, got %d", all[0].IDProducto)
	}

	found, total, _ := repo.List(ctx, domain.PagedQuery{Search: "martillo"})
	if total != 2 || len(found) != 2 {
		t.Fatalf("expected two matches, got %d", total)
	}

	page, total, _ := repo.List(ctx, domain.PagedQuery{Page: 2, Limit: 3})
	if total != 4 || len(page) != 1 || page[0].IDProducto != 1 {
		t.Fatalf("unexpected second page: %+v (total %d)", page, total)
	}
}

func TestMemoryRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository[domain.Venta]()
	if err := repo.Create(ctx, &domain.Venta{NumeroDocumento: "00001"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Venta has no active flag, so a soft request still removes the row.
	if _, err := repo.Delete(ctx, 1, true); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Find(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Delete(ctx, 1, false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepositoryHidesInactiveCashMovements(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository[domain.Ingreso]()
	for _, desc := range []string{"Aporte", "Venta mostrador"} {
		if err := repo.Create(ctx, &domain.Ingreso{Descripcion: desc}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	deleted, err := repo.Delete(ctx, 1, true)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Active() {
		t.Fatal("expected inactive record")
	}
	items, total, _ := repo.List(ctx, domain.PagedQuery{})
	if total != 1 || len(items) != 1 || items[0].IDIngreso != 2 {
		t.Fatalf("unexpected list: %+v (total %d)", items, total)
	}
	if _, err := repo.Find(ctx, 1); err != nil {
		t.Fatalf("inactive row must remain readable: %v", err)
	}
}

func TestMemoryRepositoriesResolveNavigations(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()

	roles, total, _ := repos.Roles.List(ctx, domain.PagedQuery{})
	if total != int64(len(DefaultRoles)) || len(roles) != len(DefaultRoles) {
		t.Fatalf("unexpected seeded roles: %+v", roles)
	}

	if err := repos.Proveedores.Create(ctx, &domain.Proveedor{Nombre: "Ferreteria Sur"}); err != nil {
		t.Fatalf("create proveedor: %v", err)
	}
	proveedor, missing := 1, 99
	producto := &domain.Producto{Descripcion: "Serrucho", IDProveedor: &proveedor, IDCategoria: &missing}
	if err := repos.Productos.Create(ctx, producto); err != nil {
		t.Fatalf("create producto: %v", err)
	}
	found, err := repos.Productos.Find(ctx, producto.IDProducto)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Proveedor == nil || found.Proveedor.Nombre != "Ferreteria Sur" {
		t.Fatalf("expected proveedor navigation, got %+v", found.Proveedor)
	}
	if found.Categoria != nil {
		t.Fatalf("dangling categoria must stay empty, got %+v", found.Categoria)
	}

	if err := repos.Proveedores.Update(ctx, &domain.Proveedor{IDProveedor: 1, Nombre: "Ferreteria Norte"}); err != nil {
		t.Fatalf("update proveedor: %v", err)
	}
	listed, _, _ := repos.Productos.List(ctx, domain.PagedQuery{})
	if len(listed) != 1 || listed[0].Proveedor == nil || listed[0].Proveedor.Nombre != "Ferreteria Norte" {
		t.Fatalf("navigation must follow the current proveedor row: %+v", listed)
	}
}
