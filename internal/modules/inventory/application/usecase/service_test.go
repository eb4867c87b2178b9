package usecase

import (
	"context"
	"errors"
	"testing"

	"ventasWs/internal/modules/inventory/domain"
	"ventasWs/internal/modules/inventory/infrastructure"
)

type notification struct {
	action     string
	entityType string
	id         any
	record     any
}

type recordingNotifier struct {
	calls []notification
}

func (n *recordingNotifier) Created(_ context.Context, entityType string, record any) {
	n.calls = append(n.calls, notification{action: "created", entityType: entityType, record: record})
}

func (n *recordingNotifier) Updated(_ context.Context, entityType string, record any) {
	n.calls = append(n.calls, notification{action: "updated", entityType: entityType, record: record})
}

func (n *recordingNotifier) Deleted(_ context.Context, entityType string, id any, record any) {
	n.calls = append(n.calls, notification{action: "deleted", entityType: entityType, id: id, record: record})
}

func TestCreateNotifiesOnceWithStoredRecord(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	svc := NewService[domain.Producto](infrastructure.NewMemoryRepository[domain.Producto](), notifier)

	stock := 5
	created, err := svc.Create(context.Background(), &domain.Producto{IDProducto: 99, Descripcion: "Martillo", Stock: &stock})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.IDProducto != 1 {
		t.Fatalf("expected repository assigned id 1, got %d", created.IDProducto)
	}
	if created.EsActivo == nil || !*created.EsActivo {
		t.Fatal("expected new producto to be active")
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notifier.calls))
	}
	call := notifier.calls[0]
	if call.action != "created" || call.entityType != "Producto" {
		t.Fatalf("unexpected notification: %+v", call)
	}
	if rec, ok := call.record.(*domain.Producto); !ok || rec.Descripcion != "Martillo" {
		t.Fatalf("unexpected notified record: %#v", call.record)
	}
}

func TestUpdateRequiresExistingRecord(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	svc := NewService[domain.Categoria](infrastructure.NewMemoryRepository[domain.Categoria](), notifier)

	if _, err := svc.Update(context.Background(), &domain.Categoria{Descripcion: "sin id"}); !errors.Is(err, domain.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	if _, err := svc.Update(context.Background(), &domain.Categoria{IDCategoria: 7}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("failed writes must not notify, got %d", len(notifier.calls))
	}

	created, err := svc.Create(context.Background(), &domain.Categoria{Descripcion: "Herramientas"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	created.Descripcion = "Ferreteria"
	updated, err := svc.Update(context.Background(), created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Descripcion != "Ferreteria" {
		t.Fatalf("unexpected description: %s", updated.Descripcion)
	}
	if got := notifier.calls[len(notifier.calls)-1]; got.action != "updated" {
		t.Fatalf("expected updated notification, got %+v", got)
	}
}

func TestDeleteFollowsEntityPolicy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	softNotifier := &recordingNotifier{}
	productos := infrastructure.NewMemoryRepository[domain.Producto]()
	soft := NewService[domain.Producto](productos, softNotifier)
	p, _ := soft.Create(ctx, &domain.Producto{Descripcion: "Clavos"})
	deleted, err := soft.Delete(ctx, p.IDProducto)
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if deleted.EsActivo == nil || *deleted.EsActivo {
		t.Fatal("expected producto to be flagged inactive")
	}
	if _, err := productos.Find(ctx, p.IDProducto); err != nil {
		t.Fatalf("soft deleted row must remain: %v", err)
	}
	last := softNotifier.calls[len(softNotifier.calls)-1]
	if last.action != "deleted" || last.id != p.IDProducto || last.record == nil {
		t.Fatalf("unexpected delete notification: %+v", last)
	}

	cashNotifier := &recordingNotifier{}
	ingresos := infrastructure.NewMemoryRepository[domain.Ingreso]()
	cash := NewService[domain.Ingreso](ingresos, cashNotifier)
	i, _ := cash.Create(ctx, &domain.Ingreso{Descripcion: "Aporte", Monto: 10})
	if _, err := cash.Delete(ctx, i.IDIngreso); err != nil {
		t.Fatalf("ingreso delete: %v", err)
	}
	kept, err := ingresos.Find(ctx, i.IDIngreso)
	if err != nil {
		t.Fatalf("ingreso row must remain: %v", err)
	}
	if kept.Active() {
		t.Fatal("expected ingreso to be flagged inactive")
	}
	if listed, total, _ := cash.List(ctx, domain.PagedQuery{}); total != 0 || len(listed) != 0 {
		t.Fatalf("inactive ingreso must not be listed: %+v", listed)
	}
	if last := cashNotifier.calls[len(cashNotifier.calls)-1]; last.action != "deleted" || last.id != i.IDIngreso {
		t.Fatalf("unexpected delete notification: %+v", last)
	}

	hardNotifier := &recordingNotifier{}
	ventas := infrastructure.NewMemoryRepository[domain.Venta]()
	hard := NewService[domain.Venta](ventas, hardNotifier)
	v, _ := hard.Create(ctx, &domain.Venta{NumeroDocumento: "00001", Total: 10})
	if _, err := hard.Delete(ctx, v.IDVenta); err != nil {
		t.Fatalf("hard delete: %v", err)
	}
	if _, err := ventas.Find(ctx, v.IDVenta); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected row to be removed, got %v", err)
	}

	if _, err := hard.Delete(ctx, 0); !errors.Is(err, domain.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	if _, err := hard.Delete(ctx, 404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(hardNotifier.calls) != 2 {
		t.Fatalf("expected create and delete notifications only, got %d", len(hardNotifier.calls))
	}
}

type failingFind struct {
	*infrastructure.MemoryRepository[domain.Proveedor, *domain.Proveedor]
}

func (failingFind) Find(context.Context, int) (*domain.Proveedor, error) {
	return nil, errors.New("replica lag")
}

func TestCreateFallsBackToPayloadWhenReloadFails(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	repo := failingFind{infrastructure.NewMemoryRepository[domain.Proveedor]()}
	svc := NewService[domain.Proveedor](repo, notifier)

	created, err := svc.Create(context.Background(), &domain.Proveedor{Nombre: "Acme"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Nombre != "Acme" || created.IDProveedor == 0 {
		t.Fatalf("unexpected record: %+v", created)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("expected notification despite reload failure, got %d", len(notifier.calls))
	}
}

func TestNotificationsCarryNavigations(t *testing.T) {
	ctx := context.Background()
	repos := infrastructure.NewMemoryRepositories()
	notifier := &recordingNotifier{}

	categorias := NewService[domain.Categoria](repos.Categorias, notifier)
	cat, err := categorias.Create(ctx, &domain.Categoria{Descripcion: "Herramientas"})
	if err != nil {
		t.Fatalf("create categoria: %v", err)
	}

	productos := NewService[domain.Producto](repos.Productos, notifier)
	p, err := productos.Create(ctx, &domain.Producto{Descripcion: "Martillo", IDCategoria: &cat.IDCategoria})
	if err != nil {
		t.Fatalf("create producto: %v", err)
	}
	if p.Categoria == nil || p.Categoria.Descripcion != "Herramientas" {
		t.Fatalf("expected categoria navigation, got %+v", p.Categoria)
	}
	if p.Proveedor != nil {
		t.Fatalf("unset proveedor must stay empty, got %+v", p.Proveedor)
	}
	sent, ok := notifier.calls[len(notifier.calls)-1].record.(*domain.Producto)
	if !ok || sent.Categoria == nil || sent.Categoria.Descripcion != "Herramientas" {
		t.Fatalf("created event lacks categoria navigation: %+v", notifier.calls[len(notifier.calls)-1])
	}

	rol := 2
	usuarios := NewService[domain.Usuario](repos.Usuarios, notifier)
	u, err := usuarios.Create(ctx, &domain.Usuario{Nombre: "Ana", IDRol: &rol})
	if err != nil {
		t.Fatalf("create usuario: %v", err)
	}
	if u.Rol == nil || u.Rol.Descripcion != infrastructure.DefaultRoles[1] {
		t.Fatalf("expected rol navigation, got %+v", u.Rol)
	}

	egresos := NewService[domain.Egreso](repos.Egresos, notifier)
	if _, err := egresos.Create(ctx, &domain.Egreso{Descripcion: "Luz", Monto: 5, IDUsuario: &u.IDUsuario}); err != nil {
		t.Fatalf("create egreso: %v", err)
	}
	listed, _, _ := egresos.List(ctx, domain.PagedQuery{})
	if len(listed) != 1 || listed[0].Usuario == nil || listed[0].Usuario.Nombre != "Ana" {
		t.Fatalf("expected usuario navigation on list, got %+v", listed)
	}
}
