package transport

import (
	"github.com/labstack/echo/v4"

	"ventasWs/internal/modules/inventory/application/usecase"
	"ventasWs/internal/modules/inventory/domain"
	"ventasWs/internal/modules/inventory/infrastructure"
	realtimeport "ventasWs/internal/modules/realtime/application/port"
)

// Register builds one service per entity and mounts its routes under api.
func Register(api *echo.Group, repos *infrastructure.Repositories, notifier realtimeport.ChangeNotifier) {
	RegisterCrudRoutes[domain.Producto](api, usecase.NewService[domain.Producto](repos.Productos, notifier))
	RegisterCrudRoutes[domain.Categoria](api, usecase.NewService[domain.Categoria](repos.Categorias, notifier))
	RegisterCrudRoutes[domain.Proveedor](api, usecase.NewService[domain.Proveedor](repos.Proveedores, notifier))
	RegisterCrudRoutes[domain.Usuario](api, usecase.NewService[domain.Usuario](repos.Usuarios, notifier))
	RegisterCrudRoutes[domain.Ingreso](api, usecase.NewService[domain.Ingreso](repos.Ingresos, notifier))
	RegisterCrudRoutes[domain.Egreso](api, usecase.NewService[domain.Egreso](repos.Egresos, notifier))
	RegisterCrudRoutes[domain.Venta](api, usecase.NewService[domain.Venta](repos.Ventas, notifier))
	RegisterListRoute[domain.Rol](api, usecase.NewService[domain.Rol](repos.Roles, notifier))
}
