package transport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"ventasWs/internal/modules/inventory/domain"
	"ventasWs/internal/shared/httputil"
	"ventasWs/internal/shared/normalization"
)

// HeaderTotalCount carries the unpaged row count of a Lista response.
const HeaderTotalCount = "X-Total-Count"

// Lister serves the Lista route of a catalog.
type Lister[E any] interface {
	EntityType() string
	List(ctx context.Context, query domain.PagedQuery) ([]E, int64, error)
}

// CrudService is the use case behind one entity's routes.
type CrudService[E any, P domain.Entity[E]] interface {
	Lister[E]
	Create(ctx context.Context, record P) (P, error)
	Update(ctx context.Context, record P) (P, error)
	Delete(ctx context.Context, id int) (P, error)
}

var crudErrors = httputil.NewErrorMapper().
	WithMapping(domain.ErrNotFound, http.StatusNotFound, "record not found").
	WithMapping(domain.ErrInvalidRecord, http.StatusBadRequest, "invalid record")

// RegisterCrudRoutes mounts Lista, Guardar, Editar and Eliminar/:id under
// /api/{entity}.
func RegisterCrudRoutes[E any, P domain.Entity[E]](api *echo.Group, svc CrudService[E, P]) {
	slug := normalization.RouteSlug(svc.EntityType())
	g := api.Group("/" + slug)
	g.GET("/Lista", listHandler[E](svc))
	g.POST("/Guardar", createHandler(svc))
	g.PUT("/Editar", updateHandler(svc))
	g.DELETE("/Eliminar/:id", deleteHandler(svc))
	slog.Debug("crud routes registered", slog.String("entity", svc.EntityType()), slog.String("prefix", "/api/"+slug))
}

// RegisterListRoute mounts only /api/{entity}/Lista, for catalogs that are
// read by the client but never edited through the API.
func RegisterListRoute[E any](api *echo.Group, svc Lister[E]) {
	slug := normalization.RouteSlug(svc.EntityType())
	api.GET("/"+slug+"/Lista", listHandler(svc))
}

func listHandler[E any](svc Lister[E]) echo.HandlerFunc {
	return func(c echo.Context) error {
		query := domain.PagedQueryFromValues(c.QueryParams())
		items, total, err := svc.List(c.Request().Context(), query)
		if err != nil {
			return failure(c, svc.EntityType(), "list", err)
		}
		if items == nil {
			items = []E{}
		}
		c.Response().Header().Set(HeaderTotalCount, strconv.FormatInt(total, 10))
		return c.JSON(http.StatusOK, items)
	}
}

func createHandler[E any, P domain.Entity[E]](svc CrudService[E, P]) echo.HandlerFunc {
	return func(c echo.Context) error {
		record := P(new(E))
		if err := c.Bind(record); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		created, err := svc.Create(c.Request().Context(), record)
		if err != nil {
			return failure(c, svc.EntityType(), "create", err)
		}
		return c.JSON(http.StatusOK, created)
	}
}

func updateHandler[E any, P domain.Entity[E]](svc CrudService[E, P]) echo.HandlerFunc {
	return func(c echo.Context) error {
		record := P(new(E))
		if err := c.Bind(record); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		updated, err := svc.Update(c.Request().Context(), record)
		if err != nil {
			return failure(c, svc.EntityType(), "update", err)
		}
		return c.JSON(http.StatusOK, updated)
	}
}

func deleteHandler[E any, P domain.Entity[E]](svc CrudService[E, P]) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
		}
		deleted, err := svc.Delete(c.Request().Context(), id)
		if err != nil {
			return failure(c, svc.EntityType(), "delete", err)
		}
		return c.JSON(http.StatusOK, deleted)
	}
}

func failure(c echo.Context, entity, op string, err error) error {
	httpErr := crudErrors.HTTPError(err)
	attrs := []any{
		slog.String("entity", entity),
		slog.String("op", op),
		slog.Int("status", httpErr.Code),
		slog.String("reqID", c.Response().Header().Get(echo.HeaderXRequestID)),
		slog.Any("error", err),
	}
	if httpErr.Code >= http.StatusInternalServerError {
		slog.Error("crud request failed", attrs...)
	} else {
		slog.Warn("crud request rejected", attrs...)
	}
	return httpErr
}
