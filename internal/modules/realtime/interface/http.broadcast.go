package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"ventasWs/internal/modules/realtime/domain"
	"ventasWs/internal/shared/httputil"
)

// EventNotifier accepts pre-built change events.
type EventNotifier interface {
	Notify(ctx context.Context, event domain.ChangeEvent) error
}

// BroadcastRequest is the body of POST /api/realtime/broadcast.
type BroadcastRequest struct {
	EntityType string `json:"entityType"`
	Action     string `json:"action"`
	Data       any    `json:"data,omitempty"`
	ID         any    `json:"id,omitempty"`
}

// BroadcastResponse acknowledges an accepted broadcast.
type BroadcastResponse struct {
	Success    bool   `json:"success"`
	EntityType string `json:"entityType"`
	Action     string `json:"action"`
}

var broadcastErrors = httputil.NewErrorMapper().
	WithMapping(domain.ErrEmptyEntityType, http.StatusBadRequest, "entityType is required").
	WithMapping(domain.ErrUnknownAction, http.StatusBadRequest, "action must be created, updated or deleted").
	WithMapping(domain.ErrMissingPayload, http.StatusBadRequest, "data or id is required")

// NewBroadcastHTTPHandler lets another backend push a change event through the
// same notifier the mutation endpoints use.
func NewBroadcastHTTPHandler(notifier EventNotifier) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req BroadcastRequest
		if err := c.Bind(&req); err != nil {
			slog.Warn("broadcast http: invalid request body", slog.Any("error", err))
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}

		action, ok := domain.ParseAction(req.Action)
		if !ok {
			return broadcastErrors.HTTPError(domain.ErrUnknownAction)
		}

		event := domain.ChangeEvent{EntityType: req.EntityType, Action: action, Data: req.Data, ID: req.ID}
		if err := notifier.Notify(c.Request().Context(), event); err != nil {
			slog.Warn("broadcast http: rejected", slog.String("entity", req.EntityType), slog.String("action", req.Action), slog.Any("error", err))
			return broadcastErrors.HTTPError(err)
		}

		slog.Info("broadcast http: event accepted", slog.String("entity", req.EntityType), slog.String("action", string(action)))
		return c.JSON(http.StatusAccepted, BroadcastResponse{Success: true, EntityType: event.Topic(), Action: string(action)})
	}
}
