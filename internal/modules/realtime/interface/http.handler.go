package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"ventasWs/internal/modules/realtime/domain"
	"ventasWs/internal/modules/realtime/infrastructure"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebsocketOptions tunes the per-client queue and frame limits.
type WebsocketOptions struct {
	SendBuffer int
	ReadLimit  int64
	NewID      func() string
}

// NewWebsocketHandler exposes /ws and /ws/:group. Every connection joins the
// hub's default group; the optional path parameter joins one more group.
func NewWebsocketHandler(hub *infrastructure.Hub, opts WebsocketOptions) echo.HandlerFunc {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return func(c echo.Context) error {
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		peerIP := c.RealIP()
		extraGroup := domain.NormalizeGroup(c.Param("group"))

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			slog.Error("ws handler upgrade failed", slog.String("ip", peerIP), slog.String("reqID", requestID), slog.Any("error", err))
			return err
		}

		client := infrastructure.NewClient(hub, conn, opts.NewID(), peerIP, opts.SendBuffer)
		client.SetReadLimit(opts.ReadLimit)
		hub.Attach(client)
		if extraGroup != "" {
			hub.Join(client, extraGroup)
		}

		go client.WritePump()
		go client.ReadPump()

		groups := hub.Groups(client)
		client.SendMessage(&domain.Message{
			Event: domain.EventSystemConnected,
			Data: map[string]any{
				"clientId": client.ID(),
				"groups":   groups,
			},
			Timestamp: time.Now().UTC(),
		})

		slog.Info("ws connected", slog.String("clientId", client.ID()), slog.Any("groups", groups), slog.String("ip", peerIP), slog.String("reqID", requestID))
		return nil
	}
}
