package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ventasWs/internal/modules/realtime/infrastructure"
)

type healthResponse struct {
	Status       string `json:"status"`
	DefaultGroup string `json:"defaultGroup"`
	infrastructure.HubStats
}

func NewHealthHandler(hub *infrastructure.Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, healthResponse{Status: "ok", DefaultGroup: hub.DefaultGroup(), HubStats: hub.Stats()})
	}
}
