package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

// Health answers liveness probes. Dependency health is not checked here;
// a dead MySQL or Redis surfaces on the first real request instead.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "expense-approval-backend",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
