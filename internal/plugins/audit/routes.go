package audit

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the audit query routes. Writing to the audit log
// has no HTTP surface: rows are only ever produced by the Recorder as a
// side effect of business mutations.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/audit", h.History)
	g.GET("/audit/:id", h.Detail)
}
