package requests

import (
	"github.com/labstack/echo/v4"
)

// Audit identifiers for event requests. Shared between the recorder wiring
// in app and the history endpoint.
const (
	auditTableName   = "event_requests"
	auditEntityLabel = "EVENT_REQUEST"
)

// AuditTableName returns the audit table identity for event requests.
func AuditTableName() string { return auditTableName }

// AuditEntityLabel returns the audit action prefix for event requests.
func AuditEntityLabel() string { return auditEntityLabel }

// RegisterRoutes sets up all event request routes on the given group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.POST("/requests", h.Create)
	g.GET("/requests", h.List)
	g.GET("/requests/:id", h.Get)
	g.PATCH("/requests/:id", h.Update)
	g.DELETE("/requests/:id", h.Delete)

	g.PUT("/requests/:id/status", h.UpdateStatus)
	g.PUT("/requests/:id/drivers", h.AssignDrivers)
	g.PUT("/requests/:id/tsp-contact", h.SetTSPContact)
	g.POST("/requests/:id/toolkit", h.MarkToolkitSent)
	g.POST("/requests/:id/follow-up", h.CompleteFollowUp)
	g.POST("/requests/:id/reschedule", h.Reschedule)

	g.GET("/requests/:id/staffing", h.Staffing)
	g.GET("/requests/:id/history", h.History)
}
