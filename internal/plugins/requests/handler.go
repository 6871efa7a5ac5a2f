package requests

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sandwichproject/opsdesk/internal/middleware"
	"github.com/sandwichproject/opsdesk/internal/plugins/audit"
)

// Handler handles HTTP requests for event requests. Handlers are thin:
// bind request, call service, render response. No business logic lives here.
type Handler struct {
	service  RequestService
	auditSvc audit.Service
}

// NewHandler creates a new request handler.
func NewHandler(service RequestService, auditSvc audit.Service) *Handler {
	return &Handler{service: service, auditSvc: auditSvc}
}

// Create handles POST /requests.
func (h *Handler) Create(c echo.Context) error {
	var input CreateRequestInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	req, err := h.service.Create(c.Request().Context(), input, actorFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, req)
}

// Get handles GET /requests/:id.
func (h *Handler) Get(c echo.Context) error {
	id, err := requestID(c)
	if err != nil {
		return err
	}

	req, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, req)
}

// List handles GET /requests?status=&page=.
func (h *Handler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	list, total, err := h.service.List(c.Request().Context(), c.QueryParam("status"), page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"requests": list,
		"total":    total,
		"page":     page,
		"perPage":  perPage,
	})
}

// Update handles PATCH /requests/:id.
func (h *Handler) Update(c echo.Context) error {
	id, err := requestID(c)
	if err != nil {
		return err
	}

	var input UpdateRequestInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	req, err := h.service.Update(c.Request().Context(), id, input, actorFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, req)
}

// UpdateStatus handles PUT /requests/:id/status.
func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := requestID(c)
	if err != nil {
		return err
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	req, err := h.service.UpdateStatus(c.Request().Context(), id, body.Status, actorFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, req)
}

// AssignDrivers handles PUT /requests/:id/drivers.
func (h *Handler) AssignDrivers(c echo.Context) error {
	id, err := requestID(c)
	if err != nil {
		return err
	}

	var body struct {
		DriverIDs   []string `json:"driverIds"`
		VanDriverID string   `json:"vanDriverId"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	req, err := h.service.AssignDrivers(c.Request().Context(), id, body.DriverIDs, body.VanDriverID, actorFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, req)
}

// SetTSPContact handles PUT /requests/:id/tsp-contact.
func (h *Handler) SetTSPContact(c echo.Context) error {
	id, err := requestID(c)
	if err != nil {
		return err
	}

	var body struct {
		UserID     string `json:"userId"`
		CustomName string `json:"customName"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	req, err := h.service.SetTSPContact(c.Request().Context(), id, body.UserID, body.CustomName, actorFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, req)
}

// MarkToolkitSent handles POST /requests/:id/toolkit.
func (h *Handler) MarkToolkitSent(c echo.Context) error {
	id, err := requestID(c)
	if err != nil {
		return err
	}

	req, err := h.service.MarkToolkitSent(c.Request().Context(), id, actorFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, req)
}

// CompleteFollowUp handles POST /requests/:id/follow-up.
func (h *Handler) CompleteFollowUp(c echo.Context) error {
	id, err := requestID(c)
	if err != nil {
		return err
	}

	var body struct {
		Note string `json:"note"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	req, err := h.service.CompleteFollowUp(c.Request().Context(), id, body.Note, actorFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, req)
}

// Reschedule handles POST /requests/:id/reschedule.
func (h *Handler) Reschedule(c echo.Context) error {
	id, err := requestID(c)
	if err != nil {
		return err
	}

	derived, err := h.service.Reschedule(c.Request().Context(), id, actorFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, derived)
}

// Delete handles DELETE /requests/:id.
func (h *Handler) Delete(c echo.Context) error {
	id, err := requestID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id, actorFrom(c)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Staffing handles GET /requests/:id/staffing.
func (h *Handler) Staffing(c echo.Context) error {
	id, err := requestID(c)
	if err != nil {
		return err
	}

	view, err := h.service.Staffing(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, view)
}

// History handles GET /requests/:id/history?significant=true. It returns
// the audit trail for this request, newest first.
func (h *Handler) History(c echo.Context) error {
	id, err := requestID(c)
	if err != nil {
		return err
	}

	significantOnly := c.QueryParam("significant") == "true"
	entries, err := h.auditSvc.RecordHistory(c.Request().Context(),
		auditTableName, strconv.FormatInt(id, 10), auditEntityLabel, significantOnly)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entries)
}

// requestID parses the :id path parameter.
func requestID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "request ID must be numeric")
	}
	return id, nil
}

// actorFrom converts the middleware actor context into the audit form.
func actorFrom(c echo.Context) audit.Actor {
	actor := middleware.ActorFrom(c)
	return audit.Actor{
		UserID:    actor.UserID,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
		SessionID: actor.SessionID,
	}
}
