package audit

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for audit log queries. Handlers are thin:
// bind request, call service, render response. No business logic lives here.
type Handler struct {
	service Service
}

// NewHandler creates a new audit handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// History returns a paginated slice of the audit log
// (GET /audit?tableName=&recordId=&userId=&action=&page=).
func (h *Handler) History(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	f := Filter{
		TableName: c.QueryParam("tableName"),
		RecordID:  c.QueryParam("recordId"),
		UserID:    c.QueryParam("userId"),
		Action:    c.QueryParam("action"),
	}

	entries, total, err := h.service.History(c.Request().Context(), f, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"entries": entries,
		"total":   total,
		"page":    page,
		"perPage": perPage,
	})
}

// Detail returns one audit row with its payloads parsed for display
// (GET /audit/:id). Corrupt historical JSON is reported inline via the
// _parseError sentinel rather than failing the request.
func (h *Handler) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "audit entry ID must be numeric")
	}

	detail, err := h.service.Detail(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, detail)
}
