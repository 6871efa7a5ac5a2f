package directory

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for the user directory.
type Handler struct {
	service DirectoryService
}

// NewHandler creates a new directory handler.
func NewHandler(service DirectoryService) *Handler {
	return &Handler{service: service}
}

// List handles GET /users.
func (h *Handler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Get handles GET /users/:id.
func (h *Handler) Get(c echo.Context) error {
	user, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Save handles PUT /users/:id.
func (h *Handler) Save(c echo.Context) error {
	var user User
	if err := c.Bind(&user); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	user.ID = c.Param("id")

	if err := h.service.Save(c.Request().Context(), &user); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// RegisterRoutes sets up the directory routes on the given group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/users", h.List)
	g.GET("/users/:id", h.Get)
	g.PUT("/users/:id", h.Save)
}
