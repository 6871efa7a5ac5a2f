package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sandwichproject/opsdesk/internal/middleware"
	"github.com/sandwichproject/opsdesk/internal/plugins/audit"
	"github.com/sandwichproject/opsdesk/internal/plugins/directory"
	"github.com/sandwichproject/opsdesk/internal/plugins/requests"
)

// RegisterRoutes sets up all application routes. It constructs each plugin's
// repository, service, and handler, then delegates to the plugin's route
// registration function.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Health check endpoint for Docker health monitoring. Verifies both
	// backing stores are reachable.
	e.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := a.DB.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "degraded", "database": "unreachable",
			})
		}
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "degraded", "redis": "unreachable",
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// --- Plugin wiring ---

	// audit plugin: one shared repository, one recorder per audited entity.
	auditRepo := audit.NewRepository(a.DB)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(auditService)

	requestRecorder := audit.NewRecorder(auditRepo, audit.RecorderConfig{
		TableName:   requests.AuditTableName(),
		EntityLabel: requests.AuditEntityLabel(),
		Diff: audit.Config{
			FieldNames: requests.FieldNames(),
		},
	})

	// directory plugin: user lookups with a Redis-backed name cache.
	userRepo := directory.NewUserRepository(a.DB)
	directoryService := directory.NewDirectoryService(userRepo, a.Redis)
	directoryHandler := directory.NewHandler(directoryService)

	// requests plugin: the event request lifecycle.
	requestRepo := requests.NewRequestRepository(a.DB)
	requestService := requests.NewRequestService(requestRepo, requestRecorder, directoryService)
	requestHandler := requests.NewHandler(requestService, auditService)

	// --- API Routes ---
	// All plugin routes live under /api/v1. Mutations share a per-IP rate
	// limit; the API is internal-facing but still reachable from the LAN.
	api := e.Group("/api/v1", middleware.RateLimit(120, time.Minute))

	requests.RegisterRoutes(api, requestHandler)
	audit.RegisterRoutes(api, auditHandler)
	directory.RegisterRoutes(api, directoryHandler)
}
