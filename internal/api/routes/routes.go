package routes

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"rankscout/internal/api/handlers"
	"rankscout/internal/automator"
)

// SetupRoutes configures the observation endpoints. The API is read-only:
// the run loop owns the browser and the ledger, the server only reports.
func SetupRoutes(e *echo.Echo, progress *automator.Progress) {
	e.Use(echomiddleware.Recover())

	e.GET("/health", handlers.HealthHandler)
	e.GET("/status", handlers.StatusHandler(progress))
}
