package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"rankscout/internal/automator"
	"rankscout/internal/logging"
	"rankscout/pkg/models"
)

var startTime = time.Now()

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	logger := logging.GetGlobalLogger()
	logger.Debug("Health check requested")

	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(startTime),
	}

	return c.JSON(http.StatusOK, response)
}

// StatusHandler reports the state of the running batch.
func StatusHandler(progress *automator.Progress) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, progress.Snapshot())
	}
}
