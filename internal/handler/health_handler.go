package handler

import (
	"net/http"

	"shopcrm/prometheus"

	"github.com/labstack/echo/v4"
)

// HealthCheck handles the health check endpoint
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"service": "shopcrm",
	})
}

// MetricsHandler exposes the Prometheus metrics endpoint
func MetricsHandler(c echo.Context) error {
	h := prometheus.GetPrometheusHandler()
	h.ServeHTTP(c.Response(), c.Request())
	return nil
}
