package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counter
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counter
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Tenant resolution counter
	TenantResolutionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_tenant_resolutions_total",
			Help: "Total number of host-based tenant resolutions",
		},
		[]string{"outcome"}, // "hit", "root", "not_found"
	)

	// Record operation counter
	RecordOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_record_operations_total",
			Help: "Total number of record operations by entity",
		},
		[]string{"entity", "operation"},
	)

	// Estimate conversion counter
	ConversionCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_estimate_conversions_total",
			Help: "Total number of estimates converted to work orders",
		},
	)

	// Stock adjustment rejections
	StockRejectionCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_stock_adjustment_rejections_total",
			Help: "Total number of stock adjustments rejected for going negative",
		},
	)

	// Notification deliveries
	NotificationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_notifications_total",
			Help: "Total number of notification sends by template and result",
		},
		[]string{"template", "result"},
	)

	// Error counters
	ErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crm_info",
			Help: "Information about the CRM service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(TenantResolutionCounter)
	prometheus.MustRegister(RecordOperationCounter)
	prometheus.MustRegister(ConversionCounter)
	prometheus.MustRegister(StockRejectionCounter)
	prometheus.MustRegister(NotificationCounter)
	prometheus.MustRegister(ErrorCounter)
	prometheus.MustRegister(HTTPRequestCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(InfoGauge)
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// RecordError increments the error counter for a type
func RecordError(errorType string) {
	ErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordOperation counts a record operation on an entity
func RecordOperation(entity, operation string) {
	RecordOperationCounter.With(prometheus.Labels{"entity": entity, "operation": operation}).Inc()
}

// RecordNotification counts a notification delivery attempt
func RecordNotification(template, result string) {
	NotificationCounter.With(prometheus.Labels{"template": template, "result": result}).Inc()
}

// RecordTenantResolution counts a host resolution outcome
func RecordTenantResolution(outcome string) {
	TenantResolutionCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			return err
		}
	}
}
