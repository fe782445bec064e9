package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type contextKey struct{}

var loggerKey contextKey

// WithContext binds a logger to the context. Middleware() calls this for
// every request so downstream code sees the request-scoped logger.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger bound to the context, or the global logger
// when none was bound
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return GetLogger()
}

// FromEcho returns the request-scoped logger from the echo context, falling
// back to the request context and then the global logger
func FromEcho(c echo.Context) *zap.Logger {
	if logger, ok := c.Get("logger").(*zap.Logger); ok {
		return logger
	}
	return FromContext(c.Request().Context())
}
