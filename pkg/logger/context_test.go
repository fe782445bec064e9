package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWithContextRoundTrip(t *testing.T) {
	bound := zap.NewNop().With(zap.String("request_id", "abc"))
	ctx := WithContext(context.Background(), bound)

	assert.Same(t, bound, FromContext(ctx))
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	require.NoError(t, InitLogger(&LogConfig{Level: "info", Environment: "development", ServiceName: "shopcrm"}))

	got := FromContext(context.Background())
	require.NotNil(t, got)
	assert.Same(t, GetLogger(), got)
}

func TestMiddlewareBindsLoggerToRequestContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var fromEcho, fromCtx *zap.Logger
	h := Middleware()(func(c echo.Context) error {
		fromEcho = FromEcho(c)
		fromCtx = FromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, h(c))
	require.NotNil(t, fromEcho)
	assert.Same(t, fromEcho, fromCtx)
	assert.NotSame(t, GetLogger(), fromEcho)
}

func TestFromEchoFallsBackToRequestContext(t *testing.T) {
	e := echo.New()
	bound := zap.NewNop().With(zap.String("request_id", "xyz"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithContext(req.Context(), bound))
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Same(t, bound, FromEcho(c))
}
