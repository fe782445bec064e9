package handler

import (
	"shopcrm/internal/model"

	"github.com/labstack/echo/v4"
)

// tenantFromContext returns the tenant loaded by the tenant middleware.
// Every tenant-scoped handler goes through here so no query is issued
// without a tenant filter.
func tenantFromContext(c echo.Context) (*model.Tenant, bool) {
	t, ok := c.Get("tenant").(*model.Tenant)
	return t, ok && t != nil
}

// userIDFromContext returns the authenticated user's id
func userIDFromContext(c echo.Context) (uint, bool) {
	id, ok := c.Get("user_id").(uint)
	return id, ok
}
