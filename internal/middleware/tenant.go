package middleware

import (
	"errors"
	"net/http"

	"shopcrm/internal/model"
	"shopcrm/internal/tenant"
	"shopcrm/pkg/jwtutil"
	"shopcrm/pkg/logger"
	"shopcrm/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantMiddleware resolves the tenant from the request host and loads it
// into the request context. Requests on the platform root pass through with
// no tenant set. The ?tenant= override is honored only in development.
func TenantMiddleware(resolver *tenant.Resolver, loader *tenant.Loader, development bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			override := ""
			if development {
				override = c.QueryParam("tenant")
			}

			token, ok := resolver.Resolve(c.Request().Host, override)
			if !ok {
				prometheus.RecordTenantResolution("root")
				return next(c)
			}

			t, err := loader.Load(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, tenant.ErrTenantNotFound) {
					prometheus.RecordTenantResolution("not_found")
					log.Warn("Unknown tenant subdomain", zap.String("token", token))
					return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
				}
				log.Error("Tenant lookup failed", zap.String("token", token), zap.Error(err))
				prometheus.RecordError("tenant_lookup_failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant lookup failed"})
			}

			if t.Disabled() {
				log.Warn("Request for disabled tenant", zap.String("subdomain", t.Subdomain))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "subscription inactive"})
			}

			prometheus.RecordTenantResolution("hit")
			c.Set("tenant", t)
			c.Set("tenant_id", t.ID)
			return next(c)
		}
	}
}

// RequireTenant rejects requests that reached a tenant-scoped endpoint
// without a resolved tenant, and enforces that the caller's token belongs to
// that tenant. master_admin users may cross tenants.
func RequireTenant(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		t, ok := c.Get("tenant").(*model.Tenant)
		if !ok || t == nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}

		claims, ok := c.Get("user").(*jwtutil.UserClaims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		if claims.Role == model.RoleMasterAdmin {
			return next(c)
		}

		if claims.TenantID == nil || *claims.TenantID != t.ID {
			logger.FromEcho(c).Warn("Cross-tenant access attempt",
				zap.Uint("host_tenant_id", t.ID),
				zap.Any("token_tenant_id", claims.TenantID))
			prometheus.RecordError("cross_tenant_access")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}

		return next(c)
	}
}
