package handler

import (
	"net/http"
	"strings"
	"time"

	"shopcrm/internal/model"
	"shopcrm/internal/tenant"
	"shopcrm/pkg/database"
	"shopcrm/pkg/logger"
	"shopcrm/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TenantHandler serves tenant signup, lookup and settings. It owns the
// loader so settings writes can invalidate the subdomain cache.
type TenantHandler struct {
	loader *tenant.Loader
}

// NewTenantHandler creates a tenant handler
func NewTenantHandler(loader *tenant.Loader) *TenantHandler {
	return &TenantHandler{loader: loader}
}

// CurrentTenant returns the tenant resolved from the request host, with the
// features its plan includes. Requests on the platform root get a 404 body
// the SPA renders as the tenant-not-found state.
func (h *TenantHandler) CurrentTenant(c echo.Context) error {
	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tenant":   t,
		"features": tenant.Features(t.PlanTier),
	})
}

// Signup creates a new tenant and its first admin user
func (h *TenantHandler) Signup(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("tenant", "create")

	var req struct {
		Name       string `json:"name"`
		Subdomain  string `json:"subdomain"`
		AdminEmail string `json:"admin_email"`
		Password   string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse signup request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.Subdomain = strings.ToLower(strings.TrimSpace(req.Subdomain))
	if req.Name == "" || req.Subdomain == "" || req.AdminEmail == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, subdomain, admin_email and password are required"})
	}
	if strings.ContainsAny(req.Subdomain, ". ") || req.Subdomain == "www" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subdomain"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	t := model.Tenant{
		Name:               req.Name,
		Subdomain:          req.Subdomain,
		PlanTier:           tenant.TierStarter,
		SubscriptionStatus: model.SubscriptionTrialing,
		CardSurchargeRate:  3.5,
		ReminderLeadDays:   7,
	}

	err = database.GetDB().WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(&t); result.Error != nil {
			return result.Error
		}
		admin := model.User{
			Email:    req.AdminEmail,
			Password: string(hashed),
			Role:     model.RoleAdmin,
			TenantID: &t.ID,
		}
		if result := tx.Create(&admin); result.Error != nil {
			return result.Error
		}
		return nil
	})
	if err != nil {
		log.Error("Tenant signup failed", zap.String("subdomain", req.Subdomain), zap.Error(err))
		prometheus.RecordError("tenant_signup_failed")
		return c.JSON(http.StatusConflict, echo.Map{"error": "subdomain or email already in use"})
	}

	log.Info("Tenant created", zap.Uint("id", t.ID), zap.String("subdomain", t.Subdomain))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "tenant created",
		"tenant":  t,
	})
}

// UpdateSettings replaces the tenant's business settings and invalidates the
// subdomain cache so the next request sees fresh values
func (h *TenantHandler) UpdateSettings(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("tenant", "update")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var req struct {
		Name              string  `json:"name"`
		LogoURL           string  `json:"logo_url"`
		CardSurchargeRate float64 `json:"card_surcharge_rate"`
		TaxRate           float64 `json:"tax_rate"`
		ReminderLeadDays  int     `json:"reminder_lead_days"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse settings request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.CardSurchargeRate < 0 || req.TaxRate < 0 || req.ReminderLeadDays < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rates and lead days must not be negative"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	updates := map[string]interface{}{
		"name":                req.Name,
		"logo_url":            req.LogoURL,
		"card_surcharge_rate": req.CardSurchargeRate,
		"tax_rate":            req.TaxRate,
		"reminder_lead_days":  req.ReminderLeadDays,
	}
	if result := database.GetDB().WithContext(c.Request().Context()).Model(&model.Tenant{}).Where("id = ?", t.ID).Updates(updates); result.Error != nil {
		log.Error("Failed to update tenant settings", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "settings update failed"})
	}

	h.loader.Invalidate(c.Request().Context(), t.Subdomain)

	log.Info("Tenant settings updated", zap.Uint("tenant_id", t.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "settings updated"})
}
