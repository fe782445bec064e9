package handler

import (
	"net/http"
	"time"

	"shopcrm/internal/export"
	"shopcrm/internal/model"
	"shopcrm/internal/tenant"
	"shopcrm/pkg/database"
	"shopcrm/pkg/logger"
	"shopcrm/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CustomerRequest defines the structure for customer creation/update
// requests. Updates replace the whole record, matching the form semantics.
type CustomerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Notes     string `json:"notes"`
}

// ListCustomers retrieves all customers for the tenant, optionally filtered
// by a case-insensitive name search
func ListCustomers(c echo.Context) error {
	log := logger.FromEcho(c)

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	query := database.GetDB().WithContext(c.Request().Context()).Where("tenant_id = ?", t.ID)
	if search := c.QueryParam("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", pattern, pattern, pattern)
	}

	var customers []model.Customer
	if result := query.Order("last_name, first_name").Find(&customers); result.Error != nil {
		log.Error("Failed to list customers", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve customers"})
	}

	return c.JSON(http.StatusOK, customers)
}

// GetCustomer retrieves one customer with their vehicles
func GetCustomer(c echo.Context) error {
	log := logger.FromEcho(c)

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var customer model.Customer
	result := database.GetDB().WithContext(c.Request().Context()).
		Preload("Vehicles").
		Where("tenant_id = ?", t.ID).
		First(&customer, "id = ?", c.Param("id"))
	if result.Error != nil {
		log.Warn("Customer not found", zap.String("id", c.Param("id")), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
	}

	return c.JSON(http.StatusOK, customer)
}

// CreateCustomer creates a customer record
func CreateCustomer(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("customer", "create")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse customer request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.FirstName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name is required"})
	}

	customer := model.Customer{
		TenantID:  t.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Notes:     req.Notes,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().WithContext(c.Request().Context()).Create(&customer); result.Error != nil {
		log.Error("Failed to create customer", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "customer creation failed"})
	}

	log.Info("Customer created", zap.Uint("id", customer.ID), zap.Uint("tenant_id", t.ID))
	return c.JSON(http.StatusCreated, customer)
}

// UpdateCustomer replaces a customer record
func UpdateCustomer(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("customer", "update")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var customer model.Customer
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&customer, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
	}

	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse customer request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.FirstName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name is required"})
	}

	customer.FirstName = req.FirstName
	customer.LastName = req.LastName
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Address = req.Address
	customer.Notes = req.Notes

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().WithContext(c.Request().Context()).Save(&customer); result.Error != nil {
		log.Error("Failed to update customer", zap.Uint("id", customer.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "customer update failed"})
	}

	return c.JSON(http.StatusOK, customer)
}

// ExportCustomers streams the tenant's customers as CSV or a JSON array
func ExportCustomers(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("customer", "export")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}
	if !tenant.HasFeature(t, tenant.FeatureCSVExport) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "plan upgrade required for export"})
	}

	var customers []model.Customer
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).Order("id").Find(&customers)
	if result.Error != nil {
		log.Error("Failed to export customers", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}

	if c.QueryParam("format") == "json" {
		return c.JSON(http.StatusOK, customers)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="customers.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return export.WriteCustomersCSV(c.Response(), customers)
}

// ImportCustomers accepts a CSV body with a header row, or a JSON array, and
// inserts the valid rows under the tenant. Bad rows are reported, good rows
// still land.
func ImportCustomers(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("customer", "import")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}
	if !tenant.HasFeature(t, tenant.FeatureCSVExport) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "plan upgrade required for import"})
	}

	var customers []model.Customer
	var rowErrs []export.RowError

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if contentType == echo.MIMEApplicationJSON {
		var rows []CustomerRequest
		if err := c.Bind(&rows); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON array"})
		}
		for i, row := range rows {
			if row.FirstName == "" {
				rowErrs = append(rowErrs, export.RowError{Line: i + 1, Err: "first_name is required"})
				continue
			}
			customers = append(customers, model.Customer{
				TenantID:  t.ID,
				FirstName: row.FirstName,
				LastName:  row.LastName,
				Email:     row.Email,
				Phone:     row.Phone,
				Address:   row.Address,
				Notes:     row.Notes,
			})
		}
	} else {
		var err error
		customers, rowErrs, err = export.ReadCustomersCSV(c.Request().Body, t.ID)
		if err != nil {
			log.Warn("Customer import rejected", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}

	if len(customers) > 0 {
		defer prometheus.TrackDBOperation("insert")(time.Now())
		if result := database.GetDB().WithContext(c.Request().Context()).Create(&customers); result.Error != nil {
			log.Error("Customer import insert failed", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "import failed"})
		}
	}

	log.Info("Customers imported",
		zap.Uint("tenant_id", t.ID),
		zap.Int("imported", len(customers)),
		zap.Int("rejected", len(rowErrs)))
	return c.JSON(http.StatusOK, echo.Map{
		"imported": len(customers),
		"errors":   rowErrs,
	})
}
