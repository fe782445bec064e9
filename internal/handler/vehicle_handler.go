package handler

import (
	"net/http"
	"time"

	"shopcrm/internal/catalog"
	"shopcrm/internal/export"
	"shopcrm/internal/maintenance"
	"shopcrm/internal/model"
	"shopcrm/internal/notify"
	"shopcrm/internal/tenant"
	"shopcrm/pkg/database"
	"shopcrm/pkg/logger"
	"shopcrm/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// VehicleHandler serves vehicle records. It owns the makes cache explicitly
// rather than sharing module state, and the notifier for service reminders.
type VehicleHandler struct {
	makes    *catalog.MakesCache
	notifier notify.Notifier
}

// NewVehicleHandler creates a vehicle handler
func NewVehicleHandler(makes *catalog.MakesCache, notifier notify.Notifier) *VehicleHandler {
	return &VehicleHandler{makes: makes, notifier: notifier}
}

// VehicleRequest defines the structure for vehicle creation/update requests
type VehicleRequest struct {
	CustomerID      uint       `json:"customer_id"`
	Year            int        `json:"year"`
	Make            string     `json:"make"`
	Model           string     `json:"model"`
	VIN             string     `json:"vin"`
	LicensePlate    string     `json:"license_plate"`
	Mileage         int        `json:"mileage"`
	LastServiceDate *time.Time `json:"last_service_date,omitempty"`
}

// vehicleView decorates a vehicle with its maintenance classification
type vehicleView struct {
	model.Vehicle
	Maintenance *maintenance.Result `json:"maintenance,omitempty"`
}

func withMaintenance(v model.Vehicle, now time.Time) vehicleView {
	view := vehicleView{Vehicle: v}
	if v.LastServiceDate != nil {
		r := maintenance.Classify(*v.LastServiceDate, now)
		view.Maintenance = &r
	}
	return view
}

// ListVehicles retrieves the tenant's vehicles, optionally for one customer
func (h *VehicleHandler) ListVehicles(c echo.Context) error {
	log := logger.FromEcho(c)

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	query := database.GetDB().WithContext(c.Request().Context()).Where("tenant_id = ?", t.ID)
	if customerID := c.QueryParam("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}

	var vehicles []model.Vehicle
	if result := query.Order("id").Find(&vehicles); result.Error != nil {
		log.Error("Failed to list vehicles", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve vehicles"})
	}

	now := time.Now()
	views := make([]vehicleView, 0, len(vehicles))
	for _, v := range vehicles {
		views = append(views, withMaintenance(v, now))
	}
	return c.JSON(http.StatusOK, views)
}

// GetVehicle retrieves one vehicle with its maintenance status
func (h *VehicleHandler) GetVehicle(c echo.Context) error {
	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var vehicle model.Vehicle
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&vehicle, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
	}

	return c.JSON(http.StatusOK, withMaintenance(vehicle, time.Now()))
}

func validateVehicleRequest(req *VehicleRequest) string {
	if req.CustomerID == 0 {
		return "customer_id is required"
	}
	if req.VIN != "" && len(req.VIN) != 17 {
		return "vin must be 17 characters when present"
	}
	return ""
}

// CreateVehicle creates a vehicle record
func (h *VehicleHandler) CreateVehicle(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("vehicle", "create")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var req VehicleRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse vehicle request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if msg := validateVehicleRequest(&req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	// owner must be a customer of this tenant
	var count int64
	database.GetDB().WithContext(c.Request().Context()).Model(&model.Customer{}).
		Where("id = ? AND tenant_id = ?", req.CustomerID, t.ID).Count(&count)
	if count == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown customer"})
	}

	vehicle := model.Vehicle{
		TenantID:        t.ID,
		CustomerID:      req.CustomerID,
		Year:            req.Year,
		Make:            req.Make,
		Model:           req.Model,
		VIN:             req.VIN,
		LicensePlate:    req.LicensePlate,
		Mileage:         req.Mileage,
		LastServiceDate: req.LastServiceDate,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().WithContext(c.Request().Context()).Create(&vehicle); result.Error != nil {
		log.Error("Failed to create vehicle", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "vehicle creation failed"})
	}

	log.Info("Vehicle created", zap.Uint("id", vehicle.ID), zap.Uint("tenant_id", t.ID))
	return c.JSON(http.StatusCreated, vehicle)
}

// UpdateVehicle replaces a vehicle record
func (h *VehicleHandler) UpdateVehicle(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("vehicle", "update")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var vehicle model.Vehicle
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&vehicle, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
	}

	var req VehicleRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse vehicle request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if msg := validateVehicleRequest(&req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	vehicle.CustomerID = req.CustomerID
	vehicle.Year = req.Year
	vehicle.Make = req.Make
	vehicle.Model = req.Model
	vehicle.VIN = req.VIN
	vehicle.LicensePlate = req.LicensePlate
	vehicle.Mileage = req.Mileage
	vehicle.LastServiceDate = req.LastServiceDate

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().WithContext(c.Request().Context()).Save(&vehicle); result.Error != nil {
		log.Error("Failed to update vehicle", zap.Uint("id", vehicle.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "vehicle update failed"})
	}

	return c.JSON(http.StatusOK, vehicle)
}

// ListMakes serves the vehicle makes list from the TTL cache
func (h *VehicleHandler) ListMakes(c echo.Context) error {
	makes, err := h.makes.Get(c.Request().Context())
	if err != nil {
		logger.FromEcho(c).Error("Failed to load vehicle makes", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load makes"})
	}
	return c.JSON(http.StatusOK, makes)
}

// SendMaintenanceReminder classifies the vehicle and, when due or overdue,
// sends the matching reminder to the owner. Delivery failure never fails the
// request with a write error; the record is unchanged either way.
func (h *VehicleHandler) SendMaintenanceReminder(c echo.Context) error {
	log := logger.FromEcho(c)

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var vehicle model.Vehicle
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&vehicle, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
	}

	if vehicle.LastServiceDate == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "vehicle has no service history"})
	}

	class := maintenance.Classify(*vehicle.LastServiceDate, time.Now())
	if class.Status == maintenance.StatusGood {
		return c.JSON(http.StatusOK, echo.Map{
			"message":     "no reminder needed",
			"maintenance": class,
		})
	}

	var customer model.Customer
	result = database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&customer, "id = ?", vehicle.CustomerID)
	if result.Error != nil || customer.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer has no email on file"})
	}

	template := notify.TemplateMaintenanceDue
	if class.Status == maintenance.StatusOverdue {
		template = notify.TemplateMaintenanceOverdue
	}

	data := map[string]interface{}{
		"shop":       t.Name,
		"vehicle":    vehicle,
		"days_since": class.DaysSince,
	}
	if err := h.notifier.Send(c.Request().Context(), customer.Email, template, data); err != nil {
		log.Error("Maintenance reminder delivery failed",
			zap.Uint("vehicle_id", vehicle.ID), zap.Error(err))
		prometheus.RecordNotification(string(template), "failure")
		return c.JSON(http.StatusOK, echo.Map{
			"message":     "reminder could not be delivered",
			"maintenance": class,
		})
	}
	prometheus.RecordNotification(string(template), "success")

	return c.JSON(http.StatusOK, echo.Map{
		"message":     "reminder sent",
		"maintenance": class,
	})
}

// ExportVehicles streams the tenant's vehicles as CSV or a JSON array
func (h *VehicleHandler) ExportVehicles(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("vehicle", "export")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}
	if !tenant.HasFeature(t, tenant.FeatureCSVExport) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "plan upgrade required for export"})
	}

	var vehicles []model.Vehicle
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).Order("id").Find(&vehicles)
	if result.Error != nil {
		log.Error("Failed to export vehicles", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}

	if c.QueryParam("format") == "json" {
		return c.JSON(http.StatusOK, vehicles)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="vehicles.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return export.WriteVehiclesCSV(c.Response(), vehicles)
}

// ImportVehicles accepts a vehicle CSV with a header row, or a JSON array,
// and inserts the valid rows under the tenant. Bad rows are reported, good
// rows still land.
func (h *VehicleHandler) ImportVehicles(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("vehicle", "import")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}
	if !tenant.HasFeature(t, tenant.FeatureCSVExport) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "plan upgrade required for import"})
	}

	var vehicles []model.Vehicle
	var rowErrs []export.RowError

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if contentType == echo.MIMEApplicationJSON {
		var rows []VehicleRequest
		if err := c.Bind(&rows); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON array"})
		}
		for i, row := range rows {
			if msg := validateVehicleRequest(&row); msg != "" {
				rowErrs = append(rowErrs, export.RowError{Line: i + 1, Err: msg})
				continue
			}
			vehicles = append(vehicles, model.Vehicle{
				TenantID:        t.ID,
				CustomerID:      row.CustomerID,
				Year:            row.Year,
				Make:            row.Make,
				Model:           row.Model,
				VIN:             row.VIN,
				LicensePlate:    row.LicensePlate,
				Mileage:         row.Mileage,
				LastServiceDate: row.LastServiceDate,
			})
		}
	} else {
		var err error
		vehicles, rowErrs, err = export.ReadVehiclesCSV(c.Request().Body, t.ID)
		if err != nil {
			log.Warn("Vehicle import rejected", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}

	if len(vehicles) > 0 {
		defer prometheus.TrackDBOperation("insert")(time.Now())
		if result := database.GetDB().WithContext(c.Request().Context()).Create(&vehicles); result.Error != nil {
			log.Error("Vehicle import insert failed", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "import failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"imported": len(vehicles),
		"errors":   rowErrs,
	})
}
