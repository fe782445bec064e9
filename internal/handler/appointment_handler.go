package handler

import (
	"net/http"
	"time"

	"shopcrm/internal/model"
	"shopcrm/internal/notify"
	"shopcrm/internal/tenant"
	"shopcrm/pkg/database"
	"shopcrm/pkg/logger"
	"shopcrm/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AppointmentHandler serves appointment scheduling. All routes are gated on
// the appointments feature (every tier has it, but a tenant with an unknown
// tier gets nothing).
type AppointmentHandler struct {
	notifier notify.Notifier
}

// NewAppointmentHandler creates an appointment handler
func NewAppointmentHandler(notifier notify.Notifier) *AppointmentHandler {
	return &AppointmentHandler{notifier: notifier}
}

// AppointmentRequest defines the structure for appointment requests
type AppointmentRequest struct {
	CustomerID  uint      `json:"customer_id"`
	VehicleID   *uint     `json:"vehicle_id,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Notes       string    `json:"notes"`
}

func requireAppointments(c echo.Context) (*model.Tenant, bool) {
	t, ok := tenantFromContext(c)
	if !ok {
		c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		return nil, false
	}
	if !tenant.HasFeature(t, tenant.FeatureAppointments) {
		c.JSON(http.StatusForbidden, echo.Map{"error": "plan upgrade required for appointments"})
		return nil, false
	}
	return t, true
}

// ListAppointments retrieves the tenant's appointments, optionally filtered
// by status, customer or a from/to window on the scheduled time
func (h *AppointmentHandler) ListAppointments(c echo.Context) error {
	log := logger.FromEcho(c)

	t, ok := requireAppointments(c)
	if !ok {
		return nil
	}

	query := database.GetDB().WithContext(c.Request().Context()).Where("tenant_id = ?", t.ID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID := c.QueryParam("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if from := c.QueryParam("from"); from != "" {
		if ts, err := time.Parse(time.RFC3339, from); err == nil {
			query = query.Where("scheduled_at >= ?", ts)
		}
	}
	if to := c.QueryParam("to"); to != "" {
		if ts, err := time.Parse(time.RFC3339, to); err == nil {
			query = query.Where("scheduled_at < ?", ts)
		}
	}

	var appointments []model.Appointment
	if result := query.Order("scheduled_at").Find(&appointments); result.Error != nil {
		log.Error("Failed to list appointments", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve appointments"})
	}

	return c.JSON(http.StatusOK, appointments)
}

// GetAppointment retrieves one appointment
func (h *AppointmentHandler) GetAppointment(c echo.Context) error {
	t, ok := requireAppointments(c)
	if !ok {
		return nil
	}

	var appt model.Appointment
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&appt, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
	}

	return c.JSON(http.StatusOK, appt)
}

// CreateAppointment schedules a visit and sends a confirmation to the customer
func (h *AppointmentHandler) CreateAppointment(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("appointment", "create")

	t, ok := requireAppointments(c)
	if !ok {
		return nil
	}

	var req AppointmentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse appointment request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.CustomerID == 0 || req.ScheduledAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id and scheduled_at are required"})
	}
	if req.ScheduledAt.Before(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_at must be in the future"})
	}

	var customer model.Customer
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&customer, "id = ?", req.CustomerID)
	if result.Error != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer not found"})
	}

	appt := model.Appointment{
		TenantID:    t.ID,
		CustomerID:  req.CustomerID,
		VehicleID:   req.VehicleID,
		ScheduledAt: req.ScheduledAt,
		Status:      model.AppointmentStatusScheduled,
		Notes:       req.Notes,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().WithContext(c.Request().Context()).Create(&appt); result.Error != nil {
		log.Error("Failed to create appointment", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "appointment creation failed"})
	}

	h.send(c, t, &customer, &appt, notify.TemplateAppointmentConfirmed)

	log.Info("Appointment created",
		zap.Uint("id", appt.ID), zap.Time("scheduled_at", appt.ScheduledAt))
	return c.JSON(http.StatusCreated, appt)
}

// UpdateAppointment reschedules or edits an appointment that has not been
// completed or canceled
func (h *AppointmentHandler) UpdateAppointment(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("appointment", "update")

	t, ok := requireAppointments(c)
	if !ok {
		return nil
	}

	var appt model.Appointment
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&appt, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
	}

	if appt.Status == model.AppointmentStatusCompleted || appt.Status == model.AppointmentStatusCanceled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "appointment can no longer be edited"})
	}

	var req AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.CustomerID == 0 || req.ScheduledAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id and scheduled_at are required"})
	}

	rescheduled := !appt.ScheduledAt.Equal(req.ScheduledAt)
	updates := map[string]interface{}{
		"customer_id":  req.CustomerID,
		"vehicle_id":   req.VehicleID,
		"scheduled_at": req.ScheduledAt,
		"notes":        req.Notes,
	}
	if rescheduled {
		// a moved appointment needs to be confirmed and reminded again
		updates["status"] = model.AppointmentStatusScheduled
		updates["reminder_sent_at"] = nil
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().WithContext(c.Request().Context()).Model(&appt).Updates(updates); result.Error != nil {
		log.Error("Failed to update appointment", zap.Uint("id", appt.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "appointment update failed"})
	}

	return c.JSON(http.StatusOK, appt)
}

// UpdateAppointmentStatus moves an appointment between scheduled, confirmed,
// completed and canceled
func (h *AppointmentHandler) UpdateAppointmentStatus(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("appointment", "status")

	t, ok := requireAppointments(c)
	if !ok {
		return nil
	}

	var appt model.Appointment
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&appt, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	switch req.Status {
	case model.AppointmentStatusScheduled, model.AppointmentStatusConfirmed,
		model.AppointmentStatusCompleted, model.AppointmentStatusCanceled:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	if appt.Status == model.AppointmentStatusCompleted || appt.Status == model.AppointmentStatusCanceled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "appointment is already closed"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().WithContext(c.Request().Context()).Model(&appt).Update("status", req.Status); result.Error != nil {
		log.Error("Failed to update appointment status", zap.Uint("id", appt.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status update failed"})
	}

	log.Info("Appointment status updated", zap.Uint("id", appt.ID), zap.String("status", req.Status))
	return c.JSON(http.StatusOK, appt)
}

// SendAppointmentReminder sends a reminder for an upcoming appointment and
// stamps reminder_sent_at so it is not sent twice
func (h *AppointmentHandler) SendAppointmentReminder(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("appointment", "remind")

	t, ok := requireAppointments(c)
	if !ok {
		return nil
	}

	var appt model.Appointment
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&appt, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
	}

	if appt.Status == model.AppointmentStatusCompleted || appt.Status == model.AppointmentStatusCanceled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "appointment is already closed"})
	}
	if appt.ReminderSentAt != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reminder already sent"})
	}

	var customer model.Customer
	result = database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&customer, "id = ?", appt.CustomerID)
	if result.Error != nil || customer.Email == "" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "customer has no contact address"})
	}

	if !h.send(c, t, &customer, &appt, notify.TemplateAppointmentReminder) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reminder delivery failed"})
	}

	now := time.Now()
	if result := database.GetDB().WithContext(c.Request().Context()).Model(&appt).Update("reminder_sent_at", now); result.Error != nil {
		log.Error("Failed to stamp reminder", zap.Uint("id", appt.ID), zap.Error(result.Error))
	}

	log.Info("Appointment reminder sent", zap.Uint("id", appt.ID))
	return c.JSON(http.StatusOK, appt)
}

// DeleteAppointment removes an appointment outright
func (h *AppointmentHandler) DeleteAppointment(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("appointment", "delete")

	t, ok := requireAppointments(c)
	if !ok {
		return nil
	}

	var appt model.Appointment
	db := database.GetDB().WithContext(c.Request().Context())
	result := db.Where("tenant_id = ?", t.ID).First(&appt, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
	}

	if result := db.Delete(&appt); result.Error != nil {
		log.Error("Failed to delete appointment", zap.Uint("id", appt.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "appointment deletion failed"})
	}

	return c.NoContent(http.StatusNoContent)
}

// send delivers an appointment notification, recording the outcome. Failures
// are logged and counted but never fail the calling request except where the
// caller decides they should.
func (h *AppointmentHandler) send(c echo.Context, t *model.Tenant, customer *model.Customer, appt *model.Appointment, template notify.TemplateKey) bool {
	log := logger.FromEcho(c)

	if customer.Email == "" {
		return false
	}
	data := map[string]interface{}{
		"shop":         t.Name,
		"customer":     customer.FirstName,
		"scheduled_at": appt.ScheduledAt,
		"notes":        appt.Notes,
	}
	if err := h.notifier.Send(c.Request().Context(), customer.Email, template, data); err != nil {
		log.Error("Appointment notification failed",
			zap.Uint("appointment_id", appt.ID), zap.String("template", string(template)), zap.Error(err))
		prometheus.RecordNotification(string(template), "failure")
		return false
	}
	prometheus.RecordNotification(string(template), "success")
	return true
}
