package handler

import (
	"net/http"
	"time"

	"shopcrm/internal/model"
	"shopcrm/internal/notify"
	"shopcrm/internal/pricing"
	"shopcrm/internal/workflow"
	"shopcrm/pkg/database"
	"shopcrm/pkg/logger"
	"shopcrm/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EstimateHandler serves estimate CRUD, status moves and conversion
type EstimateHandler struct {
	notifier notify.Notifier
}

// NewEstimateHandler creates an estimate handler
func NewEstimateHandler(notifier notify.Notifier) *EstimateHandler {
	return &EstimateHandler{notifier: notifier}
}

// EstimateRequest defines the structure for estimate creation/update requests
type EstimateRequest struct {
	CustomerID  uint              `json:"customer_id"`
	VehicleID   uint              `json:"vehicle_id"`
	ServiceType string            `json:"service_type"`
	Description string            `json:"description"`
	Priority    string            `json:"priority"`
	ValidUntil  *time.Time        `json:"valid_until,omitempty"`
	LineItems   []LineItemRequest `json:"line_items"`
}

// estimateView decorates an estimate with its line items, dual-pricing quote
// and the actions the transition table allows
type estimateView struct {
	model.Estimate
	LineItems []model.LineItem `json:"line_items"`
	Quote     pricing.Quote    `json:"quote"`
	Actions   []string         `json:"actions"`
}

func (h *EstimateHandler) view(c echo.Context, t *model.Tenant, est model.Estimate) (estimateView, error) {
	items, err := loadLineItems(database.GetDB().WithContext(c.Request().Context()), t.ID, model.LineItemParentEstimate, est.ID)
	if err != nil {
		return estimateView{}, err
	}
	return estimateView{
		Estimate:  est,
		LineItems: items,
		Quote:     pricing.NewQuote(est.Total, t.CardSurchargeRate, t.TaxRate),
		Actions:   workflow.EstimateActions(est.Status, est.Converted()),
	}, nil
}

// ListEstimates retrieves the tenant's estimates, optionally by status
func (h *EstimateHandler) ListEstimates(c echo.Context) error {
	log := logger.FromEcho(c)

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	query := database.GetDB().WithContext(c.Request().Context()).Where("tenant_id = ?", t.ID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID := c.QueryParam("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}

	var estimates []model.Estimate
	if result := query.Order("created_at DESC").Find(&estimates); result.Error != nil {
		log.Error("Failed to list estimates", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve estimates"})
	}

	return c.JSON(http.StatusOK, estimates)
}

// GetEstimate retrieves one estimate with line items, quote and actions
func (h *EstimateHandler) GetEstimate(c echo.Context) error {
	log := logger.FromEcho(c)

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var est model.Estimate
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&est, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "estimate not found"})
	}

	view, err := h.view(c, t, est)
	if err != nil {
		log.Error("Failed to load estimate line items", zap.Uint("id", est.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve estimate"})
	}
	return c.JSON(http.StatusOK, view)
}

// CreateEstimate creates a draft estimate with its line items. The total is
// always recomputed from the lines on the cash basis.
func (h *EstimateHandler) CreateEstimate(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("estimate", "create")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var req EstimateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse estimate request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.CustomerID == 0 || req.VehicleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id and vehicle_id are required"})
	}
	if msg := validateLineItems(req.LineItems); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	est := model.Estimate{
		TenantID:    t.ID,
		CustomerID:  req.CustomerID,
		VehicleID:   req.VehicleID,
		Status:      model.EstimateStatusDraft,
		ServiceType: req.ServiceType,
		Description: req.Description,
		Priority:    req.Priority,
		ValidUntil:  req.ValidUntil,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.GetDB().WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(&est); result.Error != nil {
			return result.Error
		}
		items, err := replaceLineItems(tx, t.ID, model.LineItemParentEstimate, est.ID, req.LineItems)
		if err != nil {
			return err
		}
		est.Total = pricing.Round2(cashSubtotal(items))
		return tx.Model(&est).Update("total", est.Total).Error
	})
	if err != nil {
		log.Error("Failed to create estimate", zap.Uint("tenant_id", t.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "estimate creation failed"})
	}

	log.Info("Estimate created", zap.Uint("id", est.ID), zap.Uint("tenant_id", t.ID))
	view, viewErr := h.view(c, t, est)
	if viewErr != nil {
		return c.JSON(http.StatusCreated, est)
	}
	return c.JSON(http.StatusCreated, view)
}

// UpdateEstimate replaces a draft estimate's fields and line items.
// Estimates that left draft are read-only apart from status moves.
func (h *EstimateHandler) UpdateEstimate(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("estimate", "update")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var est model.Estimate
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&est, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "estimate not found"})
	}

	if est.Status != model.EstimateStatusDraft {
		return c.JSON(http.StatusConflict, echo.Map{"error": "only draft estimates can be edited"})
	}

	var req EstimateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse estimate request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.CustomerID == 0 || req.VehicleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id and vehicle_id are required"})
	}
	if msg := validateLineItems(req.LineItems); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	err := database.GetDB().WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		items, err := replaceLineItems(tx, t.ID, model.LineItemParentEstimate, est.ID, req.LineItems)
		if err != nil {
			return err
		}
		est.CustomerID = req.CustomerID
		est.VehicleID = req.VehicleID
		est.ServiceType = req.ServiceType
		est.Description = req.Description
		est.Priority = req.Priority
		est.ValidUntil = req.ValidUntil
		est.Total = pricing.Round2(cashSubtotal(items))
		return tx.Save(&est).Error
	})
	if err != nil {
		log.Error("Failed to update estimate", zap.Uint("id", est.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "estimate update failed"})
	}

	view, viewErr := h.view(c, t, est)
	if viewErr != nil {
		return c.JSON(http.StatusOK, est)
	}
	return c.JSON(http.StatusOK, view)
}

// SendEstimate moves a draft estimate to sent and notifies the customer.
// Equivalent to the sent status move, as a first-class operation.
func (h *EstimateHandler) SendEstimate(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("estimate", "send")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var est model.Estimate
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&est, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "estimate not found"})
	}

	if !workflow.CanTransition(workflow.KindEstimate, est.Status, model.EstimateStatusSent) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "only draft estimates can be sent"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().WithContext(c.Request().Context()).Model(&est).Update("status", model.EstimateStatusSent); result.Error != nil {
		log.Error("Failed to send estimate", zap.Uint("id", est.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send failed"})
	}

	h.notifyEstimateSent(c, t, &est)

	log.Info("Estimate sent", zap.Uint("id", est.ID), zap.Uint("tenant_id", t.ID))
	view, viewErr := h.view(c, t, est)
	if viewErr != nil {
		return c.JSON(http.StatusOK, est)
	}
	return c.JSON(http.StatusOK, view)
}

// UpdateEstimateStatus moves an estimate through the transition table
func (h *EstimateHandler) UpdateEstimateStatus(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("estimate", "status")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var est model.Estimate
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&est, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "estimate not found"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if !workflow.CanTransition(workflow.KindEstimate, est.Status, req.Status) {
		log.Warn("Illegal estimate transition",
			zap.Uint("id", est.ID), zap.String("from", est.Status), zap.String("to", req.Status))
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   "illegal status transition",
			"allowed": workflow.NextStates(workflow.KindEstimate, est.Status),
		})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().WithContext(c.Request().Context()).Model(&est).Update("status", req.Status); result.Error != nil {
		log.Error("Failed to update estimate status", zap.Uint("id", est.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status update failed"})
	}

	if req.Status == model.EstimateStatusSent {
		h.notifyEstimateSent(c, t, &est)
	}

	log.Info("Estimate status updated",
		zap.Uint("id", est.ID), zap.String("status", req.Status))
	view, viewErr := h.view(c, t, est)
	if viewErr != nil {
		return c.JSON(http.StatusOK, est)
	}
	return c.JSON(http.StatusOK, view)
}

// DeleteEstimate hard-deletes an estimate and its line items. The transition
// table is the single source of truth: any unconverted estimate is deletable.
func (h *EstimateHandler) DeleteEstimate(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("estimate", "delete")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var est model.Estimate
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&est, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "estimate not found"})
	}

	if !workflow.CanDeleteEstimate(&est) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "converted estimates cannot be deleted"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err := database.GetDB().WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("tenant_id = ? AND parent_type = ? AND parent_id = ?", t.ID, model.LineItemParentEstimate, est.ID).
			Delete(&model.LineItem{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&est).Error
	})
	if err != nil {
		log.Error("Failed to delete estimate", zap.Uint("id", est.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "estimate deletion failed"})
	}

	log.Info("Estimate deleted", zap.Uint("id", est.ID), zap.Uint("tenant_id", t.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "estimate deleted"})
}

// ConvertEstimate turns an approved, unconverted estimate into a pending
// work order. The insert, the line item clones and the estimate stamp happen
// in one transaction; a failure anywhere rolls everything back.
func (h *EstimateHandler) ConvertEstimate(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("estimate", "convert")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var est model.Estimate
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&est, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "estimate not found"})
	}

	if !workflow.CanConvertEstimate(&est) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "only approved, unconverted estimates can be converted"})
	}

	now := time.Now()
	wo := workflow.BuildWorkOrder(&est, now)

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.GetDB().WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		items, err := loadLineItems(tx, t.ID, model.LineItemParentEstimate, est.ID)
		if err != nil {
			return err
		}
		if result := tx.Create(&wo); result.Error != nil {
			return result.Error
		}
		clones := workflow.CloneLineItems(items, wo.ID)
		if len(clones) > 0 {
			if result := tx.Create(&clones); result.Error != nil {
				return result.Error
			}
		}
		return tx.Model(&est).Update("converted_work_order_id", wo.ID).Error
	})
	if err != nil {
		log.Error("Estimate conversion failed", zap.Uint("id", est.ID), zap.Error(err))
		prometheus.RecordError("conversion_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "conversion failed"})
	}
	prometheus.ConversionCounter.Inc()

	// notify the customer; delivery failure never unwinds the conversion
	h.notifyWorkOrderCreated(c, t, &wo)

	log.Info("Estimate converted",
		zap.Uint("estimate_id", est.ID), zap.Uint("work_order_id", wo.ID))
	return c.JSON(http.StatusCreated, echo.Map{
		"message":    "estimate converted",
		"work_order": wo,
	})
}

func (h *EstimateHandler) notifyEstimateSent(c echo.Context, t *model.Tenant, est *model.Estimate) {
	log := logger.FromEcho(c)

	var customer model.Customer
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&customer, "id = ?", est.CustomerID)
	if result.Error != nil || customer.Email == "" {
		return
	}

	data := map[string]interface{}{
		"shop":     t.Name,
		"estimate": est,
	}
	if err := h.notifier.Send(c.Request().Context(), customer.Email, notify.TemplateEstimateSent, data); err != nil {
		log.Error("Estimate notification failed", zap.Uint("estimate_id", est.ID), zap.Error(err))
		prometheus.RecordNotification(string(notify.TemplateEstimateSent), "failure")
		return
	}
	prometheus.RecordNotification(string(notify.TemplateEstimateSent), "success")
}

func (h *EstimateHandler) notifyWorkOrderCreated(c echo.Context, t *model.Tenant, wo *model.WorkOrder) {
	log := logger.FromEcho(c)

	var customer model.Customer
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&customer, "id = ?", wo.CustomerID)
	if result.Error != nil || customer.Email == "" {
		return
	}

	data := map[string]interface{}{
		"shop":       t.Name,
		"work_order": wo,
	}
	if err := h.notifier.Send(c.Request().Context(), customer.Email, notify.TemplateWorkOrderCreated, data); err != nil {
		log.Error("Work order notification failed", zap.Uint("work_order_id", wo.ID), zap.Error(err))
		prometheus.RecordNotification(string(notify.TemplateWorkOrderCreated), "failure")
		return
	}
	prometheus.RecordNotification(string(notify.TemplateWorkOrderCreated), "success")
}
