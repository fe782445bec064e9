package handler

import (
	"net/http"
	"time"

	"shopcrm/internal/export"
	"shopcrm/internal/model"
	"shopcrm/internal/notify"
	"shopcrm/internal/pricing"
	"shopcrm/internal/tenant"
	"shopcrm/internal/workflow"
	"shopcrm/pkg/database"
	"shopcrm/pkg/logger"
	"shopcrm/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WorkOrderHandler serves work order CRUD and status moves
type WorkOrderHandler struct {
	notifier notify.Notifier
}

// NewWorkOrderHandler creates a work order handler
func NewWorkOrderHandler(notifier notify.Notifier) *WorkOrderHandler {
	return &WorkOrderHandler{notifier: notifier}
}

// WorkOrderRequest defines the structure for work order creation/update requests
type WorkOrderRequest struct {
	CustomerID          uint              `json:"customer_id"`
	VehicleID           uint              `json:"vehicle_id"`
	ServiceType         string            `json:"service_type"`
	Description         string            `json:"description"`
	Priority            string            `json:"priority"`
	EstimatedCompletion *time.Time        `json:"estimated_completion,omitempty"`
	LineItems           []LineItemRequest `json:"line_items"`
}

// workOrderView decorates a work order with line items, dual-pricing quote
// and allowed actions
type workOrderView struct {
	model.WorkOrder
	LineItems  []model.LineItem `json:"line_items"`
	Quote      pricing.Quote    `json:"quote"`
	Actions    []string         `json:"actions"`
	NextStates []string         `json:"next_states"`
}

func (h *WorkOrderHandler) view(c echo.Context, t *model.Tenant, wo model.WorkOrder) (workOrderView, error) {
	items, err := loadLineItems(database.GetDB().WithContext(c.Request().Context()), t.ID, model.LineItemParentWorkOrder, wo.ID)
	if err != nil {
		return workOrderView{}, err
	}
	return workOrderView{
		WorkOrder:  wo,
		LineItems:  items,
		Quote:      pricing.NewQuote(wo.Total, t.CardSurchargeRate, t.TaxRate),
		Actions:    workflow.WorkOrderActions(wo.Status),
		NextStates: workflow.NextStates(workflow.KindWorkOrder, wo.Status),
	}, nil
}

// ListWorkOrders retrieves the tenant's work orders, optionally by status or customer
func (h *WorkOrderHandler) ListWorkOrders(c echo.Context) error {
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

	var orders []model.WorkOrder
	if result := query.Order("created_at DESC").Find(&orders); result.Error != nil {
		log.Error("Failed to list work orders", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve work orders"})
	}

	return c.JSON(http.StatusOK, orders)
}

// GetWorkOrder retrieves one work order with line items, quote and actions
func (h *WorkOrderHandler) GetWorkOrder(c echo.Context) error {
	log := logger.FromEcho(c)

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var wo model.WorkOrder
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&wo, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "work order not found"})
	}

	view, err := h.view(c, t, wo)
	if err != nil {
		log.Error("Failed to load work order line items", zap.Uint("id", wo.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve work order"})
	}
	return c.JSON(http.StatusOK, view)
}

// CreateWorkOrder creates a pending work order directly (without an estimate)
func (h *WorkOrderHandler) CreateWorkOrder(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("work_order", "create")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var req WorkOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse work order request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.CustomerID == 0 || req.VehicleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id and vehicle_id are required"})
	}
	if msg := validateLineItems(req.LineItems); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	wo := model.WorkOrder{
		TenantID:            t.ID,
		CustomerID:          req.CustomerID,
		VehicleID:           req.VehicleID,
		Status:              model.WorkOrderStatusPending,
		ServiceType:         req.ServiceType,
		Description:         req.Description,
		Priority:            req.Priority,
		EstimatedCompletion: req.EstimatedCompletion,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.GetDB().WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(&wo); result.Error != nil {
			return result.Error
		}
		items, err := replaceLineItems(tx, t.ID, model.LineItemParentWorkOrder, wo.ID, req.LineItems)
		if err != nil {
			return err
		}
		wo.Total = pricing.Round2(cashSubtotal(items))
		return tx.Model(&wo).Update("total", wo.Total).Error
	})
	if err != nil {
		log.Error("Failed to create work order", zap.Uint("tenant_id", t.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "work order creation failed"})
	}

	h.notifyCustomer(c, t, &wo, notify.TemplateWorkOrderCreated)

	log.Info("Work order created", zap.Uint("id", wo.ID), zap.Uint("tenant_id", t.ID))
	view, viewErr := h.view(c, t, wo)
	if viewErr != nil {
		return c.JSON(http.StatusCreated, wo)
	}
	return c.JSON(http.StatusCreated, view)
}

// UpdateWorkOrder replaces a work order's fields and line items while it has
// not reached a terminal state
func (h *WorkOrderHandler) UpdateWorkOrder(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("work_order", "update")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var wo model.WorkOrder
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&wo, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "work order not found"})
	}

	if workflow.IsTerminal(workflow.KindWorkOrder, wo.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "picked up work orders cannot be edited"})
	}

	var req WorkOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse work order request", zap.Error(err))
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
		items, err := replaceLineItems(tx, t.ID, model.LineItemParentWorkOrder, wo.ID, req.LineItems)
		if err != nil {
			return err
		}
		wo.CustomerID = req.CustomerID
		wo.VehicleID = req.VehicleID
		wo.ServiceType = req.ServiceType
		wo.Description = req.Description
		wo.Priority = req.Priority
		wo.EstimatedCompletion = req.EstimatedCompletion
		wo.Total = pricing.Round2(cashSubtotal(items))
		return tx.Save(&wo).Error
	})
	if err != nil {
		log.Error("Failed to update work order", zap.Uint("id", wo.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "work order update failed"})
	}

	view, viewErr := h.view(c, t, wo)
	if viewErr != nil {
		return c.JSON(http.StatusOK, wo)
	}
	return c.JSON(http.StatusOK, view)
}

// UpdateWorkOrderStatus advances a work order through the transition table.
// Completing a job stamps the completion time, updates the vehicle's last
// service date and notifies the customer.
func (h *WorkOrderHandler) UpdateWorkOrderStatus(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("work_order", "status")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var wo model.WorkOrder
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&wo, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "work order not found"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if !workflow.CanTransition(workflow.KindWorkOrder, wo.Status, req.Status) {
		log.Warn("Illegal work order transition",
			zap.Uint("id", wo.ID), zap.String("from", wo.Status), zap.String("to", req.Status))
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   "illegal status transition",
			"allowed": workflow.NextStates(workflow.KindWorkOrder, wo.Status),
		})
	}

	now := time.Now()
	updates := map[string]interface{}{"status": req.Status}
	if req.Status == model.WorkOrderStatusCompleted {
		updates["completed_at"] = now
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	err := database.GetDB().WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		if result := tx.Model(&wo).Updates(updates); result.Error != nil {
			return result.Error
		}
		if req.Status == model.WorkOrderStatusCompleted {
			// completing a job is the vehicle's new last service date
			return tx.Model(&model.Vehicle{}).
				Where("id = ? AND tenant_id = ?", wo.VehicleID, t.ID).
				Update("last_service_date", now).Error
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to update work order status", zap.Uint("id", wo.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status update failed"})
	}

	if req.Status == model.WorkOrderStatusCompleted {
		h.notifyCustomer(c, t, &wo, notify.TemplateWorkOrderCompleted)
	}

	log.Info("Work order status updated",
		zap.Uint("id", wo.ID), zap.String("status", req.Status))
	view, viewErr := h.view(c, t, wo)
	if viewErr != nil {
		return c.JSON(http.StatusOK, wo)
	}
	return c.JSON(http.StatusOK, view)
}

// ExportWorkOrders streams the tenant's work orders as CSV or a JSON array
func (h *WorkOrderHandler) ExportWorkOrders(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("work_order", "export")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}
	if !tenant.HasFeature(t, tenant.FeatureCSVExport) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "plan upgrade required for export"})
	}

	var orders []model.WorkOrder
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).Order("id").Find(&orders)
	if result.Error != nil {
		log.Error("Failed to export work orders", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}

	if c.QueryParam("format") == "json" {
		return c.JSON(http.StatusOK, orders)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="work_orders.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return export.WriteWorkOrdersCSV(c.Response(), orders)
}

func (h *WorkOrderHandler) notifyCustomer(c echo.Context, t *model.Tenant, wo *model.WorkOrder, template notify.TemplateKey) {
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
	if err := h.notifier.Send(c.Request().Context(), customer.Email, template, data); err != nil {
		log.Error("Work order notification failed",
			zap.Uint("work_order_id", wo.ID), zap.String("template", string(template)), zap.Error(err))
		prometheus.RecordNotification(string(template), "failure")
		return
	}
	prometheus.RecordNotification(string(template), "success")
}
