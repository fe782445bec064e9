package handler

import (
	"fmt"
	"net/http"
	"time"

	"shopcrm/internal/model"
	"shopcrm/internal/pricing"
	"shopcrm/pkg/database"
	"shopcrm/pkg/logger"
	"shopcrm/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// InvoiceHandler serves invoices. An invoice is created in draft from a
// completed work order. Finalizing snapshots the tenant's tax and surcharge
// rates and the derived card total onto the invoice; rate changes after that
// point never move a finalized bill.
type InvoiceHandler struct{}

// NewInvoiceHandler creates an invoice handler
func NewInvoiceHandler() *InvoiceHandler {
	return &InvoiceHandler{}
}

// invoiceNumber builds a unique human-readable invoice number
func invoiceNumber(tenantID uint, now time.Time) string {
	return fmt.Sprintf("INV-%d-%s-%s", tenantID, now.Format("20060102"), uuid.New().String()[:8])
}

// ListInvoices retrieves the tenant's invoices, optionally by status
func (h *InvoiceHandler) ListInvoices(c echo.Context) error {
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

	var invoices []model.Invoice
	if result := query.Order("created_at DESC").Find(&invoices); result.Error != nil {
		log.Error("Failed to list invoices", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve invoices"})
	}

	return c.JSON(http.StatusOK, invoices)
}

// GetInvoice retrieves one invoice. Drafts carry a live quote at the tenant's
// current rates; finalized and paid invoices return their snapshots.
func (h *InvoiceHandler) GetInvoice(c echo.Context) error {
	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var invoice model.Invoice
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&invoice, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	if invoice.Status == model.InvoiceStatusDraft {
		quote := pricing.NewQuote(invoice.CashTotal, t.CardSurchargeRate, t.TaxRate)
		return c.JSON(http.StatusOK, echo.Map{"invoice": invoice, "quote": quote})
	}
	return c.JSON(http.StatusOK, echo.Map{"invoice": invoice})
}

// CreateInvoice creates a draft invoice from a completed work order. The cash
// total comes from the work order; card figures stay unsnapshotted until
// finalize.
func (h *InvoiceHandler) CreateInvoice(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("invoice", "create")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var req struct {
		WorkOrderID uint `json:"work_order_id"`
	}
	if err := c.Bind(&req); err != nil || req.WorkOrderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "work_order_id is required"})
	}

	var wo model.WorkOrder
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&wo, "id = ?", req.WorkOrderID)
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "work order not found"})
	}

	if wo.Status != model.WorkOrderStatusCompleted && wo.Status != model.WorkOrderStatusPickedUp {
		return c.JSON(http.StatusConflict, echo.Map{"error": "work order is not completed"})
	}

	var existing model.Invoice
	result = database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ? AND work_order_id = ?", t.ID, wo.ID).
		First(&existing)
	if result.Error == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "work order already invoiced"})
	}

	invoice := model.Invoice{
		TenantID:    t.ID,
		WorkOrderID: wo.ID,
		CustomerID:  wo.CustomerID,
		Number:      invoiceNumber(t.ID, time.Now()),
		Status:      model.InvoiceStatusDraft,
		CashTotal:   wo.Total,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().WithContext(c.Request().Context()).Create(&invoice); result.Error != nil {
		log.Error("Failed to create invoice", zap.Uint("work_order_id", wo.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invoice creation failed"})
	}

	log.Info("Invoice created",
		zap.Uint("id", invoice.ID), zap.String("number", invoice.Number), zap.Uint("work_order_id", wo.ID))
	return c.JSON(http.StatusCreated, invoice)
}

// FinalizeInvoice locks a draft invoice, snapshotting the tenant's current
// tax rate, surcharge rate, card total and processing fee
func (h *InvoiceHandler) FinalizeInvoice(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("invoice", "finalize")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var invoice model.Invoice
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&invoice, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	if invoice.Status != model.InvoiceStatusDraft {
		return c.JSON(http.StatusConflict, echo.Map{"error": "only draft invoices can be finalized"})
	}

	quote := pricing.NewQuote(invoice.CashTotal, t.CardSurchargeRate, t.TaxRate)
	now := time.Now()

	defer prometheus.TrackDBOperation("update")(time.Now())
	err := database.GetDB().WithContext(c.Request().Context()).Model(&invoice).Updates(map[string]interface{}{
		"status":         model.InvoiceStatusFinalized,
		"cash_total":     quote.CashTotal,
		"tax_rate":       quote.TaxRate,
		"surcharge_rate": quote.SurchargeRate,
		"card_total":     quote.CardTotal,
		"processing_fee": quote.ProcessingFee,
		"finalized_at":   now,
	}).Error
	if err != nil {
		log.Error("Failed to finalize invoice", zap.Uint("id", invoice.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invoice finalization failed"})
	}

	log.Info("Invoice finalized",
		zap.Uint("id", invoice.ID), zap.String("number", invoice.Number),
		zap.Float64("cash_total", quote.CashTotal), zap.Float64("card_total", quote.CardTotal))
	return c.JSON(http.StatusOK, invoice)
}

// MarkInvoicePaid records payment against a finalized invoice. The amount
// owed depends on the method: cash pays the cash total, card pays the
// snapshotted card total.
func (h *InvoiceHandler) MarkInvoicePaid(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("invoice", "pay")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var invoice model.Invoice
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&invoice, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	if invoice.Status != model.InvoiceStatusFinalized {
		return c.JSON(http.StatusConflict, echo.Map{"error": "only finalized invoices can be paid"})
	}

	var req struct {
		Method string `json:"method"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var amount float64
	switch req.Method {
	case "cash":
		amount = invoice.CashTotal
	case "card":
		amount = invoice.CardTotal
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "method must be cash or card"})
	}

	now := time.Now()
	defer prometheus.TrackDBOperation("update")(time.Now())
	err := database.GetDB().WithContext(c.Request().Context()).Model(&invoice).Updates(map[string]interface{}{
		"status":         model.InvoiceStatusPaid,
		"payment_method": req.Method,
		"amount_paid":    amount,
		"paid_at":        now,
	}).Error
	if err != nil {
		log.Error("Failed to mark invoice paid", zap.Uint("id", invoice.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment recording failed"})
	}

	log.Info("Invoice paid",
		zap.Uint("id", invoice.ID), zap.String("method", req.Method), zap.Float64("amount", amount))
	return c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice removes a draft invoice. Finalized and paid invoices are
// immutable records and cannot be deleted.
func (h *InvoiceHandler) DeleteInvoice(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("invoice", "delete")

	t, ok := tenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var invoice model.Invoice
	db := database.GetDB().WithContext(c.Request().Context())
	result := db.Where("tenant_id = ?", t.ID).First(&invoice, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	if invoice.Status != model.InvoiceStatusDraft {
		return c.JSON(http.StatusConflict, echo.Map{"error": "finalized invoices cannot be deleted"})
	}

	if result := db.Delete(&invoice); result.Error != nil {
		log.Error("Failed to delete invoice", zap.Uint("id", invoice.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invoice deletion failed"})
	}

	log.Info("Invoice deleted", zap.Uint("id", invoice.ID))
	return c.NoContent(http.StatusNoContent)
}
