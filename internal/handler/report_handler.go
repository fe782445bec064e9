package handler

import (
	"net/http"
	"time"

	"shopcrm/internal/maintenance"
	"shopcrm/internal/model"
	"shopcrm/internal/tenant"
	"shopcrm/pkg/database"
	"shopcrm/pkg/logger"
	"shopcrm/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ReportHandler serves aggregate reporting, gated on the reports feature
// (pro tier and above)
type ReportHandler struct{}

// NewReportHandler creates a report handler
func NewReportHandler() *ReportHandler {
	return &ReportHandler{}
}

func requireReports(c echo.Context) (*model.Tenant, bool) {
	t, ok := tenantFromContext(c)
	if !ok {
		c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		return nil, false
	}
	if !tenant.HasFeature(t, tenant.FeatureReports) {
		c.JSON(http.StatusForbidden, echo.Map{"error": "plan upgrade required for reports"})
		return nil, false
	}
	return t, true
}

// ShopSummary returns entity counts and workload at a glance
func (h *ReportHandler) ShopSummary(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("report", "summary")

	t, ok := requireReports(c)
	if !ok {
		return nil
	}

	db := database.GetDB().WithContext(c.Request().Context())
	counts := map[string]int64{}
	for name, m := range map[string]interface{}{
		"customers":    &model.Customer{},
		"vehicles":     &model.Vehicle{},
		"estimates":    &model.Estimate{},
		"work_orders":  &model.WorkOrder{},
		"invoices":     &model.Invoice{},
		"appointments": &model.Appointment{},
	} {
		var n int64
		if err := db.Model(m).Where("tenant_id = ?", t.ID).Count(&n).Error; err != nil {
			log.Error("Failed to count entities", zap.String("entity", name), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
		}
		counts[name] = n
	}

	var openWorkOrders int64
	err := db.Model(&model.WorkOrder{}).
		Where("tenant_id = ? AND status NOT IN ?", t.ID, []string{model.WorkOrderStatusPickedUp}).
		Count(&openWorkOrders).Error
	if err != nil {
		log.Error("Failed to count open work orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}

	var lowStock int64
	if tenant.HasFeature(t, tenant.FeatureInventory) {
		err = db.Model(&model.Part{}).
			Where("tenant_id = ? AND quantity_on_hand <= min_stock", t.ID).
			Count(&lowStock).Error
		if err != nil {
			log.Error("Failed to count low stock parts", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"counts":           counts,
		"open_work_orders": openWorkOrders,
		"low_stock_parts":  lowStock,
	})
}

// RevenueReport sums paid invoices over an optional from/to window, split by
// payment method. Card revenue reflects the snapshotted card totals, so the
// processing fee column is exactly what surcharging recovered.
func (h *ReportHandler) RevenueReport(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("report", "revenue")

	t, ok := requireReports(c)
	if !ok {
		return nil
	}

	query := database.GetDB().WithContext(c.Request().Context()).
		Model(&model.Invoice{}).
		Where("tenant_id = ? AND status = ?", t.ID, model.InvoiceStatusPaid)
	if from := c.QueryParam("from"); from != "" {
		if ts, err := time.Parse(time.RFC3339, from); err == nil {
			query = query.Where("paid_at >= ?", ts)
		}
	}
	if to := c.QueryParam("to"); to != "" {
		if ts, err := time.Parse(time.RFC3339, to); err == nil {
			query = query.Where("paid_at < ?", ts)
		}
	}

	type methodRow struct {
		PaymentMethod string
		Count         int64
		Total         float64
		Fees          float64
	}
	var rows []methodRow
	err := query.
		Select("payment_method, COUNT(*) AS count, COALESCE(SUM(amount_paid), 0) AS total, COALESCE(SUM(processing_fee), 0) AS fees").
		Group("payment_method").
		Scan(&rows).Error
	if err != nil {
		log.Error("Failed to aggregate revenue", zap.Uint("tenant_id", t.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}

	byMethod := map[string]echo.Map{}
	var totalRevenue float64
	var totalInvoices int64
	var cardFees float64
	for _, row := range rows {
		byMethod[row.PaymentMethod] = echo.Map{
			"invoices": row.Count,
			"revenue":  row.Total,
		}
		totalRevenue += row.Total
		totalInvoices += row.Count
		if row.PaymentMethod == "card" {
			cardFees = row.Fees
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_revenue":  totalRevenue,
		"total_invoices": totalInvoices,
		"by_method":      byMethod,
		"card_fees":      cardFees,
	})
}

// MaintenanceReport classifies every vehicle with a known service date and
// returns the due and overdue lists with per-vehicle day counts
func (h *ReportHandler) MaintenanceReport(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("report", "maintenance")

	t, ok := requireReports(c)
	if !ok {
		return nil
	}

	var vehicles []model.Vehicle
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ? AND last_service_date IS NOT NULL", t.ID).
		Find(&vehicles)
	if result.Error != nil {
		log.Error("Failed to load vehicles", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}

	type vehicleRow struct {
		model.Vehicle
		DaysSince int `json:"days_since_service"`
	}
	now := time.Now()
	due := []vehicleRow{}
	overdue := []vehicleRow{}
	for _, v := range vehicles {
		res := maintenance.Classify(*v.LastServiceDate, now)
		switch res.Status {
		case maintenance.StatusDue:
			due = append(due, vehicleRow{Vehicle: v, DaysSince: res.DaysSince})
		case maintenance.StatusOverdue:
			overdue = append(overdue, vehicleRow{Vehicle: v, DaysSince: res.DaysSince})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"due":     due,
		"overdue": overdue,
	})
}
