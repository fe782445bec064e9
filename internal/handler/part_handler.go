package handler

import (
	"errors"
	"net/http"
	"time"

	"shopcrm/internal/inventory"
	"shopcrm/internal/model"
	"shopcrm/internal/tenant"
	"shopcrm/pkg/database"
	"shopcrm/pkg/logger"
	"shopcrm/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartHandler serves parts inventory. Every route is gated on the
// inventory feature (pro tier and above).
type PartHandler struct{}

// NewPartHandler creates a part handler
func NewPartHandler() *PartHandler {
	return &PartHandler{}
}

// PartRequest defines the structure for part creation/update requests
type PartRequest struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	UnitCost    float64 `json:"unit_cost"`
	RetailPrice float64 `json:"retail_price"`
	MinStock    int     `json:"min_stock"`
	MaxStock    int     `json:"max_stock"`
}

func requireInventory(c echo.Context) (*model.Tenant, bool) {
	t, ok := tenantFromContext(c)
	if !ok {
		c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		return nil, false
	}
	if !tenant.HasFeature(t, tenant.FeatureInventory) {
		c.JSON(http.StatusForbidden, echo.Map{"error": "plan upgrade required for inventory"})
		return nil, false
	}
	return t, true
}

// ListParts retrieves the tenant's parts. ?low_stock=true keeps only parts
// at or below their minimum.
func (h *PartHandler) ListParts(c echo.Context) error {
	log := logger.FromEcho(c)

	t, ok := requireInventory(c)
	if !ok {
		return nil
	}

	query := database.GetDB().WithContext(c.Request().Context()).Where("tenant_id = ?", t.ID)
	if search := c.QueryParam("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("sku ILIKE ? OR name ILIKE ?", pattern, pattern)
	}
	if c.QueryParam("low_stock") == "true" {
		query = query.Where("quantity_on_hand <= min_stock")
	}

	var parts []model.Part
	if result := query.Order("sku").Find(&parts); result.Error != nil {
		log.Error("Failed to list parts", zap.Uint("tenant_id", t.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve parts"})
	}

	return c.JSON(http.StatusOK, parts)
}

// GetPart retrieves one part
func (h *PartHandler) GetPart(c echo.Context) error {
	t, ok := requireInventory(c)
	if !ok {
		return nil
	}

	var part model.Part
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&part, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "part not found"})
	}

	return c.JSON(http.StatusOK, part)
}

// CreatePart adds a part to inventory with zero stock on hand
func (h *PartHandler) CreatePart(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("part", "create")

	t, ok := requireInventory(c)
	if !ok {
		return nil
	}

	var req PartRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse part request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.SKU == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sku and name are required"})
	}

	var existing model.Part
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ? AND sku = ?", t.ID, req.SKU).
		First(&existing)
	if result.Error == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "sku already exists"})
	}

	part := model.Part{
		TenantID:    t.ID,
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		UnitCost:    req.UnitCost,
		RetailPrice: req.RetailPrice,
		MinStock:    req.MinStock,
		MaxStock:    req.MaxStock,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().WithContext(c.Request().Context()).Create(&part); result.Error != nil {
		log.Error("Failed to create part", zap.String("sku", req.SKU), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "part creation failed"})
	}

	log.Info("Part created", zap.Uint("id", part.ID), zap.String("sku", part.SKU))
	return c.JSON(http.StatusCreated, part)
}

// UpdatePart replaces a part's catalog fields. Stock is only changed through
// AdjustStock.
func (h *PartHandler) UpdatePart(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("part", "update")

	t, ok := requireInventory(c)
	if !ok {
		return nil
	}

	var part model.Part
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&part, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "part not found"})
	}

	var req PartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.SKU == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sku and name are required"})
	}

	updates := map[string]interface{}{
		"sku":          req.SKU,
		"name":         req.Name,
		"description":  req.Description,
		"unit_cost":    req.UnitCost,
		"retail_price": req.RetailPrice,
		"min_stock":    req.MinStock,
		"max_stock":    req.MaxStock,
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().WithContext(c.Request().Context()).Model(&part).Updates(updates); result.Error != nil {
		log.Error("Failed to update part", zap.Uint("id", part.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "part update failed"})
	}

	return c.JSON(http.StatusOK, part)
}

// AdjustStock applies a signed delta to a part's quantity on hand. The row is
// locked for the duration so concurrent adjustments serialize, and a delta
// that would go negative is rejected with 409 leaving the quantity untouched.
func (h *PartHandler) AdjustStock(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("part", "adjust_stock")

	t, ok := requireInventory(c)
	if !ok {
		return nil
	}

	var req struct {
		Delta  int    `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var part model.Part
	defer prometheus.TrackDBOperation("update")(time.Now())
	err := database.GetDB().WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ?", t.ID).
			First(&part, "id = ?", c.Param("id"))
		if result.Error != nil {
			return result.Error
		}
		next, err := inventory.ApplyAdjustment(part.QuantityOnHand, req.Delta)
		if err != nil {
			return err
		}
		part.QuantityOnHand = next
		return tx.Model(&part).Update("quantity_on_hand", next).Error
	})
	if err != nil {
		if errors.Is(err, inventory.ErrInsufficientStock) {
			prometheus.StockRejectionCounter.Inc()
			log.Warn("Stock adjustment rejected",
				zap.Uint("tenant_id", t.ID), zap.Int("delta", req.Delta), zap.String("reason", req.Reason))
			return c.JSON(http.StatusConflict, echo.Map{"error": "adjustment would make stock negative"})
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "part not found"})
		}
		log.Error("Failed to adjust stock", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stock adjustment failed"})
	}

	log.Info("Stock adjusted",
		zap.Uint("id", part.ID), zap.Int("delta", req.Delta),
		zap.Int("quantity_on_hand", part.QuantityOnHand), zap.String("reason", req.Reason))
	return c.JSON(http.StatusOK, echo.Map{
		"part":      part,
		"low_stock": part.LowStock(),
	})
}

// DeletePart soft deletes a part
func (h *PartHandler) DeletePart(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordOperation("part", "delete")

	t, ok := requireInventory(c)
	if !ok {
		return nil
	}

	var part model.Part
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("tenant_id = ?", t.ID).
		First(&part, "id = ?", c.Param("id"))
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "part not found"})
	}

	if result := database.GetDB().WithContext(c.Request().Context()).Delete(&part); result.Error != nil {
		log.Error("Failed to delete part", zap.Uint("id", part.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "part deletion failed"})
	}

	log.Info("Part deleted", zap.Uint("id", part.ID))
	return c.NoContent(http.StatusNoContent)
}
