package handler

import (
	"shopcrm/internal/model"

	"gorm.io/gorm"
)

// LineItemRequest is the wire form of a line item on estimate/work order writes
type LineItemRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"` // cash basis
	ItemType    string  `json:"item_type"`
	PartID      *uint   `json:"part_id,omitempty"`
}

func validateLineItems(reqs []LineItemRequest) string {
	for _, r := range reqs {
		if r.Description == "" {
			return "line item description is required"
		}
		if r.Quantity <= 0 {
			return "line item quantity must be positive"
		}
		if r.UnitPrice < 0 {
			return "line item unit price must not be negative"
		}
		switch r.ItemType {
		case model.LineItemTypeLabor, model.LineItemTypePart, model.LineItemTypeFee:
		default:
			return "line item type must be labor, part or fee"
		}
	}
	return ""
}

// replaceLineItems swaps the full line item set of a parent inside the
// caller's transaction, matching the form's full-record replace semantics
func replaceLineItems(tx *gorm.DB, tenantID uint, parentType string, parentID uint, reqs []LineItemRequest) ([]model.LineItem, error) {
	if err := tx.Where("tenant_id = ? AND parent_type = ? AND parent_id = ?", tenantID, parentType, parentID).
		Delete(&model.LineItem{}).Error; err != nil {
		return nil, err
	}

	if len(reqs) == 0 {
		return nil, nil
	}

	items := make([]model.LineItem, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, model.LineItem{
			TenantID:    tenantID,
			ParentType:  parentType,
			ParentID:    parentID,
			Description: r.Description,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			ItemType:    r.ItemType,
			PartID:      r.PartID,
		})
	}
	if err := tx.Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// loadLineItems returns the line items of a parent, oldest first
func loadLineItems(db *gorm.DB, tenantID uint, parentType string, parentID uint) ([]model.LineItem, error) {
	var items []model.LineItem
	err := db.Where("tenant_id = ? AND parent_type = ? AND parent_id = ?", tenantID, parentType, parentID).
		Order("id").Find(&items).Error
	return items, err
}

// cashSubtotal sums the extended cash amounts of a line item set
func cashSubtotal(items []model.LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.CashAmount()
	}
	return total
}
