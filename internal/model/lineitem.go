package model

import (
	"time"

	"gorm.io/gorm"
)

// Line item parent kinds
const (
	LineItemParentEstimate  = "estimate"
	LineItemParentWorkOrder = "work_order"
)

// Line item types
const (
	LineItemTypeLabor = "labor"
	LineItemTypePart  = "part"
	LineItemTypeFee   = "fee"
)

// LineItem belongs to an estimate or a work order. UnitPrice is always the
// cash price; the card price is derived from the tenant's surcharge rate at
// read time and never stored here.
type LineItem struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null"`
	ParentType  string         `json:"parent_type" gorm:"type:varchar(20);index:idx_line_items_parent;not null"`
	ParentID    uint           `json:"parent_id" gorm:"index:idx_line_items_parent;not null"`
	Description string         `json:"description" gorm:"type:varchar(255);not null"`
	Quantity    float64        `json:"quantity" gorm:"default:1"`
	UnitPrice   float64        `json:"unit_price"` // cash basis
	ItemType    string         `json:"item_type" gorm:"type:varchar(20);not null;default:'labor'"`
	PartID      *uint          `json:"part_id,omitempty" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// CashAmount returns the extended cash amount for the line
func (li *LineItem) CashAmount() float64 {
	return li.Quantity * li.UnitPrice
}
