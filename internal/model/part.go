package model

import (
	"time"

	"gorm.io/gorm"
)

// Part represents an inventory item. QuantityOnHand must never go negative;
// adjustments that would cross zero are rejected without mutating the row.
type Part struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	TenantID       uint           `json:"tenant_id" gorm:"index;not null"`
	SKU            string         `json:"sku" gorm:"type:varchar(100);index;not null"`
	Name           string         `json:"name" gorm:"type:varchar(255);not null"`
	Description    string         `json:"description" gorm:"type:text"`
	UnitCost       float64        `json:"unit_cost"`
	RetailPrice    float64        `json:"retail_price"`
	QuantityOnHand int            `json:"quantity_on_hand" gorm:"default:0"`
	MinStock       int            `json:"min_stock" gorm:"default:0"`
	MaxStock       int            `json:"max_stock" gorm:"default:0"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// LowStock reports whether the part has fallen to or below its minimum
func (p *Part) LowStock() bool {
	return p.QuantityOnHand <= p.MinStock
}
