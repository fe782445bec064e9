package model

import (
	"time"

	"gorm.io/gorm"
)

// Estimate statuses
const (
	EstimateStatusDraft    = "draft"
	EstimateStatusSent     = "sent"
	EstimateStatusApproved = "approved"
	EstimateStatusDeclined = "declined"
	EstimateStatusExpired  = "expired"
)

// Estimate is a non-binding priced quote. An approved estimate converts 1:1
// into a work order; line items are cloned by value so later edits to the
// work order never touch the estimate.
type Estimate struct {
	ID                   uint           `json:"id" gorm:"primaryKey"`
	TenantID             uint           `json:"tenant_id" gorm:"index;not null"`
	CustomerID           uint           `json:"customer_id" gorm:"index;not null"`
	VehicleID            uint           `json:"vehicle_id" gorm:"index;not null"`
	Status               string         `json:"status" gorm:"type:varchar(20);not null;default:'draft'"`
	ServiceType          string         `json:"service_type" gorm:"type:varchar(100)"`
	Description          string         `json:"description" gorm:"type:text"`
	Priority             string         `json:"priority" gorm:"type:varchar(20);default:'medium'"`
	Total                float64        `json:"total"` // cash basis; card total is derived at read time
	ValidUntil           *time.Time     `json:"valid_until,omitempty"`
	ConvertedWorkOrderID *uint          `json:"converted_work_order_id,omitempty" gorm:"index"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `json:"-" gorm:"index"`
}

// Converted reports whether the estimate has already produced a work order
func (e *Estimate) Converted() bool {
	return e.ConvertedWorkOrderID != nil
}
