package model

import (
	"time"

	"gorm.io/gorm"
)

// Invoice statuses
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusFinalized = "finalized"
	InvoiceStatusPaid      = "paid"
)

// Invoice bills a completed work order. Finalizing snapshots the tenant's
// card surcharge rate and the computed card total so the invoice stays
// correct if the shop later changes its rate.
type Invoice struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	TenantID      uint           `json:"tenant_id" gorm:"index;not null"`
	WorkOrderID   uint           `json:"work_order_id" gorm:"index;not null"`
	CustomerID    uint           `json:"customer_id" gorm:"index;not null"`
	Number        string         `json:"number" gorm:"type:varchar(40);uniqueIndex;not null"`
	Status        string         `json:"status" gorm:"type:varchar(20);not null;default:'draft'"`
	CashTotal     float64        `json:"cash_total"`
	TaxRate       float64        `json:"tax_rate"`       // percent, snapshot at finalize
	SurchargeRate float64        `json:"surcharge_rate"` // percent, snapshot at finalize
	CardTotal     float64        `json:"card_total"`     // snapshot at finalize
	ProcessingFee float64        `json:"processing_fee"` // snapshot at finalize
	PaymentMethod string         `json:"payment_method,omitempty" gorm:"type:varchar(10)"` // cash or card
	AmountPaid    float64        `json:"amount_paid"`
	FinalizedAt   *time.Time     `json:"finalized_at,omitempty"`
	PaidAt        *time.Time     `json:"paid_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}
