package model

import (
	"time"

	"gorm.io/gorm"
)

// Work order statuses
const (
	WorkOrderStatusPending      = "pending"
	WorkOrderStatusInProgress   = "in_progress"
	WorkOrderStatusQualityCheck = "quality_check"
	WorkOrderStatusCompleted    = "completed"
	WorkOrderStatusPickedUp     = "picked_up"
)

// WorkOrder is an actionable, tracked service job tied to one vehicle/customer
type WorkOrder struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	TenantID            uint           `json:"tenant_id" gorm:"index;not null"`
	CustomerID          uint           `json:"customer_id" gorm:"index;not null"`
	VehicleID           uint           `json:"vehicle_id" gorm:"index;not null"`
	EstimateID          *uint          `json:"estimate_id,omitempty" gorm:"index"` // set when created by conversion
	Status              string         `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	ServiceType         string         `json:"service_type" gorm:"type:varchar(100)"`
	Description         string         `json:"description" gorm:"type:text"`
	Priority            string         `json:"priority" gorm:"type:varchar(20);default:'medium'"`
	Total               float64        `json:"total"` // cash basis
	EstimatedCompletion *time.Time     `json:"estimated_completion,omitempty"`
	CompletedAt         *time.Time     `json:"completed_at,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`
}
