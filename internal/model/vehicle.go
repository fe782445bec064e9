package model

import (
	"time"

	"gorm.io/gorm"
)

// Vehicle represents a customer's vehicle
type Vehicle struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	TenantID        uint           `json:"tenant_id" gorm:"index;not null"`
	CustomerID      uint           `json:"customer_id" gorm:"index;not null"`
	Year            int            `json:"year"`
	Make            string         `json:"make" gorm:"type:varchar(50)"`
	Model           string         `json:"model" gorm:"type:varchar(50)"`
	VIN             string         `json:"vin" gorm:"type:varchar(17)"`
	LicensePlate    string         `json:"license_plate" gorm:"type:varchar(20)"`
	Mileage         int            `json:"mileage"`
	LastServiceDate *time.Time     `json:"last_service_date,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}
