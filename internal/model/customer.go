package model

import (
	"time"

	"gorm.io/gorm"
)

// Customer represents a shop customer record
type Customer struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"index;not null"`
	FirstName string         `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName  string         `json:"last_name" gorm:"type:varchar(100)"`
	Email     string         `json:"email" gorm:"type:varchar(100);index"`
	Phone     string         `json:"phone" gorm:"type:varchar(30)"`
	Address   string         `json:"address" gorm:"type:varchar(255)"`
	Notes     string         `json:"notes" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Vehicles []Vehicle `json:"vehicles,omitempty" gorm:"foreignKey:CustomerID"`
}
