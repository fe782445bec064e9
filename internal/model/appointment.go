package model

import "time"

// Appointment statuses
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCanceled  = "canceled"
)

// Appointment represents a scheduled shop visit. Deleted appointments are
// removed outright; there is no soft-delete column, so gorm's Delete issues
// a hard DELETE.
type Appointment struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	TenantID       uint       `json:"tenant_id" gorm:"index;not null"`
	CustomerID     uint       `json:"customer_id" gorm:"index;not null"`
	VehicleID      *uint      `json:"vehicle_id,omitempty" gorm:"index"`
	ScheduledAt    time.Time  `json:"scheduled_at" gorm:"index;not null"`
	Status         string     `json:"status" gorm:"type:varchar(20);not null;default:'scheduled'"`
	Notes          string     `json:"notes" gorm:"type:text"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
