package model

import (
	"time"

	"gorm.io/gorm"
)

// Subscription statuses. Tenants are never hard-deleted; a shop that stops
// paying is soft-disabled by moving its subscription status.
const (
	SubscriptionActive   = "active"
	SubscriptionTrialing = "trialing"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Tenant represents one repair shop on the platform.
// The subdomain token is the tenant's identity on the wire: every production
// request arrives on <subdomain>.<base-domain> and all tenant-scoped queries
// filter by the resolved tenant ID.
type Tenant struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	Name               string         `json:"name" gorm:"type:varchar(100);not null"`
	Subdomain          string         `json:"subdomain" gorm:"type:varchar(63);uniqueIndex;not null"`
	PlanTier           string         `json:"plan_tier" gorm:"type:varchar(20);not null;default:'starter'"`
	SubscriptionStatus string         `json:"subscription_status" gorm:"type:varchar(20);not null;default:'trialing'"`
	LogoURL            string         `json:"logo_url" gorm:"type:varchar(255)"`
	CardSurchargeRate  float64        `json:"card_surcharge_rate" gorm:"default:3.5"` // percent, e.g. 3.5 means 3.5%
	TaxRate            float64        `json:"tax_rate" gorm:"default:0"`              // percent
	ReminderLeadDays   int            `json:"reminder_lead_days" gorm:"default:7"`    // drives reminder notifications only
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`
}

// Disabled reports whether the tenant should be treated as switched off
func (t *Tenant) Disabled() bool {
	return t.SubscriptionStatus == SubscriptionCanceled
}
