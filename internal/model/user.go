package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles. The role decides which endpoints a user may reach; a user with
// no tenant ID is a platform-level user.
const (
	RoleCustomer    = "customer"
	RoleTechnician  = "technician"
	RoleAdmin       = "admin"
	RoleMasterAdmin = "master_admin"
)

// User represents the user model stored in the database
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"type:varchar(255)"`
	Name      string         `json:"name" gorm:"type:varchar(100)"`
	Role      string         `json:"role" gorm:"type:varchar(20);not null;default:'customer'"`
	TenantID  *uint          `json:"tenant_id,omitempty" gorm:"index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// CanWrite reports whether the role may create or mutate shop records
func CanWrite(role string) bool {
	return role == RoleAdmin || role == RoleTechnician || role == RoleMasterAdmin
}

// IsAdmin reports whether the role may change tenant settings
func IsAdmin(role string) bool {
	return role == RoleAdmin || role == RoleMasterAdmin
}
