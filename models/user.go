package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a shop staff member (admin, advisor or technician).
// It is the principal resolved from the Auth0 'sub' claim; every
// authenticated request is scoped to the user's shop.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      string         `gorm:"not null;default:'advisor'" json:"role"` // "admin", "advisor" or "technician"
	ShopID    uint           `gorm:"not null;index" json:"shop_id"`
	Shop      Shop           `gorm:"foreignKey:ShopID" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user may perform destructive shop-wide actions
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
