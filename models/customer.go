package models

import (
	"time"
)

// Customer represents a vehicle owner served by a shop
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ShopID    uint      `gorm:"not null;index" json:"shop_id"`
	Name      string    `gorm:"not null" json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// PreferredRecipient returns the contact point used for status notifications.
// SMS is preferred when a phone number is on file.
func (c *Customer) PreferredRecipient() string {
	if c.Phone != "" {
		return c.Phone
	}
	return c.Email
}
