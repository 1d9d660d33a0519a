package models

import (
	"fmt"
	"time"
)

// Vehicle represents one customer vehicle worked on by a shop
type Vehicle struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ShopID     uint      `gorm:"not null;index" json:"shop_id"`
	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	Year       int       `json:"year"`
	Make       string    `json:"make"`
	Model      string    `json:"model"`
	VIN        string    `gorm:"column:vin" json:"vin"`
	Plate      string    `json:"plate"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Vehicle model
func (Vehicle) TableName() string {
	return "vehicles"
}

// Description returns a human readable "2019 Honda Civic" style label
func (v *Vehicle) Description() string {
	return fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model)
}
