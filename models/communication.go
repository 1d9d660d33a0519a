package models

import (
	"time"
)

// Communication records one outbound or inbound customer communication on a
// repair order (estimate decline reasons land here, as do dispatched status
// notifications when the shop wants a paper trail).
type Communication struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ROID      string    `gorm:"size:36;not null;index" json:"ro_id"`
	Channel   string    `gorm:"not null;default:'note'" json:"channel"` // sms, email or note
	Recipient string    `json:"recipient"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Communication model
func (Communication) TableName() string {
	return "communications"
}
