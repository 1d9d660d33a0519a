package models

import (
	"time"
)

// RoPayment tracks one payment-intent lifecycle against a repair order.
// Rows are keyed by the processor's intent id, so retried webhook deliveries
// upsert instead of creating duplicates. Amounts are integer cents because
// that is the unit the processor speaks; the repair order itself stores
// decimals.
type RoPayment struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ROID            string     `gorm:"size:36;not null;index" json:"ro_id"`
	PaymentIntentID string     `gorm:"uniqueIndex;not null" json:"payment_intent_id"`
	AmountCents     int64      `gorm:"not null;check:amount_cents > 0" json:"amount_cents"`
	Currency        string     `gorm:"size:3;not null;default:'usd'" json:"currency"`
	Status          string     `gorm:"not null;default:'pending'" json:"status"` // pending, succeeded, failed
	PaymentMethod   *string    `json:"payment_method,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	FailureMessage  *string    `json:"failure_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the RoPayment model
func (RoPayment) TableName() string {
	return "ro_payments"
}
