package models

import (
	"strings"
	"time"
)

// Shop represents one auto-body shop. Every repair order, customer, vehicle
// and user belongs to exactly one shop; tenant isolation is enforced on
// every mutation.
type Shop struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	OwnerEmails string    `json:"owner_emails"` // comma-separated, notified on payment events
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Shop model
func (Shop) TableName() string {
	return "shops"
}

// OwnerEmailList splits the configured owner notification emails
func (s *Shop) OwnerEmailList() []string {
	if s.OwnerEmails == "" {
		return nil
	}
	parts := strings.Split(s.OwnerEmails, ",")
	emails := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			emails = append(emails, trimmed)
		}
	}
	return emails
}
