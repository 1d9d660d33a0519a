package models

import (
	"time"
)

// EstimateApprovalLink is a single-use public capability letting a customer
// or insurer approve or decline an estimate without authentication. At most
// one unresponded link exists per repair order (issuing a new one replaces
// the pending one); once RespondedAt is set the row is immutable.
type EstimateApprovalLink struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ROID          string     `gorm:"size:36;not null;index" json:"ro_id"`
	Token         string     `gorm:"uniqueIndex;not null" json:"token"`
	CreatedBy     *uint      `json:"created_by"`
	RespondedAt   *time.Time `json:"responded_at"` // null means pending
	DeclineReason *string    `json:"decline_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// TableName specifies the table name for the EstimateApprovalLink model
func (EstimateApprovalLink) TableName() string {
	return "estimate_approval_links"
}

// Responded reports whether the link has already been consumed
func (l *EstimateApprovalLink) Responded() bool {
	return l.RespondedAt != nil
}
