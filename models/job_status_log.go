package models

import (
	"time"
)

// JobStatusLog is one append-only audit entry recording a single status
// transition on a repair order. Rows are immutable once written: for a given
// order the entries, ordered by CreatedAt, form a contiguous history whose
// first FromStatus is null and whose ToStatus sequence matches the order's
// observed status history.
type JobStatusLog struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ROID       string     `gorm:"size:36;not null;index" json:"ro_id"`
	FromStatus *JobStatus `json:"from_status"` // null for the creation entry
	ToStatus   JobStatus  `gorm:"not null" json:"to_status"`
	ChangedBy  *uint      `json:"changed_by"` // null for system or public actors
	Note       string     `gorm:"type:text" json:"note"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName specifies the table name for the JobStatusLog model
func (JobStatusLog) TableName() string {
	return "job_status_log"
}
