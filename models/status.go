package models

// JobStatus represents a stage in the repair order lifecycle
type JobStatus string

// Repair order lifecycle stages. Shops routinely move orders backwards
// (a failed QC sends the vehicle back to repair), so the lifecycle is a
// fixed enumeration rather than a strict pipeline.
const (
	StatusIntake   JobStatus = "intake"
	StatusEstimate JobStatus = "estimate"
	StatusApproval JobStatus = "approval"
	StatusParts    JobStatus = "parts"
	StatusRepair   JobStatus = "repair"
	StatusPaint    JobStatus = "paint"
	StatusQC       JobStatus = "qc"
	StatusDelivery JobStatus = "delivery"
	StatusClosed   JobStatus = "closed"
)

// AllStatuses lists every known lifecycle stage in their nominal order
var AllStatuses = []JobStatus{
	StatusIntake,
	StatusEstimate,
	StatusApproval,
	StatusParts,
	StatusRepair,
	StatusPaint,
	StatusQC,
	StatusDelivery,
	StatusClosed,
}

// IsKnownStatus reports whether s is a member of the lifecycle enumeration
func IsKnownStatus(s JobStatus) bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsValidTransition reports whether a repair order may move from one stage
// to another. Any known stage is reachable from any other known stage; the
// enumeration itself is the only validation. The closed stage additionally
// requires payment, but that is enforced by the transition operation, not
// here.
func IsValidTransition(from, to JobStatus) bool {
	return IsKnownStatus(from) && IsKnownStatus(to)
}

// Payment statuses mirror the payment processor's intent lifecycle
const (
	PaymentStatusUnpaid    = "unpaid"
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
)

// Revenue periods used by month-end reporting
const (
	RevenuePeriodCurrent  = "current"
	RevenuePeriodPrevious = "previous"
)
