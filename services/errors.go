package services

import "errors"

// Service errors, mapped 1:1 to response codes by the controllers.
// Validation errors are rejected before any write; state-conflict errors
// (payment gate, consumed link) are distinct so callers can retry
// differently; dependency errors never leave local state half-written.
var (
	ErrNotFound             = errors.New("record not found")
	ErrForbidden            = errors.New("repair order belongs to a different shop")
	ErrInvalidStatus        = errors.New("unknown repair order status")
	ErrPaymentRequired      = errors.New("payment must be received before closing")
	ErrAlreadyResponded     = errors.New("approval link already responded")
	ErrReasonRequired       = errors.New("decline reason is required")
	ErrInvalidDecision      = errors.New("decision must be approve or decline")
	ErrInvalidAmount        = errors.New("amount must be a positive integer number of cents")
	ErrProcessorUnavailable = errors.New("payment processor is not configured")
	ErrInvalidSignature     = errors.New("webhook signature verification failed")
)
