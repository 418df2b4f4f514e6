package models

import (
	"errors"
	"fmt"
)

// Domain errors surfaced to HTTP handlers. Handlers map these to status codes:
// caller-fault errors are 4xx, TransientStoreError is 5xx and retryable.
var (
	// ErrTripNotBookable indicates the trip is missing or not in scheduled state
	ErrTripNotBookable = errors.New("trip is not available for booking")

	// ErrCapacityExceeded indicates insufficient seats at lock time
	ErrCapacityExceeded = errors.New("insufficient seats available")

	// ErrNotCancellable covers not-found, wrong owner, wrong status and
	// too-close-to-departure as one externally visible outcome
	ErrNotCancellable = errors.New("booking not found or cannot be cancelled")

	// ErrInvalidSignature indicates a webhook whose signature did not verify
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrBookingNotFound indicates a lookup by reference matched nothing
	ErrBookingNotFound = errors.New("booking not found")

	// ErrPaymentNotFound indicates a payment lookup by reference matched nothing
	ErrPaymentNotFound = errors.New("payment not found")
)

// ValidationError reports malformed caller input. It is never persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// GatewayError wraps a payment provider failure. No local state beyond
// attempt metadata may have been mutated when one of these is returned.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// TransientStoreError wraps lock timeouts, deadlocks and connection failures.
// The whole operation is safe to retry.
type TransientStoreError struct {
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("transient store error: %v", e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is (or wraps) a TransientStoreError
func IsTransient(err error) bool {
	var t *TransientStoreError
	return errors.As(err, &t)
}
