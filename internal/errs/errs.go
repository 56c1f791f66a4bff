// Package errs defines the error taxonomy shared across the booking core.
// Components wrap collaborator failures into one of these types so callers
// can route them (inline validation, user-visible message, operator alert)
// with errors.As/Is instead of string matching.
package errs

import (
	"errors"
	"fmt"
)

// ErrNotFound marks an absent ride or resource. Callers treat it as a
// terminal view state, not a fault to propagate.
var ErrNotFound = errors.New("not found")

// ValidationError is a missing or invalid required selection. Recovered
// locally; no collaborator call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("validation: missing %s", e.Field)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NetworkError is a collaborator that was unreachable or answered with a
// non-success status.
type NetworkError struct {
	Op     string // e.g. "rideapi.Get"
	Status int    // HTTP status, 0 when the transport failed
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RoutingError is malformed or absent route geometry. Degrades the route
// display only; it does not block a booking whose distance is established.
type RoutingError struct {
	Reason string
	Err    error
}

func (e *RoutingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("routing: %s: %v", e.Reason, e.Err)
	}
	return "routing: " + e.Reason
}

func (e *RoutingError) Unwrap() error { return e.Err }

// PaymentError is an authorization or confirmation failure. Terminal for
// the attempt; retries must be user-initiated to avoid double charging.
type PaymentError struct {
	Stage string // "authorization" or "confirmation"
	Err   error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment %s failed: %v", e.Stage, e.Err)
}

func (e *PaymentError) Unwrap() error { return e.Err }

// ReconciliationError means money moved but the matching ride record was
// not created. The most severe class: surfaced distinctly and logged for
// operators. The payment is never reversed automatically.
type ReconciliationError struct {
	PaymentRef string
	Err        error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("payment %s confirmed but ride creation failed: %v", e.PaymentRef, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }
