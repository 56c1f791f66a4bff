// Package payment wraps the payment collaborator behind a small gateway
// interface: request an authorization for an amount, then confirm it once.
package payment

import "context"

// Authorization is the short-lived, single-use token for one payment
// attempt. It is discarded after one confirmation, successful or not.
type Authorization struct {
	ClientSecret     string
	AmountMinorUnits int64
}

// Details carries the locally entered payment instrument reference.
type Details struct {
	PaymentMethod string
}

// Confirmation is the durable reference to a settled charge.
type Confirmation struct {
	PaymentRef string
}

// Gateway is the external payment collaborator. Amounts are transmitted
// in minor currency units.
type Gateway interface {
	CreateAuthorization(ctx context.Context, amountMinorUnits int64) (Authorization, error)
	Confirm(ctx context.Context, clientSecret string, details Details) (Confirmation, error)
}
