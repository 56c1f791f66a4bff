package payment

import (
	"context"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/example/ride-booking/internal/errs"
)

// StripeGateway is a thin wrapper around stripe-go for the
// PaymentIntent create/confirm flow.
type StripeGateway struct {
	currency string
}

// NewStripeGateway sets the package-level stripe key and fixes the
// charge currency.
func NewStripeGateway(apiKey, currency string) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{currency: currency}
}

func (g *StripeGateway) CreateAuthorization(ctx context.Context, amountMinorUnits int64) (Authorization, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinorUnits),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String(string(stripe.PaymentIntentAutomaticPaymentMethodsAllowRedirectsNever)),
		},
	}
	params.Context = ctx
	pi, err := paymentintent.New(params)
	if err != nil {
		return Authorization{}, &errs.PaymentError{Stage: "authorization", Err: err}
	}
	return Authorization{ClientSecret: pi.ClientSecret, AmountMinorUnits: amountMinorUnits}, nil
}

func (g *StripeGateway) Confirm(ctx context.Context, clientSecret string, details Details) (Confirmation, error) {
	id, err := intentIDFromSecret(clientSecret)
	if err != nil {
		return Confirmation{}, &errs.PaymentError{Stage: "confirmation", Err: err}
	}
	params := &stripe.PaymentIntentConfirmParams{}
	if details.PaymentMethod != "" {
		params.PaymentMethod = stripe.String(details.PaymentMethod)
	}
	params.Context = ctx
	pi, err := paymentintent.Confirm(id, params)
	if err != nil {
		return Confirmation{}, &errs.PaymentError{Stage: "confirmation", Err: err}
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return Confirmation{}, &errs.PaymentError{Stage: "confirmation", Err: fmt.Errorf("intent status %s", pi.Status)}
	}
	return Confirmation{PaymentRef: pi.ID}, nil
}

// intentIDFromSecret recovers the PaymentIntent id from a client secret
// of the form pi_xxx_secret_yyy.
func intentIDFromSecret(secret string) (string, error) {
	id, _, found := strings.Cut(secret, "_secret")
	if !found || id == "" {
		return "", fmt.Errorf("malformed client secret")
	}
	return id, nil
}
