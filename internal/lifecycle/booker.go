// Package lifecycle orchestrates a ride from confirmed payment through
// tracking to a terminal state. It owns no durable data: it reconciles
// the payment and ride-state collaborators into client-visible state.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/ride-booking/internal/errs"
	"github.com/example/ride-booking/internal/events"
	"github.com/example/ride-booking/internal/models"
	"github.com/example/ride-booking/internal/observability"
	"github.com/example/ride-booking/internal/payment"
	"github.com/example/ride-booking/internal/pricing"
	"github.com/example/ride-booking/internal/rideapi"
	"github.com/example/ride-booking/internal/trip"
)

// Phase tracks the payment handoff state machine.
type Phase string

const (
	PhaseIdle                   Phase = "idle"
	PhaseAuthorizationRequested Phase = "authorization_requested"
	PhaseAuthorizationReceived  Phase = "authorization_received"
	PhaseConfirmationSubmitted  Phase = "confirmation_submitted"
	PhaseConfirmed              Phase = "confirmed"
	PhaseFailed                 Phase = "failed"
)

// Booker converts a trip proposal plus entered payment details into a
// persisted ride. Nothing here retries: payment retries must stay
// user-initiated to avoid double charging.
type Booker struct {
	gateway payment.Gateway
	rides   rideapi.API
	events  *events.Producer
	logger  *slog.Logger
}

func NewBooker(gateway payment.Gateway, rides rideapi.API, producer *events.Producer, logger *slog.Logger) *Booker {
	return &Booker{gateway: gateway, rides: rides, events: producer, logger: logger}
}

// BookingResult reports where the handoff ended up. PaymentRef is set as
// soon as money has moved, even when ride creation subsequently failed.
type BookingResult struct {
	Phase      Phase
	PaymentRef string
	Ride       models.Ride
}

// Book walks the handoff: authorize, confirm once, then emit exactly one
// ride-creation request. A creation failure after a confirmed charge is a
// ReconciliationError; the payment is never reversed here.
func (b *Booker) Book(ctx context.Context, userID string, p trip.Proposal, details payment.Details) (BookingResult, error) {
	res := BookingResult{Phase: PhaseAuthorizationRequested}

	auth, err := b.gateway.CreateAuthorization(ctx, pricing.MinorUnits(p.Amount))
	if err != nil {
		res.Phase = PhaseFailed
		observability.PaymentFailures.WithLabelValues("authorization").Inc()
		return res, asPaymentError("authorization", err)
	}
	res.Phase = PhaseAuthorizationReceived

	// The authorization token is single-use: one confirmation attempt,
	// then it is gone regardless of outcome.
	res.Phase = PhaseConfirmationSubmitted
	conf, err := b.gateway.Confirm(ctx, auth.ClientSecret, details)
	if err != nil {
		res.Phase = PhaseFailed
		observability.PaymentFailures.WithLabelValues("confirmation").Inc()
		return res, asPaymentError("confirmation", err)
	}
	res.Phase = PhaseConfirmed
	res.PaymentRef = conf.PaymentRef

	ride, err := b.rides.Create(ctx, rideapi.CreateRequest{
		UserID:     userID,
		Pickup:     p.Pickup,
		Dropoff:    p.Dropoff,
		DistanceKm: p.DistanceKm,
		CarType:    p.CarType,
		Price:      p.Amount,
		Status:     models.StatusBooked,
		PaymentRef: conf.PaymentRef,
	})
	if err != nil {
		recErr := &errs.ReconciliationError{PaymentRef: conf.PaymentRef, Err: err}
		b.logger.Error("payment confirmed but ride creation failed",
			"user_id", userID, "payment_ref", conf.PaymentRef, "error", err)
		observability.ReconciliationFailures.Inc()
		if err := b.events.Publish(events.Event{
			Type:       events.TypeReconciliationFailed,
			UserID:     userID,
			PaymentRef: conf.PaymentRef,
			Detail:     err.Error(),
		}); err != nil {
			b.logger.Warn("lifecycle event publish failed", "error", err)
		}
		return res, recErr
	}

	res.Ride = ride
	observability.BookingsTotal.Inc()
	b.logger.Info("ride booked", "ride_id", ride.ID, "user_id", userID, "payment_ref", conf.PaymentRef)
	if err := b.events.Publish(events.Event{Type: events.TypeRideBooked, RideID: ride.ID, UserID: userID, PaymentRef: conf.PaymentRef}); err != nil {
		b.logger.Warn("lifecycle event publish failed", "error", err)
	}
	return res, nil
}

func asPaymentError(stage string, err error) error {
	var pe *errs.PaymentError
	if errors.As(err, &pe) {
		return err
	}
	return &errs.PaymentError{Stage: stage, Err: err}
}
