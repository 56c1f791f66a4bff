package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/example/ride-booking/internal/errs"
	"github.com/example/ride-booking/internal/models"
	"github.com/example/ride-booking/internal/payment"
	"github.com/example/ride-booking/internal/trip"
)

func testProposal(t *testing.T) trip.Proposal {
	t.Helper()
	p, err := trip.Build(testPickup, testDropoff, 6.2, models.VehicleClass{ID: 1, Name: "Economy", PerKmRate: 12})
	if err != nil {
		t.Fatalf("build proposal: %v", err)
	}
	return p
}

func TestBookSuccess(t *testing.T) {
	api := &fakeAPI{}
	gw := &fakeGateway{}
	b := NewBooker(gw, api, nil, slog.Default())

	res, err := b.Book(context.Background(), "u1", testProposal(t), payment.Details{PaymentMethod: "pm_card"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Phase != PhaseConfirmed {
		t.Fatalf("expected confirmed phase, got %s", res.Phase)
	}
	if res.Ride.Status != models.StatusBooked || res.Ride.PaymentRef != "pi_1" {
		t.Fatalf("unexpected ride %+v", res.Ride)
	}
	if api.createCalls != 1 {
		t.Fatalf("expected exactly one ride creation, got %d", api.createCalls)
	}
	if api.created.Price != 74.40 || api.created.Status != models.StatusBooked {
		t.Fatalf("unexpected create request %+v", api.created)
	}
}

func TestBookAuthorizationFailure(t *testing.T) {
	api := &fakeAPI{}
	gw := &fakeGateway{authErr: errors.New("card network down")}
	b := NewBooker(gw, api, nil, slog.Default())

	res, err := b.Book(context.Background(), "u1", testProposal(t), payment.Details{})
	var pe *errs.PaymentError
	if !errors.As(err, &pe) || pe.Stage != "authorization" {
		t.Fatalf("expected authorization PaymentError, got %v", err)
	}
	if res.Phase != PhaseFailed {
		t.Fatalf("expected failed phase, got %s", res.Phase)
	}
	if gw.confirmCalls != 0 || api.createCalls != 0 {
		t.Fatal("nothing downstream may run after a failed authorization")
	}
}

func TestBookConfirmationFailureIsNotRetried(t *testing.T) {
	api := &fakeAPI{}
	gw := &fakeGateway{confirmErr: errors.New("declined")}
	b := NewBooker(gw, api, nil, slog.Default())

	_, err := b.Book(context.Background(), "u1", testProposal(t), payment.Details{})
	var pe *errs.PaymentError
	if !errors.As(err, &pe) || pe.Stage != "confirmation" {
		t.Fatalf("expected confirmation PaymentError, got %v", err)
	}
	if gw.confirmCalls != 1 {
		t.Fatalf("the single-use token allows exactly one confirmation attempt, got %d", gw.confirmCalls)
	}
	if api.createCalls != 0 {
		t.Fatal("no ride may be created without a confirmed payment")
	}
}

func TestBookReconciliationError(t *testing.T) {
	// Payment confirms, ride creation answers 500: money moved with no
	// matching ride record.
	api := &fakeAPI{createErr: &errs.NetworkError{Op: "rideapi.Create", Status: 500}}
	gw := &fakeGateway{}
	b := NewBooker(gw, api, nil, slog.Default())

	res, err := b.Book(context.Background(), "u1", testProposal(t), payment.Details{})
	var re *errs.ReconciliationError
	if !errors.As(err, &re) {
		t.Fatalf("expected ReconciliationError, got %v", err)
	}
	if re.PaymentRef != "pi_1" || res.PaymentRef != "pi_1" {
		t.Fatalf("reconciliation must carry the payment reference: %v / %v", re.PaymentRef, res.PaymentRef)
	}
	if gw.confirmCalls != 1 || gw.authCalls != 1 {
		t.Fatal("the payment must not be retried or reversed")
	}
	if api.createCalls != 1 {
		t.Fatalf("ride creation must not be retried, got %d calls", api.createCalls)
	}
	if res.Ride.ID != "" {
		t.Fatalf("no ride should be reported, got %+v", res.Ride)
	}
}
