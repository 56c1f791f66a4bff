// Package trip builds and transports immutable trip proposals: the priced,
// routed selection a user confirms right before paying.
package trip

import (
	"github.com/example/ride-booking/internal/errs"
	"github.com/example/ride-booking/internal/models"
	"github.com/example/ride-booking/internal/pricing"
)

// Proposal is the value handed to the payment step. Consumed exactly once;
// it is never persisted directly, only serialized across the payment
// navigation boundary and reconstructed on the other side.
type Proposal struct {
	Amount     float64         `json:"amount"`
	Pickup     models.GeoPoint `json:"pickup"`
	Dropoff    models.GeoPoint `json:"dropoff"`
	DistanceKm float64         `json:"distanceKm"`
	CarType    string          `json:"carType"`
}

// Build combines the selected endpoints, routed distance and vehicle class
// into a proposal. Every input is required; a missing one fails validation
// before any collaborator is called.
func Build(pickup, dropoff models.GeoPoint, distanceKm float64, class models.VehicleClass) (Proposal, error) {
	if pickup.Zero() {
		return Proposal{}, &errs.ValidationError{Field: "pickup"}
	}
	if dropoff.Zero() {
		return Proposal{}, &errs.ValidationError{Field: "dropoff"}
	}
	if distanceKm <= 0 {
		return Proposal{}, &errs.ValidationError{Field: "distanceKm", Reason: "must be > 0"}
	}
	if class.Name == "" {
		return Proposal{}, &errs.ValidationError{Field: "carType"}
	}
	amount, err := pricing.Price(class, distanceKm)
	if err != nil {
		return Proposal{}, err
	}
	return Proposal{
		Amount:     amount,
		Pickup:     pickup,
		Dropoff:    dropoff,
		DistanceKm: distanceKm,
		CarType:    class.Name,
	}, nil
}
