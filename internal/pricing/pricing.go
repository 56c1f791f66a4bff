package pricing

import (
	"math"

	"github.com/example/ride-booking/internal/errs"
	"github.com/example/ride-booking/internal/models"
)

// Price maps a vehicle class and a routed distance to a fare, rounded to
// currency minor-unit precision (2 decimals). Pure and deterministic;
// the only rejected inputs are negative or non-finite distances.
func Price(class models.VehicleClass, distanceKm float64) (float64, error) {
	if distanceKm < 0 || math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) {
		return 0, &errs.ValidationError{Field: "distanceKm", Reason: "must be finite and >= 0"}
	}
	return round2(class.PerKmRate * distanceKm), nil
}

// MinorUnits converts a fare to integer minor currency units for the
// payment collaborator.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
