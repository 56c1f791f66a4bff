package trip

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/example/ride-booking/internal/errs"
	"github.com/example/ride-booking/internal/models"
)

// EncodeQuery serializes a proposal into navigation query parameters for
// the payment handoff. Points travel as JSON so labels survive intact.
func EncodeQuery(p Proposal) url.Values {
	pickup, _ := json.Marshal(p.Pickup)
	dropoff, _ := json.Marshal(p.Dropoff)
	v := url.Values{}
	v.Set("amount", strconv.FormatFloat(p.Amount, 'f', 2, 64))
	v.Set("pickup", string(pickup))
	v.Set("dropoff", string(dropoff))
	v.Set("distanceKm", strconv.FormatFloat(p.DistanceKm, 'f', -1, 64))
	v.Set("carType", p.CarType)
	return v
}

// DecodeQuery reconstructs a proposal on the receiving side of the handoff.
// Loss of any field is a fatal precondition failure, never defaulted.
func DecodeQuery(v url.Values) (Proposal, error) {
	var p Proposal

	amount, err := requiredFloat(v, "amount")
	if err != nil {
		return Proposal{}, err
	}
	p.Amount = amount

	if err := requiredPoint(v, "pickup", &p.Pickup); err != nil {
		return Proposal{}, err
	}
	if err := requiredPoint(v, "dropoff", &p.Dropoff); err != nil {
		return Proposal{}, err
	}

	distance, err := requiredFloat(v, "distanceKm")
	if err != nil {
		return Proposal{}, err
	}
	if distance <= 0 {
		return Proposal{}, &errs.ValidationError{Field: "distanceKm", Reason: "must be > 0"}
	}
	p.DistanceKm = distance

	p.CarType = v.Get("carType")
	if p.CarType == "" {
		return Proposal{}, &errs.ValidationError{Field: "carType"}
	}
	return p, nil
}

func requiredFloat(v url.Values, key string) (float64, error) {
	raw := v.Get(key)
	if raw == "" {
		return 0, &errs.ValidationError{Field: key}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &errs.ValidationError{Field: key, Reason: "not a number"}
	}
	return f, nil
}

func requiredPoint(v url.Values, key string, out *models.GeoPoint) error {
	raw := v.Get(key)
	if raw == "" {
		return &errs.ValidationError{Field: key}
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return &errs.ValidationError{Field: key, Reason: "malformed point"}
	}
	if out.Zero() {
		return &errs.ValidationError{Field: key, Reason: "empty point"}
	}
	return nil
}
