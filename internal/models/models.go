package models

import (
	"fmt"
	"strings"
)

// GeoPoint is a labeled geographic coordinate as selected by the user
// or produced by the geocoding collaborator.
type GeoPoint struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// Zero reports whether the point carries no coordinate at all.
func (p GeoPoint) Zero() bool { return p.Label == "" && p.Lat == 0 && p.Lon == 0 }

// LatLon is a bare coordinate pair used for route paths.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RouteGeometry is a drivable path between two GeoPoints plus the trip
// distance derived from it. Replaced wholesale, never mutated.
type RouteGeometry struct {
	Path       []LatLon `json:"path"`
	DistanceKm float64  `json:"distanceKm"`
}

// VehicleClass is static reference data describing one bookable option.
type VehicleClass struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	SeatCapacity int     `json:"seatCapacity"`
	PerKmRate    float64 `json:"perKmRate"`
	Description  string  `json:"description"`
	ImageRef     string  `json:"imageRef"`
}

// Driver is the driver block nested in a ride snapshot once the ride
// has left the booked state.
type Driver struct {
	Name      string  `json:"name"`
	CarNumber string  `json:"carNumber"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
}

// Status enumerates the server-owned ride states.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus normalizes a wire status (case-insensitive).
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusBooked:
		return StatusBooked, nil
	case StatusOngoing:
		return StatusOngoing, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusCancelled:
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("unknown ride status %q", s)
}

// Terminal reports whether no further server-side transition is expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active reports whether the ride still needs tracking.
func (s Status) Active() bool {
	return s == StatusBooked || s == StatusOngoing
}

// allowedTransitions is the ride state flow as code.
var allowedTransitions = map[Status][]Status{
	StatusBooked:  {StatusOngoing, StatusCancelled},
	StatusOngoing: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a ride may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Ride is the client-side snapshot of the server-owned ride entity.
// The client never merges partial updates into it; a fresh snapshot
// always replaces the previous one atomically.
type Ride struct {
	ID         string   `json:"id"`
	UserID     string   `json:"userId"`
	Pickup     GeoPoint `json:"pickup"`
	Dropoff    GeoPoint `json:"dropoff"`
	DistanceKm float64  `json:"distanceKm"`
	CarType    string   `json:"carType"`
	Price      float64  `json:"price"`
	Status     Status   `json:"status"`
	Driver     *Driver  `json:"driver,omitempty"`
	PaymentRef string   `json:"paymentRef,omitempty"`
}

// Validate rejects snapshots missing required fields rather than letting
// them render as half-empty state.
func (r Ride) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("ride snapshot missing id")
	}
	if _, err := ParseStatus(string(r.Status)); err != nil {
		return fmt.Errorf("ride %s: %w", r.ID, err)
	}
	if r.Pickup.Zero() || r.Dropoff.Zero() {
		return fmt.Errorf("ride %s: snapshot missing pickup/dropoff", r.ID)
	}
	return nil
}
