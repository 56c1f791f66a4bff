package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/example/ride-booking/internal/errs"
	"github.com/example/ride-booking/internal/models"
)

// Service owns the ride records and the pretend-driver progression.
type Service struct {
	store  Store
	stepKm float64
	logger *slog.Logger
}

func NewService(store Store, stepKm float64, logger *slog.Logger) *Service {
	return &Service{store: store, stepKm: stepKm, logger: logger}
}

var driverNames = []string{"Ramesh", "Suresh", "Anita", "Kiran", "Vijay", "Meena"}

func (s *Service) Create(ctx context.Context, r models.Ride) (models.Ride, error) {
	if r.ID == "" {
		r.ID = fmt.Sprintf("ride_%08x", rand.Uint32())
	}
	if r.Status == "" {
		r.Status = models.StatusBooked
	}
	if err := r.Validate(); err != nil {
		return models.Ride{}, &errs.ValidationError{Field: "ride", Reason: err.Error()}
	}
	if err := s.store.Save(ctx, r); err != nil {
		return models.Ride{}, err
	}
	s.logger.Info("ride created", "ride_id", r.ID, "user_id", r.UserID, "car_type", r.CarType)
	return r, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.Ride, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Ride, error) {
	return s.store.ListByUser(ctx, userID)
}

// UpdateStatus applies a client-requested transition. Illegal moves,
// including anything out of a terminal state, are rejected.
func (s *Service) UpdateStatus(ctx context.Context, id string, raw string) (models.Ride, error) {
	status, err := models.ParseStatus(raw)
	if err != nil {
		return models.Ride{}, &errs.ValidationError{Field: "status", Reason: err.Error()}
	}
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Ride{}, err
	}
	if !models.CanTransition(r.Status, status) {
		return models.Ride{}, &errs.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("cannot move %s ride to %s", r.Status, status),
		}
	}
	r.Status = status
	if err := s.store.Save(ctx, r); err != nil {
		return models.Ride{}, err
	}
	s.logger.Info("ride status updated", "ride_id", id, "status", status)
	return r, nil
}

// MoveDriver advances the pretend driver one step. The first call
// assigns a driver at the pickup and flips the ride to ongoing; later
// calls step toward the dropoff; arrival completes the ride. Terminal
// rides are left untouched.
func (s *Service) MoveDriver(ctx context.Context, id string) (models.Ride, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Ride{}, err
	}
	if r.Status.Terminal() {
		return r, nil
	}

	if r.Driver == nil {
		r.Driver = &models.Driver{
			Name:      driverNames[rand.Intn(len(driverNames))],
			CarNumber: fmt.Sprintf("GJ-01-%04d", rand.Intn(10000)),
			Lat:       r.Pickup.Lat,
			Lon:       r.Pickup.Lon,
		}
		r.Status = models.StatusOngoing
	} else {
		remaining := haversineKm(r.Driver.Lat, r.Driver.Lon, r.Dropoff.Lat, r.Dropoff.Lon)
		if remaining <= s.stepKm {
			r.Driver.Lat = r.Dropoff.Lat
			r.Driver.Lon = r.Dropoff.Lon
			r.Status = models.StatusCompleted
		} else {
			frac := s.stepKm / remaining
			r.Driver.Lat += (r.Dropoff.Lat - r.Driver.Lat) * frac
			r.Driver.Lon += (r.Dropoff.Lon - r.Driver.Lon) * frac
		}
	}

	if err := s.store.Save(ctx, r); err != nil {
		return models.Ride{}, err
	}
	return r, nil
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
