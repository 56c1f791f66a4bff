package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/ride-booking/internal/models"
	"github.com/example/ride-booking/internal/rideapi"
)

// Discovery scans a user's ride history for an unresolved trip. It is a
// non-critical affordance: every failure collapses to "no active trip".
type Discovery struct {
	rides    rideapi.API
	interval time.Duration
	logger   *slog.Logger
}

func NewDiscovery(rides rideapi.API, interval time.Duration, logger *slog.Logger) *Discovery {
	return &Discovery{rides: rides, interval: interval, logger: logger}
}

// FindActive returns the first ride still in a booked or ongoing state,
// comparing statuses case-insensitively. An absent user identity or a
// failed collaborator call yields none, never an error.
func (d *Discovery) FindActive(ctx context.Context, userID string) (models.Ride, bool) {
	if userID == "" {
		return models.Ride{}, false
	}
	rides, err := d.rides.ListByUser(ctx, userID)
	if err != nil {
		d.logger.Debug("active-trip scan failed", "user_id", userID, "error", err)
		return models.Ride{}, false
	}
	for _, r := range rides {
		status, err := models.ParseStatus(string(r.Status))
		if err != nil {
			continue
		}
		if status.Active() {
			r.Status = status
			return r, true
		}
	}
	return models.Ride{}, false
}

// ActiveTrip is one discovery observation.
type ActiveTrip struct {
	Ride  models.Ride
	Found bool
}

// Watch polls for an active trip on the discovery interval, plus whenever
// Refresh is poked (the foreground-regain analog). Scans are sequential;
// a poke during a scan coalesces into the next one.
type Watch struct {
	updates chan ActiveTrip
	refresh chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

func (d *Discovery) Watch(userID string) *Watch {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watch{
		updates: make(chan ActiveTrip, 1),
		refresh: make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go w.run(ctx, d, userID)
	return w
}

// Updates delivers the latest observation, newest wins.
func (w *Watch) Updates() <-chan ActiveTrip { return w.updates }

// Refresh requests an immediate re-scan.
func (w *Watch) Refresh() {
	select {
	case w.refresh <- struct{}{}:
	default:
	}
}

func (w *Watch) Stop() {
	w.cancel()
	<-w.done
}

func (w *Watch) run(ctx context.Context, d *Discovery, userID string) {
	defer close(w.done)
	for {
		ride, found := d.FindActive(ctx, userID)
		if ctx.Err() != nil {
			return
		}
		w.publish(ActiveTrip{Ride: ride, Found: found})

		timer := time.NewTimer(d.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		case <-w.refresh:
			timer.Stop()
		}
	}
}

func (w *Watch) publish(t ActiveTrip) {
	select {
	case w.updates <- t:
	default:
		select {
		case <-w.updates:
		default:
		}
		select {
		case w.updates <- t:
		default:
		}
	}
}
