package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/example/ride-booking/internal/errs"
	"github.com/example/ride-booking/internal/events"
	"github.com/example/ride-booking/internal/models"
	"github.com/example/ride-booking/internal/observability"
	"github.com/example/ride-booking/internal/rideapi"
	"github.com/example/ride-booking/internal/routing"
)

// ViewState is the client-visible condition of a tracked trip.
type ViewState string

const (
	// ViewLoading: tracking started, no snapshot applied yet.
	ViewLoading ViewState = "loading"
	// ViewTracking: a valid snapshot is held. A completed ride stays
	// here so the final state remains visible.
	ViewTracking ViewState = "tracking"
	// ViewNotFound: the terminal empty state — missing ride id, absent
	// ride, rejected snapshot, or a successful cancellation.
	ViewNotFound ViewState = "not_found"
)

// Snapshot is the full client-visible trip state at one instant. It is
// replaced wholesale on every change, never patched.
type Snapshot struct {
	State ViewState             `json:"state"`
	Ride  *models.Ride          `json:"ride,omitempty"`
	Route *models.RouteGeometry `json:"route,omitempty"`
}

// Tracker builds polling trips against the ride-state service.
type Tracker struct {
	rides    rideapi.API
	routes   routing.Source
	interval time.Duration
	advance  bool
	events   *events.Producer
	logger   *slog.Logger
}

// NewTracker wires the orchestrator. advance controls whether each tick
// first asks the server to move the simulated driver before reading.
func NewTracker(rides rideapi.API, routes routing.Source, interval time.Duration, advance bool, producer *events.Producer, logger *slog.Logger) *Tracker {
	return &Tracker{rides: rides, routes: routes, interval: interval, advance: advance, events: producer, logger: logger}
}

// Trip is the handle for one tracked ride: a cancellable polling task
// plus the latest snapshot.
type Trip struct {
	tracker *Tracker
	rideID  string
	cancel  context.CancelFunc
	done    chan struct{}

	mu      sync.RWMutex
	stopped bool
	cur     Snapshot
	subs    map[chan Snapshot]struct{}
}

// Track starts tracking a ride. With an empty ride id the trip settles
// straight into the terminal not-found state and no fetch is ever issued.
func (t *Tracker) Track(rideID string) *Trip {
	tr := &Trip{
		tracker: t,
		rideID:  rideID,
		done:    make(chan struct{}),
		cur:     Snapshot{State: ViewLoading},
		subs:    make(map[chan Snapshot]struct{}),
	}
	if rideID == "" {
		tr.settle(Snapshot{State: ViewNotFound}, "not_found")
		close(tr.done)
		return tr
	}
	ctx, cancel := context.WithCancel(context.Background())
	tr.cancel = cancel
	go tr.run(ctx)
	return tr
}

// RideID returns the tracked ride identifier.
func (tr *Trip) RideID() string { return tr.rideID }

// Snapshot returns the latest client-visible state.
func (tr *Trip) Snapshot() Snapshot {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.cur
}

// Done is closed once no further ticks will fire.
func (tr *Trip) Done() <-chan struct{} { return tr.done }

// Subscribe registers for snapshot updates, latest wins. The returned
// cancel func removes the subscription.
func (tr *Trip) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	tr.mu.Lock()
	tr.subs[ch] = struct{}{}
	ch <- tr.cur
	tr.mu.Unlock()
	return ch, func() {
		tr.mu.Lock()
		delete(tr.subs, ch)
		tr.mu.Unlock()
	}
}

// Stop tears the polling loop down, e.g. when the owning view goes away.
// An in-flight tick's response is discarded, not applied.
func (tr *Trip) Stop() {
	tr.mu.Lock()
	tr.stopped = true
	tr.mu.Unlock()
	if tr.cancel != nil {
		tr.cancel()
	}
}

// Cancel is the user-initiated cancellation. Rejected when the trip has
// no snapshot yet or is already terminal; on collaborator failure the
// held snapshot stays untouched and polling continues.
func (tr *Trip) Cancel(ctx context.Context) error {
	tr.mu.RLock()
	cur := tr.cur
	tr.mu.RUnlock()

	if cur.Ride == nil {
		return &errs.ValidationError{Field: "ride", Reason: "no active trip to cancel"}
	}
	if cur.Ride.Status.Terminal() {
		return &errs.ValidationError{Field: "status", Reason: "ride already " + string(cur.Ride.Status)}
	}

	if _, err := tr.tracker.rides.UpdateStatus(ctx, tr.rideID, models.StatusCancelled); err != nil {
		return err
	}

	tr.settle(Snapshot{State: ViewNotFound}, "cancelled")
	if tr.cancel != nil {
		tr.cancel()
	}
	if err := tr.tracker.events.Publish(events.Event{Type: events.TypeRideCancelled, RideID: tr.rideID, UserID: cur.Ride.UserID}); err != nil {
		tr.tracker.logger.Warn("lifecycle event publish failed", "error", err)
	}
	return nil
}

// run is the polling loop. Ticks are strictly sequential: the next timer
// is armed only after the previous tick's calls have settled.
func (tr *Trip) run(ctx context.Context) {
	defer close(tr.done)
	for {
		if tr.tick(ctx) {
			return
		}
		timer := time.NewTimer(tr.tracker.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// tick performs one poll: optionally advance the simulated driver, fetch
// the snapshot, replace it atomically, and report whether the loop is
// finished.
func (tr *Trip) tick(ctx context.Context) (terminal bool) {
	t := tr.tracker
	observability.PollTicks.Inc()

	if t.advance {
		// Best effort; the subsequent status fetch is the freshest read
		// and therefore authoritative regardless of this call's outcome.
		if err := t.rides.AdvanceDriver(ctx, tr.rideID); err != nil && ctx.Err() == nil {
			t.logger.Debug("driver advance failed", "ride_id", tr.rideID, "error", err)
		}
	}

	ride, err := t.rides.Get(ctx, tr.rideID)
	if ctx.Err() != nil {
		// Torn down mid-flight; whatever came back must not be applied.
		return true
	}
	if errors.Is(err, errs.ErrNotFound) {
		tr.settle(Snapshot{State: ViewNotFound}, "not_found")
		return true
	}
	if err != nil {
		observability.PollErrors.Inc()
		t.logger.Warn("trip poll failed", "ride_id", tr.rideID, "error", err)
		return false // self-heal on the next scheduled tick
	}
	if err := ride.Validate(); err != nil {
		t.logger.Warn("rejecting invalid ride snapshot", "ride_id", tr.rideID, "error", err)
		tr.settle(Snapshot{State: ViewNotFound}, "not_found")
		return true
	}

	if ride.Status == models.StatusCancelled {
		tr.settle(Snapshot{State: ViewNotFound}, "cancelled")
		if err := t.events.Publish(events.Event{Type: events.TypeRideCancelled, RideID: ride.ID, UserID: ride.UserID}); err != nil {
			t.logger.Warn("lifecycle event publish failed", "error", err)
		}
		return true
	}

	route := tr.rederiveRoute(ctx, ride)
	if !tr.apply(Snapshot{State: ViewTracking, Ride: &ride, Route: route}) {
		return true
	}

	if ride.Status.Terminal() {
		observability.TripsTerminal.WithLabelValues(string(ride.Status)).Inc()
		if err := t.events.Publish(events.Event{Type: events.TypeRideCompleted, RideID: ride.ID, UserID: ride.UserID}); err != nil {
			t.logger.Warn("lifecycle event publish failed", "error", err)
		}
		return true
	}
	return false
}

// rederiveRoute refreshes the displayed path when the endpoint pair
// changes (normally only on the first snapshot). Failures degrade the
// route display only and never affect ride status.
func (tr *Trip) rederiveRoute(ctx context.Context, ride models.Ride) *models.RouteGeometry {
	tr.mu.RLock()
	prev := tr.cur
	tr.mu.RUnlock()

	if prev.Route != nil && prev.Ride != nil &&
		prev.Ride.Pickup == ride.Pickup && prev.Ride.Dropoff == ride.Dropoff {
		return prev.Route
	}
	g, err := tr.tracker.routes.ComputeRoute(ctx, ride.Pickup, ride.Dropoff)
	if err != nil {
		if ctx.Err() == nil {
			tr.tracker.logger.Warn("route rederivation failed", "ride_id", ride.ID, "error", err)
		}
		return prev.Route
	}
	return &g
}

// apply replaces the snapshot wholesale and fans it out. Returns false
// when the trip was stopped while the tick was in flight.
func (tr *Trip) apply(snap Snapshot) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.stopped {
		return false
	}
	tr.cur = snap
	tr.fanoutLocked(snap)
	return true
}

// settle forces a terminal view state even on a stopped trip (Stop and
// settle race only on teardown, where the terminal state wins).
func (tr *Trip) settle(snap Snapshot, state string) {
	tr.mu.Lock()
	tr.cur = snap
	tr.stopped = true
	tr.fanoutLocked(snap)
	tr.mu.Unlock()
	observability.TripsTerminal.WithLabelValues(state).Inc()
}

func (tr *Trip) fanoutLocked(snap Snapshot) {
	for ch := range tr.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
