package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/example/ride-booking/internal/errs"
	"github.com/example/ride-booking/internal/models"
)

func newTestTracker(api *fakeAPI, routes *fakeRoutes, advance bool) *Tracker {
	return NewTracker(api, routes, 5*time.Millisecond, advance, nil, slog.Default())
}

func waitDone(t *testing.T, tr *Trip) {
	t.Helper()
	select {
	case <-tr.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("trip did not finish in time")
	}
}

func waitState(t *testing.T, tr *Trip, want ViewState) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := tr.Snapshot(); s.State == want {
			return s
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("trip never reached state %s (at %s)", want, tr.Snapshot().State)
	return Snapshot{}
}

func TestTrackMissingRideIDIssuesNoFetch(t *testing.T) {
	api := &fakeAPI{statusSeq: []models.Status{models.StatusBooked}}
	tr := newTestTracker(api, &fakeRoutes{}, true).Track("")

	waitDone(t, tr)
	if got := tr.Snapshot().State; got != ViewNotFound {
		t.Fatalf("expected not_found, got %s", got)
	}
	gets, advances, _, _ := api.snapshotCounts()
	if gets != 0 || advances != 0 {
		t.Fatalf("expected zero collaborator calls, got gets=%d advances=%d", gets, advances)
	}
}

func TestPollingStopsAtTerminalStatus(t *testing.T) {
	api := &fakeAPI{statusSeq: []models.Status{models.StatusBooked, models.StatusOngoing, models.StatusCompleted}}
	tr := newTestTracker(api, &fakeRoutes{}, true).Track("r1")

	waitDone(t, tr)
	gets, _, _, _ := api.snapshotCounts()
	if gets != 3 {
		t.Fatalf("expected exactly 3 fetches, got %d", gets)
	}

	// No further tick may fire after the terminal one.
	time.Sleep(30 * time.Millisecond)
	gets2, _, _, _ := api.snapshotCounts()
	if gets2 != gets {
		t.Fatalf("fetch issued after terminal status: %d -> %d", gets, gets2)
	}

	snap := tr.Snapshot()
	if snap.State != ViewTracking || snap.Ride == nil || snap.Ride.Status != models.StatusCompleted {
		t.Fatalf("expected terminal completed snapshot, got %+v", snap)
	}
}

func TestAdvanceRunsBeforeEachFetch(t *testing.T) {
	api := &fakeAPI{statusSeq: []models.Status{models.StatusBooked, models.StatusCompleted}}
	tr := newTestTracker(api, &fakeRoutes{}, true).Track("r1")

	waitDone(t, tr)
	gets, advances, _, _ := api.snapshotCounts()
	if advances != gets {
		t.Fatalf("expected one advance per fetch, got advances=%d gets=%d", advances, gets)
	}
}

func TestAdvanceFailureDoesNotDecideTerminality(t *testing.T) {
	// The status fetch is authoritative even when the advance call fails.
	api := &fakeAPI{
		statusSeq:  []models.Status{models.StatusCompleted},
		advanceErr: errors.New("advance unavailable"),
	}
	tr := newTestTracker(api, &fakeRoutes{}, true).Track("r1")

	waitDone(t, tr)
	snap := tr.Snapshot()
	if snap.Ride == nil || snap.Ride.Status != models.StatusCompleted {
		t.Fatalf("expected completed snapshot, got %+v", snap)
	}
}

func TestRideNotFoundSettlesTerminal(t *testing.T) {
	api := &fakeAPI{getErrs: []error{errs.ErrNotFound}, statusSeq: []models.Status{models.StatusBooked}}
	tr := newTestTracker(api, &fakeRoutes{}, false).Track("ghost")

	waitDone(t, tr)
	if got := tr.Snapshot().State; got != ViewNotFound {
		t.Fatalf("expected not_found, got %s", got)
	}
	gets, _, _, _ := api.snapshotCounts()
	if gets != 1 {
		t.Fatalf("expected exactly one fetch, got %d", gets)
	}
}

func TestTransientFetchFailureSelfHeals(t *testing.T) {
	api := &fakeAPI{
		getErrs:   []error{&errs.NetworkError{Op: "rideapi.Get", Status: 502}, &errs.NetworkError{Op: "rideapi.Get", Err: errors.New("timeout")}},
		statusSeq: []models.Status{models.StatusCompleted},
	}
	tr := newTestTracker(api, &fakeRoutes{}, false).Track("r1")

	waitDone(t, tr)
	gets, _, _, _ := api.snapshotCounts()
	if gets != 3 {
		t.Fatalf("expected 2 failed + 1 successful fetch, got %d", gets)
	}
	if snap := tr.Snapshot(); snap.State != ViewTracking {
		t.Fatalf("expected tracking snapshot after recovery, got %+v", snap)
	}
}

func TestCancelFromBookedHaltsPolling(t *testing.T) {
	api := &fakeAPI{statusSeq: []models.Status{models.StatusBooked}}
	tr := newTestTracker(api, &fakeRoutes{}, false).Track("r1")
	waitState(t, tr, ViewTracking)

	if err := tr.Cancel(context.Background()); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	waitDone(t, tr)

	_, _, _, updates := api.snapshotCounts()
	if updates != 1 || api.updatedStatus != models.StatusCancelled {
		t.Fatalf("expected one cancellation PATCH, got %d (%s)", updates, api.updatedStatus)
	}
	if got := tr.Snapshot().State; got != ViewNotFound {
		t.Fatalf("expected terminal empty state, got %s", got)
	}

	gets, _, _, _ := api.snapshotCounts()
	time.Sleep(30 * time.Millisecond)
	gets2, _, _, _ := api.snapshotCounts()
	if gets2 != gets {
		t.Fatalf("polling continued after cancel: %d -> %d", gets, gets2)
	}
}

func TestCancelFromTerminalIsRejected(t *testing.T) {
	api := &fakeAPI{statusSeq: []models.Status{models.StatusCompleted}}
	tr := newTestTracker(api, &fakeRoutes{}, false).Track("r1")
	waitDone(t, tr)

	err := tr.Cancel(context.Background())
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	_, _, _, updates := api.snapshotCounts()
	if updates != 0 {
		t.Fatal("no status PATCH may be sent for a terminal ride")
	}
}

func TestCancelFailureLeavesSnapshotUntouched(t *testing.T) {
	api := &fakeAPI{
		statusSeq: []models.Status{models.StatusBooked},
		updateErr: &errs.NetworkError{Op: "rideapi.UpdateStatus", Status: 503},
	}
	tr := newTestTracker(api, &fakeRoutes{}, false).Track("r1")
	defer tr.Stop()
	before := waitState(t, tr, ViewTracking)

	if err := tr.Cancel(context.Background()); err == nil {
		t.Fatal("expected cancel to report the failure")
	}
	after := tr.Snapshot()
	if after.State != ViewTracking || after.Ride.Status != before.Ride.Status {
		t.Fatalf("snapshot changed on failed cancel: %+v", after)
	}
	select {
	case <-tr.Done():
		t.Fatal("polling must continue after a failed cancel")
	default:
	}
}

func TestRouteDerivedOnceWhileEndpointsUnchanged(t *testing.T) {
	routes := &fakeRoutes{}
	api := &fakeAPI{statusSeq: []models.Status{
		models.StatusBooked, models.StatusOngoing, models.StatusOngoing, models.StatusCompleted,
	}}
	tr := newTestTracker(api, routes, false).Track("r1")

	waitDone(t, tr)
	if routes.callCount() != 1 {
		t.Fatalf("expected a single route derivation, got %d", routes.callCount())
	}
	if snap := tr.Snapshot(); snap.Route == nil || snap.Route.DistanceKm != 6.2 {
		t.Fatalf("expected derived route on snapshot, got %+v", snap.Route)
	}
}

func TestRouteFailureDegradesDisplayOnly(t *testing.T) {
	routes := &fakeRoutes{err: &errs.RoutingError{Reason: "no route"}}
	api := &fakeAPI{statusSeq: []models.Status{models.StatusCompleted}}
	tr := newTestTracker(api, routes, false).Track("r1")

	waitDone(t, tr)
	snap := tr.Snapshot()
	if snap.State != ViewTracking || snap.Ride == nil {
		t.Fatalf("route failure must not affect ride status, got %+v", snap)
	}
	if snap.Route != nil {
		t.Fatalf("expected no route, got %+v", snap.Route)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	api := &fakeAPI{statusSeq: []models.Status{models.StatusBooked, models.StatusCompleted}}
	tr := newTestTracker(api, &fakeRoutes{}, false).Track("r1")
	ch, unsub := tr.Subscribe()
	defer unsub()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if s.State == ViewTracking && s.Ride != nil && s.Ride.Status == models.StatusCompleted {
				return
			}
		case <-deadline:
			t.Fatal("never observed the completed snapshot")
		}
	}
}

func TestStopDiscardsLateTicks(t *testing.T) {
	api := &fakeAPI{statusSeq: []models.Status{models.StatusBooked}}
	tr := newTestTracker(api, &fakeRoutes{}, false).Track("r1")
	waitState(t, tr, ViewTracking)

	tr.Stop()
	waitDone(t, tr)
	gets, _, _, _ := api.snapshotCounts()
	time.Sleep(30 * time.Millisecond)
	gets2, _, _, _ := api.snapshotCounts()
	if gets2 != gets {
		t.Fatalf("tick fired after Stop: %d -> %d", gets, gets2)
	}
}
