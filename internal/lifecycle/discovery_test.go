package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/example/ride-booking/internal/models"
)

func TestFindActivePicksFirstUnresolvedRide(t *testing.T) {
	done := testRide(models.StatusCompleted)
	done.ID = "r-done"
	active := testRide(models.StatusOngoing)
	active.ID = "r-active"
	api := &fakeAPI{listRides: []models.Ride{done, active}}
	d := NewDiscovery(api, time.Minute, slog.Default())

	ride, found := d.FindActive(context.Background(), "u1")
	if !found || ride.ID != "r-active" {
		t.Fatalf("expected r-active, got %q found=%v", ride.ID, found)
	}

	// Re-running the scan over unchanged history yields the same ride.
	again, found := d.FindActive(context.Background(), "u1")
	if !found || again.ID != ride.ID {
		t.Fatalf("scan is not idempotent: got %q found=%v", again.ID, found)
	}
}

func TestFindActiveMatchesStatusCaseInsensitively(t *testing.T) {
	r := testRide("BOOKED")
	api := &fakeAPI{listRides: []models.Ride{r}}
	d := NewDiscovery(api, time.Minute, slog.Default())

	ride, found := d.FindActive(context.Background(), "u1")
	if !found {
		t.Fatal("uppercase booked status must match")
	}
	if ride.Status != models.StatusBooked {
		t.Fatalf("status not normalized: %q", ride.Status)
	}
}

func TestFindActiveEmptyUserSkipsScan(t *testing.T) {
	api := &fakeAPI{listRides: []models.Ride{testRide(models.StatusBooked)}}
	d := NewDiscovery(api, time.Minute, slog.Default())

	if _, found := d.FindActive(context.Background(), ""); found {
		t.Fatal("expected no active trip for an absent user")
	}
	if api.listCalls != 0 {
		t.Fatalf("expected zero list calls, got %d", api.listCalls)
	}
}

func TestFindActiveSwallowsListFailure(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("history unavailable")}
	d := NewDiscovery(api, time.Minute, slog.Default())

	if _, found := d.FindActive(context.Background(), "u1"); found {
		t.Fatal("a failed scan must report no active trip")
	}
}

func TestFindActiveIgnoresUnknownStatuses(t *testing.T) {
	odd := testRide("limbo")
	api := &fakeAPI{listRides: []models.Ride{odd, testRide(models.StatusCancelled)}}
	d := NewDiscovery(api, time.Minute, slog.Default())

	if _, found := d.FindActive(context.Background(), "u1"); found {
		t.Fatal("unknown and terminal statuses must not count as active")
	}
}

func TestWatchDeliversAndRefreshes(t *testing.T) {
	api := &fakeAPI{listRides: []models.Ride{testRide(models.StatusBooked)}}
	d := NewDiscovery(api, time.Hour, slog.Default())
	w := d.Watch("u1")
	defer w.Stop()

	select {
	case obs := <-w.Updates():
		if !obs.Found || obs.Ride.ID != "r1" {
			t.Fatalf("unexpected observation: %+v", obs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no observation delivered")
	}

	// The hour-long timer would never fire; Refresh must force a scan.
	w.Refresh()
	deadline := time.Now().Add(2 * time.Second)
	for {
		api.mu.Lock()
		calls := api.listCalls
		api.mu.Unlock()
		if calls >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("refresh did not trigger a re-scan, calls=%d", calls)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWatchStopHaltsScanning(t *testing.T) {
	api := &fakeAPI{}
	d := NewDiscovery(api, time.Millisecond, slog.Default())
	w := d.Watch("u1")
	w.Stop()

	api.mu.Lock()
	calls := api.listCalls
	api.mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	api.mu.Lock()
	calls2 := api.listCalls
	api.mu.Unlock()
	if calls2 != calls {
		t.Fatalf("scan ran after Stop: %d -> %d", calls, calls2)
	}
}
