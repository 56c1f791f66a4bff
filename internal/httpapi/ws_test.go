package httpapi

import (
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/ride-booking/internal/lifecycle"
	"github.com/example/ride-booking/internal/models"
)

func TestTripRegistrySharesOneTrip(t *testing.T) {
	api := &stubAPI{rides: map[string]models.Ride{"r1": {
		ID: "r1", UserID: "u1", Pickup: wsPickup, Dropoff: wsDropoff,
		DistanceKm: 6.2, CarType: "Economy", Price: 74.40, Status: models.StatusBooked,
	}}}
	tracker := lifecycle.NewTracker(api, &stubRoutes{}, time.Hour, false, nil, slog.Default())
	reg := NewTripRegistry(tracker)

	a := reg.Acquire("r1")
	b := reg.Acquire("r1")
	if a != b {
		t.Fatal("acquires for the same ride must share one trip")
	}

	reg.Release("r1")
	select {
	case <-a.Done():
		t.Fatal("trip stopped while still held")
	default:
	}

	reg.Release("r1")
	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("trip did not stop after last release")
	}
	if _, ok := reg.Lookup("r1"); ok {
		t.Fatal("released trip still registered")
	}
}

func TestTripWSStreamsSnapshots(t *testing.T) {
	api := &stubAPI{rides: map[string]models.Ride{"r1": {
		ID: "r1", UserID: "u1", Pickup: wsPickup, Dropoff: wsDropoff,
		DistanceKm: 6.2, CarType: "Economy", Price: 74.40, Status: models.StatusOngoing,
	}}}
	srv := newTestServer(&stubGeocoder{}, api, &stubGateway{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/trips/r1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var snap lifecycle.Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			t.Fatalf("no tracking snapshot arrived: %v", err)
		}
		if snap.State == lifecycle.ViewTracking && snap.Ride != nil && snap.Ride.ID == "r1" {
			return
		}
	}
}
