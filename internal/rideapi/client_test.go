package rideapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/ride-booking/internal/errs"
	"github.com/example/ride-booking/internal/models"
)

func TestGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Get(context.Background(), "missing")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Get(context.Background(), "r1")
	var ne *errs.NetworkError
	if !errors.As(err, &ne) || ne.Status != 500 {
		t.Fatalf("expected NetworkError with status 500, got %v", err)
	}
}

func TestCreateSendsBookingRecord(t *testing.T) {
	var got CreateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/rides" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(models.Ride{
			ID: "r1", UserID: got.UserID, Pickup: got.Pickup, Dropoff: got.Dropoff,
			DistanceKm: got.DistanceKm, CarType: got.CarType, Price: got.Price,
			Status: got.Status, PaymentRef: got.PaymentRef,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ride, err := c.Create(context.Background(), CreateRequest{
		UserID:     "u1",
		Pickup:     models.GeoPoint{Label: "A", Lat: 1, Lon: 2},
		Dropoff:    models.GeoPoint{Label: "B", Lat: 3, Lon: 4},
		DistanceKm: 6.2,
		CarType:    "Economy",
		Price:      74.40,
		Status:     models.StatusBooked,
		PaymentRef: "pi_123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.ID != "r1" || got.PaymentRef != "pi_123" || got.Status != models.StatusBooked {
		t.Fatalf("unexpected round trip: ride=%+v req=%+v", ride, got)
	}
}

func TestUpdateStatusAndAdvanceUseDistinctPaths(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		json.NewEncoder(w).Encode(models.Ride{ID: "r1", Status: models.StatusCancelled,
			Pickup: models.GeoPoint{Label: "A", Lat: 1, Lon: 1}, Dropoff: models.GeoPoint{Label: "B", Lat: 2, Lon: 2}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.UpdateStatus(context.Background(), "r1", models.StatusCancelled); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := c.AdvanceDriver(context.Background(), "r1"); err != nil {
		t.Fatalf("advance: %v", err)
	}
	want := []string{"PATCH /api/rides/r1/status", "PATCH /api/rides/r1/move-driver"}
	for i, w := range want {
		if paths[i] != w {
			t.Fatalf("expected %q, got %q", w, paths[i])
		}
	}
}
