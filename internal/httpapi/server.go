// Package httpapi exposes the booking app over HTTP: JSON endpoints for
// geocoding, quoting, booking and trip control, plus websocket streams
// for live trip snapshots and autocomplete sessions.
package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ride-booking/internal/geocode"
	"github.com/example/ride-booking/internal/lifecycle"
	"github.com/example/ride-booking/internal/pricing"
	"github.com/example/ride-booking/internal/rideapi"
	"github.com/example/ride-booking/internal/routing"
)

type Server struct {
	logger    *slog.Logger
	geocoder  geocode.Source
	routes    routing.Source
	catalog   *pricing.Catalog
	rides     rideapi.API
	booker    *lifecycle.Booker
	tracker   *lifecycle.Tracker
	discovery *lifecycle.Discovery
	registry  *TripRegistry
	mux       *mux.Router
}

func NewServer(
	logger *slog.Logger,
	geocoder geocode.Source,
	routes routing.Source,
	catalog *pricing.Catalog,
	rides rideapi.API,
	booker *lifecycle.Booker,
	tracker *lifecycle.Tracker,
	discovery *lifecycle.Discovery,
) *Server {
	s := &Server{
		logger:    logger,
		geocoder:  geocoder,
		routes:    routes,
		catalog:   catalog,
		rides:     rides,
		booker:    booker,
		tracker:   tracker,
		discovery: discovery,
		registry:  NewTripRegistry(tracker),
		mux:       mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routesTable()
	return s
}

func (s *Server) routesTable() {
	s.mux.HandleFunc("/api/geocode", s.handleGeocode).Methods("GET")
	s.mux.HandleFunc("/api/quotes", s.handleQuotes).Methods("POST")
	s.mux.HandleFunc("/api/bookings", s.handleBooking).Methods("POST")
	s.mux.HandleFunc("/api/trips/active", s.handleActiveTrip).Methods("GET")
	s.mux.HandleFunc("/api/trips/{ride_id}", s.handleTrip).Methods("GET")
	s.mux.HandleFunc("/api/trips/{ride_id}/cancel", s.handleCancel).Methods("POST")
	s.mux.HandleFunc("/ws/trips/{ride_id}", s.handleTripWS)
	s.mux.HandleFunc("/ws/geocode", s.handleGeocodeWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }

// TripRegistry shares one polling trip per ride across subscribers. The
// trip starts on first acquire and stops once the last holder releases,
// so a ride with three open tabs still polls once.
type TripRegistry struct {
	tracker *lifecycle.Tracker

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	trip *lifecycle.Trip
	refs int
}

func NewTripRegistry(tracker *lifecycle.Tracker) *TripRegistry {
	return &TripRegistry{tracker: tracker, entries: make(map[string]*registryEntry)}
}

// Acquire returns the shared trip for a ride, starting it if needed.
// Every Acquire must be paired with a Release.
func (g *TripRegistry) Acquire(rideID string) *lifecycle.Trip {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.entries[rideID]; ok {
		e.refs++
		return e.trip
	}
	e := &registryEntry{trip: g.tracker.Track(rideID), refs: 1}
	g.entries[rideID] = e
	return e.trip
}

func (g *TripRegistry) Release(rideID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[rideID]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		e.trip.Stop()
		delete(g.entries, rideID)
	}
}

// Lookup returns the shared trip without taking a reference.
func (g *TripRegistry) Lookup(rideID string) (*lifecycle.Trip, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[rideID]
	if !ok {
		return nil, false
	}
	return e.trip, true
}
