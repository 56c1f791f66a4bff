package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/example/ride-booking/internal/errs"
	"github.com/example/ride-booking/internal/lifecycle"
	"github.com/example/ride-booking/internal/models"
	"github.com/example/ride-booking/internal/payment"
	"github.com/example/ride-booking/internal/trip"
)

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 20 {
			s.writeError(w, r, &errs.ValidationError{Field: "limit", Reason: "must be 1..20"})
			return
		}
		limit = n
	}
	if len(text) < 3 {
		s.writeJSON(w, http.StatusOK, map[string]any{"suggestions": []models.GeoPoint{}})
		return
	}
	points, err := s.geocoder.Autocomplete(r.Context(), text, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"suggestions": points})
}

type quoteRequest struct {
	Pickup  models.GeoPoint `json:"pickup"`
	Dropoff models.GeoPoint `json:"dropoff"`
}

type quote struct {
	CarType   string  `json:"carType"`
	RatePerKm float64 `json:"ratePerKm"`
	Price     float64 `json:"price"`
	// Handoff carries the proposal as a query string; the client appends
	// it to the booking request untouched.
	Handoff string `json:"handoff"`
}

type quoteResponse struct {
	Route  models.RouteGeometry `json:"route"`
	Quotes []quote              `json:"quotes"`
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, &errs.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	route, err := s.routes.ComputeRoute(r.Context(), req.Pickup, req.Dropoff)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := quoteResponse{Route: route}
	for _, class := range s.catalog.Classes() {
		p, err := trip.Build(req.Pickup, req.Dropoff, route.DistanceKm, class)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Quotes = append(resp.Quotes, quote{
			CarType:   class.Name,
			RatePerKm: class.PerKmRate,
			Price:     p.Amount,
			Handoff:   trip.EncodeQuery(p).Encode(),
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type bookingRequest struct {
	UserID        string `json:"userId"`
	PaymentMethod string `json:"paymentMethod"`
}

func (s *Server) handleBooking(w http.ResponseWriter, r *http.Request) {
	proposal, err := trip.DecodeQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, ok := s.catalog.ByName(proposal.CarType); !ok {
		s.writeError(w, r, &errs.ValidationError{Field: "carType", Reason: "unknown vehicle class"})
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, &errs.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	if req.UserID == "" {
		s.writeError(w, r, &errs.ValidationError{Field: "userId"})
		return
	}
	if req.PaymentMethod == "" {
		s.writeError(w, r, &errs.ValidationError{Field: "paymentMethod"})
		return
	}

	res, err := s.booker.Book(r.Context(), req.UserID, proposal, payment.Details{PaymentMethod: req.PaymentMethod})
	if err != nil {
		var rec *errs.ReconciliationError
		if errors.As(err, &rec) {
			// Money moved but no ride exists; the reference must reach
			// the client so support can reconcile.
			s.writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":      "payment captured but ride creation failed",
				"paymentRef": rec.PaymentRef,
			})
			return
		}
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res.Ride)
}

func (s *Server) handleActiveTrip(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	ride, found := s.discovery.FindActive(r.Context(), userID)
	if !found {
		s.writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"active": true, "ride": ride})
}

func (s *Server) handleTrip(w http.ResponseWriter, r *http.Request) {
	rideID := mux.Vars(r)["ride_id"]
	if tr, ok := s.registry.Lookup(rideID); ok {
		s.writeJSON(w, http.StatusOK, tr.Snapshot())
		return
	}
	ride, err := s.rides.Get(r.Context(), rideID)
	if errors.Is(err, errs.ErrNotFound) {
		s.writeJSON(w, http.StatusOK, lifecycle.Snapshot{State: lifecycle.ViewNotFound})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lifecycle.Snapshot{State: lifecycle.ViewTracking, Ride: &ride})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	rideID := mux.Vars(r)["ride_id"]

	if tr, ok := s.registry.Lookup(rideID); ok {
		if err := tr.Cancel(r.Context()); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, tr.Snapshot())
		return
	}

	// No live trip to go through; validate against the stored ride and
	// patch the status directly.
	ride, err := s.rides.Get(r.Context(), rideID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !models.CanTransition(ride.Status, models.StatusCancelled) {
		s.writeError(w, r, &errs.ValidationError{Field: "status", Reason: "ride already " + string(ride.Status)})
		return
	}
	if _, err := s.rides.UpdateStatus(r.Context(), rideID, models.StatusCancelled); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lifecycle.Snapshot{State: lifecycle.ViewNotFound})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

// writeError maps the error taxonomy onto status codes. Validation
// failures are the caller's fault, payment declines are 402, absent
// rides 404, and collaborator faults 502.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *errs.ValidationError
		pe *errs.PaymentError
		ne *errs.NetworkError
		re *errs.RoutingError
	)
	status := http.StatusInternalServerError
	body := map[string]any{"error": err.Error()}
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		body["field"] = ve.Field
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &pe):
		status = http.StatusPaymentRequired
		body["stage"] = pe.Stage
	case errors.As(err, &ne), errors.As(err, &re):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, body)
}
