package simulator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/ride-booking/internal/errs"
	"github.com/example/ride-booking/internal/models"
)

// Server exposes the ride-state API the booking app's rideapi client
// expects.
type Server struct {
	svc    *Service
	logger *slog.Logger
	mux    *mux.Router
}

func NewServer(svc *Service, logger *slog.Logger) *Server {
	s := &Server{svc: svc, logger: logger, mux: mux.NewRouter()}
	s.mux.HandleFunc("/api/rides", s.handleCreate).Methods("POST")
	s.mux.HandleFunc("/api/rides/user/{user_id}", s.handleList).Methods("GET")
	s.mux.HandleFunc("/api/rides/{ride_id}", s.handleGet).Methods("GET")
	s.mux.HandleFunc("/api/rides/{ride_id}/status", s.handleStatus).Methods("PATCH")
	s.mux.HandleFunc("/api/rides/{ride_id}/move-driver", s.handleMoveDriver).Methods("PATCH")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

type createRideRequest struct {
	UserID     string          `json:"userId"`
	Pickup     models.GeoPoint `json:"pickup"`
	Dropoff    models.GeoPoint `json:"dropoff"`
	DistanceKm float64         `json:"distanceKm"`
	CarType    string          `json:"carType"`
	Price      float64         `json:"price"`
	Status     models.Status   `json:"status"`
	PaymentRef string          `json:"paymentReference"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ride, err := s.svc.Create(r.Context(), models.Ride{
		UserID:     req.UserID,
		Pickup:     req.Pickup,
		Dropoff:    req.Dropoff,
		DistanceKm: req.DistanceKm,
		CarType:    req.CarType,
		Price:      req.Price,
		Status:     req.Status,
		PaymentRef: req.PaymentRef,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, ride)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ride, err := s.svc.Get(r.Context(), mux.Vars(r)["ride_id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ride)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	rides, err := s.svc.ListByUser(r.Context(), mux.Vars(r)["user_id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	if rides == nil {
		rides = []models.Ride{}
	}
	s.writeJSON(w, http.StatusOK, rides)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ride, err := s.svc.UpdateStatus(r.Context(), mux.Vars(r)["ride_id"], req.Status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ride)
}

func (s *Server) handleMoveDriver(w http.ResponseWriter, r *http.Request) {
	ride, err := s.svc.MoveDriver(r.Context(), mux.Vars(r)["ride_id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ride)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ve *errs.ValidationError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		http.Error(w, "ride not found", http.StatusNotFound)
	case errors.As(err, &ve):
		http.Error(w, ve.Error(), http.StatusConflict)
	default:
		s.logger.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
