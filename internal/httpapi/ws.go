package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/ride-booking/internal/geocode"
	"github.com/example/ride-booking/internal/models"
)

var upgrader = websocket.Upgrader{}

// handleTripWS streams trip snapshots to the client over a websocket.
// All connections to the same ride share one polling trip via the
// registry; the trip stops when the last connection goes away.
func (s *Server) handleTripWS(w http.ResponseWriter, r *http.Request) {
	rideID := mux.Vars(r)["ride_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	tr := s.registry.Acquire(rideID)
	defer s.registry.Release(rideID)

	ch, unsub := tr.Subscribe()
	defer unsub()

	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap := <-ch:
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-tr.Done():
			// Flush the terminal snapshot if the fanout raced Done.
			select {
			case snap := <-ch:
				if err := conn.WriteJSON(snap); err != nil {
					return
				}
			default:
			}
			if err := conn.WriteJSON(tr.Snapshot()); err != nil {
				return
			}
			<-clientGone
			return
		case <-clientGone:
			return
		}
	}
}

// geocodeFrame is one client message on the autocomplete socket.
type geocodeFrame struct {
	Type  string          `json:"type"` // "update" or "select"
	Text  string          `json:"text,omitempty"`
	Point models.GeoPoint `json:"point,omitempty"`
}

// handleGeocodeWS runs one autocomplete session per connection: edits
// stream in, debounced suggestion sets stream out.
func (s *Server) handleGeocodeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	resolver := geocode.NewResolver(s.geocoder, s.logger)
	defer resolver.Close()

	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var f geocodeFrame
			if err := json.Unmarshal(data, &f); err != nil {
				s.logger.Debug("bad geocode frame", "error", err)
				continue
			}
			switch f.Type {
			case "update":
				resolver.Update(f.Text)
			case "select":
				resolver.Select(f.Point)
			}
		}
	}()

	for {
		select {
		case sug := <-resolver.Suggestions():
			if err := conn.WriteJSON(sug); err != nil {
				return
			}
		case <-clientGone:
			return
		}
	}
}
