// Package simulator is the development stand-in for the ride-state
// service: it owns durable ride records and walks a pretend driver from
// pickup to dropoff so the booking app has something to track locally.
package simulator

import (
	"context"
	"sync"

	"github.com/example/ride-booking/internal/errs"
	"github.com/example/ride-booking/internal/models"
)

// Store persists ride records. Save is create-or-replace keyed by ride id.
type Store interface {
	Save(ctx context.Context, r models.Ride) error
	Get(ctx context.Context, id string) (models.Ride, error)
	ListByUser(ctx context.Context, userID string) ([]models.Ride, error)
}

type MemoryStore struct {
	mu    sync.RWMutex
	rides map[string]models.Ride
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rides: make(map[string]models.Ride)}
}

func (m *MemoryStore) Save(_ context.Context, r models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[r.ID]; !ok {
		m.order = append(m.order, r.ID)
	}
	m.rides[r.ID] = r
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rides[id]
	if !ok {
		return models.Ride{}, errs.ErrNotFound
	}
	return r, nil
}

// ListByUser returns the user's rides newest first.
func (m *MemoryStore) ListByUser(_ context.Context, userID string) ([]models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Ride
	for i := len(m.order) - 1; i >= 0; i-- {
		if r := m.rides[m.order[i]]; r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}
