package routing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/ride-booking/internal/models"
)

// Source is anything that can compute a route. The Engine and the raw
// Client both satisfy it.
type Source interface {
	ComputeRoute(ctx context.Context, pickup, dropoff models.GeoPoint) (models.RouteGeometry, error)
}

// Cache stores computed routes keyed by the endpoint pair. Endpoints are
// immutable once selected, so a hit is always safe to reuse within the TTL.
type Cache interface {
	Get(ctx context.Context, pickup, dropoff models.GeoPoint) (models.RouteGeometry, bool)
	Set(ctx context.Context, pickup, dropoff models.GeoPoint, g models.RouteGeometry)
}

// Engine wraps a Source with a read-through cache.
type Engine struct {
	src    Source
	cache  Cache
	logger *slog.Logger
}

func NewEngine(src Source, cache Cache, logger *slog.Logger) *Engine {
	return &Engine{src: src, cache: cache, logger: logger}
}

func (e *Engine) ComputeRoute(ctx context.Context, pickup, dropoff models.GeoPoint) (models.RouteGeometry, error) {
	if e.cache != nil {
		if g, ok := e.cache.Get(ctx, pickup, dropoff); ok {
			return g, nil
		}
	}
	g, err := e.src.ComputeRoute(ctx, pickup, dropoff)
	if err != nil {
		return models.RouteGeometry{}, err
	}
	if e.cache != nil {
		e.cache.Set(ctx, pickup, dropoff, g)
	}
	return g, nil
}

func cacheKey(pickup, dropoff models.GeoPoint) string {
	return fmt.Sprintf("%.6f,%.6f|%.6f,%.6f", pickup.Lat, pickup.Lon, dropoff.Lat, dropoff.Lon)
}

// MemoryCache is a tiny in-process route cache with a TTL.
type MemoryCache struct {
	mu    sync.RWMutex
	store map[string]memoryEntry
	ttl   time.Duration
}

type memoryEntry struct {
	g  models.RouteGeometry
	ts time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{store: make(map[string]memoryEntry), ttl: ttl}
}

func (c *MemoryCache) Get(_ context.Context, pickup, dropoff models.GeoPoint) (models.RouteGeometry, bool) {
	k := cacheKey(pickup, dropoff)
	c.mu.RLock()
	e, ok := c.store[k]
	c.mu.RUnlock()
	if !ok {
		return models.RouteGeometry{}, false
	}
	if time.Since(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, k)
		c.mu.Unlock()
		return models.RouteGeometry{}, false
	}
	return e.g, true
}

func (c *MemoryCache) Set(_ context.Context, pickup, dropoff models.GeoPoint, g models.RouteGeometry) {
	c.mu.Lock()
	c.store[cacheKey(pickup, dropoff)] = memoryEntry{g: g, ts: time.Now()}
	c.mu.Unlock()
}
