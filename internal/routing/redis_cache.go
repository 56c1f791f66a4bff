package routing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-booking/internal/models"
)

// RedisCache shares computed routes across app-server instances. Misses
// and redis errors are indistinguishable on purpose; the engine simply
// recomputes.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, ttl time.Duration) *RedisCache {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisCache{client: c, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, pickup, dropoff models.GeoPoint) (models.RouteGeometry, bool) {
	b, err := r.client.Get(ctx, redisKey(pickup, dropoff)).Bytes()
	if err != nil {
		return models.RouteGeometry{}, false
	}
	var g models.RouteGeometry
	if err := json.Unmarshal(b, &g); err != nil {
		return models.RouteGeometry{}, false
	}
	return g, true
}

func (r *RedisCache) Set(ctx context.Context, pickup, dropoff models.GeoPoint, g models.RouteGeometry) {
	b, err := json.Marshal(g)
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, redisKey(pickup, dropoff), b, r.ttl).Err()
}

func redisKey(pickup, dropoff models.GeoPoint) string {
	return "route:" + cacheKey(pickup, dropoff)
}
