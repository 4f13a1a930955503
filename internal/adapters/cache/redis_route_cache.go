package cache

import (
	"context"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/platform/obs"
	"delivery-route-engine/internal/ports"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

const (
	routeKeyPrefix  = "route:v1:"
	DefaultRouteTTL = 6 * time.Hour
)

// RedisRouteCache stores optimized routes returned by a directions provider.
// Entries are keyed by RouteKey and expire after TTL.
type RedisRouteCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisRouteCache(client *redis.Client, ttl time.Duration) *RedisRouteCache {
	if ttl <= 0 {
		ttl = DefaultRouteTTL
	}
	return &RedisRouteCache{Client: client, TTL: ttl}
}

// RouteKey fingerprints an optimization request. Coordinates are rounded to
// five decimal places (about one metre) so equivalent requests share a key.
func RouteKey(
	mode string,
	origin domain.Coordinate,
	destination domain.Coordinate,
	waypoints []domain.Coordinate,
) string {
	d := xxhash.New()
	_, _ = d.WriteString(mode)

	write := func(c domain.Coordinate) {
		_, _ = d.WriteString("|")
		_, _ = d.WriteString(strconv.FormatInt(int64(math.Round(c.Lat*1e5)), 10))
		_, _ = d.WriteString(",")
		_, _ = d.WriteString(strconv.FormatInt(int64(math.Round(c.Lng*1e5)), 10))
	}

	write(origin)
	write(destination)
	_, _ = d.WriteString("|w")
	for _, w := range waypoints {
		write(w)
	}

	return routeKeyPrefix + strconv.FormatUint(d.Sum64(), 16)
}

// Fetch a cached route. The boolean reports whether the key was present.
func (c *RedisRouteCache) Get(ctx context.Context, key string) (_ ports.OptimizedRoute, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if c.Client == nil {
		return ports.OptimizedRoute{}, false, errors.New("route cache: redis client is nil")
	}

	raw, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.OptimizedRoute{}, false, nil
	}
	if err != nil {
		return ports.OptimizedRoute{}, false, fmt.Errorf("get route cache key=%s: %w", key, err)
	}

	route, err := decodeRoute(raw)
	if err != nil {
		return ports.OptimizedRoute{}, false, fmt.Errorf("get route cache key=%s: %w", key, err)
	}

	return route, true, nil
}

// Store a route under key with the cache TTL.
func (c *RedisRouteCache) Put(ctx context.Context, key string, route ports.OptimizedRoute) (err error) {
	defer obs.Time(ctx, "route.cache.Put")(&err)

	if c.Client == nil {
		return errors.New("route cache: redis client is nil")
	}

	raw, err := encodeRoute(route)
	if err != nil {
		return fmt.Errorf("put route cache: %w", err)
	}

	if err := c.Client.Set(ctx, key, raw, c.TTL).Err(); err != nil {
		return fmt.Errorf("put route cache key=%s: %w", key, err)
	}

	return nil
}
