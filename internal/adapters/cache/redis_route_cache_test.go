package cache

import (
	"context"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisRouteCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisRouteCache(client, time.Minute), mr
}

func TestRedisRouteCache_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	_, ok, err := c.Get(context.Background(), "route:v1:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRouteCache_PutGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	route := ports.OptimizedRoute{
		WaypointOrder: []int{1, 0},
		Waypoints:     []domain.Coordinate{{Lat: -22.93, Lng: -43.1}, {Lat: -22.9, Lng: -43.1}},
		Geometry: []domain.Coordinate{
			{Lat: -22.88, Lng: -43.12},
			{Lat: -22.93, Lng: -43.1},
			{Lat: -22.9, Lng: -43.1},
			{Lat: -22.88, Lng: -43.12},
		},
		TotalDistanceKm:  14.2,
		TotalDurationMin: 31,
	}

	key := RouteKey("driving", route.Geometry[0], route.Geometry[0], route.Waypoints)
	require.NoError(t, c.Put(ctx, key, route))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, route.WaypointOrder, got.WaypointOrder)
	assert.Equal(t, route.Waypoints, got.Waypoints)
	assert.Equal(t, route.TotalDistanceKm, got.TotalDistanceKm)
	assert.Equal(t, route.TotalDurationMin, got.TotalDurationMin)
	require.Len(t, got.Geometry, len(route.Geometry))
	for i := range route.Geometry {
		assert.InDelta(t, route.Geometry[i].Lat, got.Geometry[i].Lat, 1e-5)
		assert.InDelta(t, route.Geometry[i].Lng, got.Geometry[i].Lng, 1e-5)
	}

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after TTL")
}

func TestRedisRouteCache_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, mr.Set("route:v1:bad", "{not json"))

	_, _, err := c.Get(context.Background(), "route:v1:bad")
	assert.Error(t, err)
}

func TestRouteKey(t *testing.T) {
	o := domain.Coordinate{Lat: -22.88, Lng: -43.12}
	a := domain.Coordinate{Lat: -22.9, Lng: -43.1}
	b := domain.Coordinate{Lat: -22.93, Lng: -43.1}

	k1 := RouteKey("driving", o, o, []domain.Coordinate{a, b})
	k2 := RouteKey("driving", o, o, []domain.Coordinate{{Lat: a.Lat + 1e-7, Lng: a.Lng}, b})
	assert.Equal(t, k1, k2, "sub-metre jitter should not change the key")

	assert.NotEqual(t, k1, RouteKey("driving", o, o, []domain.Coordinate{b, a}))
	assert.NotEqual(t, k1, RouteKey("walking", o, o, []domain.Coordinate{a, b}))
}
