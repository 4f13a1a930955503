package directions

import (
	"context"
	"delivery-route-engine/internal/adapters/cache"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/geo"
	"delivery-route-engine/internal/ports"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	depot     = domain.Coordinate{Lat: -22.88, Lng: -43.12}
	waypoints = []domain.Coordinate{
		{Lat: -22.90, Lng: -43.10},
		{Lat: -22.93, Lng: -43.10},
	}
)

func newTestProvider(server *httptest.Server, routeCache ports.RouteCache) *GoogleDirectionsProvider {
	return &GoogleDirectionsProvider{
		session:    server.Client(),
		apiKey:     "test-key",
		baseURL:    server.URL,
		mode:       defaultMode,
		retry:      retryPolicy{attempts: 3, backoff: time.Millisecond},
		routeCache: routeCache,
	}
}

func okResponse(order []int, path []domain.Coordinate) map[string]any {
	return map[string]any{
		"status": "OK",
		"routes": []map[string]any{{
			"legs": []map[string]any{
				{"distance": map[string]any{"value": 1500}, "duration": map[string]any{"value": 300}},
				{"distance": map[string]any{"value": 2500}, "duration": map[string]any{"value": 420}},
				{"distance": map[string]any{"value": 1000}, "duration": map[string]any{"value": 180}},
			},
			"overview_polyline": map[string]any{"points": geo.EncodePolyline(path)},
			"waypoint_order":    order,
		}},
	}
}

func TestOptimize_Success(t *testing.T) {
	path := []domain.Coordinate{depot, waypoints[1], waypoints[0], depot}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/directions/json", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "-22.88,-43.12", q.Get("origin"))
		assert.Equal(t, "-22.88,-43.12", q.Get("destination"))
		assert.Equal(t, "optimize:true|-22.9,-43.1|-22.93,-43.1", q.Get("waypoints"))
		assert.Equal(t, "driving", q.Get("mode"))
		assert.Equal(t, "test-key", q.Get("key"))

		_ = json.NewEncoder(w).Encode(okResponse([]int{1, 0}, path))
	}))
	defer server.Close()

	p := newTestProvider(server, nil)

	got, err := p.Optimize(context.Background(), depot, depot, waypoints)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 0}, got.WaypointOrder)
	assert.Equal(t, []domain.Coordinate{waypoints[1], waypoints[0]}, got.Waypoints)
	assert.InDelta(t, 5.0, got.TotalDistanceKm, 1e-9)
	assert.InDelta(t, 15.0, got.TotalDurationMin, 1e-9)

	require.Len(t, got.Geometry, len(path))
	for i := range path {
		assert.InDelta(t, path[i].Lat, got.Geometry[i].Lat, 1e-5)
		assert.InDelta(t, path[i].Lng, got.Geometry[i].Lng, 1e-5)
	}
}

func TestOptimize_NonOKStatus(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","routes":[]}`))
	}))
	defer server.Close()

	_, err := newTestProvider(server, nil).Optimize(context.Background(), depot, depot, waypoints)

	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "REQUEST_DENIED")
	assert.Contains(t, pe.Reason, "API key is invalid")
	assert.Equal(t, int32(1), calls.Load(), "REQUEST_DENIED is not retried")
}

func TestOptimize_RetriesTransientBodyStatus(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"status":"OVER_QUERY_LIMIT","routes":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(okResponse([]int{0, 1}, []domain.Coordinate{depot, depot}))
	}))
	defer server.Close()

	got, err := newTestProvider(server, nil).Optimize(context.Background(), depot, depot, waypoints)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, got.WaypointOrder)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOptimize_GivesUpOnPersistentUnknownError(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"status":"UNKNOWN_ERROR","routes":[]}`))
	}))
	defer server.Close()

	_, err := newTestProvider(server, nil).Optimize(context.Background(), depot, depot, waypoints)

	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "status UNKNOWN_ERROR", pe.Reason)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryPolicy_Retryable(t *testing.T) {
	p := defaultRetryPolicy()
	ctx := context.Background()

	cases := map[string]struct {
		err  error
		want bool
	}{
		"rate limited":     {&statusCodeError{Code: http.StatusTooManyRequests}, true},
		"bad gateway":      {&statusCodeError{Code: http.StatusBadGateway}, true},
		"bad request":      {&statusCodeError{Code: http.StatusBadRequest}, false},
		"over query limit": {&apiStatusError{Status: "OVER_QUERY_LIMIT"}, true},
		"unknown error":    {&apiStatusError{Status: "UNKNOWN_ERROR"}, true},
		"zero results":     {&apiStatusError{Status: "ZERO_RESULTS"}, false},
		"decode failure":   {errors.New("decode directions response: unexpected EOF"), false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, p.retryable(ctx, tc.err))
		})
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.False(t, p.retryable(canceled, &statusCodeError{Code: http.StatusServiceUnavailable}))
}

func TestOptimize_MalformedPolylineIsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := okResponse([]int{0, 1}, nil)
		resp["routes"].([]map[string]any)[0]["overview_polyline"] = map[string]any{"points": "_p~iF~ps|U_ulL"}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	_, err := newTestProvider(server, nil).Optimize(context.Background(), depot, depot, waypoints)

	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.True(t, errors.Is(err, geo.ErrMalformedPolyline))
}

func TestOptimize_InvalidWaypointOrder(t *testing.T) {
	for name, order := range map[string][]int{
		"too short":    {0},
		"out of range": {0, 2},
		"repeated":     {1, 1},
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(okResponse(order, []domain.Coordinate{depot}))
			}))
			defer server.Close()

			_, err := newTestProvider(server, nil).Optimize(context.Background(), depot, depot, waypoints)

			var pe *domain.ProviderError
			require.ErrorAs(t, err, &pe)
		})
	}
}

func TestOptimize_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(okResponse([]int{0, 1}, []domain.Coordinate{depot, depot}))
	}))
	defer server.Close()

	_, err := newTestProvider(server, nil).Optimize(context.Background(), depot, depot, waypoints)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOptimize_DoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestProvider(server, nil).Optimize(context.Background(), depot, depot, waypoints)

	var he *statusCodeError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOptimize_TooManyWaypoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider should not be called above the waypoint limit")
	}))
	defer server.Close()

	many := make([]domain.Coordinate, MaxWaypoints+1)
	_, err := newTestProvider(server, nil).Optimize(context.Background(), depot, depot, many)

	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "exceeds provider limit")
}

func TestOptimize_ContextTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestProvider(server, nil).Optimize(ctx, depot, depot, waypoints)

	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
}

func TestOptimize_UsesRouteCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	routeCache := cache.NewRedisRouteCache(client, time.Hour)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(okResponse([]int{1, 0}, []domain.Coordinate{depot, depot}))
	}))
	defer server.Close()

	p := newTestProvider(server, routeCache)

	first, err := p.Optimize(context.Background(), depot, depot, waypoints)
	require.NoError(t, err)

	second, err := p.Optimize(context.Background(), depot, depot, waypoints)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "second call should be served from cache")
	assert.Equal(t, first.WaypointOrder, second.WaypointOrder)
	assert.Equal(t, first.TotalDistanceKm, second.TotalDistanceKm)
	assert.True(t, strings.HasPrefix(mr.Keys()[0], "route:v1:"))
}

func TestNewGoogleDirectionsProvider_RequiresKey(t *testing.T) {
	_, err := NewGoogleDirectionsProvider("  ", nil)
	assert.Error(t, err)
}
