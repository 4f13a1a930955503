package directions

import (
	"context"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/geo"
	"delivery-route-engine/internal/ports"
	"sync"
	"time"
)

// MockOptimizer is a scripted RouteOptimizer for tests and offline runs.
//
// With no Result configured it keeps the submitted order and returns the
// straight-line path, polyline round-tripped like a real provider response.
type MockOptimizer struct {
	Result *ports.OptimizedRoute
	Err    error
	// Delay before answering; honours context cancellation.
	Delay time.Duration

	mu    sync.Mutex
	calls int
}

func NewMockOptimizer() *MockOptimizer {
	return &MockOptimizer{}
}

func (m *MockOptimizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockOptimizer) Optimize(
	ctx context.Context,
	origin domain.Coordinate,
	destination domain.Coordinate,
	waypoints []domain.Coordinate,
) (ports.OptimizedRoute, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ports.OptimizedRoute{}, &domain.ProviderError{Reason: "mock optimizer timed out", Err: ctx.Err()}
		case <-timer.C:
		}
	}

	if m.Err != nil {
		return ports.OptimizedRoute{}, m.Err
	}
	if m.Result != nil {
		return *m.Result, nil
	}

	order := make([]int, len(waypoints))
	for i := range order {
		order[i] = i
	}

	path := make([]domain.Coordinate, 0, len(waypoints)+2)
	path = append(path, origin)
	path = append(path, waypoints...)
	path = append(path, destination)

	geometry, err := geo.DecodePolyline(geo.EncodePolyline(path))
	if err != nil {
		return ports.OptimizedRoute{}, &domain.ProviderError{Reason: "mock geometry", Err: err}
	}

	distanceKm := geo.TotalPathDistanceKm(path)

	return ports.OptimizedRoute{
		WaypointOrder:    order,
		Waypoints:        append([]domain.Coordinate(nil), waypoints...),
		Geometry:         geometry,
		TotalDistanceKm:  distanceKm,
		TotalDurationMin: distanceKm * 2,
	}, nil
}
