package ports

import (
	"context"
	"delivery-route-engine/internal/domain"
)

// Result of an external route optimization.
type OptimizedRoute struct {
	// Provider visiting order as indices into the submitted waypoints.
	WaypointOrder []int
	// Submitted waypoints reordered by WaypointOrder.
	Waypoints        []domain.Coordinate
	Geometry         []domain.Coordinate
	TotalDistanceKm  float64
	TotalDurationMin float64
}

// Contract for delegating stop ordering and path geometry to an external
// directions provider.
type RouteOptimizer interface {
	// Return an optimized visiting order from origin through waypoints to
	// destination. Failures are reported as *domain.ProviderError.
	Optimize(
		ctx context.Context,
		origin domain.Coordinate,
		destination domain.Coordinate,
		waypoints []domain.Coordinate,
	) (OptimizedRoute, error)
}
