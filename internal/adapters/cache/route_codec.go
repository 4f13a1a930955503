package cache

import (
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/geo"
	"delivery-route-engine/internal/ports"
	"encoding/json"
	"fmt"
)

// cachedRoute is the stored form. Geometry is kept polyline-encoded since it
// was decoded from the same format at five-digit precision.
type cachedRoute struct {
	WaypointOrder    []int               `json:"waypoint_order"`
	Waypoints        []domain.Coordinate `json:"waypoints"`
	Geometry         string              `json:"geometry"`
	TotalDistanceKm  float64             `json:"total_distance_km"`
	TotalDurationMin float64             `json:"total_duration_min"`
}

func encodeRoute(route ports.OptimizedRoute) ([]byte, error) {
	raw, err := json.Marshal(cachedRoute{
		WaypointOrder:    route.WaypointOrder,
		Waypoints:        route.Waypoints,
		Geometry:         geo.EncodePolyline(route.Geometry),
		TotalDistanceKm:  route.TotalDistanceKm,
		TotalDurationMin: route.TotalDurationMin,
	})
	if err != nil {
		return nil, fmt.Errorf("encode route: %w", err)
	}
	return raw, nil
}

func decodeRoute(raw []byte) (ports.OptimizedRoute, error) {
	var cr cachedRoute
	if err := json.Unmarshal(raw, &cr); err != nil {
		return ports.OptimizedRoute{}, fmt.Errorf("decode route: %w", err)
	}

	geometry, err := geo.DecodePolyline(cr.Geometry)
	if err != nil {
		return ports.OptimizedRoute{}, fmt.Errorf("decode route geometry: %w", err)
	}

	return ports.OptimizedRoute{
		WaypointOrder:    cr.WaypointOrder,
		Waypoints:        cr.Waypoints,
		Geometry:         geometry,
		TotalDistanceKm:  cr.TotalDistanceKm,
		TotalDurationMin: cr.TotalDurationMin,
	}, nil
}
