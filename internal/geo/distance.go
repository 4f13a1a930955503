// Package geo holds the geometric primitives of the planner: great-circle
// distance and the polyline path encoding used by directions providers.
package geo

import (
	"delivery-route-engine/internal/domain"
	"math"
)

// Mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DistanceFunc measures the distance in kilometres between two coordinates.
type DistanceFunc func(a, b domain.Coordinate) float64

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b domain.Coordinate) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// TotalPathDistanceKm sums consecutive leg distances of path.
func TotalPathDistanceKm(path []domain.Coordinate) float64 {
	return PathDistance(path, DistanceKm)
}

// PathDistance sums consecutive leg distances of path under dist.
// A nil dist means DistanceKm.
func PathDistance(path []domain.Coordinate, dist DistanceFunc) float64 {
	if dist == nil {
		dist = DistanceKm
	}

	total := 0.0
	for i := 1; i < len(path); i++ {
		total += dist(path[i-1], path[i])
	}
	return total
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
