package services

import (
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/geo"
)

// Build an initial visiting order using a greedy nearest-neighbor walk.
//
// Starting from start, the closest unvisited stop is appended at each step.
// Ties go to the stop that appears first in the input, so the result is
// deterministic for a given input order. The result is a permutation of
// stops; the input slice is not modified. A nil dist means geo.DistanceKm.
func NearestNeighborOrder(stops []domain.Stop, start domain.Coordinate, dist geo.DistanceFunc) []domain.Stop {
	if dist == nil {
		dist = geo.DistanceKm
	}

	remaining := make([]domain.Stop, len(stops))
	copy(remaining, stops)

	order := make([]domain.Stop, 0, len(stops))
	current := start

	for len(remaining) > 0 {
		best := 0
		bestDist := dist(current, remaining[0].Coordinate)

		for i := 1; i < len(remaining); i++ {
			// Strict comparison keeps the first minimal element on ties.
			if d := dist(current, remaining[i].Coordinate); d < bestDist {
				best = i
				bestDist = d
			}
		}

		next := remaining[best]
		order = append(order, next)
		current = next.Coordinate

		// Preserve input order of the rest for tie-breaking.
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	return order
}
