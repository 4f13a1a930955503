package services

import (
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/geo"
	"slices"
)

// Default number of full 2-opt passes.
const DefaultTwoOptIterations = 50

// Improve an open route with first-improvement 2-opt.
//
// Position 0 is the fixed start of the path and is never moved. For each pair
// 1 <= i < j <= len-1 the segment [i, j] is reversed; the candidate is adopted
// as soon as its total length is strictly shorter, and scanning continues on
// the updated route. A pass without any improving move ends the search early.
//
// Every candidate is re-measured over the whole path, so one pass costs
// O(n^3) distance evaluations. That is fine for tens of stops; routes with
// thousands of stops would need delta evaluation and neighbor lists.
//
// The returned route is never longer than the input. A nil dist means
// geo.DistanceKm.
func TwoOptRefine(route []domain.Stop, maxIterations int, dist geo.DistanceFunc) []domain.Stop {
	if dist == nil {
		dist = geo.DistanceKm
	}

	best := slices.Clone(route)
	if len(best) < 3 {
		return best
	}

	bestDist := routeDistance(best, dist)
	candidate := make([]domain.Stop, len(best))

	for iter := 0; iter < maxIterations; iter++ {
		improved := false

		for i := 1; i < len(best)-1; i++ {
			for j := i + 1; j < len(best); j++ {
				copy(candidate, best)
				slices.Reverse(candidate[i : j+1])

				if d := routeDistance(candidate, dist); d < bestDist {
					best, candidate = candidate, best
					bestDist = d
					improved = true
				}
			}
		}

		if !improved {
			break
		}
	}

	return best
}

func routeDistance(route []domain.Stop, dist geo.DistanceFunc) float64 {
	total := 0.0
	for i := 1; i < len(route); i++ {
		total += dist(route[i-1].Coordinate, route[i].Coordinate)
	}
	return total
}
