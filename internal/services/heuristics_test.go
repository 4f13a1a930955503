package services

import (
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/geo"
	"fmt"
	"math/rand"
	"sort"
	"testing"
)

func equatorStop(id string, lng float64) domain.Stop {
	return domain.Stop{ID: id, Coordinate: domain.Coordinate{Lat: 0, Lng: lng}}
}

func pathKm(route []domain.Stop) float64 {
	return geo.TotalPathDistanceKm(domain.Coordinates(route))
}

func TestNearestNeighborOrder(t *testing.T) {
	stops := []domain.Stop{
		equatorStop("far", 3),
		equatorStop("near", 1),
		equatorStop("mid", 2),
	}

	got := stopIDs(NearestNeighborOrder(stops, domain.Coordinate{}, nil))
	want := []string{"near", "mid", "far"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	if stops[0].ID != "far" {
		t.Fatal("input slice must not be modified")
	}
}

func TestNearestNeighborOrder_TieKeepsInputOrder(t *testing.T) {
	east := equatorStop("east", 1)
	west := equatorStop("west", -1)

	got := NearestNeighborOrder([]domain.Stop{east, west}, domain.Coordinate{}, nil)
	if got[0].ID != "east" {
		t.Fatalf("first = %q, want east", got[0].ID)
	}

	got = NearestNeighborOrder([]domain.Stop{west, east}, domain.Coordinate{}, nil)
	if got[0].ID != "west" {
		t.Fatalf("first = %q, want west", got[0].ID)
	}
}

func TestNearestNeighborOrder_Empty(t *testing.T) {
	if got := NearestNeighborOrder(nil, domain.Coordinate{}, nil); len(got) != 0 {
		t.Fatalf("expected empty order, got %v", got)
	}
}

func TestNearestNeighborOrder_IsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for n := 1; n <= 25; n++ {
		stops := randomStops(rng, n)
		got := stopIDs(NearestNeighborOrder(stops, domain.Coordinate{Lat: -22.9, Lng: -43.2}, nil))
		want := stopIDs(stops)

		sort.Strings(got)
		sort.Strings(want)
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("n=%d: output %v is not a permutation of %v", n, got, want)
		}
	}
}

func TestTwoOptRefine_UncrossesPath(t *testing.T) {
	route := []domain.Stop{
		equatorStop("start", 0),
		equatorStop("b", 0.2),
		equatorStop("a", 0.1),
		equatorStop("c", 0.3),
	}

	got := TwoOptRefine(route, DefaultTwoOptIterations, nil)

	want := []string{"start", "a", "b", "c"}
	ids := stopIDs(got)
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
	if stopIDs(route)[1] != "b" {
		t.Fatal("input slice must not be modified")
	}
}

func TestTwoOptRefine_NeverWorse(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for trial := 0; trial < 40; trial++ {
		route := randomStops(rng, 3+rng.Intn(10))
		for _, iters := range []int{0, 1, DefaultTwoOptIterations} {
			got := TwoOptRefine(route, iters, nil)

			if len(got) != len(route) {
				t.Fatalf("length changed: %d -> %d", len(route), len(got))
			}
			if got[0].ID != route[0].ID {
				t.Fatalf("position 0 moved: %q -> %q", route[0].ID, got[0].ID)
			}
			if pathKm(got) > pathKm(route)+1e-9 {
				t.Fatalf("iters=%d: refined %f km > original %f km", iters, pathKm(got), pathKm(route))
			}
		}
	}
}

func TestTwoOptRefine_ShortRoutes(t *testing.T) {
	for n := 0; n < 3; n++ {
		route := randomStops(rand.New(rand.NewSource(1)), n)
		if got := TwoOptRefine(route, DefaultTwoOptIterations, nil); len(got) != n {
			t.Fatalf("n=%d: got %d stops", n, len(got))
		}
	}
}

func randomStops(rng *rand.Rand, n int) []domain.Stop {
	stops := make([]domain.Stop, n)
	for i := range stops {
		stops[i] = domain.Stop{
			ID: fmt.Sprintf("s%02d", i),
			Coordinate: domain.Coordinate{
				Lat: -23 + rng.Float64()*0.3,
				Lng: -43.4 + rng.Float64()*0.4,
			},
		}
	}
	return stops
}
