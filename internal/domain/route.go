package domain

import (
	"fmt"
	"strings"
)

type Strategy string

const (
	StrategyExternalPreferred Strategy = "external_preferred"
	StrategyLocalOnly         Strategy = "local_only"
)

// ParseStrategy maps an empty value to ExternalPreferred.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "external", "external_preferred":
		return StrategyExternalPreferred, nil
	case "local", "local_only":
		return StrategyLocalOnly, nil
	}
	return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidRequest, s)
}

type Source string

const (
	SourceExternal       Source = "external"
	SourceLocalHeuristic Source = "local_heuristic"
)

type PlanState string

const (
	StateIdle        PlanState = "idle"
	StatePlanning    PlanState = "planning"
	StateFallingBack PlanState = "falling_back"
	StateCompleted   PlanState = "completed"
)

// Input of a single planning invocation. Stop order carries no meaning.
type RouteRequest struct {
	Depot      Coordinate
	DepotLabel string
	Stops      []Stop
	Strategy   Strategy
}

// Validate rejects empty stop sets and duplicate or blank stop ids.
func (r RouteRequest) Validate() error {
	if len(r.Stops) == 0 {
		return fmt.Errorf("%w: stop set is empty", ErrInvalidRequest)
	}

	seen := make(map[string]struct{}, len(r.Stops))
	for i, s := range r.Stops {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return fmt.Errorf("%w: stop at index %d has empty id", ErrInvalidRequest, i)
		}
		if id == DepotStartID || id == DepotEndID {
			return fmt.Errorf("%w: stop id %q is reserved for the depot", ErrInvalidRequest, id)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate stop id %q", ErrInvalidRequest, id)
		}
		if s.Volume < 0 {
			return fmt.Errorf("%w: stop %q has negative volume", ErrInvalidRequest, id)
		}
		seen[id] = struct{}{}
	}

	switch r.Strategy {
	case StrategyExternalPreferred, StrategyLocalOnly:
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidRequest, r.Strategy)
	}

	return nil
}

// Represents a planned visiting order for one vehicle.
// OrderedStops begins with the start depot and ends with the end depot.
// Geometry is the path to render; for locally planned routes it is the
// straight-line projection of OrderedStops.
// A RouteResult is never mutated after Plan returns it.
type RouteResult struct {
	OrderedStops     []Stop
	Geometry         []Coordinate
	TotalDistanceKm  float64
	TotalDurationMin float64
	Source           Source
	FallbackReason   string
	States           []PlanState
	TotalVolume      float64
}

// Visits returns the stops between the two depot anchors.
func (r *RouteResult) Visits() []Stop {
	if len(r.OrderedStops) < 2 {
		return nil
	}
	return r.OrderedStops[1 : len(r.OrderedStops)-1]
}

// Route digest handed to narrative annotators.
type RouteSummary struct {
	VehicleID       string
	TotalDistanceKm float64
	StopAddresses   []string
}

func (r *RouteResult) Summary(vehicleID string) RouteSummary {
	addrs := make([]string, 0, len(r.OrderedStops))
	for _, s := range r.OrderedStops {
		a := s.Address
		if a == "" {
			a = s.Name
		}
		addrs = append(addrs, a)
	}
	return RouteSummary{
		VehicleID:       vehicleID,
		TotalDistanceKm: r.TotalDistanceKm,
		StopAddresses:   addrs,
	}
}
