package services

import (
	"context"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/geo"
	"delivery-route-engine/internal/platform/obs"
	"delivery-route-engine/internal/ports"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"
)

const (
	DefaultExternalTimeout = 15 * time.Second
	// Placeholder travel-time estimate for locally planned routes
	// (about 24 km/h). It is not a transit model.
	DefaultMinutesPerKm = 2.5
	DefaultDepotLabel   = "Depot"
)

// RoutePlanner turns an unordered stop set into a depot-anchored route.
//
// With StrategyExternalPreferred the Optimizer is tried first under
// ExternalTimeout; any failure falls back to nearest-neighbor construction
// refined by 2-opt. StrategyLocalOnly, or a nil Optimizer, skips the network
// entirely. Plan keeps no state between calls and is safe for concurrent use.
type RoutePlanner struct {
	Optimizer       ports.RouteOptimizer
	ExternalTimeout time.Duration
	// 2-opt passes. Zero keeps the nearest-neighbor order unrefined;
	// a negative value means DefaultTwoOptIterations.
	MaxIterations int
	MinutesPerKm  float64
	// Nil means geo.DistanceKm.
	Distance geo.DistanceFunc
}

func NewRoutePlanner(optimizer ports.RouteOptimizer) *RoutePlanner {
	return &RoutePlanner{
		Optimizer:       optimizer,
		ExternalTimeout: DefaultExternalTimeout,
		MaxIterations:   DefaultTwoOptIterations,
		MinutesPerKm:    DefaultMinutesPerKm,
	}
}

// planRun tracks the state transitions of one Plan call.
type planRun struct {
	reqID  string
	states []domain.PlanState
}

func (r *planRun) to(s domain.PlanState) {
	r.states = append(r.states, s)
	log.Printf("req_id=%s op=plan state=%s", r.reqID, s)
}

// Plan a route for req.
//
// The only error Plan returns wraps domain.ErrInvalidRequest; it is reported
// before any distance is computed. Provider failures never reach the caller.
func (p *RoutePlanner) Plan(ctx context.Context, req domain.RouteRequest) (_ *domain.RouteResult, err error) {
	defer obs.Time(ctx, "planner.Plan")(&err)

	reqID := obs.RequestID(ctx)
	run := &planRun{reqID: reqID, states: []domain.PlanState{domain.StateIdle}}

	if req.Strategy == "" {
		req.Strategy = domain.StrategyExternalPreferred
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	run.to(domain.StatePlanning)

	label := req.DepotLabel
	if label == "" {
		label = DefaultDepotLabel
	}
	start := domain.NewDepotStop(domain.DepotStartID, label, req.Depot, label)
	end := domain.NewDepotStop(domain.DepotEndID, label, req.Depot, label)

	var fallbackReason string
	if req.Strategy == domain.StrategyExternalPreferred && p.Optimizer != nil {
		res, err := p.planExternal(ctx, start, end, req.Stops)
		if err == nil {
			run.to(domain.StateCompleted)
			res.States = run.states
			return res, nil
		}

		fallbackReason = err.Error()
		log.Printf("req_id=%s op=plan.fallback stops=%d reason=%q", reqID, len(req.Stops), fallbackReason)
		run.to(domain.StateFallingBack)
	}

	res := p.planLocal(start, end, req.Stops)
	res.FallbackReason = fallbackReason
	run.to(domain.StateCompleted)
	res.States = run.states

	return res, nil
}

func (p *RoutePlanner) planExternal(
	ctx context.Context,
	start domain.Stop,
	end domain.Stop,
	stops []domain.Stop,
) (*domain.RouteResult, error) {
	timeout := p.ExternalTimeout
	if timeout <= 0 {
		timeout = DefaultExternalTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opt, err := p.Optimizer.Optimize(ctx, start.Coordinate, end.Coordinate, domain.Coordinates(stops))
	if err != nil {
		var pe *domain.ProviderError
		if errors.As(err, &pe) {
			return nil, pe
		}
		return nil, &domain.ProviderError{Reason: "optimize", Err: err}
	}

	if err := checkPermutation(opt.WaypointOrder, len(stops)); err != nil {
		return nil, &domain.ProviderError{Reason: "invalid waypoint order", Err: err}
	}

	ordered := make([]domain.Stop, 0, len(stops)+2)
	ordered = append(ordered, start)
	for _, idx := range opt.WaypointOrder {
		ordered = append(ordered, stops[idx])
	}
	ordered = append(ordered, end)

	geometry := slices.Clone(opt.Geometry)
	if len(geometry) == 0 {
		geometry = domain.Coordinates(ordered)
	}

	return &domain.RouteResult{
		OrderedStops:     ordered,
		Geometry:         geometry,
		TotalDistanceKm:  opt.TotalDistanceKm,
		TotalDurationMin: opt.TotalDurationMin,
		Source:           domain.SourceExternal,
		TotalVolume:      totalVolume(stops),
	}, nil
}

func (p *RoutePlanner) planLocal(start domain.Stop, end domain.Stop, stops []domain.Stop) *domain.RouteResult {
	iterations := p.MaxIterations
	if iterations < 0 {
		iterations = DefaultTwoOptIterations
	}

	minutesPerKm := p.MinutesPerKm
	if minutesPerKm <= 0 {
		minutesPerKm = DefaultMinutesPerKm
	}

	// 2-opt sees only the client stops, so the first client chosen by
	// nearest-neighbor stays first. The depots are attached afterwards.
	refined := TwoOptRefine(NearestNeighborOrder(stops, start.Coordinate, p.Distance), iterations, p.Distance)

	ordered := make([]domain.Stop, 0, len(stops)+2)
	ordered = append(ordered, start)
	ordered = append(ordered, refined...)
	ordered = append(ordered, end)

	geometry := domain.Coordinates(ordered)
	distanceKm := geo.PathDistance(geometry, p.Distance)

	return &domain.RouteResult{
		OrderedStops:     ordered,
		Geometry:         geometry,
		TotalDistanceKm:  distanceKm,
		TotalDurationMin: distanceKm * minutesPerKm,
		Source:           domain.SourceLocalHeuristic,
		TotalVolume:      totalVolume(stops),
	}
}

func checkPermutation(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("got %d indices for %d waypoints", len(order), n)
	}

	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n {
			return fmt.Errorf("index %d out of range", idx)
		}
		if seen[idx] {
			return fmt.Errorf("index %d repeated", idx)
		}
		seen[idx] = true
	}
	return nil
}

func totalVolume(stops []domain.Stop) float64 {
	total := 0.0
	for _, s := range stops {
		total += s.Volume
	}
	return total
}
