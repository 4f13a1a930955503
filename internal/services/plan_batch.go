package services

import (
	"context"
	"delivery-route-engine/internal/domain"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const DefaultPlanConcurrency = 5

// PlanMany plans independent requests in parallel.
//
// All requests are validated before any planning starts, so an invalid
// request fails the batch without spending provider calls. Results are
// index-aligned with reqs.
func PlanMany(
	ctx context.Context,
	planner *RoutePlanner,
	reqs []domain.RouteRequest,
	concurrency int,
) ([]*domain.RouteResult, error) {
	if planner == nil {
		return nil, fmt.Errorf("plan many: planner must be non-nil")
	}

	for i, req := range reqs {
		if req.Strategy == "" {
			req.Strategy = domain.StrategyExternalPreferred
		}
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("plan many: request %d: %w", i, err)
		}
	}

	if concurrency <= 0 {
		concurrency = DefaultPlanConcurrency
	}

	results := make([]*domain.RouteResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			res, err := planner.Plan(gctx, req)
			if err != nil {
				return fmt.Errorf("plan many: request %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
