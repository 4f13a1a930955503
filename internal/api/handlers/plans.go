package handlers

import (
	"context"
	"delivery-route-engine/internal/api/dto"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/platform/obs"
	"delivery-route-engine/internal/ports"
	"delivery-route-engine/internal/services"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultAnnotateTimeout = 10 * time.Second
	// Largest batch accepted by /plans/batch.
	MaxBatchPlans = 20
)

type PlanHandler struct {
	Planner  *services.RoutePlanner
	Stops    ports.StopRepository
	Vehicles ports.VehicleRepository
	// Optional; nil disables save requests.
	Routes ports.RouteRepository
	// Optional; nil disables annotate requests.
	Annotator ports.RouteAnnotator

	// Used when a request carries no depot.
	DefaultDepot      *domain.Coordinate
	DefaultDepotLabel string
	Concurrency       int
	AnnotateTimeout   time.Duration
}

// planJob is a validated request plus the lookups needed after planning.
type planJob struct {
	req      domain.RouteRequest
	vehicle  *domain.Vehicle
	annotate bool
	save     bool
}

// Plan orders one stop set and optionally annotates and archives the result.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var body dto.PlanRequest
	if !decodeBody(w, r, &body) {
		return
	}

	job, err := h.resolve(r.Context(), body)
	if err != nil {
		writeServiceError(w, r, "plans.resolve", err)
		return
	}

	res, err := h.Planner.Plan(r.Context(), job.req)
	if err != nil {
		writeServiceError(w, r, "plans.Plan", err)
		return
	}

	out := h.render(job, res)

	if job.annotate && h.Annotator != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.annotateTimeout())
		out.Insight = h.annotate(ctx, job, res)
		cancel()
	}

	if job.save {
		id, err := h.Routes.SaveRoute(r.Context(), job.vehicleID(), res)
		if err != nil {
			writeServiceError(w, r, "plans.save", fmt.Errorf("save route: %w", err))
			return
		}
		out.RouteID = id
	}

	writeJSON(w, r, http.StatusOK, out)
}

// Batch plans several independent stop sets concurrently.
// Any invalid entry rejects the whole batch before planning starts. Once
// planning succeeds the response is always 200: a plan that could not be
// archived carries save_error instead of route_id.
func (h *PlanHandler) Batch(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var body dto.BatchPlanRequest
	if !decodeBody(w, r, &body) {
		return
	}

	if len(body.Plans) == 0 {
		writeError(w, r, http.StatusBadRequest, "plans cannot be empty")
		return
	}
	if len(body.Plans) > MaxBatchPlans {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("at most %d plans per batch", MaxBatchPlans))
		return
	}

	jobs := make([]planJob, 0, len(body.Plans))
	reqs := make([]domain.RouteRequest, 0, len(body.Plans))
	for i, p := range body.Plans {
		job, err := h.resolve(r.Context(), p)
		if err != nil {
			writeServiceError(w, r, "plans.resolve", fmt.Errorf("plan %d: %w", i, err))
			return
		}
		jobs = append(jobs, job)
		reqs = append(reqs, job.req)
	}

	results, err := services.PlanMany(r.Context(), h.Planner, reqs, h.Concurrency)
	if err != nil {
		writeServiceError(w, r, "plans.PlanMany", err)
		return
	}

	out := dto.BatchPlanResponse{Plans: make([]dto.PlanResponse, len(results))}
	for i, res := range results {
		out.Plans[i] = h.render(jobs[i], res)
	}

	h.annotateAll(r.Context(), jobs, results, out.Plans)

	for i, res := range results {
		if !jobs[i].save {
			continue
		}
		id, err := h.Routes.SaveRoute(r.Context(), jobs[i].vehicleID(), res)
		if err != nil {
			log.Printf("req_id=%s op=plans.save plan=%d err=%v", obs.RequestID(r.Context()), i, err)
			out.Plans[i].SaveError = "route could not be saved"
			continue
		}
		out.Plans[i].RouteID = id
	}

	writeJSON(w, r, http.StatusOK, out)
}

// resolve turns a request body into a domain request. Unknown stop or
// vehicle ids are reported as domain.ErrInvalidRequest.
func (h *PlanHandler) resolve(ctx context.Context, body dto.PlanRequest) (planJob, error) {
	job := planJob{annotate: body.Annotate, save: body.Save}

	strategy, err := domain.ParseStrategy(body.Strategy)
	if err != nil {
		return job, err
	}

	var depot domain.Coordinate
	switch {
	case body.Depot != nil:
		depot = domain.Coordinate{Lat: body.Depot.Lat, Lng: body.Depot.Lng}
	case h.DefaultDepot != nil:
		depot = *h.DefaultDepot
	default:
		return job, fmt.Errorf("%w: depot is required", domain.ErrInvalidRequest)
	}

	label := strings.TrimSpace(body.DepotLabel)
	if label == "" {
		label = h.DefaultDepotLabel
	}

	var stops []domain.Stop
	switch {
	case len(body.StopIDs) > 0 && len(body.Stops) > 0:
		return job, fmt.Errorf("%w: use either stop_ids or stops, not both", domain.ErrInvalidRequest)
	case len(body.StopIDs) > 0:
		if h.Stops == nil {
			return job, fmt.Errorf("%w: stop registry is not configured", domain.ErrInvalidRequest)
		}
		if stops, err = h.Stops.GetStops(ctx, body.StopIDs); err != nil {
			return job, err
		}
	default:
		if stops, err = stopsFromInput(body.Stops); err != nil {
			return job, err
		}
	}

	if id := strings.TrimSpace(body.VehicleID); id != "" && h.Vehicles != nil {
		v, err := h.Vehicles.GetVehicle(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return job, fmt.Errorf("%w: unknown vehicle %q", domain.ErrInvalidRequest, id)
		}
		if err != nil {
			return job, err
		}
		job.vehicle = v
	}

	job.req = domain.RouteRequest{
		Depot:      depot,
		DepotLabel: label,
		Stops:      stops,
		Strategy:   strategy,
	}

	if job.save && h.Routes == nil {
		return job, fmt.Errorf("%w: route archive is not configured", domain.ErrInvalidRequest)
	}

	return job, job.req.Validate()
}

func stopsFromInput(in []dto.StopInput) ([]domain.Stop, error) {
	stops := make([]domain.Stop, 0, len(in))
	for i, s := range in {
		priority, err := domain.ParsePriority(s.Priority)
		if err != nil {
			return nil, fmt.Errorf("%w: stop %d: %v", domain.ErrInvalidRequest, i, err)
		}

		windowStart, windowEnd := domain.StartOfDay, domain.EndOfDay
		if s.WindowStart != "" {
			if windowStart, err = domain.ParseTimeOfDay(s.WindowStart); err != nil {
				return nil, fmt.Errorf("%w: stop %d: %v", domain.ErrInvalidRequest, i, err)
			}
		}
		if s.WindowEnd != "" {
			if windowEnd, err = domain.ParseTimeOfDay(s.WindowEnd); err != nil {
				return nil, fmt.Errorf("%w: stop %d: %v", domain.ErrInvalidRequest, i, err)
			}
		}

		stops = append(stops, domain.Stop{
			ID:          strings.TrimSpace(s.ID),
			Name:        s.Name,
			Address:     s.Address,
			Coordinate:  domain.Coordinate{Lat: s.Lat, Lng: s.Lng},
			Priority:    priority,
			WindowStart: windowStart,
			WindowEnd:   windowEnd,
			Volume:      s.Volume,
		})
	}
	return stops, nil
}

func (j planJob) vehicleID() string {
	if j.vehicle == nil {
		return ""
	}
	return j.vehicle.ID
}

func (h *PlanHandler) annotateTimeout() time.Duration {
	if h.AnnotateTimeout <= 0 {
		return DefaultAnnotateTimeout
	}
	return h.AnnotateTimeout
}

// render converts the result and adds the capacity warning.
func (h *PlanHandler) render(job planJob, res *domain.RouteResult) dto.PlanResponse {
	out := toPlanResponse(job.vehicleID(), res)

	if v := job.vehicle; v != nil && v.CapacityKg > 0 && res.TotalVolume > v.CapacityKg {
		out.CapacityWarning = fmt.Sprintf(
			"total volume %.1f kg exceeds capacity %.1f kg of vehicle %s",
			res.TotalVolume, v.CapacityKg, v.ID,
		)
	}

	return out
}

// annotate returns the annotator's insight, or "" when it fails or ctx ends
// first. Failures are logged only.
func (h *PlanHandler) annotate(ctx context.Context, job planJob, res *domain.RouteResult) string {
	insight, err := h.Annotator.Annotate(ctx, res.Summary(job.vehicleID()))
	if err != nil {
		log.Printf("req_id=%s op=plans.annotate err=%v", obs.RequestID(ctx), err)
		return ""
	}
	return insight
}

// annotateAll fills Insight for every job that asked for one. The calls run
// concurrently under one shared deadline, so the whole batch waits at most
// annotateTimeout for its insights.
func (h *PlanHandler) annotateAll(ctx context.Context, jobs []planJob, results []*domain.RouteResult, out []dto.PlanResponse) {
	if h.Annotator == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.annotateTimeout())
	defer cancel()

	limit := h.Concurrency
	if limit <= 0 {
		limit = services.DefaultPlanConcurrency
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, job := range jobs {
		if !job.annotate {
			continue
		}
		g.Go(func() error {
			out[i].Insight = h.annotate(ctx, job, results[i])
			return nil
		})
	}

	_ = g.Wait()
}
