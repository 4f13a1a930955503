package directions

import (
	"context"
	"delivery-route-engine/internal/adapters/cache"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/geo"
	"delivery-route-engine/internal/platform/obs"
	"delivery-route-engine/internal/ports"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// Waypoint limit of the Directions API for standard keys.
	MaxWaypoints   = 25
	defaultBaseURL = "https://maps.googleapis.com"
	defaultMode    = "driving"
)

// GoogleDirectionsProvider implements RouteOptimizer using the Google
// Directions API with waypoint optimization enabled.
//
// It coordinates:
//   - Request serialization (origin, destination, optimize:true waypoints)
//   - Optional caching of optimized routes (Redis or SQL)
//   - External API calls under a retryPolicy (HTTP 429/5xx, network errors
//     and the OVER_QUERY_LIMIT / UNKNOWN_ERROR body statuses)
//   - Leg totals, polyline decoding and waypoint reordering
//
// Every failure is returned as *domain.ProviderError.
// The provider is safe for concurrent use.
type GoogleDirectionsProvider struct {
	session    *http.Client
	apiKey     string
	baseURL    string
	mode       string
	retry      retryPolicy
	routeCache ports.RouteCache
}

func NewGoogleDirectionsProvider(
	apiKey string,
	routeCache ports.RouteCache,
) (*GoogleDirectionsProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google directions api key is empty")
	}

	provider := &GoogleDirectionsProvider{
		session:    &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		mode:       defaultMode,
		retry:      defaultRetryPolicy(),
		routeCache: routeCache,
	}

	return provider, nil
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		WaypointOrder []int `json:"waypoint_order"`
	} `json:"routes"`
}

// Optimize asks the provider for the best visiting order of waypoints
// between origin and destination.
func (g *GoogleDirectionsProvider) Optimize(
	ctx context.Context,
	origin domain.Coordinate,
	destination domain.Coordinate,
	waypoints []domain.Coordinate,
) (_ ports.OptimizedRoute, err error) {
	defer obs.Time(ctx, "directions.Optimize")(&err)

	if len(waypoints) == 0 {
		return ports.OptimizedRoute{}, &domain.ProviderError{Reason: "no waypoints to optimize"}
	}
	if len(waypoints) > MaxWaypoints {
		return ports.OptimizedRoute{}, &domain.ProviderError{
			Reason: fmt.Sprintf("%d waypoints exceeds provider limit of %d", len(waypoints), MaxWaypoints),
		}
	}

	key := cache.RouteKey(g.mode, origin, destination, waypoints)

	// Check the route cache before issuing external API calls.
	if g.routeCache != nil {
		cached, ok, err := g.routeCache.Get(ctx, key)
		if err != nil {
			log.Printf("route cache read failed: %v", err)
		} else if ok {
			return cached, nil
		}
	}

	dr, err := g.fetchDirections(ctx, g.directionsQuery(origin, destination, waypoints))
	if err != nil {
		var se *apiStatusError
		if errors.As(err, &se) {
			return ports.OptimizedRoute{}, &domain.ProviderError{Reason: se.Error()}
		}
		return ports.OptimizedRoute{}, &domain.ProviderError{Reason: "directions request failed", Err: err}
	}

	route, err := parseDirections(dr, waypoints)
	if err != nil {
		return ports.OptimizedRoute{}, err
	}

	if g.routeCache != nil {
		if err := g.routeCache.Put(ctx, key, route); err != nil {
			log.Printf("route cache write failed: %v", err)
		}
	}

	return route, nil
}

func (g *GoogleDirectionsProvider) directionsQuery(
	origin domain.Coordinate,
	destination domain.Coordinate,
	waypoints []domain.Coordinate,
) url.Values {
	parts := make([]string, 0, 1+len(waypoints))
	parts = append(parts, "optimize:true")
	for _, w := range waypoints {
		parts = append(parts, w.LatLng())
	}

	return url.Values{
		"origin":      {origin.LatLng()},
		"destination": {destination.LatLng()},
		"waypoints":   {strings.Join(parts, "|")},
		"mode":        {g.mode},
		"key":         {g.apiKey},
	}
}

// parseDirections turns an OK response into an OptimizedRoute.
// Distances and durations are summed across all legs.
func parseDirections(dr directionsResponse, waypoints []domain.Coordinate) (ports.OptimizedRoute, error) {
	if len(dr.Routes) == 0 {
		return ports.OptimizedRoute{}, &domain.ProviderError{Reason: "no routes returned"}
	}
	route := dr.Routes[0]

	order := route.WaypointOrder
	if len(order) != len(waypoints) {
		return ports.OptimizedRoute{}, &domain.ProviderError{
			Reason: fmt.Sprintf("waypoint order has %d entries for %d waypoints", len(order), len(waypoints)),
		}
	}

	seen := make([]bool, len(waypoints))
	reordered := make([]domain.Coordinate, 0, len(order))
	for _, idx := range order {
		if idx < 0 || idx >= len(waypoints) || seen[idx] {
			return ports.OptimizedRoute{}, &domain.ProviderError{
				Reason: fmt.Sprintf("waypoint order %v is not a permutation", order),
			}
		}
		seen[idx] = true
		reordered = append(reordered, waypoints[idx])
	}

	var meters, seconds float64
	for _, leg := range route.Legs {
		meters += leg.Distance.Value
		seconds += leg.Duration.Value
	}

	geometry, err := geo.DecodePolyline(route.OverviewPolyline.Points)
	if err != nil {
		return ports.OptimizedRoute{}, &domain.ProviderError{Reason: "decode overview polyline", Err: err}
	}

	return ports.OptimizedRoute{
		WaypointOrder:    order,
		Waypoints:        reordered,
		Geometry:         geometry,
		TotalDistanceKm:  meters / 1000,
		TotalDurationMin: seconds / 60,
	}, nil
}
