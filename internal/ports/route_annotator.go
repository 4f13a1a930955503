package ports

import (
	"context"
	"delivery-route-engine/internal/domain"
)

// Best-effort narrative analysis of a planned route.
// Callers must treat failures as non-fatal.
type RouteAnnotator interface {
	Annotate(ctx context.Context, summary domain.RouteSummary) (string, error)
}
