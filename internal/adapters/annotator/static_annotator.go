// Package annotator produces free-text commentary for planned routes.
// Annotations are advisory; callers treat failures as non-fatal.
package annotator

import (
	"context"
	"delivery-route-engine/internal/domain"
)

const DefaultStaticText = "Simulated insight: the route looks efficient. Leave before 08:00 to avoid peak traffic."

// StaticAnnotator returns fixed text. Used when no model key is configured.
type StaticAnnotator struct {
	Text string
}

func (s StaticAnnotator) Annotate(_ context.Context, _ domain.RouteSummary) (string, error) {
	if s.Text == "" {
		return DefaultStaticText, nil
	}
	return s.Text, nil
}
