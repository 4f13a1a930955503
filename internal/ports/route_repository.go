package ports

import (
	"context"
	"delivery-route-engine/internal/domain"
	"time"
)

// A RouteResult as persisted in the route archive.
type StoredRoute struct {
	ID        string
	VehicleID string
	Status    string
	CreatedAt time.Time
	Result    domain.RouteResult
}

// Port: persistence of planned routes.
type RouteRepository interface {
	SaveRoute(ctx context.Context, vehicleID string, result *domain.RouteResult) (string, error)
	GetRoute(ctx context.Context, id string) (*StoredRoute, error)
}
