package ports

import (
	"context"
	"delivery-route-engine/internal/domain"
)

// Port: a boundary for reading client stops from the client registry.
type StopRepository interface {
	// Retrieve all registered stops.
	ListStops(ctx context.Context) ([]domain.Stop, error)
	// Retrieve the given stops in the requested order.
	GetStops(ctx context.Context, ids []string) ([]domain.Stop, error)
}

// Port: a boundary for reading vehicles from the fleet registry.
type VehicleRepository interface {
	GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error)
}
