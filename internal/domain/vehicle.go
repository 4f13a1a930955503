package domain

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "Available"
	VehicleInRoute     VehicleStatus = "In Route"
	VehicleMaintenance VehicleStatus = "Maintenance"
)

// Delivery vehicle as recorded in the fleet registry.
type Vehicle struct {
	ID         string
	Plate      string
	Driver     string
	CapacityKg float64
	Status     VehicleStatus
}
