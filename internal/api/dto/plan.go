package dto

import "time"

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Either StopIDs (registry lookups) or Stops (inline) must be set.
type PlanRequest struct {
	VehicleID  string      `json:"vehicle_id"`
	Depot      *Coordinate `json:"depot"`
	DepotLabel string      `json:"depot_label"`
	StopIDs    []string    `json:"stop_ids"`
	Stops      []StopInput `json:"stops"`
	Strategy   string      `json:"strategy"`
	Annotate   bool        `json:"annotate"`
	Save       bool        `json:"save"`
}

type BatchPlanRequest struct {
	Plans []PlanRequest `json:"plans"`
}

type PlanResponse struct {
	VehicleID        string         `json:"vehicle_id,omitempty"`
	RouteID          string         `json:"route_id,omitempty"`
	OrderedStops     []StopResponse `json:"ordered_stops"`
	Geometry         []Coordinate   `json:"geometry"`
	TotalDistanceKm  float64        `json:"total_distance_km"`
	TotalDurationMin float64        `json:"total_duration_min"`
	Source           string         `json:"source"`
	FallbackReason   string         `json:"fallback_reason,omitempty"`
	States           []string       `json:"states,omitempty"`
	TotalVolume      float64        `json:"total_volume"`
	CapacityWarning  string         `json:"capacity_warning,omitempty"`
	Insight          string         `json:"insight,omitempty"`
	// Set only in batch responses when this plan could not be archived.
	SaveError string `json:"save_error,omitempty"`
}

type BatchPlanResponse struct {
	Plans []PlanResponse `json:"plans"`
}

type RouteResponse struct {
	ID        string       `json:"id"`
	VehicleID string       `json:"vehicle_id"`
	Status    string       `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	Plan      PlanResponse `json:"plan"`
}
