package dto

type StopResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Priority    string  `json:"priority"`
	WindowStart string  `json:"window_start"`
	WindowEnd   string  `json:"window_end"`
	Volume      float64 `json:"volume"`
}

type ListStopsResponse struct {
	Stops []StopResponse `json:"stops"`
}

// Ad-hoc stop supplied inline in a plan request instead of a registry id.
type StopInput struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Priority    string  `json:"priority"`
	WindowStart string  `json:"window_start"`
	WindowEnd   string  `json:"window_end"`
	Volume      float64 `json:"volume"`
}
