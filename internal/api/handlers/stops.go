package handlers

import (
	"delivery-route-engine/internal/api/dto"
	"delivery-route-engine/internal/ports"
	"net/http"
)

// StopHandler exposes read-only access to the client registry.
type StopHandler struct {
	Repo ports.StopRepository
}

func (h *StopHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	stops, err := h.Repo.ListStops(r.Context())
	if err != nil {
		writeServiceError(w, r, "stops.List", err)
		return
	}

	res := dto.ListStopsResponse{Stops: make([]dto.StopResponse, 0, len(stops))}
	for _, s := range stops {
		res.Stops = append(res.Stops, toStopResponse(s))
	}

	writeJSON(w, r, http.StatusOK, res)
}
