package handlers

import (
	"delivery-route-engine/internal/api/dto"
	"delivery-route-engine/internal/ports"
	"net/http"
	"strings"
)

// RouteHandler serves archived routes.
type RouteHandler struct {
	Repo ports.RouteRepository
}

// Get expects the route id as the {id} path value.
func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "route id is required")
		return
	}

	stored, err := h.Repo.GetRoute(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "routes.Get", err)
		return
	}

	plan := toPlanResponse(stored.VehicleID, &stored.Result)
	plan.RouteID = stored.ID

	writeJSON(w, r, http.StatusOK, dto.RouteResponse{
		ID:        stored.ID,
		VehicleID: stored.VehicleID,
		Status:    stored.Status,
		CreatedAt: stored.CreatedAt,
		Plan:      plan,
	})
}
