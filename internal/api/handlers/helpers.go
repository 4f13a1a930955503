package handlers

import (
	"delivery-route-engine/internal/api/dto"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/platform/obs"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"net/http"
)

// Upper bound on accepted request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors to status codes. Anything unexpected
// is logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	default:
		log.Printf("req_id=%s op=%s err=%v", obs.RequestID(r.Context()), op, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// decodeBody reads exactly one JSON object with no unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func toStopResponse(s domain.Stop) dto.StopResponse {
	return dto.StopResponse{
		ID:          s.ID,
		Name:        s.Name,
		Address:     s.Address,
		Lat:         s.Coordinate.Lat,
		Lng:         s.Coordinate.Lng,
		Priority:    string(s.Priority),
		WindowStart: s.WindowStart.String(),
		WindowEnd:   s.WindowEnd.String(),
		Volume:      s.Volume,
	}
}

// toPlanResponse renders distance in km to 2 decimals and duration in whole
// minutes.
func toPlanResponse(vehicleID string, res *domain.RouteResult) dto.PlanResponse {
	out := dto.PlanResponse{
		VehicleID:        vehicleID,
		OrderedStops:     make([]dto.StopResponse, 0, len(res.OrderedStops)),
		Geometry:         make([]dto.Coordinate, 0, len(res.Geometry)),
		TotalDistanceKm:  roundTo(res.TotalDistanceKm, 2),
		TotalDurationMin: math.Round(res.TotalDurationMin),
		Source:           string(res.Source),
		FallbackReason:   res.FallbackReason,
		TotalVolume:      res.TotalVolume,
	}
	for _, s := range res.OrderedStops {
		out.OrderedStops = append(out.OrderedStops, toStopResponse(s))
	}
	for _, c := range res.Geometry {
		out.Geometry = append(out.Geometry, dto.Coordinate{Lat: c.Lat, Lng: c.Lng})
	}
	for _, st := range res.States {
		out.States = append(out.States, string(st))
	}
	return out
}
