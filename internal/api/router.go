package api

import (
	"delivery-route-engine/internal/api/handlers"
	"net/http"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(plans *handlers.PlanHandler, stops *handlers.StopHandler, routes *handlers.RouteHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/plans", plans.Plan)
	mux.HandleFunc("/plans/batch", plans.Batch)
	if stops != nil {
		mux.HandleFunc("/stops", stops.List)
	}
	if routes != nil {
		mux.HandleFunc("/routes/{id}", routes.Get)
	}

	// Request ids are assigned outside the access log so every line carries one.
	return requestIDMiddleware(loggingMiddleware(mux))
}
