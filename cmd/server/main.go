package main

import (
	"context"
	"database/sql"
	"delivery-route-engine/internal/adapters/annotator"
	"delivery-route-engine/internal/adapters/cache"
	"delivery-route-engine/internal/adapters/directions"
	"delivery-route-engine/internal/adapters/repositories"
	"delivery-route-engine/internal/api"
	"delivery-route-engine/internal/api/handlers"
	"delivery-route-engine/internal/config"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/platform/db"
	"delivery-route-engine/internal/ports"
	"delivery-route-engine/internal/services"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, Google Directions, Gemini) behind
// ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	conn, dialect, err := openDatabase(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(conn, dialect, cfg.SeedPath); err != nil {
		log.Fatal(err)
	}

	routeCache, closeCache, err := openRouteCache(cfg, conn, dialect)
	if err != nil {
		log.Fatal(err)
	}
	defer closeCache()

	optimizer, err := newOptimizer(cfg, routeCache)
	if err != nil {
		log.Fatal(err)
	}

	planner := services.NewRoutePlanner(optimizer)
	planner.ExternalTimeout = cfg.ExternalTimeout
	planner.MaxIterations = cfg.TwoOptIterations
	planner.MinutesPerKm = cfg.MinutesPerKm

	stopRepo := repositories.NewSQLStopRepository(conn, dialect)
	routeRepo := repositories.NewSQLRouteRepository(conn, dialect)

	plans := &handlers.PlanHandler{
		Planner:           planner,
		Stops:             stopRepo,
		Vehicles:          stopRepo,
		Routes:            routeRepo,
		Annotator:         newAnnotator(cfg),
		DefaultDepotLabel: cfg.DepotLabel,
		Concurrency:       cfg.PlanConcurrency,
	}
	if cfg.HasDefaultDepot {
		plans.DefaultDepot = &domain.Coordinate{Lat: cfg.DepotLat, Lng: cfg.DepotLng}
	}

	router := api.NewRouter(
		plans,
		&handlers.StopHandler{Repo: stopRepo},
		&handlers.RouteHandler{Repo: routeRepo},
	)

	// Timeouts are tuned for cold-cache route planning (external API latency).
	log.Printf("Server listening addr=:%s provider=%s db=%s", cfg.Port, cfg.RouteProvider, dialect)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// openDatabase uses Postgres when DATABASE_URL is set and SQLite otherwise.
func openDatabase(cfg *config.Config) (*sql.DB, repositories.Dialect, error) {
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		return conn, repositories.Postgres, err
	}
	conn, err := db.OpenSQLite(cfg.DBPath)
	return conn, repositories.SQLite, err
}

func initAndSeed(conn *sql.DB, dialect repositories.Dialect, seedPath string) error {
	ctx := context.Background()

	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if _, err := os.Stat(seedPath); errors.Is(err, os.ErrNotExist) {
		log.Printf("seed file not found path=%s (skipping)", seedPath)
		return nil
	}

	if err := repositories.SeedFromJSON(ctx, conn, dialect, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}

// openRouteCache uses Redis when REDIS_URL is set and the route_cache table
// of the main database otherwise.
func openRouteCache(cfg *config.Config, conn *sql.DB, dialect repositories.Dialect) (ports.RouteCache, func(), error) {
	if cfg.RedisURL == "" {
		return cache.NewSQLRouteCache(conn, dialect, cfg.RouteCacheTTL), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open route cache: parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("open route cache: ping redis: %w", err)
	}

	return cache.NewRedisRouteCache(client, cfg.RouteCacheTTL), func() { _ = client.Close() }, nil
}

// newOptimizer returns nil for the "none" provider; the planner then always
// plans locally.
func newOptimizer(cfg *config.Config, routeCache ports.RouteCache) (ports.RouteOptimizer, error) {
	switch cfg.RouteProvider {
	case config.ProviderGoogle:
		provider, err := directions.NewGoogleDirectionsProvider(cfg.GoogleMapsAPIKey, routeCache)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case config.ProviderMock:
		return directions.NewMockOptimizer(), nil
	default:
		return nil, nil
	}
}

func newAnnotator(cfg *config.Config) ports.RouteAnnotator {
	if cfg.GeminiAPIKey == "" {
		return annotator.StaticAnnotator{}
	}
	g, err := annotator.NewGeminiAnnotator(context.Background(), annotator.GeminiConfig{APIKey: cfg.GeminiAPIKey})
	if err != nil {
		log.Printf("gemini annotator disabled: %v", err)
		return annotator.StaticAnnotator{}
	}
	return g
}
