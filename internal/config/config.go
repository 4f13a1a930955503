// Package config reads service settings from the environment.
// A .env file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Get returns the value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) (int, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config %s: parse int %q: %w", key, v, err)
	}
	return n, nil
}

func GetFloat(key string, fallback float64) (float64, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config %s: parse float %q: %w", key, v, err)
	}
	return f, nil
}

// GetDuration accepts Go duration strings ("15s", "6h").
func GetDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config %s: parse duration %q: %w", key, v, err)
	}
	return d, nil
}

func GetBool(key string, fallback bool) (bool, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config %s: parse bool %q: %w", key, v, err)
	}
	return b, nil
}

const (
	ProviderGoogle = "google"
	ProviderMock   = "mock"
	ProviderNone   = "none"
)

type Config struct {
	Port        string
	DBPath      string
	DatabaseURL string
	SeedPath    string

	RedisURL      string
	RouteCacheTTL time.Duration

	RouteProvider    string
	GoogleMapsAPIKey string
	GeminiAPIKey     string
	ExternalTimeout  time.Duration

	TwoOptIterations int
	MinutesPerKm     float64
	PlanConcurrency  int

	DepotLat   float64
	DepotLng   float64
	DepotLabel string
	// False when DEPOT_LAT/DEPOT_LNG are unset; requests must then carry a depot.
	HasDefaultDepot bool
}

// Load reads .env (if any) and the process environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:             Get("PORT", "8080"),
		DBPath:           Get("DB_PATH", "data/app.db"),
		DatabaseURL:      Get("DATABASE_URL", ""),
		SeedPath:         Get("SEED_PATH", "data/seeds/registry.json"),
		RedisURL:         Get("REDIS_URL", ""),
		RouteProvider:    strings.ToLower(Get("ROUTE_PROVIDER", "")),
		GoogleMapsAPIKey: Get("GOOGLE_MAPS_API_KEY", ""),
		GeminiAPIKey:     Get("GEMINI_API_KEY", ""),
		DepotLabel:       Get("DEPOT_LABEL", "Depot"),
	}

	var err error
	if cfg.RouteCacheTTL, err = GetDuration("ROUTE_CACHE_TTL", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ExternalTimeout, err = GetDuration("EXTERNAL_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.TwoOptIterations, err = GetInt("TWO_OPT_ITERATIONS", 50); err != nil {
		return nil, err
	}
	if cfg.MinutesPerKm, err = GetFloat("MINUTES_PER_KM", 2.5); err != nil {
		return nil, err
	}
	if cfg.PlanConcurrency, err = GetInt("PLAN_CONCURRENCY", 5); err != nil {
		return nil, err
	}

	lat, lng := Get("DEPOT_LAT", ""), Get("DEPOT_LNG", "")
	if lat != "" || lng != "" {
		if cfg.DepotLat, err = GetFloat("DEPOT_LAT", 0); err != nil {
			return nil, err
		}
		if cfg.DepotLng, err = GetFloat("DEPOT_LNG", 0); err != nil {
			return nil, err
		}
		cfg.HasDefaultDepot = true
	}

	// Without an explicit provider, a Maps key selects Google and its absence
	// keeps planning local.
	if cfg.RouteProvider == "" {
		cfg.RouteProvider = ProviderNone
		if cfg.GoogleMapsAPIKey != "" {
			cfg.RouteProvider = ProviderGoogle
		}
	}

	switch cfg.RouteProvider {
	case ProviderGoogle:
		if cfg.GoogleMapsAPIKey == "" {
			return nil, fmt.Errorf("config ROUTE_PROVIDER=google: GOOGLE_MAPS_API_KEY is required")
		}
	case ProviderMock, ProviderNone:
	default:
		return nil, fmt.Errorf("config ROUTE_PROVIDER: unknown provider %q", cfg.RouteProvider)
	}

	if cfg.TwoOptIterations < 0 {
		return nil, fmt.Errorf("config TWO_OPT_ITERATIONS: must not be negative, got %d", cfg.TwoOptIterations)
	}
	if cfg.PlanConcurrency < 1 {
		return nil, fmt.Errorf("config PLAN_CONCURRENCY: must be at least 1, got %d", cfg.PlanConcurrency)
	}
	if cfg.MinutesPerKm <= 0 {
		return nil, fmt.Errorf("config MINUTES_PER_KM: must be positive, got %v", cfg.MinutesPerKm)
	}

	return cfg, nil
}
