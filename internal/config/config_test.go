package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PORT", "DB_PATH", "DATABASE_URL", "SEED_PATH", "REDIS_URL", "ROUTE_CACHE_TTL",
	"ROUTE_PROVIDER", "GOOGLE_MAPS_API_KEY", "GEMINI_API_KEY", "EXTERNAL_TIMEOUT",
	"TWO_OPT_ITERATIONS", "MINUTES_PER_KM", "DEPOT_LAT", "DEPOT_LNG", "DEPOT_LABEL",
	"PLAN_CONCURRENCY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "data/app.db", cfg.DBPath)
	assert.Equal(t, ProviderNone, cfg.RouteProvider)
	assert.Equal(t, 15*time.Second, cfg.ExternalTimeout)
	assert.Equal(t, 6*time.Hour, cfg.RouteCacheTTL)
	assert.Equal(t, 50, cfg.TwoOptIterations)
	assert.Equal(t, 2.5, cfg.MinutesPerKm)
	assert.Equal(t, 5, cfg.PlanConcurrency)
	assert.Equal(t, "Depot", cfg.DepotLabel)
	assert.False(t, cfg.HasDefaultDepot)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("GOOGLE_MAPS_API_KEY", "maps-key")
	t.Setenv("EXTERNAL_TIMEOUT", "3s")
	t.Setenv("TWO_OPT_ITERATIONS", "10")
	t.Setenv("MINUTES_PER_KM", "1.5")
	t.Setenv("DEPOT_LAT", "-22.88")
	t.Setenv("DEPOT_LNG", "-43.12")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, ProviderGoogle, cfg.RouteProvider)
	assert.Equal(t, 3*time.Second, cfg.ExternalTimeout)
	assert.Equal(t, 10, cfg.TwoOptIterations)
	assert.Equal(t, 1.5, cfg.MinutesPerKm)
	assert.True(t, cfg.HasDefaultDepot)
	assert.Equal(t, -22.88, cfg.DepotLat)
	assert.Equal(t, -43.12, cfg.DepotLng)
}

func TestFromEnv_Errors(t *testing.T) {
	cases := map[string][2]string{
		"bad duration":       {"EXTERNAL_TIMEOUT", "soon"},
		"bad int":            {"TWO_OPT_ITERATIONS", "many"},
		"negative 2-opt":     {"TWO_OPT_ITERATIONS", "-3"},
		"unknown provider":   {"ROUTE_PROVIDER", "osrm"},
		"google without key": {"ROUTE_PROVIDER", "google"},
		"zero concurrency":   {"PLAN_CONCURRENCY", "0"},
		"negative pace":      {"MINUTES_PER_KM", "-1"},
	}

	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_ZeroIterationsMeansConstructionOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("TWO_OPT_ITERATIONS", "0")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.TwoOptIterations)
}

func TestGetHelpers(t *testing.T) {
	t.Setenv("CFG_TEST_BOOL", "true")
	t.Setenv("CFG_TEST_BLANK", "   ")

	b, err := GetBool("CFG_TEST_BOOL", false)
	require.NoError(t, err)
	assert.True(t, b)

	assert.Equal(t, "fallback", Get("CFG_TEST_BLANK", "fallback"))

	n, err := GetInt("CFG_TEST_BLANK", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
