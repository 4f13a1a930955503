package repositories

import (
	"context"
	"database/sql"
	"delivery-route-engine/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the registry, route archive and route cache schema.
// The statements are valid for both SQLite and Postgres.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createStopsQuery := `
	CREATE TABLE IF NOT EXISTS stops (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		priority TEXT NOT NULL DEFAULT 'Medium',
		window_start INTEGER NOT NULL DEFAULT 0,
		window_end INTEGER NOT NULL DEFAULT 1439,
		volume DOUBLE PRECISION NOT NULL DEFAULT 0
	);
	`

	createVehiclesQuery := `
	CREATE TABLE IF NOT EXISTS vehicles (
		id TEXT PRIMARY KEY,
		plate TEXT NOT NULL,
		driver TEXT NOT NULL DEFAULT '',
		capacity_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'Available'
	);
	`

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		id TEXT PRIMARY KEY,
		vehicle_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		source TEXT NOT NULL,
		total_distance_km DOUBLE PRECISION NOT NULL,
		total_duration_min DOUBLE PRECISION NOT NULL,
		total_volume DOUBLE PRECISION NOT NULL DEFAULT 0,
		geometry TEXT NOT NULL,
		fallback_reason TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	);
	`

	// Stops are snapshotted so archived routes survive registry edits.
	createRouteStopsQuery := `
	CREATE TABLE IF NOT EXISTS route_stops (
		route_id TEXT NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
		sequence INTEGER NOT NULL,
		stop_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		priority TEXT NOT NULL,
		window_start INTEGER NOT NULL,
		window_end INTEGER NOT NULL,
		volume DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		PRIMARY KEY (route_id, sequence)
	);
	`

	// Provider results keyed by a request fingerprint; expires_at is unix ms.
	createRouteCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_cache (
		cache_key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		expires_at BIGINT NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_routes_vehicle_id
	ON routes(vehicle_id);
	`

	statements := []string{
		createStopsQuery,
		createVehiclesQuery,
		createRoutesQuery,
		createRouteStopsQuery,
		createRouteCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type StopSeed struct {
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

type VehicleSeed struct {
	ID         string  `json:"id"`
	Plate      string  `json:"plate"`
	Driver     string  `json:"driver"`
	CapacityKg float64 `json:"capacity_kg"`
	Status     string  `json:"status"`
}

type Seed struct {
	Stops    []StopSeed    `json:"stops"`
	Vehicles []VehicleSeed `json:"vehicles"`
}

// Populate the registry with stops and vehicles from a JSON file.
// Existing rows with the same id are replaced.
func SeedFromJSON(ctx context.Context, db *sql.DB, dialect Dialect, jsonPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed registry: read %q: %w", jsonPath, err)
	}

	var data Seed
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("seed registry: parse json: %w", err)
	}

	return SeedRegistry(ctx, db, dialect, data)
}

// SeedRegistry validates and upserts seed data in one transaction.
func SeedRegistry(ctx context.Context, db *sql.DB, dialect Dialect, data Seed) error {
	stops := make([]domain.Stop, 0, len(data.Stops))
	for i, item := range data.Stops {
		s, err := item.toStop()
		if err != nil {
			return fmt.Errorf("seed registry: stop at index %d: %w", i+1, err)
		}
		stops = append(stops, s)
	}

	for i, v := range data.Vehicles {
		if strings.TrimSpace(v.ID) == "" || strings.TrimSpace(v.Plate) == "" {
			return fmt.Errorf("seed registry: vehicle at index %d: id and plate are required", i+1)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed registry: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stopStmt, err := tx.PrepareContext(ctx, dialect.Rebind(`
	INSERT INTO stops (
		id, name, address, lat, lng, priority, window_start, window_end, volume
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET name = excluded.name,
		address = excluded.address,
		lat = excluded.lat,
		lng = excluded.lng,
		priority = excluded.priority,
		window_start = excluded.window_start,
		window_end = excluded.window_end,
		volume = excluded.volume;
	`))
	if err != nil {
		return fmt.Errorf("seed registry: prepare stop insert: %w", err)
	}
	defer stopStmt.Close()

	for _, s := range stops {
		if _, err := stopStmt.ExecContext(
			ctx,
			s.ID, s.Name, s.Address, s.Coordinate.Lat, s.Coordinate.Lng,
			string(s.Priority), int(s.WindowStart), int(s.WindowEnd), s.Volume,
		); err != nil {
			return fmt.Errorf("seed registry: insert stop id=%q: %w", s.ID, err)
		}
	}

	vehicleStmt, err := tx.PrepareContext(ctx, dialect.Rebind(`
	INSERT INTO vehicles (id, plate, driver, capacity_kg, status)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET plate = excluded.plate,
		driver = excluded.driver,
		capacity_kg = excluded.capacity_kg,
		status = excluded.status;
	`))
	if err != nil {
		return fmt.Errorf("seed registry: prepare vehicle insert: %w", err)
	}
	defer vehicleStmt.Close()

	for _, v := range data.Vehicles {
		status := v.Status
		if status == "" {
			status = string(domain.VehicleAvailable)
		}
		if _, err := vehicleStmt.ExecContext(ctx, v.ID, v.Plate, v.Driver, v.CapacityKg, status); err != nil {
			return fmt.Errorf("seed registry: insert vehicle id=%q: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed registry: commit tx: %w", err)
	}

	return nil
}

func (s StopSeed) toStop() (domain.Stop, error) {
	id := strings.TrimSpace(s.ID)
	if id == "" {
		return domain.Stop{}, errors.New("id cannot be empty")
	}
	if s.Volume < 0 {
		return domain.Stop{}, fmt.Errorf("stop %q: volume cannot be negative", id)
	}

	priority, err := domain.ParsePriority(s.Priority)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("stop %q: %w", id, err)
	}

	windowStart, windowEnd := domain.StartOfDay, domain.EndOfDay
	if s.WindowStart != "" {
		if windowStart, err = domain.ParseTimeOfDay(s.WindowStart); err != nil {
			return domain.Stop{}, fmt.Errorf("stop %q: %w", id, err)
		}
	}
	if s.WindowEnd != "" {
		if windowEnd, err = domain.ParseTimeOfDay(s.WindowEnd); err != nil {
			return domain.Stop{}, fmt.Errorf("stop %q: %w", id, err)
		}
	}

	return domain.Stop{
		ID:          id,
		Name:        strings.TrimSpace(s.Name),
		Address:     strings.TrimSpace(s.Address),
		Coordinate:  domain.Coordinate{Lat: s.Lat, Lng: s.Lng},
		Priority:    priority,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Volume:      s.Volume,
	}, nil
}
