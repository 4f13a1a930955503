package repositories

import (
	"context"
	"database/sql"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/geo"
	"delivery-route-engine/internal/platform/obs"
	"delivery-route-engine/internal/ports"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RouteStatusDraft  = "DRAFT"
	StopStatusPending = "PENDING"
)

// SQL-backed implementation of the RouteRepository port.
//
// Geometry is stored polyline-encoded, so archived paths keep five decimal
// digits of precision.
type SQLRouteRepository struct {
	DB      *sql.DB
	Dialect Dialect
	now     func() time.Time
}

func NewSQLRouteRepository(db *sql.DB, dialect Dialect) *SQLRouteRepository {
	return &SQLRouteRepository{DB: db, Dialect: dialect, now: time.Now}
}

// Persist a planned route as a draft and return its id.
func (s *SQLRouteRepository) SaveRoute(
	ctx context.Context,
	vehicleID string,
	result *domain.RouteResult,
) (_ string, err error) {
	defer obs.Time(ctx, "routes.SaveRoute")(&err)

	if s.DB == nil {
		return "", errors.New("sql route repository: DB is nil")
	}
	if result == nil {
		return "", errors.New("save route: result must be non-nil")
	}

	id := uuid.NewString()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save route: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.Dialect.Rebind(`
	INSERT INTO routes (
		id,
		vehicle_id,
		status,
		source,
		total_distance_km,
		total_duration_min,
		total_volume,
		geometry,
		fallback_reason,
		created_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`),
		id, vehicleID, RouteStatusDraft, string(result.Source),
		result.TotalDistanceKm, result.TotalDurationMin, result.TotalVolume,
		geo.EncodePolyline(result.Geometry), result.FallbackReason,
		s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("save route: insert route: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.Dialect.Rebind(`
	INSERT INTO route_stops (
		route_id, sequence, stop_id, name, address, lat, lng,
		priority, window_start, window_end, volume, status
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`))
	if err != nil {
		return "", fmt.Errorf("save route: db prepare: %w", err)
	}
	defer stmt.Close()

	for seq, st := range result.OrderedStops {
		if _, err := stmt.ExecContext(
			ctx,
			id, seq, st.ID, st.Name, st.Address, st.Coordinate.Lat, st.Coordinate.Lng,
			string(st.Priority), int(st.WindowStart), int(st.WindowEnd), st.Volume, StopStatusPending,
		); err != nil {
			return "", fmt.Errorf("save route: insert stop seq=%d id=%q: %w", seq, st.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save route: commit: %w", err)
	}

	return id, nil
}

// Load an archived route, or domain.ErrNotFound.
func (s *SQLRouteRepository) GetRoute(ctx context.Context, id string) (_ *ports.StoredRoute, err error) {
	defer obs.Time(ctx, "routes.GetRoute")(&err)

	if s.DB == nil {
		return nil, errors.New("sql route repository: DB is nil")
	}

	var (
		out       ports.StoredRoute
		source    string
		geometry  string
		createdAt int64
	)
	err = s.DB.QueryRowContext(ctx, s.Dialect.Rebind(`
	SELECT
		id,
		vehicle_id,
		status,
		source,
		total_distance_km,
		total_duration_min,
		total_volume,
		geometry,
		fallback_reason,
		created_at
	FROM routes
	WHERE id = ?;
	`), id).Scan(
		&out.ID, &out.VehicleID, &out.Status, &source,
		&out.Result.TotalDistanceKm, &out.Result.TotalDurationMin, &out.Result.TotalVolume,
		&geometry, &out.Result.FallbackReason, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get route %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get route %q: %w", id, err)
	}

	out.Result.Source = domain.Source(source)
	out.CreatedAt = time.UnixMilli(createdAt).UTC()

	out.Result.Geometry, err = geo.DecodePolyline(geometry)
	if err != nil {
		return nil, fmt.Errorf("get route %q: decode geometry: %w", id, err)
	}

	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(`
	SELECT
		stop_id,
		name,
		address,
		lat,
		lng,
		priority,
		window_start,
		window_end,
		volume
	FROM route_stops
	WHERE route_id = ?
	ORDER BY sequence;
	`), id)
	if err != nil {
		return nil, fmt.Errorf("get route %q: query stops: %w", id, err)
	}
	defer rows.Close()

	out.Result.OrderedStops, err = scanStops(rows)
	if err != nil {
		return nil, fmt.Errorf("get route %q: %w", id, err)
	}

	return &out, nil
}
