package repositories

import (
	"context"
	"database/sql"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/platform/obs"
	"errors"
	"fmt"
	"strings"
)

// SQL-backed implementation of the StopRepository and VehicleRepository ports.
type SQLStopRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLStopRepository(db *sql.DB, dialect Dialect) *SQLStopRepository {
	return &SQLStopRepository{DB: db, Dialect: dialect}
}

const selectStopColumns = `
	SELECT
		id,
		name,
		address,
		lat,
		lng,
		priority,
		window_start,
		window_end,
		volume
	FROM stops
	`

// Return all registered stops ordered by id.
func (s *SQLStopRepository) ListStops(ctx context.Context) (_ []domain.Stop, err error) {
	defer obs.Time(ctx, "stops.ListStops")(&err)

	if s.DB == nil {
		return nil, errors.New("sql stop repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, selectStopColumns+" ORDER BY id;")
	if err != nil {
		return nil, fmt.Errorf("list stops: query stops table: %w", err)
	}
	defer rows.Close()

	stops, err := scanStops(rows)
	if err != nil {
		return nil, fmt.Errorf("list stops: %w", err)
	}
	return stops, nil
}

// Return the stops with the given ids, in the order requested.
// Unknown ids are reported as domain.ErrInvalidRequest.
func (s *SQLStopRepository) GetStops(ctx context.Context, ids []string) (_ []domain.Stop, err error) {
	defer obs.Time(ctx, "stops.GetStops")(&err)

	if s.DB == nil {
		return nil, errors.New("sql stop repository: DB is nil")
	}

	if len(ids) == 0 {
		return []domain.Stop{}, nil
	}

	seen := map[string]struct{}{}
	uniq := make([]any, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}

	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := s.Dialect.Rebind(fmt.Sprintf("%s WHERE id IN (%s);", selectStopColumns, placeholders(len(uniq))))

	rows, err := s.DB.QueryContext(ctx, q, uniq...)
	if err != nil {
		return nil, fmt.Errorf("get stops: query stops table: %w", err)
	}
	defer rows.Close()

	found, err := scanStops(rows)
	if err != nil {
		return nil, fmt.Errorf("get stops: %w", err)
	}

	byID := make(map[string]domain.Stop, len(found))
	for _, st := range found {
		byID[st.ID] = st
	}

	out := make([]domain.Stop, 0, len(ids))
	missing := make([]string, 0)
	for _, id := range ids {
		st, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, st)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("get stops: %w: unknown stop ids: %s", domain.ErrInvalidRequest, strings.Join(missing, ", "))
	}

	return out, nil
}

func scanStops(rows *sql.Rows) ([]domain.Stop, error) {
	stops := make([]domain.Stop, 0, 64)
	for rows.Next() {
		var (
			st                     domain.Stop
			priority               string
			windowStart, windowEnd int
		)
		if err := rows.Scan(
			&st.ID, &st.Name, &st.Address,
			&st.Coordinate.Lat, &st.Coordinate.Lng,
			&priority, &windowStart, &windowEnd, &st.Volume,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		st.Priority = domain.Priority(priority)
		st.WindowStart = domain.TimeOfDay(windowStart)
		st.WindowEnd = domain.TimeOfDay(windowEnd)
		stops = append(stops, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}

	return stops, nil
}

// Return a single vehicle, or domain.ErrNotFound.
func (s *SQLStopRepository) GetVehicle(ctx context.Context, id string) (_ *domain.Vehicle, err error) {
	defer obs.Time(ctx, "vehicles.GetVehicle")(&err)

	if s.DB == nil {
		return nil, errors.New("sql stop repository: DB is nil")
	}

	q := s.Dialect.Rebind(`
	SELECT id, plate, driver, capacity_kg, status
	FROM vehicles
	WHERE id = ?;
	`)

	var (
		v      domain.Vehicle
		status string
	)
	err = s.DB.QueryRowContext(ctx, q, id).Scan(&v.ID, &v.Plate, &v.Driver, &v.CapacityKg, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get vehicle %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle %q: %w", id, err)
	}
	v.Status = domain.VehicleStatus(status)

	return &v, nil
}
