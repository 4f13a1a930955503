package cache

import (
	"context"
	"database/sql"
	"delivery-route-engine/internal/adapters/repositories"
	"delivery-route-engine/internal/platform/obs"
	"delivery-route-engine/internal/ports"
	"errors"
	"fmt"
	"time"
)

// SQLRouteCache is a SQL-backed cache for optimized routes, used when no
// Redis instance is configured. It lives in the route_cache table created by
// repositories.InitSchema and works on both SQLite and Postgres.
type SQLRouteCache struct {
	DB      *sql.DB
	Dialect repositories.Dialect
	TTL     time.Duration
	now     func() time.Time
}

func NewSQLRouteCache(db *sql.DB, dialect repositories.Dialect, ttl time.Duration) *SQLRouteCache {
	if ttl <= 0 {
		ttl = DefaultRouteTTL
	}
	return &SQLRouteCache{DB: db, Dialect: dialect, TTL: ttl, now: time.Now}
}

// Fetch a cached route. Expired rows are reported as misses.
func (s *SQLRouteCache) Get(ctx context.Context, key string) (_ ports.OptimizedRoute, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.sql.Get")(&err)

	if s.DB == nil {
		return ports.OptimizedRoute{}, false, errors.New("route cache: db is nil")
	}

	q := s.Dialect.Rebind(`
	SELECT payload, expires_at
	FROM route_cache
	WHERE cache_key = ?;
	`)

	var (
		payload   string
		expiresAt int64
	)
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.OptimizedRoute{}, false, nil
	}
	if err != nil {
		return ports.OptimizedRoute{}, false, fmt.Errorf("get route cache key=%s: %w", key, err)
	}

	if expiresAt <= s.now().UnixMilli() {
		return ports.OptimizedRoute{}, false, nil
	}

	route, err := decodeRoute([]byte(payload))
	if err != nil {
		return ports.OptimizedRoute{}, false, fmt.Errorf("get route cache key=%s: %w", key, err)
	}

	return route, true, nil
}

// Store a route under key, replacing any previous entry.
func (s *SQLRouteCache) Put(ctx context.Context, key string, route ports.OptimizedRoute) (err error) {
	defer obs.Time(ctx, "route.cache.sql.Put")(&err)

	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	raw, err := encodeRoute(route)
	if err != nil {
		return fmt.Errorf("put route cache: %w", err)
	}

	q := s.Dialect.Rebind(`
	INSERT INTO route_cache (cache_key, payload, expires_at)
	VALUES (?, ?, ?)
	ON CONFLICT (cache_key) DO UPDATE
	SET payload = excluded.payload,
		expires_at = excluded.expires_at;
	`)

	expiresAt := s.now().Add(s.TTL).UnixMilli()
	if _, err := s.DB.ExecContext(ctx, q, key, string(raw), expiresAt); err != nil {
		return fmt.Errorf("put route cache key=%s: %w", key, err)
	}

	return nil
}

// Purge deletes expired rows and returns how many were removed.
func (s *SQLRouteCache) Purge(ctx context.Context) (_ int64, err error) {
	defer obs.Time(ctx, "route.cache.sql.Purge")(&err)

	if s.DB == nil {
		return 0, errors.New("route cache: db is nil")
	}

	res, err := s.DB.ExecContext(ctx,
		s.Dialect.Rebind(`DELETE FROM route_cache WHERE expires_at <= ?;`),
		s.now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge route cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge route cache: rows affected: %w", err)
	}
	return n, nil
}
