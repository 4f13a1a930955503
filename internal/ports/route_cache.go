package ports

import "context"

// Port: storage for provider results keyed by a request fingerprint.
// Implementations must treat expired entries as misses.
type RouteCache interface {
	// The boolean reports whether key was present.
	Get(ctx context.Context, key string) (OptimizedRoute, bool, error)
	Put(ctx context.Context, key string, route OptimizedRoute) error
}
