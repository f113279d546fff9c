package providers

import "context"

// CacheProvider is the shared key/value store behind dashboard summaries,
// cached public routes and feedback rate limits. A nil CacheProvider means
// every caller falls back to in-process state.
type CacheProvider interface {
	// Get returns the cached bytes or an error when the key is missing.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for expirationSeconds. Zero keeps it forever.
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Incr bumps a counter, creating it with the given expiry when absent.
	Incr(ctx context.Context, key string, expirationSeconds int) (int64, error)
}
