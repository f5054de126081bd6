// Package cache provides pluggable response caching for archive clients.
//
// All backends implement the [Cache] interface, which stores opaque byte
// payloads under string keys with an optional time-to-live. The file backend
// is the default for CLI usage; memory suits tests and short-lived processes,
// and the Redis and MongoDB backends support shared caches across hosts.
//
// Keys are produced by a [Keyer], which hashes request URLs and query text
// into stable, filesystem-safe identifiers. Use [NewScopedKeyer] to isolate
// namespaces (for example per-user caches on a shared backend).
package cache

import (
	"context"
	"time"
)

// Cache stores byte payloads under string keys with optional expiration.
//
// Implementations must be safe for concurrent use. A ttl of 0 means the
// entry never expires. Get reports a miss (not an error) for absent or
// expired entries.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was found and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A ttl of 0 disables expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}
