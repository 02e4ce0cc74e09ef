// Package cache provides the content-addressed result cache: a
// byte-addressable store (Redis or in-memory), stable request
// fingerprinting, a compact binary value codec, and version gating that
// flushes everything when the upstream data version changes.
//
// The cache is purely opportunistic. Backend failures are logged and the
// request proceeds as if uncached; entries carry no TTL and live until a
// bulk flush or until the backend evicts them on its own.
package cache

import "context"

// Result namespaces. Each result shape gets its own key prefix so bytes
// cached under one shape are never decoded as another.
const (
	NamespaceSpectroscopyGraph = "spec-graph"
	NamespaceSpectroscopyTime  = "spec-time"
	NamespaceImagingTime       = "img-time"
)

// VersionKey holds the upstream data-version string the current cache
// contents were produced under.
const VersionKey = "version"

// Store is the byte-addressable key-value surface the cache consumes.
type Store interface {
	// Get returns the value for key, reporting whether it was present.
	Get(ctx context.Context, key []byte) ([]byte, bool, error)

	// Set stores value under key with no expiry. The backend may still
	// evict at will.
	Set(ctx context.Context, key, value []byte) error

	// Flush removes every entry, making all previously cached results
	// unreachable.
	Flush(ctx context.Context) error

	// Ping checks backend health.
	Ping(ctx context.Context) error

	// Close releases backend resources. Safe to call more than once.
	Close() error
}
