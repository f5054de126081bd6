package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer generates cache keys for the different kinds of archive requests.
// Keys embed a type prefix so that hit/miss metrics can be attributed and
// so that different request kinds never collide.
type Keyer interface {
	// HTTPKey generates a key for caching a raw HTTP response.
	// The service name namespaces the key; the url is the full request URL
	// including encoded query parameters.
	HTTPKey(service, url string) string

	// QueryKey generates a key for caching a query result.
	QueryKey(service, query string, opts QueryKeyOpts) string

	// ResolveKey generates a key for caching a name resolution result.
	ResolveKey(resolver, name string) string
}

// QueryKeyOpts are the request options that affect a query result and must
// therefore be part of its cache key.
type QueryKeyOpts struct {
	Format  string `json:"format"`
	MaxRows int    `json:"max_rows"`
}

// DefaultKeyer is the standard Keyer implementation.
// All keys are derived from SHA-256 hashes of the request parameters, so
// arbitrarily long URLs and queries produce fixed-length keys that are safe
// to use as file names.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(service, url string) string {
	return hashKey("http", service, url)
}

// QueryKey generates a key for query result caching.
func (k *DefaultKeyer) QueryKey(service, query string, opts QueryKeyOpts) string {
	return hashKey("query", service, query, opts)
}

// ResolveKey generates a key for name resolution caching.
func (k *DefaultKeyer) ResolveKey(resolver, name string) string {
	return hashKey("resolve", resolver, name)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	// Use full SHA-256 hash (64 hex chars / 256 bits) to prevent collisions
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
