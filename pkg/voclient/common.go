package voclient

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single HTTP exchange. Archive services can be
	// slow to first byte, so this is deliberately generous.
	DefaultTimeout = 60 * time.Second

	// DefaultCacheTTL is how long cached responses stay fresh.
	DefaultCacheTTL = 7 * 24 * time.Hour
)

var (
	// ErrNotFound is returned when a queried resource doesn't exist at the service.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with the standard timeout for archive requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// keyType extracts the kind prefix from a cache key ("http", "query", "resolve")
// for hit/miss attribution in metrics.
func keyType(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "other"
}

// parseRetryAfter reads a Retry-After header value in either of its two
// forms (delay seconds or HTTP date) and returns whole seconds to wait.
// Returns 0 when the header is absent or unparseable.
func parseRetryAfter(v string) int {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return secs
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return int(d.Seconds() + 0.5)
		}
	}
	return 0
}
