package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful when several users or tools share one cache backend and
// need separate key spaces.
//
// Example usage:
//
//	// User-specific keys for authenticated archives
//	userKeyer := NewScopedKeyer(NewDefaultKeyer(), "user:abc123:")
//
//	// Global keys for public archives
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(service, url string) string {
	return k.prefix + k.inner.HTTPKey(service, url)
}

// QueryKey generates a prefixed key for query result caching.
func (k *ScopedKeyer) QueryKey(service, query string, opts QueryKeyOpts) string {
	return k.prefix + k.inner.QueryKey(service, query, opts)
}

// ResolveKey generates a prefixed key for name resolution caching.
func (k *ScopedKeyer) ResolveKey(resolver, name string) string {
	return k.prefix + k.inner.ResolveKey(resolver, name)
}
