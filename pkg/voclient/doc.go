// Package voclient provides the shared HTTP layer for archive service clients.
//
// # Overview
//
// Every archive client in pkg/archives is built on [Client], which bundles
// the concerns common to all astronomical web services:
//
//   - HTTP requests with a generous timeout and a skyquery User-Agent
//   - Retry with exponential backoff on transient failures
//   - Response caching through [cache.Cache], keyed by request URL or query
//   - Uniform error mapping (404, 401/403, 429 with Retry-After, 5xx)
//
// # Client Pattern
//
// Service clients embed or hold a *Client and route requests through it:
//
//	vc := voclient.New("simbad", fileCache, nil)
//	data, err := vc.Cached(ctx, key, voclient.DefaultCacheTTL, refresh, func() ([]byte, error) {
//	    return vc.PostForm(ctx, endpoint, form)
//	})
//
// The fetch closure runs only on a cache miss (or when refresh bypasses the
// cache); its successful result is stored for DefaultCacheTTL.
//
// # Error Mapping
//
// Responses are translated into a small taxonomy callers can branch on:
// [ErrNotFound] for 404, a retryable [ErrNetwork] for connection failures
// and 5xx, [errors.RateLimitedError] for 429 (carrying the Retry-After
// wait, which the retry loop honors when it is short enough to sit out),
// and coded errors for 401/403. Body formats are not interpreted
// here; services parse VOTable or JSON payloads themselves so that parse
// failures can retain the raw response.
//
// [cache.Cache]: github.com/tmarkert/skyquery/pkg/cache.Cache
// [errors.RateLimitedError]: github.com/tmarkert/skyquery/pkg/errors.RateLimitedError
package voclient
