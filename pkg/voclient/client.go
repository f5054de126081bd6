package voclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/tmarkert/skyquery/pkg/buildinfo"
	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/observability"
)

// Client provides shared HTTP functionality for all archive service clients.
// It handles caching, retry logic, and common request headers.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	service string
	headers map[string]string
}

// New creates a Client for the named service with the given cache and
// default headers. Headers are applied to all requests made through this
// client; pass nil if no default headers are needed. A nil cache disables
// caching.
func New(service string, c cache.Cache, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:    NewHTTPClient(),
		cache:   c,
		keyer:   cache.NewDefaultKeyer(),
		service: service,
		headers: headers,
	}
}

// Service returns the service name this client was created for.
func (c *Client) Service() string { return c.service }

// Keyer returns the cache key generator.
func (c *Client) Keyer() cache.Keyer { return c.keyer }

// SetKeyer replaces the cache key generator, e.g. with a scoped keyer on a
// shared backend.
func (c *Client) SetKeyer(k cache.Keyer) {
	if k != nil {
		c.keyer = k
	}
}

// SetTimeout overrides the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.http.Timeout = d
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
func (c *Client) Cached(ctx context.Context, key string, ttl time.Duration, refresh bool, fetch func() ([]byte, error)) ([]byte, error) {
	if !refresh {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, keyType(key))
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyType(key))
	}

	data, err := fetch()
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, data, ttl)
	observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	return data, nil
}

// GetBytes performs an HTTP GET request and returns the response body.
// Query parameters are encoded and appended to the URL.
func (c *Client) GetBytes(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}
	return c.request(ctx, http.MethodGet, rawURL, "", nil)
}

// GetJSON performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, v any) error {
	data, err := c.GetBytes(ctx, rawURL, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.NewParseError("json", data, err)
	}
	return nil
}

// PostForm performs a form-encoded HTTP POST request and returns the
// response body. Redirects, including the 303 used by asynchronous job
// endpoints, are followed.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error) {
	return c.request(ctx, http.MethodPost, rawURL, "application/x-www-form-urlencoded", []byte(form.Encode()))
}

// PostFormJSON performs a form-encoded POST and JSON-decodes the response into v.
func (c *Client) PostFormJSON(ctx context.Context, rawURL string, form url.Values, v any) error {
	data, err := c.PostForm(ctx, rawURL, form)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.NewParseError("json", data, err)
	}
	return nil
}

// Download streams a GET response to the file at dest, creating parent
// directories as needed. Returns the number of bytes written.
func (c *Client) Download(ctx context.Context, rawURL, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	c.setHeaders(req, "")

	host, path := req.URL.Host, req.URL.Path
	observability.HTTP().OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, host, path, err)
		return 0, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp, nil); err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return n, nil
}

// request runs one HTTP exchange with retries on retryable failures.
func (c *Client) request(ctx context.Context, method, rawURL, contentType string, body []byte) ([]byte, error) {
	var out []byte
	err := retryWithBackoff(ctx, func() error {
		data, err := c.do(ctx, method, rawURL, contentType, body)
		if err != nil {
			return err
		}
		out = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, rawURL, contentType string, body []byte) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rdr)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, contentType)

	host, path := req.URL.Host, req.URL.Path
	observability.HTTP().OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, method, host, path, err)
		return nil, Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	data, readErr := io.ReadAll(resp.Body)
	if err := checkStatus(resp, data); err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, Retryable(fmt.Errorf("%w: %v", ErrNetwork, readErr))
	}
	return data, nil
}

func (c *Client) setHeaders(req *http.Request, contentType string) {
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}

// StatusError reports a non-2xx response that does not map onto a more
// specific error. Body carries the response payload, which VO services use
// for error documents even on 4xx responses.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// checkStatus maps HTTP status codes onto the client error taxonomy:
// 404 becomes ErrNotFound, 5xx becomes a retryable network error, and 429
// becomes a RateLimitedError carrying the service's Retry-After wait, which
// the retry loop honors before trying again. Other 4xx responses become a
// StatusError that keeps the body so callers can decode error documents.
func checkStatus(resp *http.Response, body []byte) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusUnauthorized:
		return errors.New(errors.ErrCodeUnauthorized, "authentication required: check your API token")
	case code == http.StatusForbidden:
		return errors.New(errors.ErrCodeForbidden, "access denied by service")
	case code == http.StatusTooManyRequests:
		return &errors.RateLimitedError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case code >= 500:
		return Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return &StatusError{StatusCode: code, Body: body}
	}
}
