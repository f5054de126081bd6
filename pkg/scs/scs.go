// Package scs implements a client for IVOA Simple Cone Search services.
//
// Cone search is the oldest VO protocol: a single GET with RA, DEC, and SR
// parameters returns every catalog row within the cone as a VOTable. It has
// no query language and no asynchronous mode; archives expose it alongside
// TAP for positional lookups.
package scs

import (
	"context"
	stderrors "errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/coords"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/observability"
	"github.com/tmarkert/skyquery/pkg/table"
	"github.com/tmarkert/skyquery/pkg/voclient"
	"github.com/tmarkert/skyquery/pkg/votable"
)

// Client queries a Simple Cone Search 1.03 service.
type Client struct {
	vo      *voclient.Client
	baseURL string
}

// New creates a cone search client for the service at baseURL. Cone search
// base URLs may already carry query parameters or end in "?"; both forms are
// handled. A nil cache disables caching.
func New(service, baseURL string, c cache.Cache) *Client {
	return NewWithClient(voclient.New(service, c, nil), baseURL)
}

// NewWithClient creates a cone search client on an existing transport.
func NewWithClient(vo *voclient.Client, baseURL string) *Client {
	return &Client{vo: vo, baseURL: baseURL}
}

// Transport returns the underlying HTTP client.
func (c *Client) Transport() *voclient.Client { return c.vo }

// Option adjusts a single search.
type Option func(*searchOptions)

type searchOptions struct {
	verbosity int
	refresh   bool
}

// WithVerbosity sets the VERB parameter: 1 returns the minimum column set,
// 2 the service default, 3 everything the service has.
func WithVerbosity(v int) Option { return func(o *searchOptions) { o.verbosity = v } }

// WithRefresh bypasses the response cache for this search.
func WithRefresh() Option { return func(o *searchOptions) { o.refresh = true } }

// Search returns every row of the service's catalog within radius of center.
// Errors the service reports in its response document surface as a
// ServiceError.
func (c *Client) Search(ctx context.Context, center coords.EquatorialCoord, radius coords.Angle, opts ...Option) (*table.Table, error) {
	var o searchOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radius.Degrees() <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidRadius, "search radius must be positive, got %s", coords.FormatDegrees(radius.Degrees()))
	}
	if o.verbosity < 0 || o.verbosity > 3 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "verbosity must be between 1 and 3, got %d", o.verbosity)
	}

	params := url.Values{}
	params.Set("RA", coords.FormatDegrees(center.RA.Degrees()))
	params.Set("DEC", coords.FormatDegrees(center.Dec.Degrees()))
	params.Set("SR", coords.FormatDegrees(radius.Degrees()))
	if o.verbosity > 0 {
		params.Set("VERB", strconv.Itoa(o.verbosity))
	}

	observability.Query().OnQueryStart(ctx, c.vo.Service(), params.Encode())
	start := time.Now()

	tbl, err := c.search(ctx, params, o.refresh)
	rows := 0
	if tbl != nil {
		rows = tbl.NumRows()
	}
	observability.Query().OnQueryComplete(ctx, c.vo.Service(), rows, time.Since(start), err)
	return tbl, err
}

func (c *Client) search(ctx context.Context, params url.Values, refresh bool) (*table.Table, error) {
	searchURL := c.searchURL(params)
	key := c.vo.Keyer().HTTPKey(c.vo.Service(), searchURL)

	var tbl *table.Table
	data, err := c.vo.Cached(ctx, key, voclient.DefaultCacheTTL, refresh, func() ([]byte, error) {
		body, err := c.vo.GetBytes(ctx, searchURL, nil)
		if err != nil {
			return nil, err
		}
		t, err := c.parseResponse(body)
		if err != nil {
			return nil, err
		}
		tbl = t
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	if tbl == nil {
		return c.parseResponse(data)
	}
	return tbl, nil
}

func (c *Client) parseResponse(data []byte) (*table.Table, error) {
	res, err := votable.ParseBytes(data)
	if err != nil {
		var svc *errors.ServiceError
		if stderrors.As(err, &svc) && svc.Service == "" {
			svc.Service = c.vo.Service()
		}
		return nil, err
	}
	return res.Table, nil
}

// searchURL appends the cone parameters to the base URL, which registries
// record with or without a trailing "?" or existing parameters.
func (c *Client) searchURL(params url.Values) string {
	base := c.baseURL
	switch {
	case strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&"):
		return base + params.Encode()
	case strings.Contains(base, "?"):
		return base + "&" + params.Encode()
	default:
		return base + "?" + params.Encode()
	}
}
