package irsa

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tmarkert/skyquery/pkg/adql"
	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/coords"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/table"
	"github.com/tmarkert/skyquery/pkg/tap"
	"github.com/tmarkert/skyquery/pkg/voclient"
)

// DefaultURL is the IRSA TAP endpoint.
const DefaultURL = "https://irsa.ipac.caltech.edu/TAP"

// Client queries IRSA catalogues.
// All methods are safe for concurrent use.
type Client struct {
	*tap.Client
}

// New creates an IRSA client with the given cache backend.
func New(baseURL string, ca cache.Cache) *Client {
	return &Client{Client: tap.New("irsa", baseURL, ca)}
}

// Option configures one catalogue query.
type Option func(*queryOptions)

type queryOptions struct {
	columns []string
	maxRows int
	csv     bool
	refresh bool
}

// WithColumns selects specific columns instead of the full row.
func WithColumns(cols ...string) Option { return func(o *queryOptions) { o.columns = cols } }

// WithMaxRows caps the number of returned rows via MAXREC.
func WithMaxRows(n int) Option { return func(o *queryOptions) { o.maxRows = n } }

// WithCSV requests the response in CSV instead of VOTable.
func WithCSV() Option { return func(o *queryOptions) { o.csv = true } }

// WithRefresh bypasses the cache for this query.
func WithRefresh() Option { return func(o *queryOptions) { o.refresh = true } }

// QueryCatalog runs a cone search against one IRSA catalogue.
func (c *Client) QueryCatalog(ctx context.Context, catalog string, center coords.EquatorialCoord, radius coords.Angle, opts ...Option) (*table.Table, error) {
	if err := errors.ValidateTableName(catalog); err != nil {
		return nil, err
	}
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radius.Degrees() <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidRadius, "search radius must be positive, got %v", radius)
	}

	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		adql.ColumnList(o.columns), catalog,
		adql.ConePredicate("ra", "dec", center, radius))
	return c.run(ctx, query, o)
}

// ListCatalogs returns the queryable tables as table_name and description
// rows.
func (c *Client) ListCatalogs(ctx context.Context, opts ...Option) (*table.Table, error) {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	o.columns = nil
	return c.run(ctx, "SELECT table_name, description FROM TAP_SCHEMA.tables ORDER BY table_name", o)
}

func (c *Client) run(ctx context.Context, query string, o queryOptions) (*table.Table, error) {
	if !o.csv {
		var tapOpts []tap.Option
		if o.maxRows > 0 {
			tapOpts = append(tapOpts, tap.WithMaxRows(o.maxRows))
		}
		if o.refresh {
			tapOpts = append(tapOpts, tap.WithRefresh())
		}
		res, err := c.Query(ctx, query, tapOpts...)
		if err != nil {
			return nil, err
		}
		return res.Table, nil
	}
	return c.queryCSV(ctx, query, o)
}

// queryCSV posts the query with FORMAT=csv and parses the response with
// the CSV reader. Responses that fail to parse are not cached.
func (c *Client) queryCSV(ctx context.Context, query string, o queryOptions) (*table.Table, error) {
	if err := errors.ValidateADQL(query); err != nil {
		return nil, err
	}

	vo := c.Transport()
	form := url.Values{
		"REQUEST": {"doQuery"},
		"LANG":    {"ADQL"},
		"FORMAT":  {"csv"},
		"QUERY":   {query},
	}
	if o.maxRows > 0 {
		form.Set("MAXREC", strconv.Itoa(o.maxRows))
	}

	key := vo.Keyer().QueryKey(vo.Service(), query, cache.QueryKeyOpts{Format: "csv", MaxRows: o.maxRows})
	var tbl *table.Table
	data, err := vo.Cached(ctx, key, voclient.DefaultCacheTTL, o.refresh, func() ([]byte, error) {
		raw, err := vo.PostForm(ctx, c.BaseURL()+"/sync", form)
		if err != nil {
			return nil, err
		}
		parsed, err := table.ReadCSV(bytes.NewReader(raw), "results")
		if err != nil {
			return nil, err
		}
		tbl = parsed
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	if tbl == nil {
		return table.ReadCSV(bytes.NewReader(data), "results")
	}
	return tbl, nil
}
