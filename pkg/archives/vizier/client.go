package vizier

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmarkert/skyquery/pkg/adql"
	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/coords"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/table"
	"github.com/tmarkert/skyquery/pkg/tap"
)

// DefaultURL is the TAPVizieR endpoint.
const DefaultURL = "https://tapvizier.cds.unistra.fr/TAPVizieR/tap"

// Client queries VizieR catalogues.
// All methods are safe for concurrent use.
type Client struct {
	*tap.Client
	raCol  string
	decCol string
}

// Option configures a Client.
type Option func(*Client)

// WithPositionColumns overrides the column names cone searches match
// against, for catalogues that do not carry RAJ2000/DEJ2000.
func WithPositionColumns(ra, dec string) Option {
	return func(c *Client) { c.raCol, c.decCol = ra, dec }
}

// New creates a VizieR client with the given cache backend.
func New(baseURL string, ca cache.Cache, opts ...Option) *Client {
	c := &Client{
		Client: tap.New("vizier", baseURL, ca),
		raCol:  "RAJ2000",
		decCol: "DEJ2000",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindCatalogs returns the catalogue tables whose descriptions mention
// every keyword, as a table of table_name and description.
func (c *Client) FindCatalogs(ctx context.Context, keywords []string, opts ...tap.Option) (*table.Table, error) {
	if len(keywords) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "at least one keyword is required")
	}

	var sb strings.Builder
	sb.WriteString("SELECT table_name, description FROM TAP_SCHEMA.tables WHERE ")
	for i, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "keywords cannot be blank")
		}
		if i > 0 {
			sb.WriteString(" AND ")
		}
		fmt.Fprintf(&sb, "LOWER(description) LIKE %s", adql.QuoteString("%"+strings.ToLower(kw)+"%"))
	}

	res, err := c.Query(ctx, sb.String(), opts...)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

// QueryCatalog runs a cone search against one catalogue table. The catalog
// argument is the VizieR designation, which is quoted for ADQL since the
// slashes would otherwise split the name.
func (c *Client) QueryCatalog(ctx context.Context, catalog string, center coords.EquatorialCoord, radius coords.Angle, opts ...tap.Option) (*table.Table, error) {
	if err := errors.ValidateTableName(catalog); err != nil {
		return nil, err
	}
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radius.Degrees() <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidRadius, "search radius must be positive, got %v", radius)
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s",
		adql.QuoteIdentifier(catalog),
		adql.ConePredicate(c.raCol, c.decCol, center, radius))
	res, err := c.Query(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}
