package gaia

import (
	"context"
	"fmt"

	"github.com/tmarkert/skyquery/pkg/adql"
	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/coords"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/table"
	"github.com/tmarkert/skyquery/pkg/tap"
)

// DefaultURL is the ESA Gaia archive TAP endpoint.
const DefaultURL = "https://gea.esac.esa.int/tap-server/tap"

// DefaultTable is the source table cone searches run against.
const DefaultTable = "gaiadr3.gaia_source"

// coneColumns is the astrometric and photometric core selected by ConeSearch.
var coneColumns = []string{
	"source_id", "ra", "dec", "parallax", "pmra", "pmdec",
	"phot_g_mean_mag", "bp_rp", "radial_velocity",
}

// Client queries the Gaia archive. The embedded TAP client provides raw
// ADQL queries and the asynchronous job lifecycle.
// All methods are safe for concurrent use.
type Client struct {
	*tap.Client
	sourceTable string
}

// Option configures a Client.
type Option func(*Client)

// WithSourceTable targets a different data release's source table.
func WithSourceTable(name string) Option { return func(c *Client) { c.sourceTable = name } }

// New creates a Gaia client with the given cache backend.
func New(baseURL string, ca cache.Cache, opts ...Option) *Client {
	c := &Client{
		Client:      tap.New("gaia", baseURL, ca),
		sourceTable: DefaultTable,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SourceTable returns the table cone searches query.
func (c *Client) SourceTable() string { return c.sourceTable }

// ConeSearch returns the sources within radius of center from the
// configured source table. It satisfies the archives fan-out interface.
func (c *Client) ConeSearch(ctx context.Context, center coords.EquatorialCoord, radius coords.Angle) (*table.Table, error) {
	return c.ConeSearchOpts(ctx, center, radius)
}

// ConeSearchOpts is ConeSearch with TAP options such as row limits.
func (c *Client) ConeSearchOpts(ctx context.Context, center coords.EquatorialCoord, radius coords.Angle, opts ...tap.Option) (*table.Table, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radius.Degrees() <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidRadius, "search radius must be positive, got %v", radius)
	}
	if err := errors.ValidateTableName(c.sourceTable); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		adql.ColumnList(coneColumns), c.sourceTable,
		adql.ConePredicate("ra", "dec", center, radius))
	res, err := c.Query(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}
