// Package heasarc queries the NASA HEASARC archive through its Xamin TAP
// service. HEASARC exposes one table per mission catalog (numaster,
// swiftmastr, rosmaster, ...), all sharing ra/dec position columns, so the
// client stays a thin cone wrapper over [tap.Client].
package heasarc

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

// DefaultURL is the HEASARC Xamin TAP endpoint.
const DefaultURL = "https://heasarc.gsfc.nasa.gov/xamin/vo/tap"

// Client queries HEASARC mission catalogs.
type Client struct {
	*tap.Client
}

// New creates a HEASARC client. A nil cache disables caching.
func New(baseURL string, ca cache.Cache) *Client {
	return &Client{Client: tap.New("heasarc", baseURL, ca)}
}

// QueryMission returns the rows of one mission catalog within radius of
// center.
func (c *Client) QueryMission(ctx context.Context, mission string, center coords.EquatorialCoord, radius coords.Angle, opts ...tap.Option) (*table.Table, error) {
	if err := errors.ValidateTableName(mission); err != nil {
		return nil, err
	}
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radius.Degrees() <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidRadius, "search radius must be positive, got %s", coords.FormatDegrees(radius.Degrees()))
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s",
		mission, adql.ConePredicate("ra", "dec", center, radius))
	res, err := c.Query(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

// ListMissions returns the mission catalogs the service exposes, with their
// descriptions.
func (c *Client) ListMissions(ctx context.Context, opts ...tap.Option) (*table.Table, error) {
	res, err := c.Query(ctx, "SELECT table_name, description FROM TAP_SCHEMA.tables ORDER BY table_name", opts...)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}
