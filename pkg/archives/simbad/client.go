package simbad

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/tmarkert/skyquery/pkg/adql"
	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/coords"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/table"
	"github.com/tmarkert/skyquery/pkg/tap"
)

// DefaultURL is the CDS sim-tap endpoint.
const DefaultURL = "https://simbad.cds.unistra.fr/simbad/sim-tap"

// ErrObjectNotFound reports that SIMBAD has no object under the queried name.
var ErrObjectNotFound = stderrors.New("object not found in SIMBAD")

// defaultColumns is the basic data returned by object and region lookups.
var defaultColumns = []string{"main_id", "ra", "dec", "otype"}

// Client queries SIMBAD. The embedded TAP client is available for raw ADQL.
// All methods are safe for concurrent use.
type Client struct {
	*tap.Client
}

// New creates a SIMBAD client with the given cache backend.
func New(baseURL string, ca cache.Cache) *Client {
	return &Client{Client: tap.New("simbad", baseURL, ca)}
}

// ObjectByName returns the basic data rows for an object name. The name is
// matched against all identifiers SIMBAD knows, so "M 31", "NGC 224", and
// "Andromeda Galaxy" find the same object.
//
// Returns an error wrapping [ErrObjectNotFound] when nothing matches.
func (c *Client) ObjectByName(ctx context.Context, name string, opts ...tap.Option) (*table.Table, error) {
	if err := errors.ValidateObjectName(name); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM basic JOIN ident ON ident.oidref = basic.oid WHERE ident.id = %s",
		adql.ColumnList(defaultColumns), adql.QuoteString(name))
	res, err := c.Query(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	if res.Table.NumRows() == 0 {
		res.Table.Release()
		return nil, errors.Wrap(errors.ErrCodeObjectNotFound, ErrObjectNotFound, "SIMBAD has no object %q", name)
	}
	return res.Table, nil
}

// QueryRegion returns the objects within radius of center.
func (c *Client) QueryRegion(ctx context.Context, center coords.EquatorialCoord, radius coords.Angle, opts ...tap.Option) (*table.Table, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radius.Degrees() <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidRadius, "search radius must be positive, got %v", radius)
	}

	query := fmt.Sprintf("SELECT %s FROM basic WHERE %s",
		adql.ColumnList(defaultColumns), adql.ConePredicate("ra", "dec", center, radius))
	res, err := c.Query(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

// ConeSearch runs QueryRegion with default options. It satisfies the
// archives fan-out interface.
func (c *Client) ConeSearch(ctx context.Context, center coords.EquatorialCoord, radius coords.Angle) (*table.Table, error) {
	return c.QueryRegion(ctx, center, radius)
}

// Identifiers returns every identifier filed for the named object, sorted.
//
// Returns an error wrapping [ErrObjectNotFound] when the name is unknown.
func (c *Client) Identifiers(ctx context.Context, name string, opts ...tap.Option) ([]string, error) {
	if err := errors.ValidateObjectName(name); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT alias.id FROM ident AS alias JOIN ident AS src ON src.oidref = alias.oidref WHERE src.id = %s ORDER BY alias.id",
		adql.QuoteString(name))
	res, err := c.Query(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	defer res.Table.Release()

	if res.Table.NumRows() == 0 {
		return nil, errors.Wrap(errors.ErrCodeObjectNotFound, ErrObjectNotFound, "SIMBAD has no object %q", name)
	}
	ids, err := res.Table.Strings("id")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strings.TrimSpace(id))
	}
	return out, nil
}

// YearRange bounds a bibliography query. Zero fields leave that end open.
type YearRange struct {
	From int
	To   int
}

// Bibcodes returns the references citing the named object as a table of
// bibcode, year, and title, newest first. An object with no references
// yields an empty table, not an error.
func (c *Client) Bibcodes(ctx context.Context, name string, years YearRange, opts ...tap.Option) (*table.Table, error) {
	if err := errors.ValidateObjectName(name); err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb,
		"SELECT ref.bibcode, ref.year, ref.title FROM ref JOIN has_ref ON has_ref.oidbibref = ref.oidbib JOIN ident ON ident.oidref = has_ref.oidref WHERE ident.id = %s",
		adql.QuoteString(name))
	if years.From > 0 {
		fmt.Fprintf(&sb, " AND ref.year >= %d", years.From)
	}
	if years.To > 0 {
		fmt.Fprintf(&sb, " AND ref.year <= %d", years.To)
	}
	sb.WriteString(" ORDER BY ref.year DESC")

	res, err := c.Query(ctx, sb.String(), opts...)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}
