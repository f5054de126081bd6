package ned

import (
	"context"
	stderrors "errors"
	"net/url"
	"strings"

	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/coords"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/scs"
	"github.com/tmarkert/skyquery/pkg/table"
	"github.com/tmarkert/skyquery/pkg/voclient"
	"github.com/tmarkert/skyquery/pkg/votable"
)

// DefaultURL is the root of NED's CGI interface.
const DefaultURL = "https://ned.ipac.caltech.edu/cgi-bin"

// DefaultSCSURL is NED's cone search endpoint. The fixed parameters select
// a positional search returning the main object table.
const DefaultSCSURL = "https://ned.ipac.caltech.edu/cgi-bin/NEDobjsearch?search_type=Near+Position+Search&of=xml_main&"

// ErrObjectNotFound reports that the NED name interpreter declined a name.
var ErrObjectNotFound = stderrors.New("object not known to NED")

// Client queries NED by object name or by position.
// All methods are safe for concurrent use.
type Client struct {
	vo      *voclient.Client
	baseURL string
	cone    *scs.Client
}

// New creates a NED client. Both the objsearch interface under baseURL and
// the cone search service at scsURL share one transport and cache.
func New(baseURL, scsURL string, ca cache.Cache) *Client {
	vo := voclient.New("ned", ca, nil)
	return &Client{
		vo:      vo,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		cone:    scs.NewWithClient(vo, scsURL),
	}
}

// Transport returns the underlying HTTP client, for tuning timeouts.
func (c *Client) Transport() *voclient.Client { return c.vo }

// ObjectByName returns NED's main table row for a named object, with its
// preferred position, redshift, and velocity columns.
//
// If refresh is true the cache is bypassed. Failed lookups are never
// cached, so a name NED learns later resolves without clearing anything.
//
// Returns an error wrapping [ErrObjectNotFound] when the name interpreter
// does not recognize the name.
func (c *Client) ObjectByName(ctx context.Context, name string, refresh bool) (*table.Table, error) {
	if err := errors.ValidateObjectName(name); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("objname", name)
	params.Set("of", "xml_main")
	searchURL := c.baseURL + "/objsearch?" + params.Encode()

	key := c.vo.Keyer().HTTPKey(c.vo.Service(), searchURL)
	var tbl *table.Table
	data, err := c.vo.Cached(ctx, key, voclient.DefaultCacheTTL, refresh, func() ([]byte, error) {
		body, err := c.vo.GetBytes(ctx, searchURL, nil)
		if err != nil {
			return nil, err
		}
		t, err := c.parseResponse(body, name)
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
		return c.parseResponse(data, name)
	}
	return tbl, nil
}

// QueryRegion returns every NED object within radius of center.
func (c *Client) QueryRegion(ctx context.Context, center coords.EquatorialCoord, radius coords.Angle, opts ...scs.Option) (*table.Table, error) {
	return c.cone.Search(ctx, center, radius, opts...)
}

// ConeSearch is QueryRegion with default options, in the shape shared by
// the archive clients for multi-service searches.
func (c *Client) ConeSearch(ctx context.Context, center coords.EquatorialCoord, radius coords.Angle) (*table.Table, error) {
	return c.QueryRegion(ctx, center, radius)
}

func (c *Client) parseResponse(data []byte, name string) (*table.Table, error) {
	res, err := votable.ParseBytes(data)
	if err != nil {
		var svc *errors.ServiceError
		if stderrors.As(err, &svc) {
			if svc.Service == "" {
				svc.Service = c.vo.Service()
			}
			// The name interpreter reports unknown names through the same
			// error channel as real faults.
			if strings.Contains(svc.Message, "not currently recognized") {
				return nil, errors.Wrap(errors.ErrCodeObjectNotFound, ErrObjectNotFound, "NED has no object named %q", name)
			}
		}
		return nil, err
	}
	return res.Table, nil
}
