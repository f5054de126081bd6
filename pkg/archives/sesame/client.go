package sesame

import (
	"context"
	"encoding/xml"
	stderrors "errors"
	"net/url"
	"strings"

	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/coords"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/voclient"
)

// DefaultURL is the CDS Sesame endpoint.
const DefaultURL = "https://cds.unistra.fr/cgi-bin/nph-sesame"

// ErrNotFound reports that no resolver recognized the object name.
var ErrNotFound = stderrors.New("object name not resolved")

// Resolution is a resolved object name.
//
// Canonical is the identifier the answering database files the object
// under, which often differs from the submitted name in spacing or catalog
// prefix.
type Resolution struct {
	Name      string // name as submitted
	Canonical string // resolver's canonical identifier
	Coord     coords.EquatorialCoord
	Otype     string // object type code, e.g. "G" for galaxy
	Resolver  string // database that answered, e.g. "Simbad"
}

// Client queries the Sesame name resolver.
// All methods are safe for concurrent use.
type Client struct {
	vo        *voclient.Client
	baseURL   string
	resolvers string
}

// Option configures a Client.
type Option func(*Client)

// WithResolvers restricts which databases Sesame consults, as a string of
// the letters S (SIMBAD), N (NED), and V (VizieR), tried in order.
func WithResolvers(order string) Option { return func(c *Client) { c.resolvers = order } }

// New creates a Sesame client with the given cache backend.
func New(baseURL string, ca cache.Cache, opts ...Option) *Client {
	c := &Client{
		vo:        voclient.New("sesame", ca, nil),
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		resolvers: "SNV",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transport returns the underlying HTTP client, for tuning timeouts.
func (c *Client) Transport() *voclient.Client { return c.vo }

// Resolve looks up an object name and returns its position.
//
// If refresh is true the cache is bypassed. Lookups that fail are never
// cached.
//
// Returns an error wrapping [ErrNotFound] when no resolver matches, or with
// code INVALID_INPUT when the name or resolver selection is malformed.
func (c *Client) Resolve(ctx context.Context, name string, refresh bool) (*Resolution, error) {
	if err := errors.ValidateObjectName(name); err != nil {
		return nil, err
	}
	if err := validateResolvers(c.resolvers); err != nil {
		return nil, err
	}

	key := c.vo.Keyer().ResolveKey("sesame", c.resolvers+":"+name)
	var res *Resolution
	data, err := c.vo.Cached(ctx, key, voclient.DefaultCacheTTL, refresh, func() ([]byte, error) {
		raw, err := c.vo.GetBytes(ctx, c.queryURL(name), nil)
		if err != nil {
			return nil, err
		}
		parsed, err := parseResponse(raw, name)
		if err != nil {
			return nil, err
		}
		res = parsed
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		// Served from cache; the stored document re-parses the same way.
		return parseResponse(data, name)
	}
	return res, nil
}

func (c *Client) queryURL(name string) string {
	return c.baseURL + "/-oxp/" + c.resolvers + "?" + url.QueryEscape(name)
}

func validateResolvers(order string) error {
	if order == "" {
		return errors.New(errors.ErrCodeInvalidInput, "resolver selection is empty")
	}
	for _, r := range order {
		if !strings.ContainsRune("SNVA", r) {
			return errors.New(errors.ErrCodeInvalidInput, "unknown resolver %q (use S, N, V, or A)", string(r))
		}
	}
	return nil
}

type xmlSesame struct {
	Targets []xmlTarget `xml:"Target"`
}

type xmlTarget struct {
	Name      string        `xml:"name"`
	Resolvers []xmlResolver `xml:"Resolver"`
}

type xmlResolver struct {
	Name  string   `xml:"name,attr"`
	Otype string   `xml:"otype"`
	RA    *float64 `xml:"jradeg"`
	Dec   *float64 `xml:"jdedeg"`
	Oname string   `xml:"oname"`
}

func parseResponse(data []byte, name string) (*Resolution, error) {
	var doc xmlSesame
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewParseError("sesame", data, err)
	}

	for _, target := range doc.Targets {
		for _, r := range target.Resolvers {
			if r.RA == nil || r.Dec == nil {
				continue
			}
			coord, err := coords.New(*r.RA, *r.Dec)
			if err != nil {
				return nil, errors.NewParseError("sesame", data, err)
			}
			res := &Resolution{
				Name:      name,
				Canonical: strings.TrimSpace(r.Oname),
				Coord:     coord,
				Otype:     strings.TrimSpace(r.Otype),
				Resolver:  resolverName(r.Name),
			}
			if res.Canonical == "" {
				res.Canonical = name
			}
			return res, nil
		}
	}
	return nil, errors.Wrap(errors.ErrCodeObjectNotFound, ErrNotFound, "sesame found no match for %q", name)
}

// resolverName maps the attribute form "S=Simbad" to "Simbad".
func resolverName(attr string) string {
	if _, after, ok := strings.Cut(attr, "="); ok {
		return after
	}
	return attr
}
