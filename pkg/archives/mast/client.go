package mast

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cenkalti/backoff/v4"

	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/coords"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/table"
	"github.com/tmarkert/skyquery/pkg/voclient"
)

// DefaultURL is the MAST portal root.
const DefaultURL = "https://mast.stsci.edu"

// Defaults for re-polling queries the service reports as still executing.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultWaitTimeout  = 10 * time.Minute
)

// ErrObjectNotFound reports that MAST's name lookup returned no match.
var ErrObjectNotFound = stderrors.New("object not known to MAST")

// Service statuses in invoke responses.
const (
	statusComplete  = "COMPLETE"
	statusExecuting = "EXECUTING"
	statusError     = "ERROR"
)

// errStillExecuting signals the poll loop to re-post the request.
var errStillExecuting = stderrors.New("query still executing")

// Client queries the MAST invoke API.
// All methods are safe for concurrent use.
type Client struct {
	vo      *voclient.Client
	baseURL string
	poll    time.Duration
	timeout time.Duration
}

// Option configures a Client.
type Option func(*settings)

type settings struct {
	token string
}

// WithToken authenticates requests with a MAST API token. Only
// exclusive-access data requires one.
func WithToken(token string) Option { return func(s *settings) { s.token = token } }

// New creates a MAST client. A nil cache disables caching.
func New(baseURL string, ca cache.Cache, opts ...Option) *Client {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	var headers map[string]string
	if s.token != "" {
		headers = map[string]string{"Authorization": "token " + s.token}
	}
	return &Client{
		vo:      voclient.New("mast", ca, headers),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		poll:    DefaultPollInterval,
		timeout: DefaultWaitTimeout,
	}
}

// Transport returns the underlying HTTP client.
func (c *Client) Transport() *voclient.Client { return c.vo }

// SetPollInterval changes how often an EXECUTING query is re-posted.
func (c *Client) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.poll = d
	}
}

// SetWaitTimeout changes how long the client re-posts an EXECUTING query
// before giving up.
func (c *Client) SetWaitTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// QueryOption adjusts a single query.
type QueryOption func(*queryOptions)

type queryOptions struct {
	columns  []string
	page     int
	pageSize int
	refresh  bool
}

// WithColumns selects which observation columns the service returns. The
// default is every column.
func WithColumns(cols ...string) QueryOption {
	return func(o *queryOptions) { o.columns = cols }
}

// WithPage requests one page of a large result set via the envelope's
// page and pagesize fields.
func WithPage(page, size int) QueryOption {
	return func(o *queryOptions) { o.page, o.pageSize = page, size }
}

// WithRefresh bypasses the response cache for this query.
func WithRefresh() QueryOption { return func(o *queryOptions) { o.refresh = true } }

func applyQueryOptions(opts []QueryOption) queryOptions {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Filter restricts an observation search to rows whose column matches one
// of the given values.
type Filter struct {
	Name   string
	Values []string
}

// ConeSearch returns the CAOM observations within radius of center.
func (c *Client) ConeSearch(ctx context.Context, center coords.EquatorialCoord, radius coords.Angle) (*table.Table, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radius.Degrees() <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidRadius, "search radius must be positive, got %s", coords.FormatDegrees(radius.Degrees()))
	}

	params := map[string]any{
		"ra":     center.RA.Degrees(),
		"dec":    center.Dec.Degrees(),
		"radius": radius.Degrees(),
	}
	return c.query(ctx, "Mast.Caom.Cone", params, queryOptions{}, "observations")
}

// ObservationsByCriteria returns the CAOM observations matching every
// filter. At least one filter is required; the service rejects unbounded
// scans.
func (c *Client) ObservationsByCriteria(ctx context.Context, filters []Filter, opts ...QueryOption) (*table.Table, error) {
	if len(filters) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "at least one filter is required")
	}
	wire := make([]filterParam, len(filters))
	for i, f := range filters {
		if strings.TrimSpace(f.Name) == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "filter %d has no column name", i)
		}
		if len(f.Values) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "filter %q has no values", f.Name)
		}
		wire[i] = filterParam{ParamName: f.Name, Values: f.Values}
	}

	o := applyQueryOptions(opts)
	columns := "*"
	if len(o.columns) > 0 {
		columns = strings.Join(o.columns, ",")
	}
	params := map[string]any{
		"columns": columns,
		"filters": wire,
	}
	return c.query(ctx, "Mast.Caom.Filtered", params, o, "observations")
}

// Target is a resolved object position.
type Target struct {
	Name       string // canonical name
	Coord      coords.EquatorialCoord
	ObjectType string
}

// ResolveName resolves an object name through MAST's lookup service.
//
// If refresh is true the cache is bypassed. Failed lookups are never
// cached.
//
// Returns an error wrapping [ErrObjectNotFound] when the lookup has no
// match.
func (c *Client) ResolveName(ctx context.Context, name string, refresh bool) (*Target, error) {
	if err := errors.ValidateObjectName(name); err != nil {
		return nil, err
	}

	payload, err := marshalRequest(invokeRequest{
		Service: "Mast.Name.Lookup",
		Params:  map[string]any{"input": name, "format": "json"},
		Format:  "json",
	})
	if err != nil {
		return nil, err
	}

	key := c.vo.Keyer().ResolveKey(c.vo.Service(), name)
	var target *Target
	data, err := c.vo.Cached(ctx, key, voclient.DefaultCacheTTL, refresh, func() ([]byte, error) {
		raw, err := c.invoke(ctx, payload)
		if err != nil {
			return nil, err
		}
		t, err := parseTarget(raw, name)
		if err != nil {
			return nil, err
		}
		target = t
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	if target == nil {
		return parseTarget(data, name)
	}
	return target, nil
}

// query posts one request envelope and converts the response rows into a
// table, serving repeats from cache.
func (c *Client) query(ctx context.Context, service string, params map[string]any, o queryOptions, name string) (*table.Table, error) {
	payload, err := marshalRequest(invokeRequest{
		Service:  service,
		Params:   params,
		Format:   "json",
		Page:     o.page,
		PageSize: o.pageSize,
	})
	if err != nil {
		return nil, err
	}

	key := c.vo.Keyer().QueryKey(c.vo.Service(), string(payload), cache.QueryKeyOpts{Format: "json"})
	var tbl *table.Table
	data, err := c.vo.Cached(ctx, key, voclient.DefaultCacheTTL, o.refresh, func() ([]byte, error) {
		raw, err := c.invoke(ctx, payload)
		if err != nil {
			return nil, err
		}
		t, err := decodeTable(raw, name)
		if err != nil {
			return nil, err
		}
		tbl = t
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	if tbl == nil {
		return decodeTable(data, name)
	}
	return tbl, nil
}

// invoke posts the request envelope, re-posting at the poll interval while
// the service answers EXECUTING. Only the COMPLETE document is returned.
func (c *Client) invoke(ctx context.Context, payload []byte) ([]byte, error) {
	form := url.Values{}
	form.Set("request", string(payload))

	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var raw []byte
	attempt := func() error {
		data, err := c.vo.PostForm(waitCtx, c.baseURL+"/api/v0/invoke", form)
		if err != nil {
			return backoff.Permanent(err)
		}
		var probe struct {
			Status string `json:"status"`
			Msg    string `json:"msg"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			return backoff.Permanent(errors.NewParseError("json", data, err))
		}
		switch probe.Status {
		case statusComplete:
			raw = data
			return nil
		case statusExecuting:
			return errStillExecuting
		case statusError:
			return backoff.Permanent(&errors.ServiceError{Service: c.vo.Service(), Message: probe.Msg})
		default:
			return backoff.Permanent(&errors.ServiceError{
				Service: c.vo.Service(),
				Message: fmt.Sprintf("unexpected status %q", probe.Status),
			})
		}
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(c.poll), waitCtx)
	if err := backoff.Retry(attempt, b); err != nil {
		if stderrors.Is(err, errStillExecuting) || stderrors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.New(errors.ErrCodeJobTimeout, "query still executing after %s", c.timeout)
		}
		return nil, err
	}
	return raw, nil
}

// invokeRequest is the envelope posted as the "request" form field.
type invokeRequest struct {
	Service  string         `json:"service"`
	Params   map[string]any `json:"params"`
	Format   string         `json:"format"`
	Page     int            `json:"page,omitempty"`
	PageSize int            `json:"pagesize,omitempty"`
}

type filterParam struct {
	ParamName string   `json:"paramName"`
	Values    []string `json:"values"`
}

type invokeResponse struct {
	Status string           `json:"status"`
	Msg    string           `json:"msg"`
	Fields []invokeField    `json:"fields"`
	Data   []map[string]any `json:"data"`
	Paging *invokePaging    `json:"paging"`
}

type invokeField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type invokePaging struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	RowsTotal int `json:"rowsTotal"`
}

func marshalRequest(req invokeRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encoding %s request", req.Service)
	}
	return payload, nil
}

func decodeTable(data []byte, name string) (*table.Table, error) {
	var resp invokeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.NewParseError("json", data, err)
	}

	specs := make([]table.ColumnSpec, len(resp.Fields))
	for i, f := range resp.Fields {
		specs[i] = table.ColumnSpec{Name: f.Name, Type: columnType(f.Type)}
	}
	b := table.NewBuilder(table.NewSchema(specs))
	defer b.Release()

	for _, row := range resp.Data {
		for i, f := range resp.Fields {
			if err := appendJSONValue(b.Field(i), row[f.Name]); err != nil {
				return nil, errors.NewParseError("json", nil, fmt.Errorf("column %s: %w", f.Name, err))
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	return table.FromRecord(rec, name), nil
}

func parseTarget(data []byte, name string) (*Target, error) {
	var resp struct {
		Data []struct {
			CanonicalName string  `json:"canonicalName"`
			RA            float64 `json:"ra"`
			Dec           float64 `json:"decl"`
			ObjectType    string  `json:"objectType"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.NewParseError("json", data, err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.Wrap(errors.ErrCodeObjectNotFound, ErrObjectNotFound, "MAST cannot resolve %q", name)
	}

	d := resp.Data[0]
	coord, err := coords.New(d.RA, d.Dec)
	if err != nil {
		return nil, errors.NewParseError("json", data, err)
	}
	t := &Target{Name: d.CanonicalName, Coord: coord, ObjectType: d.ObjectType}
	if t.Name == "" {
		t.Name = name
	}
	return t, nil
}

// columnType maps MAST field type names to Arrow types. Unknown types stay
// strings rather than failing the whole response.
func columnType(t string) arrow.DataType {
	switch t {
	case "float", "double":
		return arrow.PrimitiveTypes.Float64
	case "int", "long":
		return arrow.PrimitiveTypes.Int64
	case "boolean":
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

// appendJSONValue appends a decoded JSON value to a column builder. JSON
// numbers arrive as float64 regardless of the declared column type, and
// some services quote their integers.
func appendJSONValue(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}

	switch bldr := b.(type) {
	case *array.StringBuilder:
		if s, ok := v.(string); ok {
			bldr.Append(s)
			return nil
		}
		bldr.Append(fmt.Sprint(v))
	case *array.Float64Builder:
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("cannot use %T as float", v)
		}
		bldr.Append(f)
	case *array.Int64Builder:
		switch n := v.(type) {
		case float64:
			bldr.Append(int64(n))
		case string:
			parsed, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				return fmt.Errorf("cannot use %q as int: %v", n, err)
			}
			bldr.Append(parsed)
		default:
			return fmt.Errorf("cannot use %T as int", v)
		}
	case *array.BooleanBuilder:
		x, ok := v.(bool)
		if !ok {
			return fmt.Errorf("cannot use %T as boolean", v)
		}
		bldr.Append(x)
	default:
		return fmt.Errorf("unsupported column builder %T", b)
	}
	return nil
}
