package tap

import (
	"context"
	stderrors "errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/observability"
	"github.com/tmarkert/skyquery/pkg/voclient"
	"github.com/tmarkert/skyquery/pkg/votable"
)

// Defaults for asynchronous job polling.
const (
	DefaultPollInterval = time.Second
	DefaultWaitTimeout  = 10 * time.Minute
)

// Client submits ADQL queries to a TAP 1.1 service.
type Client struct {
	vo      *voclient.Client
	baseURL string
	poll    time.Duration
	timeout time.Duration
}

// New creates a TAP client for the service at baseURL. The base URL is the
// TAP root without the /sync or /async suffix. A nil cache disables caching.
func New(service, baseURL string, c cache.Cache) *Client {
	return NewWithClient(voclient.New(service, c, nil), baseURL)
}

// NewWithClient creates a TAP client on an existing transport, letting
// archive clients share one HTTP client, cache keyer, and header set across
// protocols.
func NewWithClient(vo *voclient.Client, baseURL string) *Client {
	return &Client{
		vo:      vo,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		poll:    DefaultPollInterval,
		timeout: DefaultWaitTimeout,
	}
}

// Transport returns the underlying HTTP client.
func (c *Client) Transport() *voclient.Client { return c.vo }

// BaseURL returns the TAP service root.
func (c *Client) BaseURL() string { return c.baseURL }

// SetPollInterval changes how often [Job.Wait] checks the job phase.
func (c *Client) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.poll = d
	}
}

// SetWaitTimeout changes how long [Job.Wait] waits for a terminal phase.
func (c *Client) SetWaitTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// Option adjusts a single query.
type Option func(*queryOptions)

type queryOptions struct {
	maxRows int
	refresh bool
}

// WithMaxRows caps the number of result rows via the TAP MAXREC parameter.
// Services report truncation through the Overflow flag on the result.
func WithMaxRows(n int) Option { return func(o *queryOptions) { o.maxRows = n } }

// WithRefresh bypasses the response cache for this query.
func WithRefresh() Option { return func(o *queryOptions) { o.refresh = true } }

func applyOptions(opts []Option) queryOptions {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Query runs an ADQL query against the synchronous endpoint and returns the
// parsed result. Failures the service reports about the query itself,
// whether as an HTTP 400 or as an error document in a 200 response, surface
// as a ServiceError carrying the service's message.
func (c *Client) Query(ctx context.Context, query string, opts ...Option) (*votable.Result, error) {
	o := applyOptions(opts)

	observability.Query().OnQueryStart(ctx, c.vo.Service(), query)
	start := time.Now()

	res, err := c.syncQuery(ctx, query, o)
	rows := 0
	if res != nil {
		rows = res.Table.NumRows()
	}
	observability.Query().OnQueryComplete(ctx, c.vo.Service(), rows, time.Since(start), err)
	return res, err
}

func (c *Client) syncQuery(ctx context.Context, query string, o queryOptions) (*votable.Result, error) {
	form := queryForm(query, o)
	key := c.vo.Keyer().QueryKey(c.vo.Service(), query, cache.QueryKeyOpts{
		Format:  "votable",
		MaxRows: o.maxRows,
	})

	// Responses are validated before they enter the cache so that malformed
	// documents and service errors are never replayed from disk.
	var res *votable.Result
	data, err := c.vo.Cached(ctx, key, voclient.DefaultCacheTTL, o.refresh, func() ([]byte, error) {
		body, err := c.vo.PostForm(ctx, c.baseURL+"/sync", form)
		if err != nil {
			return nil, c.decodeErrorDoc(err)
		}
		r, err := c.parseResult(body)
		if err != nil {
			return nil, err
		}
		res = r
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return c.parseResult(data)
	}
	return res, nil
}

// queryForm builds the TAP request parameters for an ADQL query.
func queryForm(query string, o queryOptions) url.Values {
	form := url.Values{}
	form.Set("REQUEST", "doQuery")
	form.Set("LANG", "ADQL")
	form.Set("FORMAT", "votable")
	form.Set("QUERY", query)
	if o.maxRows > 0 {
		form.Set("MAXREC", strconv.Itoa(o.maxRows))
	}
	return form
}

// QueryAsync submits an ADQL query to the asynchronous endpoint and starts
// it immediately. The returned [Job] tracks the query through the UWS
// lifecycle; call [Job.Wait] to block until the result is available.
func (c *Client) QueryAsync(ctx context.Context, query string, opts ...Option) (*Job, error) {
	o := applyOptions(opts)

	form := queryForm(query, o)
	form.Set("PHASE", "RUN")

	data, err := c.vo.PostForm(ctx, c.baseURL+"/async", form)
	if err != nil {
		return nil, c.decodeErrorDoc(err)
	}
	info, err := parseJobInfo(data)
	if err != nil {
		return nil, err
	}
	job := c.ResumeJob(info.ID)
	job.phase = info.Phase
	return job, nil
}

// ResumeJob reattaches to a previously submitted job by its identifier, e.g.
// one recorded from [Job.ID] in an earlier session.
func (c *Client) ResumeJob(id string) *Job {
	return &Job{
		ID:     id,
		URL:    c.baseURL + "/async/" + id,
		client: c,
	}
}

// parseResult parses a VOTable response, tagging service-reported errors
// with the service name.
func (c *Client) parseResult(data []byte) (*votable.Result, error) {
	res, err := votable.ParseBytes(data)
	if err != nil {
		var svc *errors.ServiceError
		if stderrors.As(err, &svc) && svc.Service == "" {
			svc.Service = c.vo.Service()
		}
		return nil, err
	}
	return res, nil
}

// decodeErrorDoc extracts a VOTable error document from a failed response.
// TAP services report invalid queries with HTTP 400 and the same
// QUERY_STATUS=ERROR document they would embed in a 200 response.
func (c *Client) decodeErrorDoc(err error) error {
	var se *voclient.StatusError
	if !stderrors.As(err, &se) || len(se.Body) == 0 {
		return err
	}
	if _, perr := votable.ParseBytes(se.Body); perr != nil {
		var svc *errors.ServiceError
		if stderrors.As(perr, &svc) {
			svc.Service = c.vo.Service()
			return svc
		}
	}
	return err
}
