package ads

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/table"
	"github.com/tmarkert/skyquery/pkg/voclient"
)

// DefaultURL is the ADS API root.
const DefaultURL = "https://api.adsabs.harvard.edu"

// MaxRows is the largest page size the service accepts.
const MaxRows = 2000

// defaultFields are the document fields requested when the caller names
// none, matching the columns of the result table.
var defaultFields = []string{"bibcode", "title", "author", "year", "citation_count"}

// Client queries the ADS search API.
// All methods are safe for concurrent use.
type Client struct {
	vo      *voclient.Client
	baseURL string
}

// New creates an ADS client. The token is sent as a Bearer header on every
// request; an empty token leaves requests unauthenticated, which the
// service rejects with 401.
func New(baseURL, token string, ca cache.Cache) *Client {
	var headers map[string]string
	if token != "" {
		headers = map[string]string{"Authorization": "Bearer " + token}
	}
	return &Client{
		vo:      voclient.New("ads", ca, headers),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Transport returns the underlying HTTP client.
func (c *Client) Transport() *voclient.Client { return c.vo }

// SearchOptions adjust a single search.
type SearchOptions struct {
	Fields  []string // document fields to request; defaults to the table columns
	Rows    int      // page size, at most MaxRows; zero uses the service default
	Start   int      // offset into the full result set
	Sort    string   // e.g. "citation_count desc" or "date asc"
	Refresh bool     // bypass the response cache
}

// Validate checks the options are within service limits.
func (o SearchOptions) Validate() error {
	if err := validation.ValidateStruct(&o,
		validation.Field(&o.Rows, validation.Min(0), validation.Max(MaxRows)),
		validation.Field(&o.Start, validation.Min(0)),
	); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid search options")
	}
	return nil
}

// Search runs an ADS query and returns the matching documents as a table
// with bibcode, title, author, year, and citation_count columns. Fields a
// document lacks, or that a narrowed Fields selection excluded, are empty.
//
// The query uses ADS search syntax, e.g. `object:"M 31" year:2010-2020`.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (*table.Table, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New(errors.ErrCodeInvalidQuery, "query cannot be empty")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields = defaultFields
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("fl", strings.Join(fields, ","))
	if opts.Rows > 0 {
		params.Set("rows", strconv.Itoa(opts.Rows))
	}
	if opts.Start > 0 {
		params.Set("start", strconv.Itoa(opts.Start))
	}
	if opts.Sort != "" {
		params.Set("sort", opts.Sort)
	}
	searchURL := c.baseURL + "/v1/search/query?" + params.Encode()

	key := c.vo.Keyer().HTTPKey(c.vo.Service(), searchURL)
	var tbl *table.Table
	data, err := c.vo.Cached(ctx, key, voclient.DefaultCacheTTL, opts.Refresh, func() ([]byte, error) {
		raw, err := c.vo.GetBytes(ctx, searchURL, nil)
		if err != nil {
			return nil, err
		}
		t, err := parseResponse(raw)
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
		return parseResponse(data)
	}
	return tbl, nil
}

type searchResponse struct {
	Response struct {
		NumFound int        `json:"numFound"`
		Start    int        `json:"start"`
		Docs     []document `json:"docs"`
	} `json:"response"`
}

// document is one ADS record. Multi-valued fields arrive as arrays and
// citation_count is a pointer so an absent count stays distinguishable
// from zero citations.
type document struct {
	Bibcode       string   `json:"bibcode"`
	Title         []string `json:"title"`
	Author        []string `json:"author"`
	Year          string   `json:"year"`
	CitationCount *int64   `json:"citation_count"`
}

func parseResponse(data []byte) (*table.Table, error) {
	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.NewParseError("json", data, err)
	}
	return docsToTable(resp.Response.Docs), nil
}

func docsToTable(docs []document) *table.Table {
	b := table.NewBuilder(table.NewSchema([]table.ColumnSpec{
		{Name: "bibcode", Type: arrow.BinaryTypes.String, Description: "ADS bibliographic code"},
		{Name: "title", Type: arrow.BinaryTypes.String},
		{Name: "author", Type: arrow.BinaryTypes.String},
		{Name: "year", Type: arrow.PrimitiveTypes.Int64, Unit: "yr"},
		{Name: "citation_count", Type: arrow.PrimitiveTypes.Int64},
	}))
	defer b.Release()

	bibcode := b.Field(0).(*array.StringBuilder)
	title := b.Field(1).(*array.StringBuilder)
	author := b.Field(2).(*array.StringBuilder)
	year := b.Field(3).(*array.Int64Builder)
	cites := b.Field(4).(*array.Int64Builder)
	for _, d := range docs {
		bibcode.Append(d.Bibcode)
		title.Append(strings.Join(d.Title, " "))
		author.Append(strings.Join(d.Author, "; "))
		if y, err := strconv.ParseInt(d.Year, 10, 64); err == nil {
			year.Append(y)
		} else {
			year.AppendNull()
		}
		if d.CitationCount != nil {
			cites.Append(*d.CitationCount)
		} else {
			cites.AppendNull()
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	return table.FromRecord(rec, "ads")
}
