package mast_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tmarkert/skyquery/internal/votest"
	"github.com/tmarkert/skyquery/pkg/archives/mast"
	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/coords"
	"github.com/tmarkert/skyquery/pkg/errors"
)

func newClient(s *votest.Server, ca cache.Cache, opts ...mast.Option) *mast.Client {
	c := mast.New(s.URL()+"/mast", ca, opts...)
	c.SetPollInterval(time.Millisecond)
	return c
}

func mustCoord(t *testing.T, ra, dec float64) coords.EquatorialCoord {
	t.Helper()
	coord, err := coords.New(ra, dec)
	if err != nil {
		t.Fatalf("coords.New(%v, %v) error = %v", ra, dec, err)
	}
	return coord
}

func TestConeSearch(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	c := newClient(s, cache.NewNullCache())

	tbl, err := c.ConeSearch(context.Background(), mustCoord(t, 10.7, 41.3), coords.Degrees(1))
	if err != nil {
		t.Fatalf("ConeSearch() error = %v", err)
	}
	defer tbl.Release()

	if tbl.NumRows() != 1 {
		t.Fatalf("NumRows() = %d, want 1 (only M 31 is inside the cone)", tbl.NumRows())
	}
	obsids, err := tbl.Strings("obsid")
	if err != nil {
		t.Fatalf("Strings(obsid) error = %v", err)
	}
	if obsids[0] != "obs-1" {
		t.Errorf("obsid = %q, want obs-1", obsids[0])
	}
	ras, err := tbl.Floats("s_ra")
	if err != nil {
		t.Fatalf("Floats(s_ra) error = %v", err)
	}
	if math.Abs(ras[0]-10.684708) > 1e-9 {
		t.Errorf("s_ra = %v, want 10.684708", ras[0])
	}
}

func TestConeSearchRepollsWhileExecuting(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	s.MastBusyPolls = 2
	c := newClient(s, cache.NewNullCache())

	tbl, err := c.ConeSearch(context.Background(), mustCoord(t, 10.7, 41.3), coords.Degrees(1))
	if err != nil {
		t.Fatalf("ConeSearch() error = %v", err)
	}
	tbl.Release()

	if got := s.Requests(); got != 3 {
		t.Errorf("requests = %d, want 3 (two EXECUTING polls, then COMPLETE)", got)
	}
}

func TestConeSearchValidation(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	c := newClient(s, cache.NewNullCache())

	center := mustCoord(t, 10.7, 41.3)
	if _, err := c.ConeSearch(context.Background(), center, coords.Degrees(0)); !errors.Is(err, errors.ErrCodeInvalidRadius) {
		t.Errorf("zero radius error = %v, want INVALID_RADIUS", err)
	}
	bad := coords.EquatorialCoord{RA: coords.Degrees(400), Dec: coords.Degrees(0)}
	if _, err := c.ConeSearch(context.Background(), bad, coords.Degrees(1)); !errors.Is(err, errors.ErrCodeInvalidCoord) {
		t.Errorf("bad center error = %v, want INVALID_COORD", err)
	}
	if got := s.Requests(); got != 0 {
		t.Errorf("requests = %d, want 0 (validation runs before any request)", got)
	}
}

func TestObservationsByCriteria(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	c := newClient(s, cache.NewNullCache())

	filters := []mast.Filter{{Name: "obs_collection", Values: []string{"HST"}}}
	tbl, err := c.ObservationsByCriteria(context.Background(), filters)
	if err != nil {
		t.Fatalf("ObservationsByCriteria() error = %v", err)
	}
	defer tbl.Release()

	if tbl.NumRows() != len(votest.DefaultCatalog) {
		t.Errorf("NumRows() = %d, want %d", tbl.NumRows(), len(votest.DefaultCatalog))
	}
}

func TestObservationsByCriteriaValidation(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	c := newClient(s, cache.NewNullCache())

	tests := []struct {
		name    string
		filters []mast.Filter
	}{
		{"no filters", nil},
		{"unnamed filter", []mast.Filter{{Values: []string{"HST"}}}},
		{"empty values", []mast.Filter{{Name: "obs_collection"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ObservationsByCriteria(context.Background(), tt.filters)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestObservationsByCriteriaCaching(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	c := newClient(s, cache.NewMemoryCache())

	filters := []mast.Filter{{Name: "dataproduct_type", Values: []string{"image"}}}
	for range 2 {
		tbl, err := c.ObservationsByCriteria(context.Background(), filters)
		if err != nil {
			t.Fatalf("ObservationsByCriteria() error = %v", err)
		}
		tbl.Release()
	}
	if got := s.Requests(); got != 1 {
		t.Errorf("requests after cached queries = %d, want 1", got)
	}

	tbl, err := c.ObservationsByCriteria(context.Background(), filters, mast.WithRefresh())
	if err != nil {
		t.Fatalf("ObservationsByCriteria(refresh) error = %v", err)
	}
	tbl.Release()
	if got := s.Requests(); got != 2 {
		t.Errorf("requests after refresh = %d, want 2", got)
	}
}

// envelopeDoc answers a criteria query with typed columns, including an
// integer column that is absent from the second row.
const envelopeDoc = `{
	"status": "COMPLETE",
	"fields": [
		{"name": "obs_collection", "type": "string"},
		{"name": "nobs", "type": "int"},
		{"name": "public", "type": "boolean"}
	],
	"data": [
		{"obs_collection": "HST", "nobs": 42, "public": true},
		{"obs_collection": "JWST", "public": false}
	],
	"paging": {"page": 2, "pageSize": 50, "rowsTotal": 700}
}`

func TestCriteriaRequestEnvelope(t *testing.T) {
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/invoke" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		var req struct {
			Service string `json:"service"`
			Params  struct {
				Columns string `json:"columns"`
				Filters []struct {
					ParamName string   `json:"paramName"`
					Values    []string `json:"values"`
				} `json:"filters"`
			} `json:"params"`
			Format   string `json:"format"`
			Page     int    `json:"page"`
			PageSize int    `json:"pagesize"`
		}
		if err := json.Unmarshal([]byte(r.PostForm.Get("request")), &req); err != nil {
			t.Errorf("request envelope does not decode: %v", err)
		}
		if req.Service != "Mast.Caom.Filtered" {
			t.Errorf("service = %q, want Mast.Caom.Filtered", req.Service)
		}
		if req.Params.Columns != "obs_collection,nobs,public" {
			t.Errorf("columns = %q", req.Params.Columns)
		}
		if len(req.Params.Filters) != 1 || req.Params.Filters[0].ParamName != "obs_collection" {
			t.Errorf("filters = %+v", req.Params.Filters)
		}
		if req.Page != 2 || req.PageSize != 50 {
			t.Errorf("page = %d pagesize = %d, want 2 and 50", req.Page, req.PageSize)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, envelopeDoc)
	}))
	defer hs.Close()

	c := mast.New(hs.URL, cache.NewNullCache())
	filters := []mast.Filter{{Name: "obs_collection", Values: []string{"HST", "JWST"}}}
	tbl, err := c.ObservationsByCriteria(context.Background(), filters,
		mast.WithColumns("obs_collection", "nobs", "public"),
		mast.WithPage(2, 50))
	if err != nil {
		t.Fatalf("ObservationsByCriteria() error = %v", err)
	}
	defer tbl.Release()

	if tbl.NumRows() != 2 {
		t.Fatalf("NumRows() = %d, want 2", tbl.NumRows())
	}
	counts, err := tbl.Ints("nobs")
	if err != nil {
		t.Fatalf("Ints(nobs) error = %v", err)
	}
	if counts[0] != 42 {
		t.Errorf("nobs[0] = %d, want 42", counts[0])
	}
	if !tbl.IsNull(1, tbl.ColumnIndex("nobs")) {
		t.Error("nobs[1] should be masked: the row has no such key")
	}
	if got := tbl.Value(0, tbl.ColumnIndex("public")); got != true {
		t.Errorf("public[0] = %v, want true", got)
	}
}

func TestServiceErrorStatus(t *testing.T) {
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "ERROR", "msg": "Request rejected: bad filter", "data": []}`)
	}))
	defer hs.Close()

	c := mast.New(hs.URL, cache.NewNullCache())
	filters := []mast.Filter{{Name: "obs_collection", Values: []string{"HST"}}}
	_, err := c.ObservationsByCriteria(context.Background(), filters)

	var se *errors.ServiceError
	if !stderrors.As(err, &se) {
		t.Fatalf("error = %v, want ServiceError", err)
	}
	if se.Service != "mast" {
		t.Errorf("Service = %q, want mast", se.Service)
	}
	if !strings.Contains(se.Message, "bad filter") {
		t.Errorf("Message = %q, want the service's text", se.Message)
	}
}

func TestQueryTimeout(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	s.MastBusyPolls = 10000
	c := newClient(s, cache.NewNullCache())
	c.SetPollInterval(2 * time.Millisecond)
	c.SetWaitTimeout(30 * time.Millisecond)

	_, err := c.ConeSearch(context.Background(), mustCoord(t, 10.7, 41.3), coords.Degrees(1))
	if !errors.Is(err, errors.ErrCodeJobTimeout) {
		t.Fatalf("error = %v, want JOB_TIMEOUT", err)
	}
}

func TestResolveName(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	c := newClient(s, cache.NewNullCache())

	target, err := c.ResolveName(context.Background(), "m31", false)
	if err != nil {
		t.Fatalf("ResolveName() error = %v", err)
	}
	if target.Name != "M 31" {
		t.Errorf("Name = %q, want M 31", target.Name)
	}
	if target.ObjectType != "G" {
		t.Errorf("ObjectType = %q, want G", target.ObjectType)
	}
	if math.Abs(target.Coord.RA.Degrees()-10.684708) > 1e-9 {
		t.Errorf("RA = %v, want 10.684708", target.Coord.RA.Degrees())
	}
}

func TestResolveNameNotFound(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	c := newClient(s, cache.NewNullCache())

	_, err := c.ResolveName(context.Background(), "Planet Nine", false)
	if !stderrors.Is(err, mast.ErrObjectNotFound) {
		t.Fatalf("error = %v, want wrapping ErrObjectNotFound", err)
	}
	if !errors.Is(err, errors.ErrCodeObjectNotFound) {
		t.Errorf("error code = %v, want OBJECT_NOT_FOUND", err)
	}
}

func TestResolveNameCaching(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	c := newClient(s, cache.NewMemoryCache())

	for range 2 {
		if _, err := c.ResolveName(context.Background(), "Vega", false); err != nil {
			t.Fatalf("ResolveName() error = %v", err)
		}
	}
	if got := s.Requests(); got != 1 {
		t.Errorf("requests after cached lookups = %d, want 1", got)
	}
	if _, err := c.ResolveName(context.Background(), "Vega", true); err != nil {
		t.Fatalf("ResolveName(refresh) error = %v", err)
	}
	if got := s.Requests(); got != 2 {
		t.Errorf("requests after refresh = %d, want 2", got)
	}
}

func TestProducts(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	c := newClient(s, cache.NewNullCache())

	tbl, err := c.Products(context.Background(), "obs-1")
	if err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	defer tbl.Release()

	if tbl.NumRows() != 2 {
		t.Fatalf("NumRows() = %d, want 2", tbl.NumRows())
	}
	files, err := tbl.Strings("productFilename")
	if err != nil {
		t.Fatalf("Strings(productFilename) error = %v", err)
	}
	if files[0] != "obs-1_drz.fits" {
		t.Errorf("productFilename = %q, want obs-1_drz.fits", files[0])
	}

	if _, err := c.Products(context.Background(), "  "); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("blank obsid error = %v, want INVALID_INPUT", err)
	}
}

func TestDownloadProduct(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	c := newClient(s, cache.NewNullCache())

	tbl, err := c.Products(context.Background(), "obs-1")
	if err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	defer tbl.Release()
	uris, err := tbl.Strings("dataURI")
	if err != nil {
		t.Fatalf("Strings(dataURI) error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "products", "obs-1_drz.fits")
	n, err := c.DownloadProduct(context.Background(), uris[0], dest)
	if err != nil {
		t.Fatalf("DownloadProduct() error = %v", err)
	}
	if n == 0 {
		t.Error("DownloadProduct() wrote 0 bytes")
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading destination: %v", err)
	}
	if !strings.HasPrefix(string(data), "SIMPLE") {
		t.Errorf("downloaded file starts with %q, want a FITS header", data[:min(len(data), 16)])
	}
}

func TestDownloadProductArchiveURI(t *testing.T) {
	const uri = "mast:HST/product/obs-1_drz.fits"
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0.1/Download/file" {
			t.Errorf("path = %q, want /api/v0.1/Download/file", r.URL.Path)
		}
		if got := r.URL.Query().Get("uri"); got != uri {
			t.Errorf("uri = %q, want %q", got, uri)
		}
		fmt.Fprint(w, "SIMPLE  =                    T")
	}))
	defer hs.Close()

	c := mast.New(hs.URL, cache.NewNullCache())
	dest := filepath.Join(t.TempDir(), "obs-1_drz.fits")
	if _, err := c.DownloadProduct(context.Background(), uri, dest); err != nil {
		t.Fatalf("DownloadProduct() error = %v", err)
	}

	if _, err := c.DownloadProduct(context.Background(), "noscheme", dest); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("schemeless URI error = %v, want INVALID_INPUT", err)
	}
}

func TestProductTableRejectsNonTableFITS(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	c := newClient(s, cache.NewNullCache())

	// The mock serves a bare primary header with no table extension.
	_, err := c.ProductTable(context.Background(), s.URL()+"/mast/download/obs-1_flt.fits")
	var pe *errors.ParseError
	if !stderrors.As(err, &pe) {
		t.Fatalf("error = %v, want ParseError", err)
	}
	if pe.Format != "fits" {
		t.Errorf("Format = %q, want fits", pe.Format)
	}
}
