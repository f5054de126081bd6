package irsa

import (
	"context"
	"strings"
	"testing"

	"github.com/tmarkert/skyquery/internal/votest"
	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/coords"
	"github.com/tmarkert/skyquery/pkg/errors"
)

func newTestClient(s *votest.Server) *Client {
	return New(s.TAPURL(), cache.NewNullCache())
}

func crab(t *testing.T) coords.EquatorialCoord {
	t.Helper()
	c, err := coords.New(83.6331, 22.0145)
	if err != nil {
		t.Fatalf("coords.New: %v", err)
	}
	return c
}

func TestQueryCatalog(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()

	tbl, err := newTestClient(s).QueryCatalog(context.Background(), "fp_psc", crab(t), coords.Arcmin(6),
		WithColumns("ra", "dec", "j_m"))
	if err != nil {
		t.Fatalf("QueryCatalog: %v", err)
	}
	defer tbl.Release()

	query := s.LastQuery()
	if !strings.Contains(query, "SELECT ra, dec, j_m FROM fp_psc") {
		t.Errorf("query %q should select the requested columns", query)
	}
	if !strings.Contains(query, "CONTAINS(POINT('ICRS', ra, dec)") {
		t.Errorf("query %q lacks the cone predicate", query)
	}
}

func TestQueryCatalogCSV(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()

	tbl, err := newTestClient(s).QueryCatalog(context.Background(), "fp_psc", crab(t), coords.Degrees(90), WithCSV())
	if err != nil {
		t.Fatalf("QueryCatalog: %v", err)
	}
	defer tbl.Release()

	if got, want := tbl.NumRows(), len(votest.DefaultCatalog); got != want {
		t.Errorf("NumRows = %d, want %d", got, want)
	}
	names, err := tbl.Strings("main_id")
	if err != nil {
		t.Fatalf("Strings: %v", err)
	}
	if names[0] != "M 31" {
		t.Errorf("first row = %q, want M 31", names[0])
	}
}

func TestQueryCatalogCSVMaxRows(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()

	tbl, err := newTestClient(s).QueryCatalog(context.Background(), "fp_psc", crab(t), coords.Degrees(90),
		WithCSV(), WithMaxRows(2))
	if err != nil {
		t.Fatalf("QueryCatalog: %v", err)
	}
	defer tbl.Release()

	if tbl.NumRows() != 2 {
		t.Errorf("NumRows = %d, want MAXREC-truncated 2", tbl.NumRows())
	}
}

func TestQueryCatalogCSVCaching(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()

	c := New(s.TAPURL(), cache.NewMemoryCache())
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		tbl, err := c.QueryCatalog(ctx, "fp_psc", crab(t), coords.Degrees(1), WithCSV())
		if err != nil {
			t.Fatalf("QueryCatalog %d: %v", i, err)
		}
		tbl.Release()
	}
	if got := s.Requests(); got != 1 {
		t.Errorf("requests = %d, want 1 (second query cached)", got)
	}

	tbl, err := c.QueryCatalog(ctx, "fp_psc", crab(t), coords.Degrees(1), WithCSV(), WithRefresh())
	if err != nil {
		t.Fatalf("QueryCatalog refresh: %v", err)
	}
	tbl.Release()
	if got := s.Requests(); got != 2 {
		t.Errorf("requests = %d, want 2 after refresh", got)
	}
}

func TestListCatalogs(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()

	tbl, err := newTestClient(s).ListCatalogs(context.Background())
	if err != nil {
		t.Fatalf("ListCatalogs: %v", err)
	}
	defer tbl.Release()

	if q := s.LastQuery(); !strings.Contains(q, "FROM TAP_SCHEMA.tables") {
		t.Errorf("query %q should read TAP_SCHEMA.tables", q)
	}
}

func TestQueryCatalogValidation(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	c := newTestClient(s)
	ctx := context.Background()

	if _, err := c.QueryCatalog(ctx, "", crab(t), coords.Degrees(1)); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty catalog error = %v, want INVALID_INPUT", err)
	}
	if _, err := c.QueryCatalog(ctx, "fp_psc", crab(t), coords.Degrees(0)); !errors.Is(err, errors.ErrCodeInvalidRadius) {
		t.Errorf("zero radius error = %v, want INVALID_RADIUS", err)
	}
}
