package heasarc_test

import (
	"context"
	"strings"
	"testing"

	"github.com/tmarkert/skyquery/internal/votest"
	"github.com/tmarkert/skyquery/pkg/archives/heasarc"
	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/coords"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/tap"
)

func mustCoord(t *testing.T, ra, dec float64) coords.EquatorialCoord {
	t.Helper()
	coord, err := coords.New(ra, dec)
	if err != nil {
		t.Fatalf("coords.New(%v, %v) error = %v", ra, dec, err)
	}
	return coord
}

func TestQueryMission(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	c := heasarc.New(s.TAPURL(), cache.NewNullCache())

	tbl, err := c.QueryMission(context.Background(), "numaster", mustCoord(t, 83.633, 22.0145), coords.Degrees(0.25))
	if err != nil {
		t.Fatalf("QueryMission() error = %v", err)
	}
	defer tbl.Release()

	query := s.LastQuery()
	for _, want := range []string{
		"SELECT * FROM numaster WHERE",
		"CONTAINS(POINT('ICRS', ra, dec)",
		"CIRCLE('ICRS', 83.633, 22.0145, 0.25)",
	} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing %q", query, want)
		}
	}
	if tbl.NumRows() != len(votest.DefaultCatalog) {
		t.Errorf("NumRows() = %d, want %d", tbl.NumRows(), len(votest.DefaultCatalog))
	}
}

func TestQueryMissionMaxRows(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	c := heasarc.New(s.TAPURL(), cache.NewNullCache())

	tbl, err := c.QueryMission(context.Background(), "swiftmastr", mustCoord(t, 83.633, 22.0145), coords.Degrees(0.25), tap.WithMaxRows(2))
	if err != nil {
		t.Fatalf("QueryMission() error = %v", err)
	}
	defer tbl.Release()

	if tbl.NumRows() != 2 {
		t.Errorf("NumRows() = %d, want 2", tbl.NumRows())
	}
}

func TestQueryMissionValidation(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	c := heasarc.New(s.TAPURL(), cache.NewNullCache())

	center := mustCoord(t, 83.633, 22.0145)
	if _, err := c.QueryMission(context.Background(), "bad table", center, coords.Degrees(0.25)); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad mission name error = %v, want INVALID_INPUT", err)
	}
	if _, err := c.QueryMission(context.Background(), "numaster", center, coords.Degrees(0)); !errors.Is(err, errors.ErrCodeInvalidRadius) {
		t.Errorf("zero radius error = %v, want INVALID_RADIUS", err)
	}
	bad := coords.EquatorialCoord{RA: coords.Degrees(400), Dec: coords.Degrees(0)}
	if _, err := c.QueryMission(context.Background(), "numaster", bad, coords.Degrees(0.25)); !errors.Is(err, errors.ErrCodeInvalidCoord) {
		t.Errorf("bad center error = %v, want INVALID_COORD", err)
	}
	if got := s.Requests(); got != 0 {
		t.Errorf("requests = %d, want 0 (validation runs before any request)", got)
	}
}

const missionsDoc = `<?xml version="1.0"?>
<VOTABLE version="1.3">
 <RESOURCE type="results">
  <INFO name="QUERY_STATUS" value="OK"/>
  <TABLE>
   <FIELD name="table_name" datatype="char" arraysize="*"/>
   <FIELD name="description" datatype="char" arraysize="*"/>
   <DATA><TABLEDATA>
    <TR><TD>numaster</TD><TD>NuSTAR Master Catalog</TD></TR>
    <TR><TD>swiftmastr</TD><TD>Swift Master Catalog</TD></TR>
   </TABLEDATA></DATA>
  </TABLE>
 </RESOURCE>
</VOTABLE>`

func TestListMissions(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	s.RespondRaw("TAP_SCHEMA.tables", "application/x-votable+xml", []byte(missionsDoc))
	c := heasarc.New(s.TAPURL(), cache.NewNullCache())

	tbl, err := c.ListMissions(context.Background())
	if err != nil {
		t.Fatalf("ListMissions() error = %v", err)
	}
	defer tbl.Release()

	if tbl.NumRows() != 2 {
		t.Fatalf("NumRows() = %d, want 2", tbl.NumRows())
	}
	names, err := tbl.Strings("table_name")
	if err != nil {
		t.Fatalf("Strings(table_name) error = %v", err)
	}
	if names[0] != "numaster" || names[1] != "swiftmastr" {
		t.Errorf("table_name = %v", names)
	}
}
