// Package votest provides an in-process Virtual Observatory test double.
//
// The server implements enough of TAP 1.1 (sync and async with the UWS job
// lifecycle), Simple Cone Search, Sesame name resolution, and the MAST and
// ADS JSON APIs to exercise the archive clients end to end against a small
// built-in catalog. Responses are generated with the same table and votable
// packages the clients parse with, so wire formats stay honest in both
// directions.
package votest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/go-chi/chi/v5"

	"github.com/tmarkert/skyquery/pkg/coords"
	"github.com/tmarkert/skyquery/pkg/table"
)

// Object is one row of the server's catalog.
type Object struct {
	Name  string
	RA    float64 // deg
	Dec   float64 // deg
	Otype string
	VMag  float64
}

// DefaultCatalog holds a handful of well-known objects with their real
// positions, enough for cone searches to have hits and misses.
var DefaultCatalog = []Object{
	{"M 31", 10.684708, 41.268750, "G", 3.44},
	{"M 33", 23.462100, 30.660175, "G", 5.72},
	{"M 81", 148.888221, 69.065295, "G", 6.94},
	{"Vega", 279.234735, 38.783689, "*", 0.03},
	{"Sirius", 101.287155, -16.716116, "*", -1.46},
	{"Betelgeuse", 88.792939, 7.407064, "*", 0.42},
}

// Server is a fake Virtual Observatory listening on a local port.
//
// The zero behavior serves DefaultCatalog through every protocol. Tests can
// reroute individual ADQL queries with RespondWith, RespondError, and
// RespondRaw, and script the asynchronous job lifecycle through JobScript.
type Server struct {
	hts      *httptest.Server
	requests atomic.Int64

	mu      sync.Mutex
	catalog []Object
	rules   []responseRule
	jobs    map[string]*jobState
	queries []string

	// JobScript is the phase sequence new UWS jobs step through, one entry
	// per phase poll. The last entry repeats.
	JobScript []string
	// JobError is served from the error resource of jobs that end in ERROR.
	JobError string

	// MastBusyPolls makes the MAST invoke endpoint report EXECUTING this
	// many times before delivering data.
	MastBusyPolls int
	// ADSToken is the bearer token the ADS endpoint accepts.
	ADSToken string
	// ADSRateLimited makes the ADS endpoint answer 429 with the hour-long
	// Retry-After a spent daily quota reports.
	ADSRateLimited bool
	// Papers is the ADS document set.
	Papers []Paper
}

type responseRule struct {
	match       string
	contentType string
	body        []byte
	objects     []Object
	errMsg      string
}

// NewServer starts a fake VO service on a local listener. Callers own the
// server and must Close it.
func NewServer() *Server {
	s := &Server{
		catalog:   append([]Object{}, DefaultCatalog...),
		jobs:      make(map[string]*jobState),
		JobScript: []string{"QUEUED", "EXECUTING", "COMPLETED"},
		JobError:  "query failed: syntax error near line 1",
		ADSToken:  "votest-token",
		Papers:    append([]Paper{}, DefaultPapers...),
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s.requests.Add(1)
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/tap", func(r chi.Router) {
		r.Post("/sync", s.handleSync)
		r.Get("/async", s.handleJobList)
		r.Post("/async", s.handleJobCreate)
		r.Route("/async/{jobID}", func(r chi.Router) {
			r.Get("/", s.handleJob)
			r.Post("/", s.handleJobAction)
			r.Get("/phase", s.handleJobPhase)
			r.Post("/phase", s.handleJobPhaseChange)
			r.Get("/results/result", s.handleJobResult)
			r.Get("/error", s.handleJobError)
		})
		r.Get("/tables", s.handleTables)
	})
	r.Get("/scs", s.handleCone)
	r.Get("/sesame/-oxp/{flags}", s.handleSesame)
	r.Get("/ned/objsearch", s.handleNED)
	r.Post("/mast/api/v0/invoke", s.handleMast)
	r.Get("/mast/download/{name}", s.handleDownload)
	r.Get("/ads/v1/search/query", s.handleADS)

	s.hts = httptest.NewServer(r)
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string { return s.hts.URL }

// TAPURL returns the TAP service root.
func (s *Server) TAPURL() string { return s.hts.URL + "/tap" }

// Close shuts the server down.
func (s *Server) Close() { s.hts.Close() }

// Requests reports how many HTTP requests the server has received, which
// lets tests verify cache hits never reach the network.
func (s *Server) Requests() int { return int(s.requests.Load()) }

// Queries returns every ADQL query received so far, sync and async.
func (s *Server) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.queries...)
}

// LastQuery returns the most recent ADQL query, or "" if none arrived yet.
func (s *Server) LastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		return ""
	}
	return s.queries[len(s.queries)-1]
}

func (s *Server) recordQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
}

// SetCatalog replaces the object catalog served by every protocol.
func (s *Server) SetCatalog(objs []Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = append([]Object{}, objs...)
}

// RespondWith serves the given objects for ADQL queries containing substr.
func (s *Server) RespondWith(substr string, objs []Object) {
	s.addRule(responseRule{match: substr, objects: append([]Object{}, objs...)})
}

// RespondError answers ADQL queries containing substr with a VOTable error
// document carrying msg.
func (s *Server) RespondError(substr, msg string) {
	s.addRule(responseRule{match: substr, errMsg: msg})
}

// RespondRaw answers ADQL queries containing substr with a verbatim body,
// for fixtures the catalog table cannot express.
func (s *Server) RespondRaw(substr, contentType string, body []byte) {
	s.addRule(responseRule{match: substr, contentType: contentType, body: body})
}

func (s *Server) addRule(r responseRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
}

func (s *Server) findRule(query string) (responseRule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rules {
		if strings.Contains(query, r.match) {
			return r, true
		}
	}
	return responseRule{}, false
}

// FindObject looks an object up by name, ignoring case and spacing, the way
// real resolvers do.
func (s *Server) FindObject(name string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := normalizeName(name)
	for _, o := range s.catalog {
		if normalizeName(o.Name) == want {
			return o, true
		}
	}
	return Object{}, false
}

// Within returns the catalog objects inside the cone.
func (s *Server) Within(center coords.EquatorialCoord, radius coords.Angle) []Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Object
	for _, o := range s.catalog {
		pos := coords.EquatorialCoord{RA: coords.Degrees(o.RA), Dec: coords.Degrees(o.Dec)}
		if coords.Separation(center, pos).Degrees() <= radius.Degrees() {
			out = append(out, o)
		}
	}
	return out
}

func (s *Server) catalogSnapshot() []Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Object{}, s.catalog...)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

// CatalogTable builds the standard result table for a set of objects.
func CatalogTable(name string, objs []Object) *table.Table {
	schema := table.NewSchema([]table.ColumnSpec{
		{Name: "main_id", Type: arrow.BinaryTypes.String, UCD: "meta.id;meta.main", Description: "Main identifier"},
		{Name: "ra", Type: arrow.PrimitiveTypes.Float64, Unit: "deg", UCD: "pos.eq.ra;meta.main", Description: "Right ascension"},
		{Name: "dec", Type: arrow.PrimitiveTypes.Float64, Unit: "deg", UCD: "pos.eq.dec;meta.main", Description: "Declination"},
		{Name: "otype", Type: arrow.BinaryTypes.String, UCD: "src.class", Description: "Object type"},
		{Name: "flux_v", Type: arrow.PrimitiveTypes.Float64, Unit: "mag", UCD: "phot.mag;em.opt.V", Description: "V magnitude"},
	})

	b := table.NewBuilder(schema)
	defer b.Release()
	for _, o := range objs {
		b.Field(0).(*array.StringBuilder).Append(o.Name)
		b.Field(1).(*array.Float64Builder).Append(o.RA)
		b.Field(2).(*array.Float64Builder).Append(o.Dec)
		b.Field(3).(*array.StringBuilder).Append(o.Otype)
		b.Field(4).(*array.Float64Builder).Append(o.VMag)
	}

	rec := b.NewRecord()
	defer rec.Release()
	return table.FromRecord(rec, name)
}
