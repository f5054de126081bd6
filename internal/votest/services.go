package votest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tmarkert/skyquery/pkg/coords"
	"github.com/tmarkert/skyquery/pkg/votable"
)

// handleCone implements Simple Cone Search. Per the standard, parameter
// errors are reported inside a VOTable INFO element, not via HTTP status.
func (s *Server) handleCone(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ra, errRA := strconv.ParseFloat(q.Get("RA"), 64)
	dec, errDec := strconv.ParseFloat(q.Get("DEC"), 64)
	sr, errSR := strconv.ParseFloat(q.Get("SR"), 64)
	if errRA != nil || errDec != nil || errSR != nil {
		s.writeConeError(w, "Error in input parameters: RA, DEC, SR must be decimal degrees")
		return
	}
	if sr <= 0 || sr > 180 {
		s.writeConeError(w, fmt.Sprintf("SR %v out of range", sr))
		return
	}

	center := coords.EquatorialCoord{RA: coords.Degrees(ra), Dec: coords.Degrees(dec)}
	tbl := CatalogTable("cone", s.Within(center, coords.Degrees(sr)))
	defer tbl.Release()

	w.Header().Set("Content-Type", contentTypeVOTable)
	votable.Write(w, tbl)
}

func (s *Server) writeConeError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", contentTypeVOTable)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<VOTABLE version="1.3" xmlns="http://www.ivoa.net/xml/VOTable/v1.3">
  <INFO name="Error" value="%s"/>
</VOTABLE>`, xmlEscape(msg))
}

// handleSesame implements the CDS Sesame name resolver. The object name
// arrives as the raw query string rather than a key=value pair.
func (s *Server) handleSesame(w http.ResponseWriter, r *http.Request) {
	name, err := url.QueryUnescape(r.URL.RawQuery)
	if err != nil {
		name = r.URL.RawQuery
	}

	w.Header().Set("Content-Type", "text/xml")
	obj, ok := s.FindObject(name)
	if !ok {
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<Sesame>
  <Target option="%s">
    <name>%s</name>
    <INFO>Nothing found</INFO>
  </Target>
</Sesame>`, chi.URLParam(r, "flags"), xmlEscape(name))
		return
	}

	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<Sesame>
  <Target option="%s">
    <name>%s</name>
    <Resolver name="S=Simbad">
      <otype>%s</otype>
      <jradeg>%v</jradeg>
      <jdedeg>%v</jdedeg>
      <oname>%s</oname>
    </Resolver>
  </Target>
</Sesame>`, chi.URLParam(r, "flags"), xmlEscape(name), xmlEscape(obj.Otype), obj.RA, obj.Dec, xmlEscape(obj.Name))
}

// handleNED implements the NED objsearch endpoint, which answers with a
// VOTable and reports unknown names through an INFO element.
func (s *Server) handleNED(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("objname")
	obj, ok := s.FindObject(name)
	if !ok {
		s.writeConeError(w, fmt.Sprintf("%q is not currently recognized by the NED name interpreter", name))
		return
	}

	tbl := CatalogTable("objsearch", []Object{obj})
	defer tbl.Release()
	w.Header().Set("Content-Type", contentTypeVOTable)
	votable.Write(w, tbl)
}

type mastRequest struct {
	Service  string         `json:"service"`
	Params   map[string]any `json:"params"`
	Format   string         `json:"format"`
	Page     int            `json:"page"`
	PageSize int            `json:"pagesize"`
}

type mastResponse struct {
	Status string           `json:"status"`
	Msg    string           `json:"msg"`
	Fields []mastField      `json:"fields,omitempty"`
	Data   []map[string]any `json:"data"`
	Paging *mastPaging      `json:"paging,omitempty"`
}

type mastField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type mastPaging struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	RowsTotal int `json:"rowsTotal"`
}

// handleMast implements the MAST invoke API: a form-posted JSON request
// envelope answered with a JSON status document.
func (s *Server) handleMast(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req mastRequest
	if err := json.Unmarshal([]byte(r.PostForm.Get("request")), &req); err != nil {
		http.Error(w, "malformed request JSON", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	busy := s.MastBusyPolls > 0
	if busy {
		s.MastBusyPolls--
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if busy {
		json.NewEncoder(w).Encode(mastResponse{Status: "EXECUTING", Data: []map[string]any{}})
		return
	}

	var resp mastResponse
	switch req.Service {
	case "Mast.Caom.Cone":
		resp = s.mastCone(req)
	case "Mast.Caom.Filtered":
		resp = s.mastObjects(s.catalogSnapshot())
	case "Mast.Caom.Products":
		resp = s.mastProducts(req)
	case "Mast.Name.Lookup":
		resp = s.mastNameLookup(req)
	default:
		resp = mastResponse{Status: "ERROR", Msg: fmt.Sprintf("unknown service %q", req.Service), Data: []map[string]any{}}
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) mastCone(req mastRequest) mastResponse {
	ra, _ := req.Params["ra"].(float64)
	dec, _ := req.Params["dec"].(float64)
	radius, _ := req.Params["radius"].(float64)
	center := coords.EquatorialCoord{RA: coords.Degrees(ra), Dec: coords.Degrees(dec)}
	return s.mastObjects(s.Within(center, coords.Degrees(radius)))
}

func (s *Server) mastObjects(objs []Object) mastResponse {
	data := make([]map[string]any, 0, len(objs))
	for i, o := range objs {
		data = append(data, map[string]any{
			"obsid":            fmt.Sprintf("obs-%d", i+1),
			"target_name":      o.Name,
			"s_ra":             o.RA,
			"s_dec":            o.Dec,
			"obs_collection":   "HST",
			"dataproduct_type": "image",
		})
	}
	return mastResponse{
		Status: "COMPLETE",
		Fields: []mastField{
			{Name: "obsid", Type: "string"},
			{Name: "target_name", Type: "string"},
			{Name: "s_ra", Type: "float"},
			{Name: "s_dec", Type: "float"},
			{Name: "obs_collection", Type: "string"},
			{Name: "dataproduct_type", Type: "string"},
		},
		Data:   data,
		Paging: &mastPaging{Page: 1, PageSize: len(data), RowsTotal: len(data)},
	}
}

func (s *Server) mastProducts(req mastRequest) mastResponse {
	obsid, _ := req.Params["obsid"].(string)
	if obsid == "" {
		if f, ok := req.Params["obsid"].(float64); ok {
			obsid = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	data := []map[string]any{
		{
			"obsID":           obsid,
			"productFilename": obsid + "_drz.fits",
			"dataURI":         s.hts.URL + "/mast/download/" + obsid + "_drz.fits",
			"size":            float64(2880),
			"productType":     "SCIENCE",
		},
		{
			"obsID":           obsid,
			"productFilename": obsid + "_flt.fits",
			"dataURI":         s.hts.URL + "/mast/download/" + obsid + "_flt.fits",
			"size":            float64(2880),
			"productType":     "AUXILIARY",
		},
	}
	return mastResponse{
		Status: "COMPLETE",
		Fields: []mastField{
			{Name: "obsID", Type: "string"},
			{Name: "productFilename", Type: "string"},
			{Name: "dataURI", Type: "string"},
			{Name: "size", Type: "float"},
			{Name: "productType", Type: "string"},
		},
		Data: data,
	}
}

func (s *Server) mastNameLookup(req mastRequest) mastResponse {
	input, _ := req.Params["input"].(string)
	obj, ok := s.FindObject(input)
	if !ok {
		return mastResponse{Status: "COMPLETE", Data: []map[string]any{}}
	}
	return mastResponse{
		Status: "COMPLETE",
		Data: []map[string]any{
			{"canonicalName": obj.Name, "ra": obj.RA, "decl": obj.Dec, "objectType": obj.Otype},
		},
	}
}

// handleDownload serves data product bytes. The payload is opaque; download
// tests only assert byte-for-byte delivery.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !strings.HasSuffix(name, ".fits") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/fits")
	fmt.Fprintf(w, "SIMPLE  =                    T / %s", name)
}

// Paper is one ADS document.
type Paper struct {
	Bibcode       string   `json:"bibcode"`
	Title         []string `json:"title"`
	Author        []string `json:"author"`
	Year          string   `json:"year"`
	CitationCount int      `json:"citation_count"`
}

// DefaultPapers is the ADS document set served out of the box.
var DefaultPapers = []Paper{
	{
		Bibcode:       "2018A&A...616A...1G",
		Title:         []string{"Gaia Data Release 2. Summary of the contents and survey properties"},
		Author:        []string{"Gaia Collaboration", "Brown, A. G. A."},
		Year:          "2018",
		CitationCount: 5243,
	},
	{
		Bibcode:       "2006AJ....131.1163S",
		Title:         []string{"The Two Micron All Sky Survey (2MASS)"},
		Author:        []string{"Skrutskie, M. F.", "Cutri, R. M."},
		Year:          "2006",
		CitationCount: 12911,
	},
	{
		Bibcode:       "2000A&AS..143....9W",
		Title:         []string{"The SIMBAD astronomical database"},
		Author:        []string{"Wenger, M.", "Ochsenbein, F."},
		Year:          "2000",
		CitationCount: 3989,
	},
}

type adsResponse struct {
	Response struct {
		NumFound int     `json:"numFound"`
		Start    int     `json:"start"`
		Docs     []Paper `json:"docs"`
	} `json:"response"`
}

// handleADS implements the ADS search API with bearer authentication and an
// optional rate-limit mode.
func (s *Server) handleADS(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if auth != "Bearer "+s.ADSToken {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
		return
	}
	if s.ADSRateLimited {
		w.Header().Set("Retry-After", "3600")
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	q := r.URL.Query()
	start, _ := strconv.Atoi(q.Get("start"))
	rows := len(s.Papers)
	if n, err := strconv.Atoi(q.Get("rows")); err == nil && n > 0 {
		rows = n
	}

	docs := s.Papers
	if start > len(docs) {
		start = len(docs)
	}
	docs = docs[start:]
	if rows < len(docs) {
		docs = docs[:rows]
	}

	var resp adsResponse
	resp.Response.NumFound = len(s.Papers)
	resp.Response.Start = start
	resp.Response.Docs = docs
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
