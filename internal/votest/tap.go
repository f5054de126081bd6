package votest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tmarkert/skyquery/pkg/table"
	"github.com/tmarkert/skyquery/pkg/votable"
)

const contentTypeVOTable = "application/x-votable+xml"

type jobState struct {
	id      string
	query   string
	maxrec  int
	format  string
	phases  []string
	polls   int
	aborted bool
}

func (j *jobState) currentPhase() string {
	if j.aborted {
		return "ABORTED"
	}
	i := j.polls
	if i >= len(j.phases) {
		i = len(j.phases) - 1
	}
	return j.phases[i]
}

// handleSync answers TAP synchronous queries. Unknown queries fall through
// to the full catalog so simple tests need no setup.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req := r.PostForm.Get("REQUEST"); req != "doQuery" {
		s.writeErrorDoc(w, fmt.Sprintf("unsupported REQUEST %q", req))
		return
	}
	if lang := r.PostForm.Get("LANG"); lang != "ADQL" {
		s.writeErrorDoc(w, fmt.Sprintf("unsupported LANG %q", lang))
		return
	}

	query := r.PostForm.Get("QUERY")
	s.recordQuery(query)
	maxrec := parseMaxRec(r.PostForm.Get("MAXREC"))
	s.writeQueryResult(w, query, maxrec, r.PostForm.Get("FORMAT"))
}

// writeQueryResult renders the response for an ADQL query, honoring
// registered rules, MAXREC truncation, and the requested format.
func (s *Server) writeQueryResult(w http.ResponseWriter, query string, maxrec int, format string) {
	objs := s.catalogSnapshot()
	if rule, ok := s.findRule(query); ok {
		switch {
		case rule.errMsg != "":
			s.writeErrorDoc(w, rule.errMsg)
			return
		case rule.body != nil:
			w.Header().Set("Content-Type", rule.contentType)
			w.Write(rule.body)
			return
		default:
			objs = rule.objects
		}
	}

	overflow := false
	if maxrec >= 0 && len(objs) > maxrec {
		objs = objs[:maxrec]
		overflow = true
	}
	tbl := CatalogTable("results", objs)
	defer tbl.Release()

	if strings.EqualFold(format, "csv") {
		w.Header().Set("Content-Type", "text/csv")
		tbl.WriteCSV(w)
		return
	}
	w.Header().Set("Content-Type", contentTypeVOTable)
	if overflow {
		votable.WriteOverflow(w, tbl)
		return
	}
	votable.Write(w, tbl)
}

func (s *Server) writeErrorDoc(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", contentTypeVOTable)
	w.WriteHeader(http.StatusBadRequest)
	votable.WriteError(w, msg)
}

func parseMaxRec(s string) int {
	if s == "" {
		return -1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// handleJobCreate accepts an async job submission and redirects to the job
// resource, as UWS prescribes.
func (s *Server) handleJobCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := &jobState{
		id:     uuid.NewString(),
		query:  r.PostForm.Get("QUERY"),
		maxrec: parseMaxRec(r.PostForm.Get("MAXREC")),
		format: r.PostForm.Get("FORMAT"),
		phases: append([]string{}, s.JobScript...),
	}
	s.recordQuery(job.query)
	if r.PostForm.Get("PHASE") != "RUN" {
		job.phases = append([]string{"PENDING"}, job.phases...)
	}
	if len(job.phases) == 0 {
		job.phases = []string{"COMPLETED"}
	}

	s.mu.Lock()
	s.jobs[job.id] = job
	s.mu.Unlock()

	http.Redirect(w, r, "/tap/async/"+job.id, http.StatusSeeOther)
}

func (s *Server) handleJobList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><uws:jobs xmlns:uws="http://www.ivoa.net/xml/UWS/v1.0"/>`)
}

func (s *Server) job(r *http.Request) *jobState {
	id := chi.URLParam(r, "jobID")
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// handleJob serves the UWS job summary document.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	job := s.job(r)
	if job == nil {
		http.NotFound(w, r)
		return
	}
	s.writeJobDoc(w, job)
}

// handleJobAction processes job-level actions, of which UWS defines DELETE.
func (s *Server) handleJobAction(w http.ResponseWriter, r *http.Request) {
	job := s.job(r)
	if job == nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("ACTION") != "DELETE" {
		http.Error(w, "unsupported ACTION", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	delete(s.jobs, job.id)
	s.mu.Unlock()
	http.Redirect(w, r, "/tap/async", http.StatusSeeOther)
}

// handleJobPhase reports the current phase as plain text and steps the
// scripted lifecycle forward one entry per poll.
func (s *Server) handleJobPhase(w http.ResponseWriter, r *http.Request) {
	job := s.job(r)
	if job == nil {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	phase := job.currentPhase()
	job.polls++
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, phase)
}

func (s *Server) handleJobPhaseChange(w http.ResponseWriter, r *http.Request) {
	job := s.job(r)
	if job == nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch r.PostForm.Get("PHASE") {
	case "ABORT":
		s.mu.Lock()
		job.aborted = true
		s.mu.Unlock()
	case "RUN":
		// Scripted jobs run on their own; nothing to do.
	default:
		http.Error(w, "unsupported PHASE", http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, "/tap/async/"+job.id, http.StatusSeeOther)
}

// handleJobResult serves the result document once the job has completed.
func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	job := s.job(r)
	if job == nil {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	phase := job.currentPhase()
	s.mu.Unlock()
	if phase != "COMPLETED" {
		http.NotFound(w, r)
		return
	}
	s.writeQueryResult(w, job.query, job.maxrec, job.format)
}

func (s *Server) handleJobError(w http.ResponseWriter, r *http.Request) {
	job := s.job(r)
	if job == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, s.JobError)
}

func (s *Server) writeJobDoc(w http.ResponseWriter, job *jobState) {
	s.mu.Lock()
	phase := job.currentPhase()
	s.mu.Unlock()

	var errXML string
	if phase == "ERROR" {
		errXML = fmt.Sprintf(`<uws:errorSummary type="fatal"><uws:message>%s</uws:message></uws:errorSummary>`, xmlEscape(s.JobError))
	}

	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<uws:job xmlns:uws="http://www.ivoa.net/xml/UWS/v1.0">
  <uws:jobId>%s</uws:jobId>
  <uws:phase>%s</uws:phase>
  <uws:executionDuration>600</uws:executionDuration>
  %s
</uws:job>`, job.id, phase, errXML)
}

func xmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

// handleTables serves a VOSI tableset describing the catalog table.
func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	tbl := CatalogTable("basic", nil)
	defer tbl.Release()

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<vosi:tableset xmlns:vosi="http://www.ivoa.net/xml/VOSITables/v1.0">
  <schema>
    <name>public</name>
    <table>
      <name>public.basic</name>
      <description>Basic data for all catalog objects</description>
`)
	schema := tbl.Schema()
	for i := 0; i < schema.NumFields(); i++ {
		f := schema.Field(i)
		unit, _ := f.Metadata.GetValue(table.MetaUnit)
		ucd, _ := f.Metadata.GetValue(table.MetaUCD)
		desc, _ := f.Metadata.GetValue(table.MetaDescription)
		fmt.Fprintf(&sb, `      <column>
        <name>%s</name>
        <description>%s</description>
        <unit>%s</unit>
        <ucd>%s</ucd>
        <dataType>%s</dataType>
      </column>
`, f.Name, xmlEscape(desc), unit, ucd, columnDataType(f.Type))
	}
	sb.WriteString(`    </table>
  </schema>
</vosi:tableset>`)

	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprint(w, sb.String())
}

func columnDataType(dt arrow.DataType) string {
	switch dt.ID() {
	case arrow.STRING:
		return "char"
	case arrow.FLOAT64:
		return "double"
	case arrow.FLOAT32:
		return "float"
	case arrow.INT64:
		return "long"
	case arrow.INT32:
		return "int"
	case arrow.INT16:
		return "short"
	case arrow.BOOL:
		return "boolean"
	default:
		return "char"
	}
}
