package tap

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	skyerrors "github.com/tmarkert/skyquery/pkg/errors"
)

const jobDoc = `<?xml version="1.0"?>
<uws:job xmlns:uws="http://www.ivoa.net/xml/UWS/v1.0">
  <uws:jobId>job123</uws:jobId>
  <uws:ownerId>anonymous</uws:ownerId>
  <uws:phase>PENDING</uws:phase>
  <uws:quote>2026-08-22T12:00:00Z</uws:quote>
  <uws:executionDuration>600</uws:executionDuration>
  <uws:destruction>2026-08-29T12:00:00Z</uws:destruction>
</uws:job>`

// uwsServer is a minimal UWS endpoint with a scripted phase sequence. Each
// phase poll consumes one entry; the last entry repeats.
type uwsServer struct {
	mu     sync.Mutex
	phases []string
	polls  int
	forms  []url.Values
}

func (s *uwsServer) nextPhase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.polls
	if i >= len(s.phases) {
		i = len(s.phases) - 1
	}
	s.polls++
	return s.phases[i]
}

func (s *uwsServer) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /async", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/async/job123", http.StatusSeeOther)
	})
	mux.HandleFunc("GET /async/job123", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(jobDoc))
	})
	mux.HandleFunc("POST /async/job123", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		s.mu.Lock()
		s.forms = append(s.forms, r.PostForm)
		s.mu.Unlock()
		w.Write([]byte(jobDoc))
	})
	mux.HandleFunc("GET /async/job123/phase", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(s.nextPhase() + "\n"))
	})
	mux.HandleFunc("POST /async/job123/phase", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		s.mu.Lock()
		s.forms = append(s.forms, r.PostForm)
		s.mu.Unlock()
		http.Redirect(w, r, "/async/job123", http.StatusSeeOther)
	})
	mux.HandleFunc("GET /async/job123/results/result", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultDoc))
	})
	mux.HandleFunc("GET /async/job123/error", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("division by zero in expression"))
	})
	return mux
}

func newTestJobClient(t *testing.T, s *uwsServer) *Client {
	t.Helper()
	server := httptest.NewServer(s.handler(t))
	t.Cleanup(server.Close)

	c := New("test", server.URL, nil)
	c.SetPollInterval(time.Millisecond)
	c.SetWaitTimeout(5 * time.Second)
	return c
}

func TestQueryAsyncLifecycle(t *testing.T) {
	s := &uwsServer{phases: []string{"QUEUED", "EXECUTING", "COMPLETED"}}
	c := newTestJobClient(t, s)

	job, err := c.QueryAsync(context.Background(), "SELECT ra FROM basic")
	if err != nil {
		t.Fatalf("QueryAsync failed: %v", err)
	}
	if job.ID != "job123" {
		t.Errorf("job ID = %q, want job123", job.ID)
	}
	if !strings.HasSuffix(job.URL, "/async/job123") {
		t.Errorf("job URL = %q, want .../async/job123", job.URL)
	}
	if job.LastPhase() != PhasePending {
		t.Errorf("LastPhase = %q, want PENDING from the submit response", job.LastPhase())
	}

	res, err := job.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if res.Table.NumRows() != 2 {
		t.Errorf("NumRows = %d, want 2", res.Table.NumRows())
	}
	if job.LastPhase() != PhaseCompleted {
		t.Errorf("LastPhase = %q, want COMPLETED", job.LastPhase())
	}
	if s.polls < 3 {
		t.Errorf("phase polls = %d, want at least 3", s.polls)
	}
}

func TestJobFailed(t *testing.T) {
	s := &uwsServer{phases: []string{"EXECUTING", "ERROR"}}
	c := newTestJobClient(t, s)

	job, err := c.QueryAsync(context.Background(), "SELECT 1/0 FROM basic")
	if err != nil {
		t.Fatalf("QueryAsync failed: %v", err)
	}

	_, err = job.Wait(context.Background())
	if !skyerrors.Is(err, skyerrors.ErrCodeJobFailed) {
		t.Fatalf("expected JOB_FAILED, got %v", err)
	}
	if !strings.Contains(err.Error(), "division by zero") {
		t.Errorf("error = %q, want the service's error detail", err)
	}
}

func TestJobAborted(t *testing.T) {
	s := &uwsServer{phases: []string{"ABORTED"}}
	c := newTestJobClient(t, s)

	job := c.ResumeJob("job123")
	_, err := job.Wait(context.Background())
	if !skyerrors.Is(err, skyerrors.ErrCodeJobAborted) {
		t.Fatalf("expected JOB_ABORTED, got %v", err)
	}
}

func TestJobTimeout(t *testing.T) {
	s := &uwsServer{phases: []string{"EXECUTING"}}
	c := newTestJobClient(t, s)
	c.SetPollInterval(5 * time.Millisecond)
	c.SetWaitTimeout(30 * time.Millisecond)

	job := c.ResumeJob("job123")
	_, err := job.Wait(context.Background())
	if !skyerrors.Is(err, skyerrors.ErrCodeJobTimeout) {
		t.Fatalf("expected JOB_TIMEOUT, got %v", err)
	}
}

func TestJobDeletedDuringPoll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := New("test", server.URL, nil)
	c.SetPollInterval(time.Millisecond)

	job := c.ResumeJob("gone")
	_, err := job.Wait(context.Background())
	if !skyerrors.Is(err, skyerrors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND for a deleted job, got %v", err)
	}
}

func TestJobAbortRequest(t *testing.T) {
	s := &uwsServer{phases: []string{"EXECUTING"}}
	c := newTestJobClient(t, s)

	job := c.ResumeJob("job123")
	if err := job.Abort(context.Background()); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.forms) != 1 || s.forms[0].Get("PHASE") != "ABORT" {
		t.Errorf("forms = %v, want one POST with PHASE=ABORT", s.forms)
	}
}

func TestJobDeleteRequest(t *testing.T) {
	s := &uwsServer{phases: []string{"EXECUTING"}}
	c := newTestJobClient(t, s)

	job := c.ResumeJob("job123")
	if err := job.Delete(context.Background()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.forms) != 1 || s.forms[0].Get("ACTION") != "DELETE" {
		t.Errorf("forms = %v, want one POST with ACTION=DELETE", s.forms)
	}
}

func TestJobInfo(t *testing.T) {
	s := &uwsServer{phases: []string{"PENDING"}}
	c := newTestJobClient(t, s)

	info, err := c.ResumeJob("job123").Info(context.Background())
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.ID != "job123" {
		t.Errorf("ID = %q, want job123", info.ID)
	}
	if info.Phase != PhasePending {
		t.Errorf("Phase = %q, want PENDING", info.Phase)
	}
	if info.ExecutionDuration != "600" {
		t.Errorf("ExecutionDuration = %q, want 600", info.ExecutionDuration)
	}
}

func TestParseJobInfoRejectsMissingID(t *testing.T) {
	_, err := parseJobInfo([]byte(`<job xmlns="http://www.ivoa.net/xml/UWS/v1.0"><phase>PENDING</phase></job>`))
	if err == nil {
		t.Fatal("expected error for a job document without jobId")
	}
	var pe *skyerrors.ParseError
	if !stderrors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if pe.Format != "uws" {
		t.Errorf("Format = %q, want uws", pe.Format)
	}
}

func TestTerminalPhase(t *testing.T) {
	terminal := []string{PhaseCompleted, PhaseError, PhaseAborted, PhaseArchived}
	for _, p := range terminal {
		if !TerminalPhase(p) {
			t.Errorf("TerminalPhase(%s) = false, want true", p)
		}
	}
	running := []string{PhasePending, PhaseQueued, PhaseExecuting, PhaseHeld, PhaseSuspended, PhaseUnknown}
	for _, p := range running {
		if TerminalPhase(p) {
			t.Errorf("TerminalPhase(%s) = true, want false", p)
		}
	}
}
