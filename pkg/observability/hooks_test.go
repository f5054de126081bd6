package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Query hooks
	q := NoopQueryHooks{}
	q.OnQueryStart(ctx, "simbad", "SELECT TOP 10 * FROM basic")
	q.OnQueryComplete(ctx, "simbad", 10, time.Second, nil)
	q.OnJobPhase(ctx, "gaia", "job-42", "EXECUTING")
	q.OnJobComplete(ctx, "gaia", "job-42", time.Minute, nil)
	q.OnParseStart(ctx, "votable", 4096)
	q.OnParseComplete(ctx, "votable", 100, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "query")
	c.OnCacheMiss(ctx, "resolve")
	c.OnCacheSet(ctx, "query", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "simbad.cds.unistra.fr", "/simbad/sim-tap/sync")
	h.OnResponse(ctx, "POST", "simbad.cds.unistra.fr", "/simbad/sim-tap/sync", 200, time.Second)
	h.OnError(ctx, "POST", "simbad.cds.unistra.fr", "/simbad/sim-tap/sync", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Query().(NoopQueryHooks); !ok {
		t.Error("Query() should return NoopQueryHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customQuery := &testQueryHooks{}
	SetQueryHooks(customQuery)
	if Query() != customQuery {
		t.Error("SetQueryHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Query().(NoopQueryHooks); !ok {
		t.Error("Reset() should restore NoopQueryHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testQueryHooks{}
	SetQueryHooks(custom)

	// Setting nil should be ignored
	SetQueryHooks(nil)

	if Query() != custom {
		t.Error("SetQueryHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testQueryHooks struct{ NoopQueryHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
