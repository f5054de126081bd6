package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tmarkert/skyquery/pkg/observability"
)

// newLogger creates a charmbracelet logger writing to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks elapsed time for a long-running operation.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress starts tracking elapsed time.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs the message with the elapsed duration.
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches a logger to the context.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from the context, falling back to
// the package default.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// hookLogger forwards library events to the CLI logger at debug level, so
// --verbose shows the HTTP exchanges, cache traffic, and job phases behind
// each command.
type hookLogger struct {
	observability.NoopQueryHooks
	observability.NoopCacheHooks
	observability.NoopHTTPHooks
	logger *log.Logger
}

// installHooks routes observability events through the given logger.
func installHooks(l *log.Logger) {
	h := &hookLogger{logger: l}
	observability.SetQueryHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *hookLogger) OnQueryStart(_ context.Context, service, query string) {
	h.logger.Debugf("%s query: %s", service, query)
}

func (h *hookLogger) OnQueryComplete(_ context.Context, service string, rows int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debugf("%s query failed after %s: %v", service, d.Round(time.Millisecond), err)
		return
	}
	h.logger.Debugf("%s query returned %d rows in %s", service, rows, d.Round(time.Millisecond))
}

func (h *hookLogger) OnJobPhase(_ context.Context, service, jobID, phase string) {
	h.logger.Debugf("%s job %s: %s", service, jobID, phase)
}

func (h *hookLogger) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debugf("cache hit (%s)", keyType)
}

func (h *hookLogger) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debugf("cache miss (%s)", keyType)
}

func (h *hookLogger) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debugf("%s %s%s: %d in %s", method, host, path, status, d.Round(time.Millisecond))
}

func (h *hookLogger) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debugf("%s %s%s failed: %v", method, host, path, err)
}
