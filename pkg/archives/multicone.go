package archives

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tmarkert/skyquery/pkg/coords"
	"github.com/tmarkert/skyquery/pkg/table"
)

// defaultConeWorkers bounds concurrent service queries in ConeAll.
const defaultConeWorkers = 4

// ConeSearcher runs a cone search against one service.
type ConeSearcher interface {
	ConeSearch(ctx context.Context, center coords.EquatorialCoord, radius coords.Angle) (*table.Table, error)
}

// ConeFunc adapts a plain function to the ConeSearcher interface.
type ConeFunc func(ctx context.Context, center coords.EquatorialCoord, radius coords.Angle) (*table.Table, error)

// ConeSearch calls f.
func (f ConeFunc) ConeSearch(ctx context.Context, center coords.EquatorialCoord, radius coords.Angle) (*table.Table, error) {
	return f(ctx, center, radius)
}

// ConeResult is the outcome of one service's search within a fan-out run.
// Either Table or Err is set. The caller owns returned tables and must
// Release them.
type ConeResult struct {
	RunID   string
	Service string
	Table   *table.Table
	Err     error
	Elapsed time.Duration
}

// ConeOptions tunes a ConeAll run.
type ConeOptions struct {
	// Workers caps concurrent queries. Zero means the default of 4.
	Workers int
}

// ConeAll runs the same cone search against several services concurrently
// and returns one result per service, ordered by service name. All entries
// share a run id so log lines and cached artifacts from one invocation can
// be correlated.
//
// A failed service contributes an error entry without affecting the others.
// Cancelling ctx stops queries that have not started and interrupts running
// ones through their own context handling.
func ConeAll(ctx context.Context, searchers map[string]ConeSearcher, center coords.EquatorialCoord, radius coords.Angle, opts ConeOptions) []ConeResult {
	if len(searchers) == 0 {
		return nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultConeWorkers
	}
	if workers > len(searchers) {
		workers = len(searchers)
	}

	names := make([]string, 0, len(searchers))
	for name := range searchers {
		names = append(names, name)
	}
	sort.Strings(names)

	runID := uuid.NewString()
	jobs := make(chan string)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []ConeResult
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				res := ConeResult{RunID: runID, Service: name}
				if err := ctx.Err(); err != nil {
					res.Err = err
				} else {
					start := time.Now()
					res.Table, res.Err = searchers[name].ConeSearch(ctx, center, radius)
					res.Elapsed = time.Since(start)
				}
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}()
	}

	for _, name := range names {
		jobs <- name
	}
	close(jobs)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Service < results[j].Service })
	return results
}
