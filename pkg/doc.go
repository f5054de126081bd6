// Package pkg provides the core libraries for querying astronomical archives.
//
// # Overview
//
// Skyquery talks to Virtual Observatory services (TAP, Simple Cone Search,
// Sesame name resolution) and archive-specific HTTP APIs, returning results
// as Arrow-backed tables. The pkg directory is organized into four main areas:
//
//  1. [tap] / [scs] / [votable] - VO protocol clients and the VOTable codec
//  2. [archives] - Per-archive clients (SIMBAD, Gaia, VizieR, NED, MAST, ...)
//  3. [table] / [coords] / [adql] - Result tables, sky coordinates, query text
//  4. [cache] / [voclient] / [observability] - Transport infrastructure
//
// # Architecture
//
// The typical data flow through skyquery:
//
//	Object name or coordinates
//	         ↓
//	    [coords] package (parse positions and angles)
//	         ↓
//	    [archives] package (service registry + archive clients)
//	         ↓
//	    [tap] or [scs] package (query execution over [voclient])
//	         ↓
//	    [votable] package (decode the response)
//	         ↓
//	    [table] package (Arrow-backed tables)
//	         ↓
//	    CSV/JSON/VOTable output
//
// # Quick Start
//
// Resolve a name and run a cone search against SIMBAD:
//
//	import (
//	    "context"
//	    "github.com/tmarkert/skyquery/pkg/archives/simbad"
//	    "github.com/tmarkert/skyquery/pkg/cache"
//	    "github.com/tmarkert/skyquery/pkg/coords"
//	)
//
//	// 1. Pick a cache backend
//	ca, _ := cache.NewFileCache("/tmp/skyquery")
//
//	// 2. Build an archive client
//	cl := simbad.New("https://simbad.cds.unistra.fr/simbad/sim-tap", ca)
//
//	// 3. Run a cone search
//	center, _ := coords.Parse("10.684 41.269")
//	tab, _ := cl.ConeSearch(context.Background(), center, coords.Arcmin(5))
//	defer tab.Release()
//
// # Main Packages
//
// ## Protocols
//
// [tap] - Table Access Protocol client: synchronous queries, asynchronous
// UWS jobs (submit, poll, fetch, abort, delete) and TAP_SCHEMA metadata
// with Graphviz schema diagrams.
//
// [scs] - Simple Cone Search protocol client for archives that expose a
// positional search endpoint but no TAP service.
//
// [votable] - VOTable parser and writer supporting TABLEDATA and BINARY2
// serializations, producing [table.Table] values.
//
// ## Archive Clients
//
// [archives] - Service registry mapping names and aliases to endpoints,
// plus concurrent fan-out cone searches across several archives at once
// ([archives.ConeAll]). Each archive has its own subpackage with typed
// operations:
//
//   - [archives/sesame]: name resolution (SIMBAD, NED, VizieR resolvers)
//   - [archives/simbad]: object lookup, region queries, identifiers, bibcodes
//   - [archives/gaia]: Gaia data releases via the ESA TAP service
//   - [archives/vizier]: catalog search and row retrieval
//   - [archives/ned]: object data and positional search
//   - [archives/mast]: MAST portal observations and product lists
//   - [archives/irsa], [archives/heasarc]: mission table queries
//   - [archives/ads]: bibliographic search (requires an API token)
//
// ## Data
//
// [table] - Column-oriented result tables backed by Apache Arrow with
// schema metadata (units, UCDs), null masks, CSV/JSON export and FITS
// binary table reading.
//
// [coords] - Equatorial coordinates and angular sizes: decimal and
// sexagesimal parsing, formatting, and unit constructors.
//
// [adql] - Helpers for assembling ADQL text safely: string and identifier
// quoting, TOP injection, cone predicates.
//
// ## Infrastructure
//
// [voclient] - HTTP client shared by all protocol clients: retry with
// exponential backoff, response caching, rate limiting, and auth headers.
//
// [cache] - Cache backends behind one interface: file, memory, Redis,
// MongoDB, or disabled.
//
// [credentials] - Token storage for authenticated archives, with
// environment variable overrides.
//
// [observability] - Process-wide hook points for query, cache, and HTTP
// events. The CLI installs hooks that forward to its logger.
//
// [errors] - Coded errors separating user-facing messages from wrapped
// causes.
//
// # Common Workflows
//
// Run raw ADQL against any TAP service:
//
//	client := tap.New("gaia", "https://gea.esac.esa.int/tap-server/tap", ca)
//	res, _ := client.Query(ctx, "SELECT TOP 10 * FROM gaiadr3.gaia_source", tap.WithMaxRows(10))
//	defer res.Table.Release()
//
// Submit a long-running query as a UWS job:
//
//	job, _ := client.QueryAsync(ctx, query)
//	res, _ := job.Wait(ctx)
//
// Search several archives at once:
//
//	searchers := map[string]archives.ConeSearcher{
//	    "simbad": simbadClient,
//	    "gaia":   gaiaClient,
//	}
//	results := archives.ConeAll(ctx, searchers, center, radius, archives.ConeOptions{})
//
// Inspect a service's schema:
//
//	tables, _ := client.Tables(ctx)
//	cols, _ := client.Columns(ctx, "basic")
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...               # All tests
//	go test ./pkg/archives/...      # Specific package
//	go test -run Example            # Examples only
//
// Archive client tests use the internal votest package, which serves
// canned VOTable responses over httptest.
//
// [tap]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/tap
// [scs]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/scs
// [votable]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/votable
// [archives]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/archives
// [archives/sesame]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/archives/sesame
// [archives/simbad]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/archives/simbad
// [archives/gaia]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/archives/gaia
// [archives/vizier]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/archives/vizier
// [archives/ned]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/archives/ned
// [archives/mast]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/archives/mast
// [archives/irsa]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/archives/irsa
// [archives/heasarc]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/archives/heasarc
// [archives/ads]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/archives/ads
// [table]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/table
// [coords]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/coords
// [adql]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/adql
// [voclient]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/voclient
// [cache]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/cache
// [credentials]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/credentials
// [observability]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/observability
// [errors]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/errors
//
// [table.Table]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/table#Table
// [archives.ConeAll]: https://pkg.go.dev/github.com/tmarkert/skyquery/pkg/archives#ConeAll
package pkg
