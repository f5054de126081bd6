// Package tap implements a client for IVOA Table Access Protocol services.
//
// # Overview
//
// TAP is the standard query interface of astronomical archives: clients
// submit ADQL (a SQL dialect with spherical geometry functions) and receive
// tables serialized as VOTable documents. This package speaks TAP 1.1 with
// both execution modes:
//
//   - Synchronous: [Client.Query] posts to {base}/sync and blocks until the
//     service streams back the result.
//   - Asynchronous: [Client.QueryAsync] posts to {base}/async, creating a
//     UWS job on the service. The returned [Job] is polled with [Job.Wait]
//     until it completes, fails, or is aborted.
//
// # Usage
//
// Query a service synchronously:
//
//	client := tap.New("gaia", "https://gea.esac.esa.int/tap-server/tap", cache)
//	res, err := client.Query(ctx, "SELECT TOP 10 * FROM gaiadr3.gaia_source")
//
// Run a long query asynchronously and wait for it:
//
//	job, err := client.QueryAsync(ctx, query, tap.WithMaxRows(100000))
//	res, err := job.Wait(ctx)
//
// Jobs survive process restarts. Persist [Job.ID] and reattach later:
//
//	job := client.ResumeJob(savedID)
//	phase, err := job.Phase(ctx)
//
// # Metadata
//
// [Client.Tables] lists the service's tables from its VOSI endpoint, and
// [Client.Schema] assembles the full relational structure from the
// TAP_SCHEMA tables, including foreign keys. [SchemaGraph] turns a schema
// into a Graphviz DOT document and [RenderSVG] rasterizes it.
//
// # Errors
//
// Query failures reported by the service, whether as an HTTP 400 or as a
// QUERY_STATUS=ERROR document in a 200 response, surface as
// [errors.ServiceError] with the service's own message. Job-level failures
// carry JOB_FAILED, JOB_ABORTED, or JOB_TIMEOUT codes.
//
// [errors.ServiceError]: github.com/tmarkert/skyquery/pkg/errors.ServiceError
package tap
