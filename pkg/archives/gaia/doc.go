// Package gaia queries the ESA Gaia archive.
//
// # Overview
//
// The Gaia archive is a TAP service over the mission's data releases. The
// client embeds the TAP client, so synchronous queries, asynchronous UWS
// jobs (submit, wait, fetch, abort, delete), and schema introspection all
// work against it directly; ConeSearch adds the common positional query
// over the configured source table.
//
// # Usage
//
//	client := gaia.New(gaia.DefaultURL, cache)
//
//	// Short query, synchronous:
//	tbl, err := client.ConeSearch(ctx, center, coords.Arcsec(30))
//
//	// Large query, asynchronous:
//	job, err := client.QueryAsync(ctx, "SELECT source_id, ra, dec FROM gaiadr3.gaia_source WHERE parallax > 50")
//	if err != nil {
//		return err
//	}
//	res, err := job.Wait(ctx)
//
// # Data Releases
//
// Queries default to the DR3 source table. Pass WithSourceTable to target
// another release:
//
//	client := gaia.New(gaia.DefaultURL, cache, gaia.WithSourceTable("gaiadr2.gaia_source"))
package gaia
