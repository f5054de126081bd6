// Package mast queries the Barbara A. Mikulski Archive for Space Telescopes.
//
// # Overview
//
// MAST is not a VO service: its portal API takes a JSON request envelope
// posted as a form field and answers with a JSON document carrying column
// definitions and row objects, converted here into the same Arrow-backed
// [table.Table] the VO clients return. Long-running queries come back with
// status EXECUTING; the client re-posts the identical request until the
// service reports COMPLETE.
//
// Observations found through [Client.ConeSearch] or
// [Client.ObservationsByCriteria] reference data products, which
// [Client.Products] lists and [Client.DownloadProduct] saves. Public data
// needs no authentication; exclusive-access data requires a MAST API token
// passed with [WithToken].
//
// # Usage
//
//	client := mast.New(mast.DefaultURL, cache.NewMemoryCache())
//	center, _ := coords.New(210.80243, 54.34875)
//	obs, err := client.ConeSearch(ctx, center, coords.Arcmin(12))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer obs.Release()
package mast
