// Package ned queries the NASA/IPAC Extragalactic Database.
//
// # Overview
//
// NED predates TAP and still answers through its CGI interface: object
// lookups go to the objsearch endpoint and return a VOTable, positional
// queries go through a Simple Cone Search service. This package wraps both
// behind one client so a single cache and transport serve them.
//
// NED only knows extragalactic objects. Lookups for stars or planetary
// targets fail with an error wrapping [ErrObjectNotFound], which is the
// database declining the name rather than a transport fault.
//
// # Usage
//
//	client := ned.New(ned.DefaultURL, ned.DefaultSCSURL, cache.NewMemoryCache())
//	tbl, err := client.ObjectByName(ctx, "NGC 4151", false)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(tbl.NumRows())
package ned
