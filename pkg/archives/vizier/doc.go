// Package vizier queries the VizieR catalogue service at CDS through the
// TAPVizieR endpoint.
//
// # Overview
//
// VizieR serves thousands of published astronomical catalogues, each
// addressable as a TAP table whose name is the catalogue designation
// ("II/246/out", "I/239/hip_main"). The client finds catalogues by
// keyword and runs cone searches against a chosen one; the embedded TAP
// client remains available for arbitrary ADQL.
//
// # Usage
//
//	client := vizier.New(vizier.DefaultURL, cache)
//	cats, err := client.FindCatalogs(ctx, []string{"2MASS", "photometry"})
//	if err != nil {
//		return err
//	}
//	defer cats.Release()
//
//	tbl, err := client.QueryCatalog(ctx, "II/246/out", center, coords.Arcmin(5))
//
// # Position Columns
//
// Cone searches compare against the J2000 position columns RAJ2000 and
// DEJ2000, which most VizieR tables carry. Catalogues using other names
// (RA_ICRS, DE_ICRS) need WithPositionColumns.
package vizier
