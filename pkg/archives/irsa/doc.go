// Package irsa queries the NASA/IPAC Infrared Science Archive TAP service.
//
// # Overview
//
// IRSA hosts the infrared mission archives (2MASS, WISE, Spitzer and
// others) behind a TAP endpoint. The client wraps catalogue cone searches
// and catalogue listing; the embedded TAP client remains available for
// arbitrary ADQL.
//
// # Usage
//
//	client := irsa.New(irsa.DefaultURL, cache)
//	tbl, err := client.QueryCatalog(ctx, "fp_psc", center, coords.Arcmin(5),
//		irsa.WithColumns("ra", "dec", "j_m", "h_m", "k_m"))
//
// # CSV Responses
//
// IRSA serves results as VOTable by default. WithCSV switches the response
// format, which downloads smaller payloads for wide tables:
//
//	tbl, err := client.QueryCatalog(ctx, "fp_psc", center, radius, irsa.WithCSV())
package irsa
