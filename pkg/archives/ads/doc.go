// Package ads queries the NASA Astrophysics Data System.
//
// # Overview
//
// ADS indexes the astronomical literature rather than sky positions, so
// this client returns papers, not sources. Queries use the ADS flavor of
// Solr syntax, e.g. "author:\"Skrutskie\" year:2006" or "bibcode:...".
// Results become a fixed table of bibcode, title, author, year, and
// citation count.
//
// Every request needs an API token from an ADS account, sent as a Bearer
// header. ADS enforces a daily request quota; exceeding it surfaces as an
// [errors.RateLimitedError] carrying the service's Retry-After wait.
//
// # Usage
//
//	client := ads.New(ads.DefaultURL, os.Getenv("ADS_TOKEN"), cache.NewMemoryCache())
//	papers, err := client.Search(ctx, `object:"M 31"`, ads.SearchOptions{
//		Rows: 20,
//		Sort: "citation_count desc",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer papers.Release()
package ads
