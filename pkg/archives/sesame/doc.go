// Package sesame resolves astronomical object names to coordinates using
// the CDS Sesame service.
//
// # Overview
//
// Sesame is a meta-resolver in front of the SIMBAD, NED, and VizieR
// databases. Given a free-form object name ("M 31", "Vega", "NGC 5128") it
// returns the ICRS position, the canonical identifier, and the object type
// from the first database that recognizes the name.
//
// # Usage
//
//	client := sesame.New(sesame.DefaultURL, cache)
//	res, err := client.Resolve(ctx, "M 31", false)
//	if err != nil {
//		return err
//	}
//	fmt.Println(res.Canonical, res.Coord)
//
// # Resolver Selection
//
// By default all three databases are consulted in the order SIMBAD, NED,
// VizieR. Pass WithResolvers to restrict or reorder them, using the letters
// S, N, and V:
//
//	client := sesame.New(sesame.DefaultURL, cache, sesame.WithResolvers("N"))
//
// # Errors
//
// Unrecognized names return an error wrapping [ErrNotFound] with code
// OBJECT_NOT_FOUND. Successful resolutions are cached; misses are not, so a
// name added to the databases later is picked up on the next call.
package sesame
