// Package archives ties the individual archive clients together.
//
// # Overview
//
// The package keeps a registry of known astronomical data services with
// their access endpoints and aliases, merged with any services the user
// registers through configuration. It also provides ConeAll, a bounded
// fan-out that runs the same cone search against several services at once
// and collects per-service tables and errors.
//
// Concrete service clients live in the subpackages (simbad, vizier, gaia,
// irsa, ned, mast, ads, heasarc, sesame); this package does not import
// them, so callers choose which clients to construct.
//
// # Usage
//
//	reg := archives.Default()
//	desc, err := reg.Lookup("gaia")
//	if err != nil {
//		return err
//	}
//	client := gaia.New(desc.TAPURL, cache)
package archives
