// Package simbad queries the SIMBAD astronomical database at CDS through
// its TAP service.
//
// # Overview
//
// SIMBAD holds identifications, positions, and bibliography for objects
// outside the solar system. The client wraps the sim-tap endpoint and
// translates the common lookups into ADQL over the basic, ident, and ref
// tables; the embedded TAP client remains available for arbitrary queries.
//
// # Usage
//
//	client := simbad.New(simbad.DefaultURL, cache)
//	tbl, err := client.ObjectByName(ctx, "M 31")
//	if err != nil {
//		return err
//	}
//	defer tbl.Release()
//
// # Errors
//
// Exact-name lookups that match nothing return an error wrapping
// [ErrObjectNotFound] with code OBJECT_NOT_FOUND, so callers can tell a
// missing object from a failed request.
package simbad
