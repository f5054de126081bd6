// Package coords provides celestial coordinate types used throughout the
// archive clients: angles with unit conversions, equatorial positions, and
// sexagesimal parsing and formatting.
//
// All positions are equatorial ICRS coordinates. Right ascension is stored
// in degrees (0 to 360), declination in degrees (-90 to +90).
package coords

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tmarkert/skyquery/pkg/errors"
)

// Angle is an angular measure stored in degrees.
type Angle float64

// Degrees constructs an Angle from decimal degrees.
func Degrees(d float64) Angle { return Angle(d) }

// Arcmin constructs an Angle from arcminutes.
func Arcmin(m float64) Angle { return Angle(m / 60) }

// Arcsec constructs an Angle from arcseconds.
func Arcsec(s float64) Angle { return Angle(s / 3600) }

// Hours constructs an Angle from hour angle (1 hour = 15 degrees).
func Hours(h float64) Angle { return Angle(h * 15) }

// Degrees returns the angle in decimal degrees.
func (a Angle) Degrees() float64 { return float64(a) }

// Arcmin returns the angle in arcminutes.
func (a Angle) Arcmin() float64 { return float64(a) * 60 }

// Arcsec returns the angle in arcseconds.
func (a Angle) Arcsec() float64 { return float64(a) * 3600 }

// Hours returns the angle in hour angle units.
func (a Angle) Hours() float64 { return float64(a) / 15 }

// Radians returns the angle in radians.
func (a Angle) Radians() float64 { return float64(a) * math.Pi / 180 }

// String formats the angle in decimal degrees with full precision.
func (a Angle) String() string {
	return strconv.FormatFloat(float64(a), 'f', -1, 64) + " deg"
}

// EquatorialCoord is an ICRS equatorial position.
type EquatorialCoord struct {
	RA  Angle // right ascension, 0 to 360 degrees
	Dec Angle // declination, -90 to +90 degrees
}

// New creates an equatorial coordinate from decimal degrees, validating
// that both components are within range.
func New(ra, dec float64) (EquatorialCoord, error) {
	c := EquatorialCoord{RA: Angle(ra), Dec: Angle(dec)}
	if err := c.Validate(); err != nil {
		return EquatorialCoord{}, err
	}
	return c, nil
}

// Validate checks that RA is in [0, 360) and Dec in [-90, +90].
func (c EquatorialCoord) Validate() error {
	ra, dec := c.RA.Degrees(), c.Dec.Degrees()
	if math.IsNaN(ra) || ra < 0 || ra >= 360 {
		return errors.New(errors.ErrCodeInvalidCoord, "right ascension %v out of range [0, 360)", ra)
	}
	if math.IsNaN(dec) || dec < -90 || dec > 90 {
		return errors.New(errors.ErrCodeInvalidCoord, "declination %v out of range [-90, +90]", dec)
	}
	return nil
}

// String formats the position as decimal degrees, e.g. "10.68458 +41.26917".
func (c EquatorialCoord) String() string {
	return fmt.Sprintf("%s %s", FormatDegrees(c.RA.Degrees()), formatSigned(c.Dec.Degrees()))
}

// Separation returns the great-circle angular distance between two positions.
// Uses the haversine formula, which stays numerically stable for the small
// separations typical of cone searches.
func Separation(a, b EquatorialCoord) Angle {
	ra1, dec1 := a.RA.Radians(), a.Dec.Radians()
	ra2, dec2 := b.RA.Radians(), b.Dec.Radians()

	sinDRA := math.Sin((ra2 - ra1) / 2)
	sinDDec := math.Sin((dec2 - dec1) / 2)
	h := sinDDec*sinDDec + math.Cos(dec1)*math.Cos(dec2)*sinDRA*sinDRA

	return Angle(2 * math.Asin(math.Min(1, math.Sqrt(h))) * 180 / math.Pi)
}

// FormatDegrees renders a decimal degree value with minimal digits, suitable
// for embedding in query strings and ADQL expressions.
func FormatDegrees(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}

func formatSigned(d float64) string {
	s := FormatDegrees(d)
	if d >= 0 {
		return "+" + s
	}
	return s
}
