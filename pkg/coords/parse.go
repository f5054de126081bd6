package coords

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tmarkert/skyquery/pkg/errors"
)

// Parse parses a position string into an equatorial coordinate.
//
// Accepted forms:
//   - decimal degrees: "10.684 41.269", "10.684, +41.269"
//   - colon sexagesimal: "00:42:44.33 +41:16:07.5" (RA in hours)
//   - space sexagesimal: "00 42 44.33 +41 16 07.5"
//   - letter sexagesimal: "00h42m44.33s +41d16m07.5s"
func Parse(s string) (EquatorialCoord, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))

	var (
		ra, dec Angle
		err     error
	)
	switch len(fields) {
	case 2:
		if ra, err = ParseRA(fields[0]); err != nil {
			return EquatorialCoord{}, err
		}
		if dec, err = ParseDec(fields[1]); err != nil {
			return EquatorialCoord{}, err
		}
	case 6:
		if ra, err = ParseRA(strings.Join(fields[0:3], ":")); err != nil {
			return EquatorialCoord{}, err
		}
		if dec, err = ParseDec(strings.Join(fields[3:6], ":")); err != nil {
			return EquatorialCoord{}, err
		}
	default:
		return EquatorialCoord{}, errors.New(errors.ErrCodeInvalidCoord,
			"cannot parse position %q: expected 'ra dec' in decimal degrees or sexagesimal notation", s)
	}

	c := EquatorialCoord{RA: ra, Dec: dec}
	if err := c.Validate(); err != nil {
		return EquatorialCoord{}, err
	}
	return c, nil
}

// ParseRA parses a right ascension token. Colon-separated and h/m/s-suffixed
// values ("00:42:44.33", "00h42m44.33s") are read as sexagesimal hours; plain
// numbers as decimal degrees.
func ParseRA(s string) (Angle, error) {
	if t, ok := letterSexagesimal(s, 'h', 'm', 's'); ok {
		s = t
	}
	if strings.Contains(s, ":") {
		sign, parts, err := sexagesimalParts(s)
		if err != nil {
			return 0, err
		}
		if sign < 0 {
			return 0, errors.New(errors.ErrCodeInvalidCoord, "right ascension %q cannot be negative", s)
		}
		return Hours(parts[0] + parts[1]/60 + parts[2]/3600), nil
	}

	deg, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidCoord, "cannot parse right ascension %q", s)
	}
	return Degrees(deg), nil
}

// ParseDec parses a declination token. Colon-separated and d/m/s-suffixed
// values ("+41:16:07.5", "+41d16m07.5s") are read as sexagesimal degrees;
// plain numbers as decimal degrees. The sign applies to the whole value, so
// "-00:30:00" is -0.5 degrees.
func ParseDec(s string) (Angle, error) {
	if t, ok := letterSexagesimal(s, 'd', 'm', 's'); ok {
		s = t
	}
	if strings.Contains(s, ":") {
		sign, parts, err := sexagesimalParts(s)
		if err != nil {
			return 0, err
		}
		return Degrees(sign * (parts[0] + parts[1]/60 + parts[2]/3600)), nil
	}

	deg, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidCoord, "cannot parse declination %q", s)
	}
	return Degrees(deg), nil
}

// letterSexagesimal rewrites a unit-suffixed token like "00h42m44.33s" or
// "+41d16m07.5s" into colon form. The three unit letters must appear in
// order, with the last one closing the token; anything else is left for the
// other parsers.
func letterSexagesimal(s string, u0, u1, u2 byte) (string, bool) {
	lower := strings.ToLower(s)
	i := strings.IndexByte(lower, u0)
	if i < 0 {
		return "", false
	}
	j := strings.IndexByte(lower[i+1:], u1)
	if j < 0 {
		return "", false
	}
	j += i + 1
	if lower[len(lower)-1] != u2 || len(lower)-1 <= j {
		return "", false
	}
	return lower[:i] + ":" + lower[i+1:j] + ":" + lower[j+1:len(lower)-1], true
}

// sexagesimalParts splits "±A:B:C" into a sign and three non-negative parts.
// The minute and second components must be below 60.
func sexagesimalParts(s string) (sign float64, parts [3]float64, err error) {
	sign = 1
	body := s
	switch {
	case strings.HasPrefix(body, "-"):
		sign = -1
		body = body[1:]
	case strings.HasPrefix(body, "+"):
		body = body[1:]
	}

	tokens := strings.Split(body, ":")
	if len(tokens) != 3 {
		return 0, parts, errors.New(errors.ErrCodeInvalidCoord,
			"cannot parse sexagesimal value %q: expected three colon-separated components", s)
	}
	for i, tok := range tokens {
		v, perr := strconv.ParseFloat(tok, 64)
		if perr != nil || v < 0 {
			return 0, parts, errors.New(errors.ErrCodeInvalidCoord, "cannot parse sexagesimal component %q in %q", tok, s)
		}
		if i > 0 && v >= 60 {
			return 0, parts, errors.New(errors.ErrCodeInvalidCoord, "sexagesimal component %q in %q out of range [0, 60)", tok, s)
		}
		parts[i] = v
	}
	return sign, parts, nil
}

// ParseAngle parses an angular size with an optional unit suffix.
// Recognized suffixes are "deg", "arcmin", and "arcsec"; a bare number is
// read as degrees. Examples: "0.5", "0.5deg", "30 arcmin", "2arcsec".
func ParseAngle(s string) (Angle, error) {
	body := strings.TrimSpace(strings.ToLower(s))
	unit := Degrees
	for _, u := range []struct {
		suffix string
		ctor   func(float64) Angle
	}{
		{"arcmin", Arcmin},
		{"arcsec", Arcsec},
		{"deg", Degrees},
	} {
		if strings.HasSuffix(body, u.suffix) {
			body = strings.TrimSpace(strings.TrimSuffix(body, u.suffix))
			unit = u.ctor
			break
		}
	}

	v, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidRadius, "cannot parse angle %q", s)
	}
	a := unit(v)
	if math.IsNaN(float64(a)) || a <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidRadius, "angle %q must be positive", s)
	}
	return a, nil
}

// Sexagesimal formats the position as "HH:MM:SS.SSS +DD:MM:SS.SS".
func (c EquatorialCoord) Sexagesimal() string {
	return FormatRA(c.RA) + " " + FormatDec(c.Dec)
}

// FormatRA renders a right ascension as sexagesimal hours with millisecond
// precision, e.g. "00:42:44.330".
func FormatRA(a Angle) string {
	// Round to integer milliseconds of time first so seconds never render as 60.
	ms := int64(math.Round(a.Hours() * 3600 * 1000))
	ms %= 24 * 3600 * 1000
	if ms < 0 {
		ms += 24 * 3600 * 1000
	}

	h := ms / 3600000
	ms %= 3600000
	m := ms / 60000
	ms %= 60000
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, float64(ms)/1000)
}

// FormatDec renders a declination as signed sexagesimal degrees with
// centiarcsecond precision, e.g. "+41:16:07.50".
func FormatDec(a Angle) string {
	sign := "+"
	cs := int64(math.Round(a.Arcsec() * 100))
	if cs < 0 {
		sign = "-"
		cs = -cs
	}

	d := cs / 360000
	cs %= 360000
	m := cs / 6000
	cs %= 6000
	return fmt.Sprintf("%s%02d:%02d:%05.2f", sign, d, m, float64(cs)/100)
}
