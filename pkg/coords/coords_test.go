package coords

import (
	"math"
	"testing"
)

func TestAngleConversions(t *testing.T) {
	tests := []struct {
		name string
		a    Angle
		deg  float64
	}{
		{"degrees", Degrees(1.5), 1.5},
		{"arcmin", Arcmin(90), 1.5},
		{"arcsec", Arcsec(5400), 1.5},
		{"hours", Hours(0.1), 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Degrees(); math.Abs(got-tt.deg) > 1e-12 {
				t.Errorf("Degrees() = %v, want %v", got, tt.deg)
			}
		})
	}

	a := Degrees(15)
	if got := a.Hours(); math.Abs(got-1) > 1e-12 {
		t.Errorf("Hours() = %v, want 1", got)
	}
	if got := a.Arcmin(); math.Abs(got-900) > 1e-12 {
		t.Errorf("Arcmin() = %v, want 900", got)
	}
	if got := a.Arcsec(); math.Abs(got-54000) > 1e-9 {
		t.Errorf("Arcsec() = %v, want 54000", got)
	}
	if got := Degrees(180).Radians(); math.Abs(got-math.Pi) > 1e-12 {
		t.Errorf("Radians() = %v, want pi", got)
	}
}

func TestNewValidatesRanges(t *testing.T) {
	tests := []struct {
		name    string
		ra, dec float64
		wantErr bool
	}{
		{"m31", 10.68458, 41.26917, false},
		{"origin", 0, 0, false},
		{"south pole", 180, -90, false},
		{"ra negative", -1, 0, true},
		{"ra too large", 360, 0, true},
		{"dec too small", 0, -90.1, true},
		{"dec too large", 0, 91, true},
		{"nan ra", math.NaN(), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.ra, tt.dec)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%v, %v) error = %v, wantErr %v", tt.ra, tt.dec, err, tt.wantErr)
			}
		})
	}
}

func TestSeparation(t *testing.T) {
	tests := []struct {
		name    string
		a, b    EquatorialCoord
		wantDeg float64
	}{
		{
			"same point",
			EquatorialCoord{RA: Degrees(10), Dec: Degrees(20)},
			EquatorialCoord{RA: Degrees(10), Dec: Degrees(20)},
			0,
		},
		{
			"one degree in dec",
			EquatorialCoord{RA: Degrees(0), Dec: Degrees(0)},
			EquatorialCoord{RA: Degrees(0), Dec: Degrees(1)},
			1,
		},
		{
			"ra separation shrinks with dec",
			EquatorialCoord{RA: Degrees(0), Dec: Degrees(60)},
			EquatorialCoord{RA: Degrees(1), Dec: Degrees(60)},
			0.5, // cos(60 deg) = 0.5, to first order
		},
		{
			"antipodal",
			EquatorialCoord{RA: Degrees(0), Dec: Degrees(0)},
			EquatorialCoord{RA: Degrees(180), Dec: Degrees(0)},
			180,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Separation(tt.a, tt.b).Degrees()
			if math.Abs(got-tt.wantDeg) > 1e-4 {
				t.Errorf("Separation = %v deg, want %v", got, tt.wantDeg)
			}
		})
	}
}

func TestSeparationSmallAngleStability(t *testing.T) {
	// One milliarcsecond apart; the haversine form must not collapse to zero.
	a := EquatorialCoord{RA: Degrees(10), Dec: Degrees(20)}
	b := EquatorialCoord{RA: Degrees(10), Dec: Degrees(20 + 1.0/3600000)}

	got := Separation(a, b).Arcsec()
	if math.Abs(got-0.001) > 1e-6 {
		t.Errorf("Separation = %v arcsec, want 0.001", got)
	}
}
