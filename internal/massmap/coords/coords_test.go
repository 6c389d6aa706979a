package coords

import (
	"math"
	"testing"
)

func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d > 180 {
		d -= 360
	}
	if d < -180 {
		d += 360
	}
	return math.Abs(d)
}

func TestEquatorialToAngular(t *testing.T) {
	tests := []struct {
		name       string
		ra, dec    float64
		theta, phi float64
	}{
		{"north pole", 0, 90, 0, 0},
		{"equator origin", 0, 0, math.Pi / 2, 0},
		{"south pole", 180, -90, math.Pi, math.Pi},
		{"ra 90", 90, 45, math.Pi / 4, math.Pi / 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			theta, phi := EquatorialToAngular(tc.ra, tc.dec)
			if math.Abs(theta-tc.theta) > 1e-12 || math.Abs(phi-tc.phi) > 1e-12 {
				t.Errorf("EquatorialToAngular(%v, %v) = (%v, %v), want (%v, %v)",
					tc.ra, tc.dec, theta, phi, tc.theta, tc.phi)
			}
			ra, dec := AngularToEquatorial(theta, phi)
			if math.Abs(ra-tc.ra) > 1e-9 || math.Abs(dec-tc.dec) > 1e-9 {
				t.Errorf("AngularToEquatorial round trip = (%v, %v), want (%v, %v)", ra, dec, tc.ra, tc.dec)
			}
		})
	}
}

func TestGnomonicCentreMapsToOrigin(t *testing.T) {
	x, y := GnomonicProject(30, -20, 30, -20, false)
	if math.Abs(x) > 1e-12 || math.Abs(y) > 1e-12 {
		t.Errorf("centre projected to (%v, %v), want (0, 0)", x, y)
	}
	ra, dec := GnomonicDeproject(30, -20, 0, 0)
	if math.Abs(ra-30) > 1e-12 || math.Abs(dec+20) > 1e-12 {
		t.Errorf("origin deprojected to (%v, %v), want (30, -20)", ra, dec)
	}
}

func TestGnomonicRoundTrip(t *testing.T) {
	centres := [][2]float64{{0, 0}, {30, -20}, {359.5, 60}, {180, -85}}
	for _, c := range centres {
		for dra := -10.0; dra <= 10; dra += 2.5 {
			for ddec := -10.0; ddec <= 10; ddec += 2.5 {
				ra := WrapRA(c[0] + dra)
				dec := c[1] + ddec
				if math.Abs(dec) >= 89.9 {
					continue
				}
				x, y := GnomonicProject(c[0], c[1], ra, dec, false)
				gotRA, gotDec := GnomonicDeproject(c[0], c[1], x, y)
				if angleDiff(gotRA, ra)*math.Cos(dec*deg2rad) > 1e-9 || math.Abs(gotDec-dec) > 1e-9 {
					t.Errorf("centre %v: round trip of (%v, %v) gave (%v, %v)", c, ra, dec, gotRA, gotDec)
				}
			}
		}
	}
}

func TestGnomonicRadians(t *testing.T) {
	xd, yd := GnomonicProject(10, 5, 12, 7, false)
	xr, yr := GnomonicProject(10, 5, 12, 7, true)
	if math.Abs(xd*deg2rad-xr) > 1e-14 || math.Abs(yd*deg2rad-yr) > 1e-14 {
		t.Errorf("degree and radian outputs disagree: (%v, %v) vs (%v, %v)", xd, yd, xr, yr)
	}
}

func TestGnomonicAxes(t *testing.T) {
	// Moving north from the centre increases y only.
	x, y := GnomonicProject(0, 0, 0, 1, false)
	if math.Abs(x) > 1e-12 || y <= 0 {
		t.Errorf("north offset projected to (%v, %v)", x, y)
	}
	// Moving east increases x only on the equator.
	x, y = GnomonicProject(0, 0, 1, 0, false)
	if x <= 0 || math.Abs(y) > 1e-12 {
		t.Errorf("east offset projected to (%v, %v)", x, y)
	}
	// tan(1 deg) in degrees.
	want := math.Tan(deg2rad) * rad2deg
	if math.Abs(x-want) > 1e-12 {
		t.Errorf("x = %v, want %v", x, want)
	}
}

func TestWrapPhi(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{-math.Pi / 2, 3 * math.Pi / 2},
		{2 * math.Pi, 0},
		{5 * math.Pi, math.Pi},
	}
	for _, tc := range tests {
		if got := WrapPhi(tc.in); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("WrapPhi(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if got := WrapRA(-10); got != 350 {
		t.Errorf("WrapRA(-10) = %v, want 350", got)
	}
}

func TestTangentCosine(t *testing.T) {
	tests := []struct {
		ra, dec float64
		want    float64
	}{
		{0, 0, 1},
		{90, 0, 0},
		{180, 0, -1},
		{0, 60, 0.5},
		{170, 10, math.Cos(10*math.Pi/180) * math.Cos(170*math.Pi/180)},
	}
	for _, tc := range tests {
		if got := TangentCosine(0, 0, tc.ra, tc.dec); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("TangentCosine(0, 0, %v, %v) = %v, want %v", tc.ra, tc.dec, got, tc.want)
		}
	}
}

func TestValidPosition(t *testing.T) {
	tests := []struct {
		ra, dec float64
		want    bool
	}{
		{10, 20, true},
		{-30, 90, true},
		{400, -90, true},
		{10, 95, false},
		{10, -90.5, false},
		{math.NaN(), 0, false},
		{0, math.NaN(), false},
		{math.Inf(1), 0, false},
		{0, math.Inf(-1), false},
	}
	for _, tc := range tests {
		if got := ValidPosition(tc.ra, tc.dec); got != tc.want {
			t.Errorf("ValidPosition(%v, %v) = %v, want %v", tc.ra, tc.dec, got, tc.want)
		}
	}
}
