// Package coords converts between equatorial sky coordinates, spherical
// angles and gnomonic tangent-plane coordinates. It holds no state.
package coords

import "math"

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

// EquatorialToAngular converts (ra, dec) in degrees to spherical angles in
// radians: theta = pi/2 - dec, phi = ra. dec outside [-90, 90] is not
// clamped and yields an undefined theta.
func EquatorialToAngular(ra, dec float64) (theta, phi float64) {
	return math.Pi/2 - dec*deg2rad, ra * deg2rad
}

// AngularToEquatorial is the inverse of EquatorialToAngular.
func AngularToEquatorial(theta, phi float64) (ra, dec float64) {
	return phi * rad2deg, (math.Pi/2 - theta) * rad2deg
}

// GnomonicProject projects (ra, dec) onto the plane tangent to the sphere
// at (ra0, dec0). All inputs are in degrees. The result is in degrees unless
// radians is set. Points on or beyond the horizon of the tangent point
// produce infinite or sign-flipped coordinates.
func GnomonicProject(ra0, dec0, ra, dec float64, radians bool) (x, y float64) {
	x0 := ra0 * deg2rad
	y0 := dec0 * deg2rad
	alpha := ra * deg2rad
	delta := dec * deg2rad

	sinY0, cosY0 := math.Sincos(y0)
	sinD, cosD := math.Sincos(delta)
	sinA, cosA := math.Sincos(alpha - x0)

	denom := cosY0*cosD*cosA + sinY0*sinD
	x = cosD * sinA / denom
	y = (cosY0*sinD - sinY0*cosD*cosA) / denom
	if radians {
		return x, y
	}
	return x * rad2deg, y * rad2deg
}

// TangentCosine returns the cosine of the angular distance between (ra, dec)
// and the tangent point (ra0, dec0), all in degrees. It is the denominator
// of the gnomonic projection: only points with a positive value lie on the
// near hemisphere where the projection is defined.
func TangentCosine(ra0, dec0, ra, dec float64) float64 {
	sinY0, cosY0 := math.Sincos(dec0 * deg2rad)
	sinD, cosD := math.Sincos(dec * deg2rad)
	return cosY0*cosD*math.Cos((ra-ra0)*deg2rad) + sinY0*sinD
}

// ValidPosition reports whether (ra, dec) in degrees is a usable sky
// position: both finite and |dec| <= 90.
func ValidPosition(ra, dec float64) bool {
	if math.IsNaN(ra) || math.IsInf(ra, 0) || math.IsNaN(dec) || math.IsInf(dec, 0) {
		return false
	}
	return dec >= -90 && dec <= 90
}

// GnomonicDeproject maps tangent-plane coordinates (x, y) in degrees about
// (ra0, dec0) back to (ra, dec) in degrees. The projection centre x=y=0
// maps to (ra0, dec0).
func GnomonicDeproject(ra0, dec0, x, y float64) (ra, dec float64) {
	x0 := ra0 * deg2rad
	y0 := dec0 * deg2rad
	xr := x * deg2rad
	yr := y * deg2rad

	z := math.Hypot(xr, yr)
	c := math.Atan(z)
	sinC, cosC := math.Sincos(c)
	sinY0, cosY0 := math.Sincos(y0)

	factor := 1.0
	if z != 0 {
		factor = yr / z
	}

	delta := math.Asin(cosC*sinY0 + factor*cosY0*sinC)
	denom := z*cosY0*cosC - yr*sinY0*sinC
	alpha := x0 + math.Atan2(xr*sinC, denom)

	return alpha * rad2deg, delta * rad2deg
}

// WrapRA folds ra (degrees) into [0, 360).
func WrapRA(ra float64) float64 {
	ra = math.Mod(ra, 360)
	if ra < 0 {
		ra += 360
	}
	return ra
}

// WrapPhi folds phi (radians) into [0, 2pi).
func WrapPhi(phi float64) float64 {
	phi = math.Mod(phi, 2*math.Pi)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	if phi >= 2*math.Pi {
		phi = 0
	}
	return phi
}
