package sht

import (
	"math"
	"math/cmplx"
)

// Alm holds harmonic coefficients a_lm for 0 <= l <= LMax and -l <= m <= l.
type Alm struct {
	LMax   int
	Coeffs []complex128
}

// NewAlm allocates a zeroed coefficient set.
func NewAlm(lmax int) *Alm {
	return &Alm{LMax: lmax, Coeffs: make([]complex128, (lmax+1)*(lmax+1))}
}

// Index returns the storage offset of (l, m).
func (a *Alm) Index(l, m int) int { return l*l + l + m }

// At returns a_lm, or 0 outside the stored range.
func (a *Alm) At(l, m int) complex128 {
	if l < 0 || l > a.LMax || m < -l || m > l {
		return 0
	}
	return a.Coeffs[a.Index(l, m)]
}

// Set stores a_lm.
func (a *Alm) Set(l, m int, v complex128) {
	a.Coeffs[a.Index(l, m)] = v
}

// Clone returns an independent copy.
func (a *Alm) Clone() *Alm {
	out := NewAlm(a.LMax)
	copy(out.Coeffs, a.Coeffs)
	return out
}

// ScaleL returns a copy with every a_lm multiplied by f(l).
func (a *Alm) ScaleL(f func(l int) float64) *Alm {
	out := NewAlm(a.LMax)
	for l := 0; l <= a.LMax; l++ {
		s := complex(f(l), 0)
		for m := -l; m <= l; m++ {
			i := a.Index(l, m)
			out.Coeffs[i] = a.Coeffs[i] * s
		}
	}
	return out
}

// Truncate returns a copy limited to multipoles <= lmax.
func (a *Alm) Truncate(lmax int) *Alm {
	if lmax >= a.LMax {
		return a.Clone()
	}
	out := NewAlm(lmax)
	copy(out.Coeffs, a.Coeffs[:len(out.Coeffs)])
	return out
}

// MaxAbsDiff returns max |a_lm - b_lm| over the common range.
func (a *Alm) MaxAbsDiff(b *Alm) float64 {
	lmax := a.LMax
	if b.LMax < lmax {
		lmax = b.LMax
	}
	worst := 0.0
	for i := 0; i < (lmax+1)*(lmax+1); i++ {
		worst = math.Max(worst, cmplx.Abs(a.Coeffs[i]-b.Coeffs[i]))
	}
	return worst
}

// SpinToScalar is the Kaiser-Squires harmonic kernel
// sqrt(l(l+1) / ((l+2)(l-1))) mapping spin-2 shear E/B modes to spin-0
// convergence. It is zero for l < 2 where spin-2 modes are undefined.
func SpinToScalar(l int) float64 {
	if l < 2 {
		return 0
	}
	fl := float64(l)
	return math.Sqrt(fl * (fl + 1) / ((fl + 2) * (fl - 1)))
}

// GaussianBeam returns the harmonic window exp(-l(l+1) sigma^2 / 2) for a
// Gaussian of the given FWHM in radians.
func GaussianBeam(fwhm float64) func(l int) float64 {
	sigma := fwhm / math.Sqrt(8*math.Ln2)
	return func(l int) float64 {
		fl := float64(l)
		return math.Exp(-fl * (fl + 1) * sigma * sigma / 2)
	}
}

// Smooth applies a Gaussian beam of the given FWHM (radians). A non-positive
// FWHM returns an unmodified copy.
func Smooth(a *Alm, fwhm float64) *Alm {
	if fwhm <= 0 {
		return a.Clone()
	}
	return a.ScaleL(GaussianBeam(fwhm))
}
