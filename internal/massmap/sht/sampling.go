package sht

import (
	"fmt"
	"math"

	"github.com/banshee-data/massmap/internal/massmap"
	"github.com/banshee-data/massmap/internal/massmap/coords"
	"github.com/banshee-data/massmap/internal/massmap/healpix"
)

// Ring is one iso-latitude ring of a sampling. Pixel j of the ring sits at
// azimuth Phi0 + 2*pi*j/len(Pixels).
type Ring struct {
	Theta  float64
	Phi0   float64
	Pixels []int
	// Weight is the quadrature solid angle per pixel.
	Weight float64
}

// Sampling is an iso-latitude pixelisation of the sphere.
type Sampling interface {
	Name() string
	NPix() int
	Rings() []Ring
	// MaxL is the largest multipole the sampling resolves.
	MaxL() int
	// Index maps a co-latitude/longitude in radians to a pixel index.
	Index(theta, phi float64) int
	// Centres returns the (theta, phi) of every pixel, in pixel order.
	Centres() (theta, phi []float64)
}

// spectrumSource is implemented by samplings with an analysis rule better
// than per-ring quadrature.
type spectrumSource interface {
	nodeSpectra(f []complex128, spin, lmax int) []nodeSpectrum
}

// nodeSpectrum carries 2*pi-normalised azimuthal Fourier coefficients of a
// field at one co-latitude, ready to be projected onto d^l_{m,-s}.
type nodeSpectrum struct {
	theta  float64
	weight float64
	fm     []complex128 // index m + lmax
}

// HealpixSampling adapts a HEALPix base to the ring interface.
type HealpixSampling struct {
	base  *healpix.Base
	rings []Ring
}

// NewHealpixSampling builds the ring decomposition of a HEALPix base.
func NewHealpixSampling(base *healpix.Base) *HealpixSampling {
	w := 4 * math.Pi / float64(base.NPix())
	info := base.Rings()
	rings := make([]Ring, len(info))
	for i, r := range info {
		rings[i] = Ring{Theta: r.Theta, Phi0: r.Phi0, Pixels: base.RingPixels(r), Weight: w}
	}
	return &HealpixSampling{base: base, rings: rings}
}

// Base returns the underlying HEALPix base.
func (h *HealpixSampling) Base() *healpix.Base { return h.base }

func (h *HealpixSampling) Name() string {
	return fmt.Sprintf("healpix(nside=%d,%s)", h.base.NSide(), h.base.Ordering())
}

func (h *HealpixSampling) NPix() int     { return h.base.NPix() }
func (h *HealpixSampling) Rings() []Ring { return h.rings }
func (h *HealpixSampling) MaxL() int     { return 3*h.base.NSide() - 1 }
func (h *HealpixSampling) Index(theta, phi float64) int {
	return h.base.Ang2Pix(theta, phi)
}

func (h *HealpixSampling) Centres() (theta, phi []float64) {
	return h.base.Centres()
}

// MWSampling is the equiangular band-limited sampling of McEwen & Wiaux for
// band limit L: L rings at theta_t = pi(2t+1)/(2L-1), the last on the south
// pole, each with 2L-1 samples at phi_p = 2*pi*p/(2L-1). Pixels are ordered
// theta-major: index = t*(2L-1) + p.
type MWSampling struct {
	L int
}

// NewMWSampling validates the band limit.
func NewMWSampling(l int) (*MWSampling, error) {
	if l < 1 {
		return nil, massmap.ConfigErrorf("band limit must be >= 1, got %d", l)
	}
	return &MWSampling{L: l}, nil
}

func (s *MWSampling) Name() string { return fmt.Sprintf("mw(L=%d)", s.L) }

// NTheta is the number of rings.
func (s *MWSampling) NTheta() int { return s.L }

// NPhi is the number of samples per ring.
func (s *MWSampling) NPhi() int { return 2*s.L - 1 }

func (s *MWSampling) NPix() int { return s.NTheta() * s.NPhi() }
func (s *MWSampling) MaxL() int { return s.L - 1 }

// Theta returns the co-latitude of ring t.
func (s *MWSampling) Theta(t int) float64 {
	return math.Pi * float64(2*t+1) / float64(2*s.L-1)
}

// Phi returns the longitude of sample p.
func (s *MWSampling) Phi(p int) float64 {
	return 2 * math.Pi * float64(p) / float64(2*s.L-1)
}

// cellEps absorbs round-off when a coordinate sits exactly on a sample, so
// sample centres always index their own cell.
const cellEps = 1e-10

// ThetaIndex returns floor((theta(2L-1)/pi - 1)/2) clamped to the ring range.
// Ring t owns [theta_t, theta_t+1).
func (s *MWSampling) ThetaIndex(theta float64) int {
	n := float64(2*s.L - 1)
	t := int(math.Floor((theta*n/math.Pi-1)/2 + cellEps))
	return min(max(t, 0), s.L-1)
}

// PhiIndex returns floor(phi(2L-1)/(2pi)) after wrapping phi to [0, 2pi).
// Sample p owns [phi_p, phi_p+1).
func (s *MWSampling) PhiIndex(phi float64) int {
	n := 2*s.L - 1
	p := int(math.Floor(coords.WrapPhi(phi)*float64(n)/(2*math.Pi) + cellEps))
	if p >= n {
		p -= n
	}
	return max(p, 0)
}

// Index returns the pixel containing (theta, phi), or -1 when either angle
// is not finite.
func (s *MWSampling) Index(theta, phi float64) int {
	if math.IsNaN(theta) || math.IsInf(theta, 0) || math.IsNaN(phi) || math.IsInf(phi, 0) {
		return -1
	}
	return s.ThetaIndex(theta)*s.NPhi() + s.PhiIndex(phi)
}

func (s *MWSampling) Centres() (theta, phi []float64) {
	theta = make([]float64, s.NPix())
	phi = make([]float64, s.NPix())
	for t := 0; t < s.NTheta(); t++ {
		for p := 0; p < s.NPhi(); p++ {
			i := t*s.NPhi() + p
			theta[i] = s.Theta(t)
			phi[i] = s.Phi(p)
		}
	}
	return theta, phi
}

// Rings returns theta-major rings. Weights are approximate band areas; the
// exact analysis path does not use them.
func (s *MWSampling) Rings() []Ring {
	nphi := s.NPhi()
	dt := math.Pi / float64(2*s.L-1)
	out := make([]Ring, s.NTheta())
	for t := range out {
		th := s.Theta(t)
		lo := math.Max(th-dt, 0)
		hi := math.Min(th+dt, math.Pi)
		px := make([]int, nphi)
		for p := range px {
			px[p] = t*nphi + p
		}
		out[t] = Ring{
			Theta:  th,
			Pixels: px,
			Weight: 2 * math.Pi * (math.Cos(lo) - math.Cos(hi)) / float64(nphi),
		}
	}
	return out
}
