// Package healpix implements HEALPix pixel indexing in the RING and NESTED
// schemes: angle to pixel, pixel centres, and the iso-latitude ring layout
// used by the harmonic transforms.
package healpix

import (
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/massmap/internal/massmap"
)

// Ordering selects the HEALPix pixel numbering scheme.
type Ordering int

const (
	Ring Ordering = iota
	Nested
)

func (o Ordering) String() string {
	if o == Nested {
		return "NESTED"
	}
	return "RING"
}

// ParseOrdering accepts "RING" or "NESTED" (case-insensitive, "NEST" too).
// An empty string selects RING.
func ParseOrdering(s string) (Ordering, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "RING":
		return Ring, nil
	case "NESTED", "NEST":
		return Nested, nil
	}
	return Ring, massmap.NotImplementedf("healpix ordering %q", s)
}

// Base describes a HEALPix tessellation of the sphere.
type Base struct {
	nside    int
	ordering Ordering
	npface   int
	ncap     int
	npix     int
}

// New validates nside for the ordering and returns a Base. NESTED indexing
// needs nside to be a power of two.
func New(nside int, ordering Ordering) (*Base, error) {
	if nside < 1 {
		return nil, massmap.ConfigErrorf("healpix nside must be positive, got %d", nside)
	}
	if ordering == Nested && nside&(nside-1) != 0 {
		return nil, massmap.ConfigErrorf("healpix nside must be a power of two for NESTED ordering, got %d", nside)
	}
	return &Base{
		nside:    nside,
		ordering: ordering,
		npface:   nside * nside,
		ncap:     2 * nside * (nside - 1),
		npix:     12 * nside * nside,
	}, nil
}

// NSide returns the resolution parameter.
func (b *Base) NSide() int { return b.nside }

// Ordering returns the numbering scheme.
func (b *Base) Ordering() Ordering { return b.ordering }

// NPix returns 12*nside^2.
func (b *Base) NPix() int { return b.npix }

// NPix returns 12*nside^2 for the given nside.
func NPix(nside int) int { return 12 * nside * nside }

func (b *Base) String() string {
	return fmt.Sprintf("healpix(nside=%d, %s)", b.nside, b.ordering)
}

// Ang2Pix returns the pixel containing the direction (theta, phi) in radians,
// or -1 when either angle is not finite.
func (b *Base) Ang2Pix(theta, phi float64) int {
	if math.IsNaN(theta) || math.IsInf(theta, 0) || math.IsNaN(phi) || math.IsInf(phi, 0) {
		return -1
	}
	z := math.Cos(theta)
	if b.ordering == Nested {
		return b.zphi2nest(z, phi)
	}
	return b.zphi2ring(z, phi)
}

// normalised phi in units of pi/2, in [0, 4).
func phiToTT(phi float64) float64 {
	tt := math.Mod(phi, 2*math.Pi)
	if tt < 0 {
		tt += 2 * math.Pi
	}
	tt *= 2 / math.Pi
	if tt >= 4 {
		tt = 0
	}
	return tt
}

func imod(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

func (b *Base) zphi2ring(z, phi float64) int {
	n := b.nside
	za := math.Abs(z)
	tt := phiToTT(phi)

	if za <= 2.0/3.0 {
		temp1 := float64(n) * (0.5 + tt)
		temp2 := float64(n) * z * 0.75
		jp := int(temp1 - temp2)
		jm := int(temp1 + temp2)

		ir := n + 1 + jp - jm
		kshift := 1 - (ir & 1)
		ip := (jp + jm - n + kshift + 1) / 2
		ip = imod(ip, 4*n)
		return b.ncap + (ir-1)*4*n + ip
	}

	tp := tt - math.Floor(tt)
	tmp := float64(n) * math.Sqrt(3*(1-za))
	jp := int(tp * tmp)
	jm := int((1 - tp) * tmp)

	ir := jp + jm + 1
	ip := int(tt * float64(ir))
	ip = imod(ip, 4*ir)
	if z > 0 {
		return 2*ir*(ir-1) + ip
	}
	return b.npix - 2*ir*(ir+1) + ip
}

func (b *Base) zphi2nest(z, phi float64) int {
	n := b.nside
	za := math.Abs(z)
	tt := phiToTT(phi)

	var face, ix, iy int
	if za <= 2.0/3.0 {
		temp1 := float64(n) * (0.5 + tt)
		temp2 := float64(n) * (z * 0.75)
		jp := int(temp1 - temp2)
		jm := int(temp1 + temp2)
		ifp := jp / n
		ifm := jm / n
		switch {
		case ifp == ifm:
			face = ifp | 4
		case ifp < ifm:
			face = ifp
		default:
			face = ifm + 8
		}
		ix = jm & (n - 1)
		iy = n - (jp & (n - 1)) - 1
	} else {
		ntt := int(tt)
		if ntt > 3 {
			ntt = 3
		}
		tp := tt - float64(ntt)
		tmp := float64(n) * math.Sqrt(3*(1-za))
		jp := int(tp * tmp)
		jm := int((1 - tp) * tmp)
		if jp > n-1 {
			jp = n - 1
		}
		if jm > n-1 {
			jm = n - 1
		}
		if z >= 0 {
			face = ntt
			ix = n - jm - 1
			iy = n - jp - 1
		} else {
			face = ntt + 8
			ix = jp
			iy = jm
		}
	}
	ix = min(max(ix, 0), n-1)
	iy = min(max(iy, 0), n-1)
	return face*b.npface + int(spreadBits(uint(ix))|spreadBits(uint(iy))<<1)
}

// spreadBits interleaves zeros between the bits of v.
func spreadBits(v uint) uint {
	var out uint
	for bit := 0; v>>bit != 0; bit++ {
		out |= ((v >> bit) & 1) << (2 * bit)
	}
	return out
}

func isqrt(v int) int {
	return int(math.Sqrt(float64(v) + 0.5))
}

// Pix2AngRing returns the centre (theta, phi) of a RING-ordered pixel.
func (b *Base) Pix2AngRing(pix int) (theta, phi float64) {
	n := b.nside
	fact2 := 4 / float64(b.npix)
	var z float64
	switch {
	case pix < b.ncap:
		iring := (1 + isqrt(1+2*pix)) >> 1
		iphi := pix + 1 - 2*iring*(iring-1)
		z = 1 - float64(iring*iring)*fact2
		phi = (float64(iphi) - 0.5) * (math.Pi / 2) / float64(iring)
	case pix < b.npix-b.ncap:
		ip := pix - b.ncap
		iring := ip/(4*n) + n
		iphi := ip%(4*n) + 1
		fodd := 0.5
		if (iring+n)&1 != 0 {
			fodd = 1
		}
		z = float64(2*n-iring) * 2 / (3 * float64(n))
		phi = (float64(iphi) - fodd) * math.Pi / (2 * float64(n))
	default:
		ip := b.npix - pix
		iring := (1 + isqrt(2*ip-1)) >> 1
		iphi := 4*iring + 1 - (ip - 2*iring*(iring-1))
		z = -1 + float64(iring*iring)*fact2
		phi = (float64(iphi) - 0.5) * (math.Pi / 2) / float64(iring)
	}
	return math.Acos(z), phi
}

// RingInfo describes one iso-latitude ring of pixel centres. Pixel j of the
// ring sits at phi = Phi0 + 2*pi*j/Count.
type RingInfo struct {
	Index    int // 1-based ring number, north to south
	Theta    float64
	Phi0     float64
	Count    int
	StartPix int // first RING-scheme pixel of the ring
}

// Rings returns the 4*nside-1 rings from north to south.
func (b *Base) Rings() []RingInfo {
	n := b.nside
	nrings := 4*n - 1
	fact2 := 4 / float64(b.npix)
	rings := make([]RingInfo, 0, nrings)
	for i := 1; i <= nrings; i++ {
		var r RingInfo
		r.Index = i
		switch {
		case i < n:
			r.Count = 4 * i
			r.StartPix = 2 * i * (i - 1)
			r.Theta = math.Acos(1 - float64(i*i)*fact2)
			r.Phi0 = math.Pi / float64(r.Count)
		case i <= 3*n:
			r.Count = 4 * n
			r.StartPix = b.ncap + (i-n)*4*n
			r.Theta = math.Acos(float64(2*n-i) * 2 / (3 * float64(n)))
			if (i-n)&1 == 0 {
				r.Phi0 = math.Pi / float64(r.Count)
			}
		default:
			ir := 4*n - i
			r.Count = 4 * ir
			r.StartPix = b.npix - 2*ir*(ir+1)
			r.Theta = math.Acos(-1 + float64(ir*ir)*fact2)
			r.Phi0 = math.Pi / float64(r.Count)
		}
		rings = append(rings, r)
	}
	return rings
}

// RingPixels returns the pixel numbers of ring r in this Base's ordering,
// in increasing phi.
func (b *Base) RingPixels(r RingInfo) []int {
	pix := make([]int, r.Count)
	for j := range pix {
		if b.ordering == Ring {
			pix[j] = r.StartPix + j
			continue
		}
		phi := r.Phi0 + 2*math.Pi*float64(j)/float64(r.Count)
		pix[j] = b.zphi2nest(math.Cos(r.Theta), phi)
	}
	return pix
}

// Centres returns the (theta, phi) centre of every pixel, indexed by pixel
// number in this Base's ordering.
func (b *Base) Centres() (theta, phi []float64) {
	theta = make([]float64, b.npix)
	phi = make([]float64, b.npix)
	for _, r := range b.Rings() {
		for j, p := range b.RingPixels(r) {
			theta[p] = r.Theta
			phi[p] = r.Phi0 + 2*math.Pi*float64(j)/float64(r.Count)
		}
	}
	return theta, phi
}
