package massmap

import "math"

// Unseen is the sentinel written into empty pixels when the unseen policy
// is selected. It matches the HEALPix convention for unobserved sky.
const Unseen = -1.6375e30

// IsUnseen reports whether v carries the Unseen sentinel.
func IsUnseen(v float64) bool {
	return math.Abs(v-Unseen) <= 1e-5*math.Abs(Unseen)
}

// Shape describes a 2D map stored row-major with NY rows of NX columns,
// so that pixel index = row*NX + col. The zero Shape means a 1D pixel
// sequence (spherical grids).
type Shape struct {
	NX int
	NY int
}

// Is2D reports whether the shape describes a flat 2D map.
func (s Shape) Is2D() bool { return s.NX > 0 && s.NY > 0 }

// Len returns the number of pixels described by the shape, or 0 for 1D.
func (s Shape) Len() int {
	if !s.Is2D() {
		return 0
	}
	return s.NX * s.NY
}

// Dims returns the plane dimensions for writers: [NY, NX] for 2D maps and
// [npix] otherwise.
func (s Shape) Dims(npix int) []int {
	if s.Is2D() {
		return []int{s.NY, s.NX}
	}
	return []int{npix}
}

// Plane is one named, typed image-like record handed to a writer.
// Data is row-major over Dims.
type Plane struct {
	Tag  string
	Dims []int
	Data []float64
}

// Plane tags produced by the reconstruction chain.
const (
	TagG1      = "g1"
	TagG2      = "g2"
	TagCount   = "n"
	TagGridRA  = "grid_ra"
	TagGridDec = "grid_dec"
	TagSigmaG  = "sigma_g"
	TagKappaE  = "kappa_e"
	TagKappaB  = "kappa_b"
)

// ShearMap holds per-pixel mean calibrated shear and galaxy counts.
// Pixels with N == 0 carry 0 (or Unseen under the unseen policy) and
// callers needing a validity mask must consult N.
type ShearMap struct {
	G1    []float64
	G2    []float64
	N     []int
	Shape Shape

	// GridRA and GridDec hold pixel-centre coordinates for flat grids.
	GridRA  []float64
	GridDec []float64

	// SigmaG is the expected per-pixel shape-noise amplitude, set only when
	// a shape-noise sigma was configured.
	SigmaG []float64
}

// NPix returns the number of pixels in the map.
func (m *ShearMap) NPix() int { return len(m.G1) }

// Validate checks that all per-pixel arrays agree in length and with Shape.
func (m *ShearMap) Validate() error {
	if m == nil {
		return ShapeErrorf("nil shear map")
	}
	n := len(m.G1)
	if len(m.G2) != n {
		return ShapeErrorf("g1 has %d pixels, g2 has %d", n, len(m.G2))
	}
	if m.N != nil && len(m.N) != n {
		return ShapeErrorf("count map has %d pixels, shear has %d", len(m.N), n)
	}
	if m.Shape.Is2D() && m.Shape.Len() != n {
		return ShapeErrorf("shape %dx%d does not hold %d pixels", m.Shape.NX, m.Shape.NY, n)
	}
	return nil
}

// Counts returns the count map as float64 for writers.
func (m *ShearMap) Counts() []float64 {
	out := make([]float64, len(m.N))
	for i, c := range m.N {
		out[i] = float64(c)
	}
	return out
}

// Planes returns the shear map records, primary signal first.
func (m *ShearMap) Planes() []Plane {
	dims := m.Shape.Dims(m.NPix())
	planes := []Plane{
		{Tag: TagG1, Dims: dims, Data: m.G1},
		{Tag: TagG2, Dims: dims, Data: m.G2},
		{Tag: TagCount, Dims: dims, Data: m.Counts()},
	}
	if m.GridRA != nil {
		planes = append(planes,
			Plane{Tag: TagGridRA, Dims: dims, Data: m.GridRA},
			Plane{Tag: TagGridDec, Dims: dims, Data: m.GridDec},
		)
	}
	if m.SigmaG != nil {
		planes = append(planes, Plane{Tag: TagSigmaG, Dims: dims, Data: m.SigmaG})
	}
	return planes
}

// ConvergenceMap is the terminal output of a reconstruction.
type ConvergenceMap struct {
	KappaE []float64
	KappaB []float64
	Shape  Shape

	// N is carried over from the shear map when the output sampling matches
	// the input sampling; nil otherwise.
	N []int

	GridRA  []float64
	GridDec []float64
}

// NPix returns the number of pixels in the map.
func (c *ConvergenceMap) NPix() int { return len(c.KappaE) }

// Planes returns the convergence records, E-mode first.
func (c *ConvergenceMap) Planes() []Plane {
	dims := c.Shape.Dims(c.NPix())
	planes := []Plane{
		{Tag: TagKappaE, Dims: dims, Data: c.KappaE},
		{Tag: TagKappaB, Dims: dims, Data: c.KappaB},
	}
	if c.N != nil {
		counts := make([]float64, len(c.N))
		for i, n := range c.N {
			counts[i] = float64(n)
		}
		planes = append(planes, Plane{Tag: TagCount, Dims: dims, Data: counts})
	}
	if c.GridRA != nil {
		planes = append(planes,
			Plane{Tag: TagGridRA, Dims: dims, Data: c.GridRA},
			Plane{Tag: TagGridDec, Dims: dims, Data: c.GridDec},
		)
	}
	return planes
}
