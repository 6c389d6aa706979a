package reconstruct

import (
	"fmt"
	"math"

	"github.com/banshee-data/massmap/internal/massmap"
	"github.com/banshee-data/massmap/internal/massmap/sht"
)

// SphericalKS decomposes the spin-2 shear field into E/B harmonic modes,
// converts them to convergence with sqrt(l(l+1)/((l+2)(l-1))) (zero for
// l < 2), optionally smooths, and synthesises both modes on Output.
type SphericalKS struct {
	Input  sht.Sampling
	Output sht.Sampling
	LMax   int
	// Iter is the number of refinement steps of the shear analysis.
	Iter int

	// SmoothingArcmin is the FWHM of an optional Gaussian beam.
	SmoothingArcmin float64

	FlipG1, FlipG2 bool
}

func (s *SphericalKS) Name() string {
	if s.Output != s.Input {
		return fmt.Sprintf("spherical_ks(%s->%s,lmax=%d)", s.Input.Name(), s.Output.Name(), s.LMax)
	}
	return fmt.Sprintf("spherical_ks(%s,lmax=%d)", s.Input.Name(), s.LMax)
}

// Reconstruct inverts a 1D shear map laid out on Input.
func (s *SphericalKS) Reconstruct(m *massmap.ShearMap) (*massmap.ConvergenceMap, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.NPix() != s.Input.NPix() {
		return nil, massmap.ShapeErrorf("shear map has %d pixels, %s has %d", m.NPix(), s.Input.Name(), s.Input.NPix())
	}
	g1, g2 := prepareShear(m, s.FlipG1, s.FlipG2)

	e, b, err := sht.AnalyzeSpin2Iter(s.Input, g1, g2, s.LMax, s.Iter)
	if err != nil {
		return nil, err
	}
	e = e.ScaleL(sht.SpinToScalar)
	b = b.ScaleL(sht.SpinToScalar)
	if s.SmoothingArcmin > 0 {
		fwhm := s.SmoothingArcmin / 60 * math.Pi / 180
		e = sht.Smooth(e, fwhm)
		b = sht.Smooth(b, fwhm)
	}

	out := &massmap.ConvergenceMap{
		KappaE: sht.Synthesize(s.Output, e),
		KappaB: sht.Synthesize(s.Output, b),
	}
	if s.Output == s.Input {
		out.N = m.N
	}
	return out, nil
}
