package reconstruct

import (
	"math"

	"github.com/banshee-data/massmap/internal/config"
	"github.com/banshee-data/massmap/internal/massmap"
	"github.com/banshee-data/massmap/internal/massmap/grid"
	"github.com/banshee-data/massmap/internal/massmap/sht"
)

// Reconstructor turns a shear map into a convergence map.
type Reconstructor interface {
	Name() string
	Reconstruct(m *massmap.ShearMap) (*massmap.ConvergenceMap, error)
}

// New resolves the algorithm tag against the input grid.
func New(cfg *config.AlgorithmConfig, g grid.Grid) (Reconstructor, error) {
	switch cfg.GetName() {
	case config.AlgorithmFlatKS:
		f, ok := g.(*grid.Flat)
		if !ok {
			return nil, massmap.ConfigErrorf("flat_ks requires a gnomonic grid, got %s", g.Name())
		}
		if cfg.Output != nil {
			return nil, massmap.ConfigErrorf("flat_ks does not support algorithm.output")
		}
		if cfg.GetZeroPadding() < 0 {
			return nil, massmap.ConfigErrorf("zero_padding must be non-negative, got %d", cfg.GetZeroPadding())
		}
		return &FlatKS{
			NX:              f.NX,
			NY:              f.NY,
			PixelArcmin:     f.PixelSize,
			SmoothingArcmin: cfg.GetSmoothing(),
			ZeroPadding:     cfg.GetZeroPadding(),
			FlipG1:          cfg.GetFlipG1(),
			FlipG2:          cfg.GetFlipG2(),
		}, nil

	case config.AlgorithmHealpixKS, config.AlgorithmSphericalKS:
		sg, ok := g.(grid.SphericalGrid)
		if !ok {
			return nil, massmap.ConfigErrorf("%s requires a spherical grid, got %s", cfg.GetName(), g.Name())
		}
		if _, isHP := g.(*grid.Healpix); cfg.GetName() == config.AlgorithmHealpixKS && !isHP {
			return nil, massmap.ConfigErrorf("healpix_ks requires a healpix grid, got %s", g.Name())
		}
		in := sg.Sampling()
		out := in
		if cfg.Output != nil {
			if cfg.GetName() != config.AlgorithmSphericalKS {
				return nil, massmap.ConfigErrorf("algorithm.output is only supported by spherical_ks")
			}
			var err error
			if out, err = grid.SamplingFromConfig(cfg.Output); err != nil {
				return nil, err
			}
		}
		lmax := cfg.GetLMax(in.MaxL())
		if lmax < 0 {
			return nil, massmap.ConfigErrorf("lmax must be non-negative, got %d", lmax)
		}
		for _, s := range []sht.Sampling{in, out} {
			if _, mw := s.(*sht.MWSampling); mw && lmax > s.MaxL() {
				return nil, massmap.ConfigErrorf("lmax %d exceeds the band limit of %s", lmax, s.Name())
			}
		}
		if cfg.GetSmoothing() < 0 {
			return nil, massmap.ConfigErrorf("smoothing must be non-negative, got %g", cfg.GetSmoothing())
		}
		return &SphericalKS{
			Input:           in,
			Output:          out,
			LMax:            lmax,
			Iter:            cfg.GetIter(),
			SmoothingArcmin: cfg.GetSmoothing(),
			FlipG1:          cfg.GetFlipG1(),
			FlipG2:          cfg.GetFlipG2(),
		}, nil

	case "":
		return nil, massmap.ConfigErrorf("algorithm.name is required")
	}
	return nil, massmap.NotImplementedf("algorithm %q", cfg.GetName())
}

// prepareShear copies g1/g2, zeroing Unseen pixels and applying sign flips
// to the remaining ones.
func prepareShear(m *massmap.ShearMap, flip1, flip2 bool) (g1, g2 []float64) {
	s1, s2 := 1.0, 1.0
	if flip1 {
		s1 = -1
	}
	if flip2 {
		s2 = -1
	}
	g1 = make([]float64, len(m.G1))
	g2 = make([]float64, len(m.G2))
	for i := range m.G1 {
		if massmap.IsUnseen(m.G1[i]) || massmap.IsUnseen(m.G2[i]) {
			continue
		}
		g1[i] = s1 * m.G1[i]
		g2[i] = s2 * m.G2[i]
	}
	return g1, g2
}

// fwhmToSigma converts a Gaussian FWHM into its standard deviation.
func fwhmToSigma(fwhm float64) float64 {
	return fwhm / math.Sqrt(8*math.Ln2)
}
