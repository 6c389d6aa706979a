// Package binning averages calibrated galaxy shear into per-pixel maps.
package binning

import (
	"math"

	"github.com/banshee-data/massmap/internal/catalog"
	"github.com/banshee-data/massmap/internal/massmap"
	"github.com/banshee-data/massmap/internal/massmap/grid"
)

// Options control map layout and empty-pixel handling.
type Options struct {
	// Shape lays the pixels out as a 2D map; the zero Shape keeps 1D.
	Shape massmap.Shape
	// Unseen fills empty pixels with massmap.Unseen instead of 0.
	Unseen bool
	// ShapeNoiseSigma, when positive, adds the sigma/sqrt(n) plane.
	ShapeNoiseSigma float64
}

// Bin computes the unweighted mean shear and galaxy count of every pixel.
func Bin(indices []int, g [][2]float64, npix int, opts Options) (*massmap.ShearMap, error) {
	if len(indices) != len(g) {
		return nil, massmap.ShapeErrorf("%d pixel indices for %d shear values", len(indices), len(g))
	}
	if npix < 1 {
		return nil, massmap.ShapeErrorf("npix must be positive, got %d", npix)
	}
	if opts.Shape.Is2D() && opts.Shape.Len() != npix {
		return nil, massmap.ShapeErrorf("shape %dx%d does not hold %d pixels", opts.Shape.NX, opts.Shape.NY, npix)
	}

	m := &massmap.ShearMap{
		G1:    make([]float64, npix),
		G2:    make([]float64, npix),
		N:     make([]int, npix),
		Shape: opts.Shape,
	}
	for i, p := range indices {
		if p < 0 || p >= npix {
			return nil, massmap.ShapeErrorf("pixel index %d of galaxy %d outside [0, %d)", p, i, npix)
		}
		m.G1[p] += g[i][0]
		m.G2[p] += g[i][1]
		m.N[p]++
	}

	empty := 0.0
	if opts.Unseen {
		empty = massmap.Unseen
	}
	for p, n := range m.N {
		if n == 0 {
			m.G1[p], m.G2[p] = empty, empty
			continue
		}
		m.G1[p] /= float64(n)
		m.G2[p] /= float64(n)
	}

	if opts.ShapeNoiseSigma > 0 {
		m.SigmaG = make([]float64, npix)
		for p, n := range m.N {
			if n > 0 {
				m.SigmaG[p] = opts.ShapeNoiseSigma / math.Sqrt(float64(n))
			}
		}
	}
	return m, nil
}

// BinCatalog bins a catalog carrying pixel_index and g_calibrated columns
// onto grid g. Flat grids also attach their pixel-centre coordinates.
func BinCatalog(c *catalog.Catalog, g grid.Grid, opts Options) (*massmap.ShearMap, error) {
	idx, err := c.Int(catalog.ColPixelIndex)
	if err != nil {
		return nil, err
	}
	shear, err := c.Vec2(catalog.ColGCalibrated)
	if err != nil {
		return nil, err
	}
	opts.Shape = g.Shape()
	m, err := Bin(idx, shear, g.NPix(), opts)
	if err != nil {
		return nil, err
	}
	if opts.Shape.Is2D() {
		m.GridRA, m.GridDec = g.Coordinates()
	}
	return m, nil
}
