// Package grid assigns catalog rows to pixels of a flat or spherical map.
//
// Every variant implements Grid. Pixel assignment is a pure function of
// (ra, dec) and the grid parameters; AssignPixels returns a new catalog
// carrying a pixel_index column and never mutates its input.
package grid

import (
	"github.com/banshee-data/massmap/internal/catalog"
	"github.com/banshee-data/massmap/internal/config"
	"github.com/banshee-data/massmap/internal/massmap"
	"github.com/banshee-data/massmap/internal/massmap/coords"
	"github.com/banshee-data/massmap/internal/massmap/healpix"
	"github.com/banshee-data/massmap/internal/massmap/sht"
	"github.com/banshee-data/massmap/internal/monitoring"
)

// Grid is the capability set shared by all pixelisations.
type Grid interface {
	Name() string
	NPix() int
	// Shape is the 2D layout for flat grids and the zero Shape otherwise.
	Shape() massmap.Shape
	// AssignPixels returns the rows that fall on the grid with a
	// pixel_index column added.
	AssignPixels(c *catalog.Catalog) (*catalog.Catalog, error)
	// Coordinates returns pixel-centre (ra, dec) in degrees, in pixel order.
	Coordinates() (ra, dec []float64)
}

// SphericalGrid is a grid backed by an iso-latitude sampling usable by the
// harmonic transforms.
type SphericalGrid interface {
	Grid
	Sampling() sht.Sampling
}

// FromConfig builds the grid described by a validated projection block.
func FromConfig(p *config.ProjectionConfig) (Grid, error) {
	if err := p.Validate("projection"); err != nil {
		return nil, err
	}
	switch p.GetType() {
	case config.ProjectionGnomonic:
		return NewFlat(p.GetNX(), p.GetNY(), p.GetPixelSize(), p.GetCenterRA(), p.GetCenterDec())
	case config.ProjectionHealpix:
		ord, err := healpix.ParseOrdering(p.GetOrdering())
		if err != nil {
			return nil, err
		}
		return NewHealpix(p.GetNSide(), ord)
	case config.ProjectionBandLimited:
		return NewBandLimited(p.GetL())
	}
	return nil, massmap.NotImplementedf("projection type %q", p.GetType())
}

// SamplingFromConfig builds the harmonic sampling of a spherical projection.
func SamplingFromConfig(p *config.ProjectionConfig) (sht.Sampling, error) {
	g, err := FromConfig(p)
	if err != nil {
		return nil, err
	}
	sg, ok := g.(SphericalGrid)
	if !ok {
		return nil, massmap.ConfigErrorf("projection %q is not spherical", p.GetType())
	}
	return sg.Sampling(), nil
}

// assignAngular adds pixel indices using an angular index function. Rows
// with a non-finite or out-of-range position are dropped.
func assignAngular(name string, c *catalog.Catalog, index func(theta, phi float64) int) (*catalog.Catalog, error) {
	ra, dec, err := c.Positions()
	if err != nil {
		return nil, err
	}
	pix := make([]int, len(ra))
	keep := make([]bool, len(ra))
	kept := 0
	for i := range ra {
		pix[i] = -1
		if coords.ValidPosition(ra[i], dec[i]) {
			pix[i] = index(angular(ra[i], dec[i]))
		}
		if pix[i] >= 0 {
			keep[i] = true
			kept++
		}
	}
	if dropped := len(ra) - kept; dropped > 0 {
		monitoring.Logf("grid %s: dropped %d of %d galaxies with invalid positions", name, dropped, len(ra))
	}

	indexed, err := c.WithInt(catalog.ColPixelIndex, pix)
	if err != nil {
		return nil, err
	}
	if kept == len(ra) {
		return indexed, nil
	}
	return indexed.Filter(keep)
}

// centresToEquatorial converts sampling centres to (ra, dec) degrees.
func centresToEquatorial(theta, phi []float64) (ra, dec []float64) {
	ra = make([]float64, len(theta))
	dec = make([]float64, len(theta))
	for i := range theta {
		ra[i], dec[i] = equatorial(theta[i], phi[i])
	}
	return ra, dec
}
