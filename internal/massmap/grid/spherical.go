package grid

import (
	"github.com/banshee-data/massmap/internal/catalog"
	"github.com/banshee-data/massmap/internal/massmap"
	"github.com/banshee-data/massmap/internal/massmap/coords"
	"github.com/banshee-data/massmap/internal/massmap/healpix"
	"github.com/banshee-data/massmap/internal/massmap/sht"
)

var (
	angular    = coords.EquatorialToAngular
	equatorial = coords.AngularToEquatorial
)

// Healpix indexes galaxies with HEALPix ang2pix. Only galaxies without a
// valid position are dropped.
type Healpix struct {
	sampling *sht.HealpixSampling
}

// NewHealpix validates nside for the ordering.
func NewHealpix(nside int, ordering healpix.Ordering) (*Healpix, error) {
	base, err := healpix.New(nside, ordering)
	if err != nil {
		return nil, err
	}
	return &Healpix{sampling: sht.NewHealpixSampling(base)}, nil
}

func (h *Healpix) Name() string           { return h.sampling.Name() }
func (h *Healpix) NPix() int              { return h.sampling.NPix() }
func (h *Healpix) Shape() massmap.Shape   { return massmap.Shape{} }
func (h *Healpix) Sampling() sht.Sampling { return h.sampling }
func (h *Healpix) Base() *healpix.Base    { return h.sampling.Base() }

func (h *Healpix) AssignPixels(c *catalog.Catalog) (*catalog.Catalog, error) {
	return assignAngular(h.Name(), c, h.sampling.Index)
}

func (h *Healpix) Coordinates() (ra, dec []float64) {
	return centresToEquatorial(h.sampling.Centres())
}

// BandLimited indexes galaxies on the MW sampling of band limit L, pixel
// index theta_index*n_phi + phi_index, the same ordering the harmonic
// transforms use. Only galaxies without a valid position are dropped.
type BandLimited struct {
	sampling *sht.MWSampling
}

func NewBandLimited(l int) (*BandLimited, error) {
	s, err := sht.NewMWSampling(l)
	if err != nil {
		return nil, err
	}
	return &BandLimited{sampling: s}, nil
}

func (b *BandLimited) Name() string           { return b.sampling.Name() }
func (b *BandLimited) NPix() int              { return b.sampling.NPix() }
func (b *BandLimited) Shape() massmap.Shape   { return massmap.Shape{} }
func (b *BandLimited) Sampling() sht.Sampling { return b.sampling }

func (b *BandLimited) AssignPixels(c *catalog.Catalog) (*catalog.Catalog, error) {
	return assignAngular(b.Name(), c, b.sampling.Index)
}

func (b *BandLimited) Coordinates() (ra, dec []float64) {
	return centresToEquatorial(b.sampling.Centres())
}
