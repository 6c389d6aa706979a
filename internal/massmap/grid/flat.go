package grid

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/massmap/internal/catalog"
	"github.com/banshee-data/massmap/internal/massmap"
	"github.com/banshee-data/massmap/internal/massmap/coords"
	"github.com/banshee-data/massmap/internal/monitoring"
)

// Flat is an NX by NY grid on the gnomonic tangent plane about
// (CenterRA, CenterDec). Edges span +-N/2 pixels on each axis; pixel index
// is row*NX + col with rows along y (dec) and columns along x (ra).
type Flat struct {
	NX, NY    int
	PixelSize float64 // arcmin
	CenterRA  float64
	CenterDec float64

	edgesX []float64
	edgesY []float64
}

// NewFlat validates the grid parameters and builds the bin edges.
func NewFlat(nx, ny int, pixelSizeArcmin, centerRA, centerDec float64) (*Flat, error) {
	if nx < 1 || ny < 1 {
		return nil, massmap.ConfigErrorf("flat grid needs positive nx, ny, got %d, %d", nx, ny)
	}
	if pixelSizeArcmin <= 0 {
		return nil, massmap.ConfigErrorf("flat grid needs positive pixel_size, got %g", pixelSizeArcmin)
	}
	deg := pixelSizeArcmin / 60
	halfX := float64(nx) / 2 * deg
	halfY := float64(ny) / 2 * deg
	return &Flat{
		NX:        nx,
		NY:        ny,
		PixelSize: pixelSizeArcmin,
		CenterRA:  centerRA,
		CenterDec: centerDec,
		edgesX:    floats.Span(make([]float64, nx+1), -halfX, halfX),
		edgesY:    floats.Span(make([]float64, ny+1), -halfY, halfY),
	}, nil
}

func (f *Flat) Name() string {
	return fmt.Sprintf("gnomonic(%dx%d,%.3garcmin@%.4g,%.4g)", f.NX, f.NY, f.PixelSize, f.CenterRA, f.CenterDec)
}

func (f *Flat) NPix() int               { return f.NX * f.NY }
func (f *Flat) Shape() massmap.Shape    { return massmap.Shape{NX: f.NX, NY: f.NY} }
func (f *Flat) Edges() (x, y []float64) { return f.edgesX, f.edgesY }

// PixelIndex returns the pixel containing (ra, dec), or -1 when the point
// falls outside [edges[0], edges[-1]) on either axis, is not a valid
// position, or lies on the far hemisphere of the tangent point.
func (f *Flat) PixelIndex(ra, dec float64) int {
	if !coords.ValidPosition(ra, dec) || coords.TangentCosine(f.CenterRA, f.CenterDec, ra, dec) <= 0 {
		return -1
	}
	x, y := coords.GnomonicProject(f.CenterRA, f.CenterDec, ra, dec, false)
	col := floats.Within(f.edgesX, x)
	row := floats.Within(f.edgesY, y)
	if col < 0 || row < 0 {
		return -1
	}
	return row*f.NX + col
}

// AssignPixels drops rows outside the patch and indexes the rest.
func (f *Flat) AssignPixels(c *catalog.Catalog) (*catalog.Catalog, error) {
	ra, dec, err := c.Positions()
	if err != nil {
		return nil, err
	}
	pix := make([]int, len(ra))
	keep := make([]bool, len(ra))
	kept := 0
	for i := range ra {
		pix[i] = f.PixelIndex(ra[i], dec[i])
		if pix[i] >= 0 {
			keep[i] = true
			kept++
		}
	}
	if dropped := len(ra) - kept; dropped > 0 {
		monitoring.Logf("grid %s: dropped %d of %d galaxies outside the patch", f.Name(), dropped, len(ra))
	}

	indexed, err := c.WithInt(catalog.ColPixelIndex, pix)
	if err != nil {
		return nil, err
	}
	return indexed.Filter(keep)
}

// Coordinates returns the deprojected pixel centres, row-major.
func (f *Flat) Coordinates() (ra, dec []float64) {
	ra = make([]float64, f.NPix())
	dec = make([]float64, f.NPix())
	for row := 0; row < f.NY; row++ {
		y := 0.5 * (f.edgesY[row] + f.edgesY[row+1])
		for col := 0; col < f.NX; col++ {
			x := 0.5 * (f.edgesX[col] + f.edgesX[col+1])
			r, d := coords.GnomonicDeproject(f.CenterRA, f.CenterDec, x, y)
			ra[row*f.NX+col] = coords.WrapRA(r)
			dec[row*f.NX+col] = d
		}
	}
	return ra, dec
}
