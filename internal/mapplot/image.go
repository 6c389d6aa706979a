// Package mapplot renders map planes as PNG and HTML heat maps.
package mapplot

import (
	"fmt"
	"math"

	"github.com/banshee-data/massmap/internal/massmap"
	"github.com/banshee-data/massmap/internal/massmap/sht"
)

// Image is a row-major NY x NX raster with an axis extent. Unseen pixels
// are NaN. It implements plotter.GridXYZ.
type Image struct {
	Title          string
	XLabel, YLabel string
	NX, NY         int
	Data           []float64
	// Extent of the raster: pixel centres run from X0 to X1 and Y0 to Y1.
	X0, X1, Y0, Y1 float64
}

// FromPlane wraps a 2D plane. Pixel coordinates are used for the axes.
func FromPlane(p massmap.Plane) (*Image, error) {
	if len(p.Dims) != 2 {
		return nil, massmap.ShapeErrorf("plane %s has dims %v; use Equirectangular for spherical planes", p.Tag, p.Dims)
	}
	ny, nx := p.Dims[0], p.Dims[1]
	if nx*ny != len(p.Data) {
		return nil, massmap.ShapeErrorf("plane %s: %dx%d dims for %d values", p.Tag, nx, ny, len(p.Data))
	}
	img := &Image{
		Title:  p.Tag,
		XLabel: "column",
		YLabel: "row",
		NX:     nx,
		NY:     ny,
		Data:   make([]float64, len(p.Data)),
		X0:     0,
		X1:     float64(nx - 1),
		Y0:     0,
		Y1:     float64(ny - 1),
	}
	for i, v := range p.Data {
		img.Data[i] = maskUnseen(v)
	}
	return img, nil
}

// Equirectangular resamples a spherical plane laid out on s onto an
// nx x ny grid in (ra, dec) degrees by nearest pixel lookup.
func Equirectangular(p massmap.Plane, s sht.Sampling, nx, ny int) (*Image, error) {
	if len(p.Data) != s.NPix() {
		return nil, massmap.ShapeErrorf("plane %s has %d values, %s has %d pixels", p.Tag, len(p.Data), s.Name(), s.NPix())
	}
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("raster must be at least 1x1, got %dx%d", nx, ny)
	}
	img := &Image{
		Title:  p.Tag,
		XLabel: "RA (deg)",
		YLabel: "Dec (deg)",
		NX:     nx,
		NY:     ny,
		Data:   make([]float64, nx*ny),
		X0:     180.0 / float64(nx),
		X1:     360 - 180.0/float64(nx),
		Y0:     -90 + 90.0/float64(ny),
		Y1:     90 - 90.0/float64(ny),
	}
	for row := 0; row < ny; row++ {
		dec := img.Y(row)
		theta := math.Pi/2 - dec*math.Pi/180
		for col := 0; col < nx; col++ {
			phi := img.X(col) * math.Pi / 180
			img.Data[row*nx+col] = maskUnseen(p.Data[s.Index(theta, phi)])
		}
	}
	return img, nil
}

func maskUnseen(v float64) float64 {
	if massmap.IsUnseen(v) {
		return math.NaN()
	}
	return v
}

func (m *Image) Dims() (c, r int)   { return m.NX, m.NY }
func (m *Image) Z(c, r int) float64 { return m.Data[r*m.NX+c] }
func (m *Image) X(c int) float64    { return lerp(m.X0, m.X1, c, m.NX) }
func (m *Image) Y(r int) float64    { return lerp(m.Y0, m.Y1, r, m.NY) }
func lerp(a, b float64, i, n int) float64 {
	if n < 2 {
		return a
	}
	return a + (b-a)*float64(i)/float64(n-1)
}

// Range returns the finite min and max of the data. An all-NaN or constant
// image gets a unit-width range.
func (m *Image) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range m.Data {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if hi <= lo {
		return lo - 0.5, lo + 0.5
	}
	return lo, hi
}
