package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// Canonical column names.
const (
	ColRA          = "ra"
	ColDec         = "dec"
	ColShear1      = "shear_1"
	ColShear2      = "shear_2"
	ColG           = "g"
	ColG1P         = "g_1p"
	ColG1M         = "g_1m"
	ColG2P         = "g_2p"
	ColG2M         = "g_2m"
	ColPixelIndex  = "pixel_index"
	ColGCalibrated = "g_calibrated"
)

// ErrMissingColumn is returned when a named column is absent or has a
// different kind than requested.
var ErrMissingColumn = errors.New("missing column")

// Format names the shear columns a catalog carries.
type Format string

const (
	// FormatMetacal carries g, g_1p, g_1m, g_2p and g_2m as 2-vectors.
	FormatMetacal Format = "metacal"
	// FormatShear carries shear_1 and shear_2 scalars.
	FormatShear Format = "shear"
)

// Catalog is an immutable table of equal-length named columns. Columns are
// float64 scalars, float64 2-vectors or ints. Slices returned by accessors
// are shared with the catalog and must not be modified.
type Catalog struct {
	n      int
	floats map[string][]float64
	vecs   map[string][][2]float64
	ints   map[string][]int
}

// New returns an empty catalog of n rows.
func New(n int) *Catalog {
	return &Catalog{
		n:      n,
		floats: map[string][]float64{},
		vecs:   map[string][][2]float64{},
		ints:   map[string][]int{},
	}
}

// FromPositions returns a catalog holding ra and dec.
func FromPositions(ra, dec []float64) (*Catalog, error) {
	c := New(len(ra))
	c, err := c.WithFloat(ColRA, ra)
	if err != nil {
		return nil, err
	}
	return c.WithFloat(ColDec, dec)
}

// Len returns the number of rows.
func (c *Catalog) Len() int { return c.n }

// Columns returns the sorted column names.
func (c *Catalog) Columns() []string {
	var names []string
	for k := range c.floats {
		names = append(names, k)
	}
	for k := range c.vecs {
		names = append(names, k)
	}
	for k := range c.ints {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a column of any kind exists.
func (c *Catalog) Has(name string) bool {
	_, f := c.floats[name]
	_, v := c.vecs[name]
	_, i := c.ints[name]
	return f || v || i
}

func (c *Catalog) clone() *Catalog {
	out := New(c.n)
	for k, v := range c.floats {
		out.floats[k] = v
	}
	for k, v := range c.vecs {
		out.vecs[k] = v
	}
	for k, v := range c.ints {
		out.ints[k] = v
	}
	return out
}

func (c *Catalog) dropName(name string) {
	delete(c.floats, name)
	delete(c.vecs, name)
	delete(c.ints, name)
}

func (c *Catalog) checkLen(name string, n int) error {
	if n != c.n {
		return fmt.Errorf("column %q has %d rows, catalog has %d", name, n, c.n)
	}
	return nil
}

// WithFloat returns a catalog with the scalar column added or replaced.
func (c *Catalog) WithFloat(name string, v []float64) (*Catalog, error) {
	if err := c.checkLen(name, len(v)); err != nil {
		return nil, err
	}
	out := c.clone()
	out.dropName(name)
	out.floats[name] = v
	return out, nil
}

// WithVec2 returns a catalog with the 2-vector column added or replaced.
func (c *Catalog) WithVec2(name string, v [][2]float64) (*Catalog, error) {
	if err := c.checkLen(name, len(v)); err != nil {
		return nil, err
	}
	out := c.clone()
	out.dropName(name)
	out.vecs[name] = v
	return out, nil
}

// WithInt returns a catalog with the integer column added or replaced.
func (c *Catalog) WithInt(name string, v []int) (*Catalog, error) {
	if err := c.checkLen(name, len(v)); err != nil {
		return nil, err
	}
	out := c.clone()
	out.dropName(name)
	out.ints[name] = v
	return out, nil
}

// Float returns a scalar column.
func (c *Catalog) Float(name string) ([]float64, error) {
	v, ok := c.floats[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (float)", ErrMissingColumn, name)
	}
	return v, nil
}

// Vec2 returns a 2-vector column.
func (c *Catalog) Vec2(name string) ([][2]float64, error) {
	v, ok := c.vecs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (vec2)", ErrMissingColumn, name)
	}
	return v, nil
}

// Int returns an integer column.
func (c *Catalog) Int(name string) ([]int, error) {
	v, ok := c.ints[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (int)", ErrMissingColumn, name)
	}
	return v, nil
}

// Positions returns the ra and dec columns.
func (c *Catalog) Positions() (ra, dec []float64, err error) {
	if ra, err = c.Float(ColRA); err != nil {
		return nil, nil, err
	}
	if dec, err = c.Float(ColDec); err != nil {
		return nil, nil, err
	}
	return ra, dec, nil
}

// Filter returns the rows where mask is true, copying every column.
func (c *Catalog) Filter(mask []bool) (*Catalog, error) {
	if len(mask) != c.n {
		return nil, fmt.Errorf("mask has %d rows, catalog has %d", len(mask), c.n)
	}
	keep := 0
	for _, m := range mask {
		if m {
			keep++
		}
	}
	out := New(keep)
	for k, col := range c.floats {
		dst := make([]float64, 0, keep)
		for i, m := range mask {
			if m {
				dst = append(dst, col[i])
			}
		}
		out.floats[k] = dst
	}
	for k, col := range c.vecs {
		dst := make([][2]float64, 0, keep)
		for i, m := range mask {
			if m {
				dst = append(dst, col[i])
			}
		}
		out.vecs[k] = dst
	}
	for k, col := range c.ints {
		dst := make([]int, 0, keep)
		for i, m := range mask {
			if m {
				dst = append(dst, col[i])
			}
		}
		out.ints[k] = dst
	}
	return out, nil
}

// DetectFormat reports which shear columns the catalog carries, preferring
// metacalibration columns when both are present.
func (c *Catalog) DetectFormat() (Format, error) {
	metacal := true
	for _, name := range []string{ColG, ColG1P, ColG1M, ColG2P, ColG2M} {
		if _, ok := c.vecs[name]; !ok {
			metacal = false
			break
		}
	}
	if metacal {
		return FormatMetacal, nil
	}
	_, s1 := c.floats[ColShear1]
	_, s2 := c.floats[ColShear2]
	if s1 && s2 {
		return FormatShear, nil
	}
	return "", fmt.Errorf("%w: no metacal or shear columns", ErrMissingColumn)
}
