package catalog

import (
	"fmt"
	"math"
)

// Cut keeps rows whose scalar column lies in [Min, Max). A nil bound is
// open. Vector columns are addressed as "name.0" or "name.1".
type Cut struct {
	Column string   `json:"column" yaml:"column"`
	Min    *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max    *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

func (cut Cut) String() string {
	lo, hi := math.Inf(-1), math.Inf(1)
	if cut.Min != nil {
		lo = *cut.Min
	}
	if cut.Max != nil {
		hi = *cut.Max
	}
	return fmt.Sprintf("%g <= %s < %g", lo, cut.Column, hi)
}

func (c *Catalog) scalar(name string) ([]float64, error) {
	if v, ok := c.floats[name]; ok {
		return v, nil
	}
	if v, ok := c.ints[name]; ok {
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	}
	if n := len(name); n > 2 && name[n-2] == '.' && (name[n-1] == '0' || name[n-1] == '1') {
		if v, ok := c.vecs[name[:n-2]]; ok {
			k := int(name[n-1] - '0')
			out := make([]float64, len(v))
			for i, x := range v {
				out[i] = x[k]
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
}

// Mask evaluates the conjunction of cuts. NaN values never pass.
func (c *Catalog) Mask(cuts []Cut) ([]bool, error) {
	mask := make([]bool, c.n)
	for i := range mask {
		mask[i] = true
	}
	for _, cut := range cuts {
		v, err := c.scalar(cut.Column)
		if err != nil {
			return nil, fmt.Errorf("cut %s: %w", cut, err)
		}
		for i, x := range v {
			if math.IsNaN(x) ||
				(cut.Min != nil && x < *cut.Min) ||
				(cut.Max != nil && x >= *cut.Max) {
				mask[i] = false
			}
		}
	}
	return mask, nil
}

// Select returns the rows passing every cut.
func (c *Catalog) Select(cuts []Cut) (*Catalog, error) {
	if len(cuts) == 0 {
		return c, nil
	}
	mask, err := c.Mask(cuts)
	if err != nil {
		return nil, err
	}
	return c.Filter(mask)
}
