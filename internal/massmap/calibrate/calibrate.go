// Package calibrate estimates the metacalibration responsivity of a catalog
// and applies its pseudoinverse to the measured ellipticities.
package calibrate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/massmap/internal/catalog"
	"github.com/banshee-data/massmap/internal/massmap"
	"github.com/banshee-data/massmap/internal/monitoring"
)

// DefaultDeltaGamma is the artificial shear step of metacalibration.
const DefaultDeltaGamma = 0.01

// DefaultMaxCondition is the condition number above which a responsivity
// is flagged degenerate.
const DefaultMaxCondition = 1e6

// pinvRcond matches numpy.linalg.pinv: singular values below
// rcond * max(singular value) are treated as zero.
const pinvRcond = 1e-15

// Responsivity is the catalog-mean response matrix and its pseudoinverse.
// Matrix[i][j] is the response of ellipticity component i to shear along
// axis j.
type Responsivity struct {
	Matrix  [2][2]float64
	Inverse [2][2]float64

	// Condition is the 2-norm condition number; +Inf when singular.
	Condition float64
	// Rank is the number of singular values kept by the pseudoinverse.
	Rank int
	// Degenerate flags a reduced-confidence calibration. It is not an error.
	Degenerate bool
	// NGalaxies is the size of the sample R was averaged over.
	NGalaxies int
}

// Identity is the responsivity of already calibrated shear.
func Identity() Responsivity {
	id := [2][2]float64{{1, 0}, {0, 1}}
	return Responsivity{Matrix: id, Inverse: id, Condition: 1, Rank: 2}
}

// Apply returns R^+ g.
func (r Responsivity) Apply(g [2]float64) [2]float64 {
	return [2]float64{
		r.Inverse[0][0]*g[0] + r.Inverse[0][1]*g[1],
		r.Inverse[1][0]*g[0] + r.Inverse[1][1]*g[1],
	}
}

func (r Responsivity) String() string {
	return fmt.Sprintf("R=[[%.5g %.5g] [%.5g %.5g]] cond=%.4g rank=%d",
		r.Matrix[0][0], r.Matrix[0][1], r.Matrix[1][0], r.Matrix[1][1], r.Condition, r.Rank)
}

// EstimateResponsivity averages per-galaxy finite-difference responses
// R_ij = (g_jp - g_jm)_i / (2 deltaGamma) over the rows where mask is true,
// or over every row when mask is nil.
func EstimateResponsivity(c *catalog.Catalog, deltaGamma float64, mask []bool) (Responsivity, error) {
	if deltaGamma <= 0 {
		return Responsivity{}, massmap.ConfigErrorf("delta_gamma must be positive, got %g", deltaGamma)
	}
	if mask != nil && len(mask) != c.Len() {
		return Responsivity{}, massmap.ShapeErrorf("response mask has %d rows, catalog has %d", len(mask), c.Len())
	}
	names := [4]string{catalog.ColG1P, catalog.ColG1M, catalog.ColG2P, catalog.ColG2M}
	var cols [4][][2]float64
	for k, name := range names {
		v, err := c.Vec2(name)
		if err != nil {
			return Responsivity{}, err
		}
		cols[k] = v
	}

	// per-galaxy entries, one slice per matrix element
	var elems [2][2][]float64
	for n := 0; n < c.Len(); n++ {
		if mask != nil && !mask[n] {
			continue
		}
		for i := 0; i < 2; i++ {
			elems[i][0] = append(elems[i][0], (cols[0][n][i]-cols[1][n][i])/(2*deltaGamma))
			elems[i][1] = append(elems[i][1], (cols[2][n][i]-cols[3][n][i])/(2*deltaGamma))
		}
	}
	count := len(elems[0][0])
	if count == 0 {
		return Responsivity{}, massmap.ConfigErrorf("no galaxies available to estimate the responsivity")
	}

	var r Responsivity
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			r.Matrix[i][j] = stat.Mean(elems[i][j], nil)
		}
	}
	r.NGalaxies = count
	pseudoInverse(&r)
	return r, nil
}

// pseudoInverse fills Inverse, Condition and Rank from Matrix via SVD.
func pseudoInverse(r *Responsivity) {
	m := mat.NewDense(2, 2, []float64{r.Matrix[0][0], r.Matrix[0][1], r.Matrix[1][0], r.Matrix[1][1]})
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDFull) {
		r.Condition = math.Inf(1)
		return
	}
	sv := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	cut := pinvRcond * sv[0]
	inv := mat.NewDense(2, 2, nil)
	for k, s := range sv {
		if s <= cut || s == 0 {
			continue
		}
		r.Rank++
		var outer mat.Dense
		outer.Outer(1/s, v.ColView(k), u.ColView(k))
		inv.Add(inv, &outer)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			r.Inverse[i][j] = inv.At(i, j)
		}
	}
	if r.Rank < len(sv) {
		r.Condition = math.Inf(1)
		return
	}
	r.Condition = svd.Cond()
}

// Calibrator turns measured shear columns into g_calibrated.
type Calibrator struct {
	DeltaGamma   float64
	MaxCondition float64
	// ResponseCuts restricts the sample R is averaged over; the calibrated
	// column is still produced for every row.
	ResponseCuts []catalog.Cut
}

// Calibrate estimates R for this catalog and returns a new catalog with the
// g_calibrated column. Plain shear catalogs pass through with R = I.
func (c Calibrator) Calibrate(cat *catalog.Catalog) (*catalog.Catalog, Responsivity, error) {
	format, err := cat.DetectFormat()
	if err != nil {
		return nil, Responsivity{}, err
	}
	if format == catalog.FormatShear {
		return calibrateShear(cat)
	}

	dg := c.DeltaGamma
	if dg == 0 {
		dg = DefaultDeltaGamma
	}
	maxCond := c.MaxCondition
	if maxCond == 0 {
		maxCond = DefaultMaxCondition
	}

	var mask []bool
	if len(c.ResponseCuts) > 0 {
		if mask, err = cat.Mask(c.ResponseCuts); err != nil {
			return nil, Responsivity{}, err
		}
	}
	r, err := EstimateResponsivity(cat, dg, mask)
	if err != nil {
		return nil, Responsivity{}, err
	}
	if r.Rank < 2 || r.Condition > maxCond {
		r.Degenerate = true
		monitoring.Logf("calibrate: degenerate responsivity (%s); pseudoinverse result has reduced confidence", r)
	}

	g, err := cat.Vec2(catalog.ColG)
	if err != nil {
		return nil, Responsivity{}, err
	}
	out := make([][2]float64, len(g))
	for i, v := range g {
		out[i] = r.Apply(v)
	}
	calibrated, err := cat.WithVec2(catalog.ColGCalibrated, out)
	if err != nil {
		return nil, Responsivity{}, err
	}
	return calibrated, r, nil
}

func calibrateShear(cat *catalog.Catalog) (*catalog.Catalog, Responsivity, error) {
	s1, err := cat.Float(catalog.ColShear1)
	if err != nil {
		return nil, Responsivity{}, err
	}
	s2, err := cat.Float(catalog.ColShear2)
	if err != nil {
		return nil, Responsivity{}, err
	}
	out := make([][2]float64, len(s1))
	for i := range s1 {
		out[i] = [2]float64{s1[i], s2[i]}
	}
	r := Identity()
	r.NGalaxies = len(out)
	calibrated, err := cat.WithVec2(catalog.ColGCalibrated, out)
	if err != nil {
		return nil, Responsivity{}, err
	}
	return calibrated, r, nil
}
