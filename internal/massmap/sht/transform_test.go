package sht

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/massmap/internal/massmap"
	"github.com/banshee-data/massmap/internal/massmap/healpix"
)

// randomRealAlm returns coefficients of a real field with power only in
// lmin <= l <= lmax.
func randomRealAlm(rng *rand.Rand, lmax, lmin int) *Alm {
	a := NewAlm(lmax)
	for l := lmin; l <= lmax; l++ {
		a.Set(l, 0, complex(rng.NormFloat64(), 0))
		for m := 1; m <= l; m++ {
			v := complex(rng.NormFloat64(), rng.NormFloat64())
			a.Set(l, m, v)
			a.Set(l, -m, complex(spinSign(m), 0)*cmplx.Conj(v))
		}
	}
	return a
}

func maxAbs(a, b []float64) float64 {
	worst := 0.0
	for i := range a {
		worst = math.Max(worst, math.Abs(a[i]-b[i]))
	}
	return worst
}

func TestMWSampling_Layout(t *testing.T) {
	t.Parallel()

	s, err := NewMWSampling(4)
	require.NoError(t, err)
	assert.Equal(t, 4, s.NTheta())
	assert.Equal(t, 7, s.NPhi())
	assert.Equal(t, 28, s.NPix())
	assert.Equal(t, 3, s.MaxL())
	assert.InDelta(t, math.Pi, s.Theta(3), 1e-15)

	th, ph := s.Centres()
	for i := range th {
		assert.Equal(t, i, s.Index(th[i], ph[i]))
	}
	assert.Equal(t, 0, s.ThetaIndex(0))
	assert.Equal(t, 3, s.ThetaIndex(math.Pi))
	assert.Equal(t, 0, s.PhiIndex(2*math.Pi))
	assert.Equal(t, 6, s.PhiIndex(-1e-9))

	_, err = NewMWSampling(0)
	assert.ErrorIs(t, err, massmap.ErrConfiguration)
}

func TestMWSampling_ExactCentresIndexThemselves(t *testing.T) {
	t.Parallel()

	for _, L := range []int{8, 64, 257} {
		s, err := NewMWSampling(L)
		require.NoError(t, err)
		th, ph := s.Centres()
		miss := 0
		for i := range th {
			if s.Index(th[i], ph[i]) != i {
				miss++
			}
		}
		assert.Zero(t, miss, "L=%d", L)

		// half a cell below a ring still belongs to the previous ring
		half := math.Pi / float64(2*L-1)
		assert.Equal(t, 0, s.ThetaIndex(s.Theta(1)-half))
		assert.Equal(t, 1, s.ThetaIndex(s.Theta(1)))
		assert.Equal(t, s.NPhi()-1, s.PhiIndex(-half))
	}

	s, err := NewMWSampling(4)
	require.NoError(t, err)
	assert.Equal(t, -1, s.Index(math.NaN(), 0))
	assert.Equal(t, -1, s.Index(1, math.Inf(1)))
}

func TestMW_Spin0RoundTrip(t *testing.T) {
	t.Parallel()

	const L = 12
	s, err := NewMWSampling(L)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(1))
	in := randomRealAlm(rng, L-1, 0)

	m := Synthesize(s, in)
	out, err := Analyze(s, m, L-1)
	require.NoError(t, err)
	assert.Less(t, in.MaxAbsDiff(out), 1e-9)
}

func TestMW_Spin2RoundTrip(t *testing.T) {
	t.Parallel()

	const L = 10
	s, err := NewMWSampling(L)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(2))
	e := randomRealAlm(rng, L-1, 2)
	b := randomRealAlm(rng, L-1, 2)

	g1, g2 := SynthesizeSpin2(s, e, b)
	e2, b2, err := AnalyzeSpin2(s, g1, g2, L-1)
	require.NoError(t, err)
	assert.Less(t, e.MaxAbsDiff(e2), 1e-9)
	assert.Less(t, b.MaxAbsDiff(b2), 1e-9)
}

func TestMW_PureEHasNoB(t *testing.T) {
	t.Parallel()

	const L = 8
	s, err := NewMWSampling(L)
	require.NoError(t, err)
	e := randomRealAlm(rand.New(rand.NewSource(3)), L-1, 2)

	g1, g2 := SynthesizeSpin2(s, e, nil)
	_, b, err := AnalyzeSpin2(s, g1, g2, L-1)
	require.NoError(t, err)
	for _, v := range b.Coeffs {
		assert.Less(t, cmplx.Abs(v), 1e-9)
	}
}

func TestSynthesize_RealField(t *testing.T) {
	t.Parallel()

	base, err := healpix.New(4, healpix.Ring)
	require.NoError(t, err)
	s := NewHealpixSampling(base)
	in := randomRealAlm(rand.New(rand.NewSource(4)), 6, 0)

	c := synthesize(s, in, 0)
	for _, v := range c {
		assert.Less(t, math.Abs(imag(v)), 1e-10)
	}
}

func TestHealpix_Spin0RoundTripApproximate(t *testing.T) {
	t.Parallel()

	base, err := healpix.New(16, healpix.Ring)
	require.NoError(t, err)
	s := NewHealpixSampling(base)
	in := randomRealAlm(rand.New(rand.NewSource(5)), 8, 0)

	out, err := Analyze(s, Synthesize(s, in), 8)
	require.NoError(t, err)
	assert.Less(t, in.MaxAbsDiff(out), 0.05)
}

func TestHealpix_IterativeAnalysisConverges(t *testing.T) {
	t.Parallel()

	base, err := healpix.New(16, healpix.Ring)
	require.NoError(t, err)
	s := NewHealpixSampling(base)
	const lmax = 24
	in := randomRealAlm(rand.New(rand.NewSource(9)), lmax, 0)
	m := Synthesize(s, in)

	errAt := func(iter int) float64 {
		out, err := AnalyzeIter(s, m, lmax, iter)
		require.NoError(t, err)
		return in.MaxAbsDiff(out)
	}
	e0, e1, e3 := errAt(0), errAt(1), errAt(3)
	assert.Less(t, e1, e0)
	assert.Less(t, e3, e0/2, "iter=0 err %g, iter=3 err %g", e0, e3)

	_, err = AnalyzeIter(s, m, lmax, -1)
	assert.ErrorIs(t, err, massmap.ErrConfiguration)
}

func TestHealpix_IterativeSpin2(t *testing.T) {
	t.Parallel()

	base, err := healpix.New(8, healpix.Nested)
	require.NoError(t, err)
	s := NewHealpixSampling(base)
	const lmax = 12
	e := randomRealAlm(rand.New(rand.NewSource(10)), lmax, 2)
	g1, g2 := SynthesizeSpin2(s, e, nil)

	e0, b0, err := AnalyzeSpin2Iter(s, g1, g2, lmax, 0)
	require.NoError(t, err)
	e3, b3, err := AnalyzeSpin2Iter(s, g1, g2, lmax, 3)
	require.NoError(t, err)
	zero := NewAlm(lmax)
	assert.Less(t, e.MaxAbsDiff(e3), e.MaxAbsDiff(e0))
	assert.Less(t, zero.MaxAbsDiff(b3), zero.MaxAbsDiff(b0), "B leakage shrinks")
}

func TestMW_IterationIsNoOp(t *testing.T) {
	t.Parallel()

	s, err := NewMWSampling(6)
	require.NoError(t, err)
	in := randomRealAlm(rand.New(rand.NewSource(11)), 5, 0)
	m := Synthesize(s, in)
	a0, err := AnalyzeIter(s, m, 5, 0)
	require.NoError(t, err)
	a3, err := AnalyzeIter(s, m, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, a0.Coeffs, a3.Coeffs)
}

func TestHealpix_NestedMatchesRing(t *testing.T) {
	t.Parallel()

	ring, err := healpix.New(4, healpix.Ring)
	require.NoError(t, err)
	nest, err := healpix.New(4, healpix.Nested)
	require.NoError(t, err)
	in := randomRealAlm(rand.New(rand.NewSource(6)), 5, 0)

	rm := Synthesize(NewHealpixSampling(ring), in)
	nm := Synthesize(NewHealpixSampling(nest), in)
	th, ph := nest.Centres()
	for i := range nm {
		assert.InDelta(t, rm[ring.Ang2Pix(th[i], ph[i])], nm[i], 1e-10)
	}
}

func TestConvert_MWToHealpix(t *testing.T) {
	t.Parallel()

	const L = 9
	mw, err := NewMWSampling(L)
	require.NoError(t, err)
	base, err := healpix.New(8, healpix.Ring)
	require.NoError(t, err)
	hp := NewHealpixSampling(base)
	in := randomRealAlm(rand.New(rand.NewSource(7)), L-1, 0)

	got, err := Convert(Synthesize(mw, in), mw, hp, L-1)
	require.NoError(t, err)
	assert.Less(t, maxAbs(Synthesize(hp, in), got), 1e-9)
}

func TestAnalyze_Errors(t *testing.T) {
	t.Parallel()

	mw, err := NewMWSampling(4)
	require.NoError(t, err)

	_, err = Analyze(mw, make([]float64, 3), 3)
	assert.ErrorIs(t, err, massmap.ErrShapeMismatch)

	_, err = Analyze(mw, make([]float64, mw.NPix()), 4)
	assert.ErrorIs(t, err, massmap.ErrConfiguration)

	_, _, err = AnalyzeSpin2(mw, make([]float64, mw.NPix()), nil, 3)
	assert.ErrorIs(t, err, massmap.ErrShapeMismatch)
}

func TestSmoothAndKernel(t *testing.T) {
	t.Parallel()

	a := randomRealAlm(rand.New(rand.NewSource(8)), 10, 0)
	assert.Equal(t, a.Coeffs, Smooth(a, 0).Coeffs)

	fwhm := 0.2
	sm := Smooth(a, fwhm)
	sigma := fwhm / math.Sqrt(8*math.Ln2)
	want := a.At(5, 3) * complex(math.Exp(-30*sigma*sigma/2), 0)
	assert.InDelta(t, real(want), real(sm.At(5, 3)), 1e-12)
	assert.InDelta(t, imag(want), imag(sm.At(5, 3)), 1e-12)

	assert.Zero(t, SpinToScalar(0))
	assert.Zero(t, SpinToScalar(1))
	assert.InDelta(t, math.Sqrt(6.0/4.0), SpinToScalar(2), 1e-15)
}
