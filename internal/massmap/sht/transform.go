package sht

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/integrate/quad"

	"github.com/banshee-data/massmap/internal/massmap"
)

// fftCache holds one plan per transform length for the duration of a call.
type fftCache map[int]*fourier.CmplxFFT

func (c fftCache) get(n int) *fourier.CmplxFFT {
	f, ok := c[n]
	if !ok {
		f = fourier.NewCmplxFFT(n)
		c[n] = f
	}
	return f
}

func imod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

func checkLMax(s Sampling, lmax int) error {
	if lmax < 0 {
		return massmap.ConfigErrorf("lmax must be >= 0, got %d", lmax)
	}
	if _, ok := s.(*MWSampling); ok && lmax > s.MaxL() {
		return massmap.ConfigErrorf("lmax %d exceeds band limit of %s", lmax, s.Name())
	}
	return nil
}

// quadratureSpectra computes S_m = sum_j f_j e^{-i m phi_j} for each ring.
func quadratureSpectra(s Sampling, f []complex128, lmax int) []nodeSpectrum {
	plans := fftCache{}
	rings := s.Rings()
	out := make([]nodeSpectrum, len(rings))
	for i, r := range rings {
		n := len(r.Pixels)
		vals := make([]complex128, n)
		for j, p := range r.Pixels {
			vals[j] = f[p]
		}
		coef := plans.get(n).Coefficients(nil, vals)
		fm := make([]complex128, 2*lmax+1)
		for m := -lmax; m <= lmax; m++ {
			fm[m+lmax] = coef[imod(m, n)] * cmplx.Exp(complex(0, -float64(m)*r.Phi0))
		}
		out[i] = nodeSpectrum{theta: r.Theta, weight: r.Weight, fm: fm}
	}
	return out
}

// nodeSpectra evaluates the azimuthal Fourier coefficients F_m(theta) of a
// band-limited field at Gauss-Legendre nodes. F_m on the L sample rings is
// extended over [0, 2pi) in theta using F_m(2pi - theta) = (-1)^(m+s) F_m(theta),
// Fourier-transformed in theta, and resummed at the nodes. The result makes
// analysis exact for fields band-limited to L.
func (s *MWSampling) nodeSpectra(f []complex128, spin, lmax int) []nodeSpectrum {
	L := s.L
	n := 2*L - 1
	mmax := L - 1
	plans := fftCache{}

	ext := make([][]complex128, n)
	row := make([]complex128, n)
	for t := 0; t < L; t++ {
		copy(row, f[t*n:(t+1)*n])
		coef := plans.get(n).Coefficients(nil, row)
		fm := make([]complex128, 2*mmax+1)
		for m := -mmax; m <= mmax; m++ {
			fm[m+mmax] = coef[imod(m, n)] / complex(float64(n), 0)
		}
		ext[t] = fm
	}
	for t := L; t < n; t++ {
		src := ext[n-1-t]
		fm := make([]complex128, 2*mmax+1)
		for m := -mmax; m <= mmax; m++ {
			fm[m+mmax] = complex(spinSign(m+spin), 0) * src[m+mmax]
		}
		ext[t] = fm
	}

	xs := make([]float64, L)
	ws := make([]float64, L)
	quad.Legendre{}.FixedLocations(xs, ws, -1, 1)
	nodes := make([]nodeSpectrum, L)
	for j := range nodes {
		nodes[j] = nodeSpectrum{theta: math.Acos(xs[j]), weight: ws[j], fm: make([]complex128, 2*lmax+1)}
	}

	theta0 := math.Pi / float64(n)
	col := make([]complex128, n)
	g := make([]complex128, 2*mmax+1)
	for m := -lmax; m <= lmax; m++ {
		for t := 0; t < n; t++ {
			col[t] = ext[t][m+mmax]
		}
		d := plans.get(n).Coefficients(nil, col)
		for k := -mmax; k <= mmax; k++ {
			g[k+mmax] = d[imod(k, n)] * cmplx.Exp(complex(0, -float64(k)*theta0)) / complex(float64(n), 0)
		}
		for j := range nodes {
			var v complex128
			for k := -mmax; k <= mmax; k++ {
				v += g[k+mmax] * cmplx.Exp(complex(0, float64(k)*nodes[j].theta))
			}
			nodes[j].fm[m+lmax] = 2 * math.Pi * v
		}
	}
	return nodes
}

// analyze projects a spin-s field onto sYlm up to lmax.
func analyze(s Sampling, f []complex128, spin, lmax int) *Alm {
	var nodes []nodeSpectrum
	if src, ok := s.(spectrumSource); ok {
		nodes = src.nodeSpectra(f, spin, lmax)
	} else {
		nodes = quadratureSpectra(s, f, lmax)
	}

	alm := NewAlm(lmax)
	d := make([]float64, lmax+1)
	sign := spinSign(spin)
	for _, nd := range nodes {
		for m := -lmax; m <= lmax; m++ {
			fm := nd.fm[m+lmax]
			if fm == 0 {
				continue
			}
			wignerRow(m, -spin, nd.theta, d)
			for l := max(iabs(m), iabs(spin)); l <= lmax; l++ {
				alm.Coeffs[alm.Index(l, m)] += complex(nd.weight*sign*ylmNorm(l)*d[l], 0) * fm
			}
		}
	}
	return alm
}

// analyzeIter refines analyze with iter Jacobi steps, each adding the
// analysis of the residual f - synthesize(alm). Exact samplings skip the
// refinement.
func analyzeIter(s Sampling, f []complex128, spin, lmax, iter int) *Alm {
	alm := analyze(s, f, spin, lmax)
	if _, exact := s.(spectrumSource); exact {
		return alm
	}
	resid := make([]complex128, len(f))
	for range iter {
		back := synthesize(s, alm, spin)
		for i := range f {
			resid[i] = f[i] - back[i]
		}
		corr := analyze(s, resid, spin, lmax)
		for i := range alm.Coeffs {
			alm.Coeffs[i] += corr.Coeffs[i]
		}
	}
	return alm
}

func checkIter(iter int) error {
	if iter < 0 {
		return massmap.ConfigErrorf("iter must be >= 0, got %d", iter)
	}
	return nil
}

// synthesize evaluates sum a_lm sYlm at every pixel.
func synthesize(s Sampling, alm *Alm, spin int) []complex128 {
	out := make([]complex128, s.NPix())
	lmax := alm.LMax
	plans := fftCache{}
	d := make([]float64, lmax+1)
	sign := spinSign(spin)
	for _, r := range s.Rings() {
		n := len(r.Pixels)
		b := make([]complex128, n)
		for m := -lmax; m <= lmax; m++ {
			wignerRow(m, -spin, r.Theta, d)
			var c complex128
			for l := max(iabs(m), iabs(spin)); l <= lmax; l++ {
				c += alm.Coeffs[alm.Index(l, m)] * complex(sign*ylmNorm(l)*d[l], 0)
			}
			if c == 0 {
				continue
			}
			b[imod(m, n)] += c * cmplx.Exp(complex(0, float64(m)*r.Phi0))
		}
		vals := plans.get(n).Sequence(nil, b)
		for j, p := range r.Pixels {
			out[p] = vals[j]
		}
	}
	return out
}

// Analyze computes spin-0 coefficients of a real map.
func Analyze(s Sampling, f []float64, lmax int) (*Alm, error) {
	return AnalyzeIter(s, f, lmax, 0)
}

// AnalyzeIter is Analyze followed by iter refinement steps on samplings
// without an exact quadrature. iter = 0 is a single pass.
func AnalyzeIter(s Sampling, f []float64, lmax, iter int) (*Alm, error) {
	if len(f) != s.NPix() {
		return nil, massmap.ShapeErrorf("map has %d pixels, %s has %d", len(f), s.Name(), s.NPix())
	}
	if err := checkLMax(s, lmax); err != nil {
		return nil, err
	}
	if err := checkIter(iter); err != nil {
		return nil, err
	}
	c := make([]complex128, len(f))
	for i, v := range f {
		c[i] = complex(v, 0)
	}
	return analyzeIter(s, c, 0, lmax, iter), nil
}

// Synthesize evaluates a real spin-0 map from its coefficients.
func Synthesize(s Sampling, alm *Alm) []float64 {
	c := synthesize(s, alm, 0)
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = real(v)
	}
	return out
}

// AnalyzeSpin2 decomposes the spin-2 field g1 + i g2 into E and B modes.
func AnalyzeSpin2(s Sampling, g1, g2 []float64, lmax int) (e, b *Alm, err error) {
	return AnalyzeSpin2Iter(s, g1, g2, lmax, 0)
}

// AnalyzeSpin2Iter is AnalyzeSpin2 with iter refinement steps.
func AnalyzeSpin2Iter(s Sampling, g1, g2 []float64, lmax, iter int) (e, b *Alm, err error) {
	if len(g1) != s.NPix() || len(g2) != s.NPix() {
		return nil, nil, massmap.ShapeErrorf("shear maps have %d/%d pixels, %s has %d",
			len(g1), len(g2), s.Name(), s.NPix())
	}
	if err := checkLMax(s, lmax); err != nil {
		return nil, nil, err
	}
	if err := checkIter(iter); err != nil {
		return nil, nil, err
	}
	gamma := make([]complex128, len(g1))
	for i := range g1 {
		gamma[i] = complex(g1[i], g2[i])
	}
	a2 := analyzeIter(s, gamma, 2, lmax, iter)

	e, b = NewAlm(lmax), NewAlm(lmax)
	for l := 2; l <= lmax; l++ {
		for m := -l; m <= l; m++ {
			ap := a2.At(l, m)
			am := complex(spinSign(m), 0) * cmplx.Conj(a2.At(l, -m))
			e.Set(l, m, -(ap+am)/2)
			b.Set(l, m, complex(0, 1)*(ap-am)/2)
		}
	}
	return e, b, nil
}

// SynthesizeSpin2 evaluates g1, g2 from E and B coefficients. A nil b is
// treated as zero.
func SynthesizeSpin2(s Sampling, e, b *Alm) (g1, g2 []float64) {
	a2 := NewAlm(e.LMax)
	for i, v := range e.Coeffs {
		var bv complex128
		if b != nil {
			bv = b.Coeffs[i]
		}
		a2.Coeffs[i] = -(v + complex(0, 1)*bv)
	}
	gamma := synthesize(s, a2, 2)
	g1 = make([]float64, len(gamma))
	g2 = make([]float64, len(gamma))
	for i, v := range gamma {
		g1[i], g2[i] = real(v), imag(v)
	}
	return g1, g2
}

// Convert resamples a real map between samplings through harmonic space.
func Convert(f []float64, from, to Sampling, lmax int) ([]float64, error) {
	alm, err := Analyze(from, f, lmax)
	if err != nil {
		return nil, err
	}
	if err := checkLMax(to, lmax); err != nil {
		return nil, err
	}
	return Synthesize(to, alm), nil
}
