package reconstruct

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/banshee-data/massmap/internal/massmap"
)

// FlatKS is the flat-sky Kaiser-Squires inversion
//
//	kappa~ = [(k1^2 - k2^2) - 2i k1 k2] (g1~ + i g2~) / (k1^2 + k2^2)
//
// with k1 along columns (x) and k2 along rows (y) in FFT frequency order.
// The k=0 denominator is replaced by 1, so the mean of kappa is lost.
type FlatKS struct {
	NX, NY      int
	PixelArcmin float64

	// SmoothingArcmin is the FWHM of an optional Gaussian filter.
	SmoothingArcmin float64
	// ZeroPadding adds this many zero pixels on every side before the
	// transform; the result is cropped back.
	ZeroPadding int

	FlipG1, FlipG2 bool
}

func (f *FlatKS) Name() string {
	return fmt.Sprintf("flat_ks(%dx%d,pad=%d,fwhm=%garcmin)", f.NX, f.NY, f.ZeroPadding, f.SmoothingArcmin)
}

// Reconstruct inverts a 2D shear map of shape (NY rows, NX columns).
func (f *FlatKS) Reconstruct(m *massmap.ShearMap) (*massmap.ConvergenceMap, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.Shape != (massmap.Shape{NX: f.NX, NY: f.NY}) {
		return nil, massmap.ShapeErrorf("shear map shape %dx%d, reconstructor expects %dx%d",
			m.Shape.NX, m.Shape.NY, f.NX, f.NY)
	}
	g1, g2 := prepareShear(m, f.FlipG1, f.FlipG2)

	pad := f.ZeroPadding
	nx, ny := f.NX+2*pad, f.NY+2*pad
	gamma := make([]complex128, nx*ny)
	for row := 0; row < f.NY; row++ {
		for col := 0; col < f.NX; col++ {
			i := row*f.NX + col
			gamma[(row+pad)*nx+col+pad] = complex(g1[i], g2[i])
		}
	}

	fx := fourier.NewCmplxFFT(nx)
	fy := fourier.NewCmplxFFT(ny)
	fft2(gamma, nx, ny, fx, fy, false)

	var sigmaPix float64
	if f.SmoothingArcmin > 0 {
		sigmaPix = fwhmToSigma(f.SmoothingArcmin / f.PixelArcmin)
	}
	for row := 0; row < ny; row++ {
		k2 := fy.Freq(row)
		for col := 0; col < nx; col++ {
			k1 := fx.Freq(col)
			ksq := k1*k1 + k2*k2
			denom := ksq
			if row == 0 && col == 0 {
				denom = 1
			}
			kernel := complex(k1*k1-k2*k2, -2*k1*k2) / complex(denom, 0)
			if sigmaPix > 0 {
				kernel *= complex(math.Exp(-2*math.Pi*math.Pi*sigmaPix*sigmaPix*ksq), 0)
			}
			gamma[row*nx+col] *= kernel
		}
	}
	fft2(gamma, nx, ny, fx, fy, true)

	out := &massmap.ConvergenceMap{
		KappaE:  make([]float64, f.NX*f.NY),
		KappaB:  make([]float64, f.NX*f.NY),
		Shape:   m.Shape,
		N:       m.N,
		GridRA:  m.GridRA,
		GridDec: m.GridDec,
	}
	for row := 0; row < f.NY; row++ {
		for col := 0; col < f.NX; col++ {
			v := gamma[(row+pad)*nx+col+pad]
			out.KappaE[row*f.NX+col] = real(v)
			out.KappaB[row*f.NX+col] = imag(v)
		}
	}
	return out, nil
}

// fft2 transforms a row-major ny x nx array in place. The inverse is
// normalised by 1/(nx*ny).
func fft2(data []complex128, nx, ny int, fx, fy *fourier.CmplxFFT, inverse bool) {
	row := make([]complex128, nx)
	for r := 0; r < ny; r++ {
		seg := data[r*nx : (r+1)*nx]
		if inverse {
			fx.Sequence(row, seg)
		} else {
			fx.Coefficients(row, seg)
		}
		copy(seg, row)
	}
	col := make([]complex128, ny)
	tmp := make([]complex128, ny)
	for c := 0; c < nx; c++ {
		for r := 0; r < ny; r++ {
			col[r] = data[r*nx+c]
		}
		if inverse {
			fy.Sequence(tmp, col)
		} else {
			fy.Coefficients(tmp, col)
		}
		for r := 0; r < ny; r++ {
			data[r*nx+c] = tmp[r]
		}
	}
	if inverse {
		norm := complex(1/float64(nx*ny), 0)
		for i := range data {
			data[i] *= norm
		}
	}
}
