// SPDX-License-Identifier: MIT
/*
Package analysis provides the smoothing and peak-picking stages applied to
the oscillator bank's amplitude envelope before it is emitted downstream.
Neighboring oscillators sit fractions of a Hz apart, so the raw envelope is
smoothed with a Savitzky-Golay filter and reduced to well-separated local
maxima.
*/
package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SavGol is a Savitzky-Golay smoothing filter: a least-squares polynomial
// fit of fixed order over a sliding odd-length window. Coefficients are
// computed once at construction; Smooth itself allocates nothing.
type SavGol struct {
	window int
	order  int
	half   int

	// center[j] convolves the window around an interior point.
	center []float64
	// proj maps a window of samples to the (order+1) fitted polynomial
	// coefficients, used to extrapolate the edges the way scipy's
	// "interp" mode does.
	proj *mat.Dense
}

// NewSavGol builds a filter with the given window length (odd, > order)
// and polynomial order.
func NewSavGol(window, order int) (*SavGol, error) {
	if window%2 == 0 || window < 1 {
		return nil, fmt.Errorf("savgol window must be odd and positive, got %d", window)
	}
	if order < 0 || order >= window {
		return nil, fmt.Errorf("savgol order must satisfy 0 <= order < window, got %d/%d", order, window)
	}

	half := window / 2

	// Vandermonde design matrix over positions -half..half.
	design := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		x := float64(i - half)
		v := 1.0
		for k := 0; k <= order; k++ {
			design.Set(i, k, v)
			v *= x
		}
	}

	// Least-squares projection proj = (A^T A)^-1 A^T, via the normal
	// equations. proj is (order+1) x window.
	var ata mat.Dense
	ata.Mul(design.T(), design)
	var proj mat.Dense
	if err := proj.Solve(&ata, design.T()); err != nil {
		return nil, fmt.Errorf("savgol design matrix is singular: %w", err)
	}

	// The smoothed interior value is the fitted polynomial at x=0, i.e.
	// the constant coefficient: row 0 of proj.
	center := make([]float64, window)
	mat.Row(center, 0, &proj)

	return &SavGol{
		window: window,
		order:  order,
		half:   half,
		center: center,
		proj:   &proj,
	}, nil
}

// Window returns the filter's window length.
func (s *SavGol) Window() int { return s.window }

// Smooth filters src into dst and returns dst. dst must be the same length
// as src; if src is shorter than the window the data is passed through
// unchanged. Interior points are convolved with the center coefficients;
// the first and last half-window are evaluated from polynomials fitted to
// the first and last full window.
func (s *SavGol) Smooth(dst, src []float64) []float64 {
	n := len(src)
	if len(dst) != n {
		panic("analysis: savgol dst/src length mismatch")
	}
	if n < s.window {
		copy(dst, src)
		return dst
	}

	for i := s.half; i < n-s.half; i++ {
		acc := 0.0
		for j, c := range s.center {
			acc += c * src[i-s.half+j]
		}
		dst[i] = acc
	}

	for i := 0; i < s.half; i++ {
		dst[i] = s.evalFit(src[:s.window], float64(i-s.half))
	}
	for i := n - s.half; i < n; i++ {
		dst[i] = s.evalFit(src[n-s.window:], float64(i-(n-1-s.half)))
	}

	return dst
}

// evalFit fits the window and evaluates the polynomial at offset x from
// the window center.
func (s *SavGol) evalFit(window []float64, x float64) float64 {
	acc := 0.0
	xp := 1.0
	for k := 0; k <= s.order; k++ {
		ck := 0.0
		for j, y := range window {
			ck += s.proj.At(k, j) * y
		}
		acc += ck * xp
		xp *= x
	}
	return acc
}
