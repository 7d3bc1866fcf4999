// SPDX-License-Identifier: MIT
package grfnn

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// machEps is the spacing between 1.0 and the next representable float64,
// used as the tolerance for "numerically real" and for the one-sided
// stability probe.
var machEps = math.Nextafter(1, 2) - 1

// SolveSpontaneousAmplitude returns the stable non-negative fixed-point
// radii of the canonical model's non-driven real dynamics
//
//	dr/dt = a*r + b1*r^3 + e*b2*r^5/(1 - e*r^2)
//
// for real coefficient parts a, b1, b2 and coupling e. The radii are the
// real non-negative roots of
//
//	e*(b2-b1)*r^5 + (b1 - e*a)*r^3 + a*r = 0
//
// restricted to the model's valid domain r < 1/sqrt(e) when b2 != 0, and
// filtered for stability: the slope of dr/dt must be negative at the root,
// or zero with negative slope on both sides (a one-sided-stable degenerate
// point). Results are sorted descending; the slice is empty when no root
// qualifies.
//
// This runs once per bank construction to seed the initial amplitude, not
// on the stepping path.
func SolveSpontaneousAmplitude(a, b1, b2, e float64) []float64 {
	if b2 == 0 && e != 0 {
		e = 0
	}

	roots := polyRoots([]float64{e * (b2 - b1), 0, b1 - e*a, 0, a, 0})

	// Numerically real roots only, deduplicated.
	var reals []float64
	for _, r := range roots {
		if math.Abs(imag(r)) < machEps {
			reals = append(reals, real(r))
		}
	}
	sort.Float64s(reals)
	reals = dedupe(reals)

	var candidates []float64
	for _, r := range reals {
		if r < 0 {
			continue
		}
		if b2 != 0 && !(r < 1/math.Sqrt(e)) {
			continue
		}
		candidates = append(candidates, r)
	}

	var stable []float64
	for _, r := range candidates {
		sl := spontSlope(r, a, b1, b2, e)
		switch {
		case sl < 0:
			stable = append(stable, r)
		case sl == 0:
			if spontSlope(r-machEps, a, b1, b2, e) < 0 && spontSlope(r+machEps, a, b1, b2, e) < 0 {
				stable = append(stable, r)
			}
		}
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(stable)))
	return stable
}

// spontSlope is d/dr of the non-driven radial dynamics, evaluated at r.
func spontSlope(r, a, b1, b2, e float64) float64 {
	r2 := r * r
	r4 := r2 * r2
	r6 := r4 * r2
	d := 1 - e*r2
	return a + 3*b1*r2 + (5*e*b2*r4-3*e*e*b2*r6)/(d*d)
}

// polyRoots finds all complex roots of the polynomial with the given real
// coefficients in descending power order, as the eigenvalues of the
// companion matrix. Leading zero coefficients are stripped; each trailing
// zero coefficient contributes a root at the origin.
func polyRoots(coeffs []float64) []complex128 {
	// Strip leading zeros.
	start := 0
	for start < len(coeffs) && coeffs[start] == 0 {
		start++
	}
	coeffs = coeffs[start:]

	// Strip trailing zeros; each is a root at zero.
	zeros := 0
	for len(coeffs) > 0 && coeffs[len(coeffs)-1] == 0 {
		coeffs = coeffs[:len(coeffs)-1]
		zeros++
	}

	roots := make([]complex128, 0, len(coeffs)+zeros)
	for i := 0; i < zeros; i++ {
		roots = append(roots, 0)
	}

	n := len(coeffs) - 1 // degree of the remaining polynomial
	if n < 1 {
		return roots
	}

	// Monic companion matrix: first row -c[1..n]/c[0], ones on the
	// subdiagonal.
	companion := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		companion.Set(0, j, -coeffs[j+1]/coeffs[0])
	}
	for i := 1; i < n; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if !eig.Factorize(companion, mat.EigenNone) {
		// Eigen decomposition of a companion matrix essentially never
		// fails to converge; treat it like no qualifying roots.
		return roots
	}
	return append(roots, eig.Values(nil)...)
}

// dedupe removes exact duplicates from a sorted slice, in place.
func dedupe(xs []float64) []float64 {
	if len(xs) < 2 {
		return xs
	}
	out := xs[:1]
	for _, x := range xs[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
