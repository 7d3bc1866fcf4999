// SPDX-License-Identifier: MIT
package grfnn

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Coeffs holds the base real coefficients of the canonical oscillator
// equation, before tuning across a frequency gradient.
type Coeffs struct {
	Alpha   float64 // Dampening.
	Beta1   float64 // Amplitude compression factor.
	Beta2   float64 // Second-order compression factor.
	Delta1  float64 // Imaginary part mixed into beta1.
	Delta2  float64 // Imaginary part mixed into beta2.
	Epsilon float64 // Scale factor / coupling strength.
}

// DefaultCoeffs returns the critical-coupling parameter regime used by the
// interactive rig.
func DefaultCoeffs() Coeffs {
	return Coeffs{Alpha: 0, Beta1: -1, Beta2: -1, Delta1: 0, Delta2: 0, Epsilon: 1}
}

// ZParams are the per-oscillator complex coefficients of a tuned bank.
// Derived exactly once from a FreqDist and base Coeffs; never mutated
// afterwards.
type ZParams struct {
	Alpha   []complex128
	Beta1   []complex128
	Beta2   []complex128
	Epsilon complex128
	RootE   complex128 // Principal complex square root of Epsilon.
	W       []float64  // External input weight per oscillator.
}

// TuneParams derives the complex per-oscillator arrays from the base
// coefficients and the gradient.
//
// Linear spacing shifts each alpha by i*2*pi*f and broadcasts unit input
// weight; log spacing scales alpha, beta1 and beta2 by the oscillator's
// natural frequency and weights the input by it as well.
func TuneParams(c Coeffs, fd *FreqDist) (*ZParams, error) {
	dim := fd.Dim
	p := &ZParams{
		Alpha:   make([]complex128, dim),
		Beta1:   make([]complex128, dim),
		Beta2:   make([]complex128, dim),
		Epsilon: complex(c.Epsilon, 0),
		W:       make([]float64, dim),
	}
	p.RootE = cmplx.Sqrt(p.Epsilon)

	switch fd.Spacing {
	case SpacingLinear:
		for i, f := range fd.Values {
			p.Alpha[i] = complex(c.Alpha, 2*math.Pi*f)
			p.Beta1[i] = complex(c.Beta1, c.Delta1)
			p.Beta2[i] = complex(c.Beta2, c.Delta2)
			p.W[i] = 1
		}
	case SpacingLog:
		for i, f := range fd.Values {
			scale := complex(f, 0)
			p.Alpha[i] = complex(c.Alpha, 2*math.Pi) * scale
			p.Beta1[i] = complex(c.Beta1, c.Delta1) * scale
			p.Beta2[i] = complex(c.Beta2, c.Delta2) * scale
			p.W[i] = f
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownSpacing, fd.Spacing)
	}

	return p, nil
}
