// SPDX-License-Identifier: MIT
package grfnn

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	applog "grfnn/internal/log"
)

// Bank is one gradient frequency oscillator network: the tuned parameters
// and the complex state vector z, advanced one sample at a time.
//
// A Bank is a plain stateful value with single-writer discipline: Step
// mutates z in place and must not be called concurrently. Concurrent
// readers take snapshots through whatever lock the owner maintains.
type Bank struct {
	dist   *FreqDist
	params *ZParams
	dt     float64

	z []complex128

	// Pre-allocated RK4 workspace. Step makes no allocations.
	ext []complex128
	k1  []complex128
	k2  []complex128
	k3  []complex128
	k4  []complex128
	zt  []complex128
}

// NewBank builds a tuned, seeded oscillator bank: gradient expansion,
// parameter tuning, spontaneous-amplitude seeding with per-oscillator
// magnitude noise and random phase rotation. sampleRate is the external
// sampling rate in Hz driving the step size dt = 1/sampleRate.
func NewBank(sampleRate float64, c Coeffs, fd *FreqDist) (*Bank, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %v", sampleRate)
	}

	params, err := TuneParams(c, fd)
	if err != nil {
		return nil, err
	}

	dim := fd.Dim
	b := &Bank{
		dist:   fd,
		params: params,
		dt:     1 / sampleRate,
		z:      make([]complex128, dim),
		ext:    make([]complex128, dim),
		k1:     make([]complex128, dim),
		k2:     make([]complex128, dim),
		k3:     make([]complex128, dim),
		k4:     make([]complex128, dim),
		zt:     make([]complex128, dim),
	}
	b.seed()
	return b, nil
}

// seed initializes z around the stable spontaneous amplitude of the first
// oscillator's real dynamics so the bank starts in plausible spontaneous
// oscillation rather than a degenerate all-zero state.
func (b *Bank) seed() {
	roots := SolveSpontaneousAmplitude(
		real(b.params.Alpha[0]),
		real(b.params.Beta1[0]),
		real(b.params.Beta2[0]),
		real(b.params.Epsilon),
	)
	r := 0.0
	if len(roots) > 0 {
		r = roots[0]
	} else {
		applog.Warnf("grfnn: no stable spontaneous amplitude for (a=%v, b1=%v, b2=%v, e=%v), seeding from zero",
			real(b.params.Alpha[0]), real(b.params.Beta1[0]),
			real(b.params.Beta2[0]), real(b.params.Epsilon))
	}

	for i := range b.z {
		mag := r + 0.01*rand.NormFloat64()
		phase := 2 * math.Pi * rand.NormFloat64()
		b.z[i] = complex(mag, 0) * cmplx.Exp(complex(0, 2*math.Pi*phase))
	}
}

// Dim returns the number of oscillators in the bank.
func (b *Bank) Dim() int { return b.dist.Dim }

// Dt returns the integration step size in seconds.
func (b *Bank) Dt() float64 { return b.dt }

// Freqs returns the natural frequency gradient the bank was tuned to.
func (b *Bank) Freqs() *FreqDist { return b.dist }

// State returns the live complex state vector. The slice aliases internal
// state; callers must not mutate it and must not hold it across Step calls
// from another goroutine.
func (b *Bank) State() []complex128 { return b.z }

// Step advances the bank by one sample of external input and returns the
// updated state vector.
//
// The external stimulus is computed once from the pre-step state through
// the Moebius-type transform
//
//	ext = w * (x / (1 - sqrt(e)*x)) * (1 / (1 - sqrt(e)*conj(z)))
//
// and held fixed across the four RK4 stages of
//
//	dz/dt = z*(alpha + beta1*|z|^2 + beta2*e*|z|^4/(1 - e*|z|^2)) + ext
//
// Step is deterministic given state and input. It is not safe for
// concurrent use, and it does not guard against numeric overflow or NaN
// propagation; that is the caller's concern.
func (b *Bank) Step(extin float64) []complex128 {
	x := complex(extin, 0)
	drive := x / (1 - b.params.RootE*x)
	for i, z := range b.z {
		b.ext[i] = complex(b.params.W[i], 0) * drive * (1 / (1 - b.params.RootE*cmplx.Conj(z)))
	}

	h := complex(b.dt, 0)

	b.zdot(b.z, b.k1)
	for i := range b.zt {
		b.k1[i] *= h
		b.zt[i] = b.z[i] + b.k1[i]/2
	}

	b.zdot(b.zt, b.k2)
	for i := range b.zt {
		b.k2[i] *= h
		b.zt[i] = b.z[i] + b.k2[i]/2
	}

	b.zdot(b.zt, b.k3)
	for i := range b.zt {
		b.k3[i] *= h
		b.zt[i] = b.z[i] + b.k3[i]
	}

	b.zdot(b.zt, b.k4)
	for i := range b.z {
		b.k4[i] *= h
		b.z[i] += (b.k1[i] + 2*b.k2[i] + 2*b.k3[i] + b.k4[i]) / 6
	}

	return b.z
}

// zdot evaluates the canonical derivative elementwise into dst, using the
// stimulus buffer prepared by Step.
func (b *Bank) zdot(z, dst []complex128) {
	for i, zi := range z {
		zre, zim := real(zi), imag(zi)
		az2 := complex(zre*zre+zim*zim, 0)
		nl1 := b.params.Beta1[i] * az2
		nl2 := b.params.Beta2[i] * b.params.Epsilon * az2 * az2 / (1 - b.params.Epsilon*az2)
		dst[i] = zi*(b.params.Alpha[i]+nl1+nl2) + b.ext[i]
	}
}
