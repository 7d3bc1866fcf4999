// SPDX-License-Identifier: MIT
/*
Package grfnn implements a single-layer gradient frequency neural network:
a fixed-size bank of coupled nonlinear oscillators following the canonical
complex-valued equation, each tuned to a distinct natural frequency.

The package is organized around one Bank value per active network. A Bank
owns its frequency gradient, its tuned per-oscillator parameters, and its
complex state vector, and exposes a single Step operation advancing the
state by one sample via classical RK4. Banks are replaced wholesale, never
re-tuned in place.
*/
package grfnn

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Spacing selects how natural frequencies are distributed across the gradient.
type Spacing int

const (
	SpacingLinear Spacing = iota
	SpacingLog
)

// String returns the configuration name of the spacing.
func (s Spacing) String() string {
	switch s {
	case SpacingLinear:
		return "linear"
	case SpacingLog:
		return "log"
	default:
		return "unknown"
	}
}

// ErrUnknownSpacing is returned for gradient spacings the model does not
// support. It is fatal at startup: the process cannot proceed without a
// valid gradient.
var ErrUnknownSpacing = errors.New("unknown frequency spacing")

// ParseSpacing converts a configuration string to a Spacing.
func ParseSpacing(name string) (Spacing, error) {
	switch name {
	case "linear":
		return SpacingLinear, nil
	case "log":
		return SpacingLog, nil
	default:
		return SpacingLinear, fmt.Errorf("%w: %q", ErrUnknownSpacing, name)
	}
}

// FreqDist is an ordered gradient of oscillator natural frequencies.
// Immutable after construction; owned by the Bank built from it.
type FreqDist struct {
	Min     float64
	Max     float64
	Dim     int
	Spacing Spacing
	Values  []float64 // len == Dim, strictly increasing, Values[0] == Min, Values[Dim-1] == Max.
}

// NewFreqDist expands the gradient between min and max into dim values.
// SpacingLinear yields evenly spaced points, SpacingLog a geometric
// progression (even spacing in log10-space); both include the endpoints.
func NewFreqDist(min, max float64, dim int, spacing Spacing) (*FreqDist, error) {
	if dim < 2 {
		return nil, fmt.Errorf("frequency gradient needs at least 2 points, got %d", dim)
	}
	if min <= 0 || max <= min {
		return nil, fmt.Errorf("frequency bounds must satisfy 0 < min < max, got [%v, %v]", min, max)
	}

	values := make([]float64, dim)
	switch spacing {
	case SpacingLinear:
		floats.Span(values, min, max)
	case SpacingLog:
		floats.LogSpan(values, min, max)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownSpacing, spacing)
	}

	// Pin the endpoints against accumulated rounding.
	values[0] = min
	values[dim-1] = max

	return &FreqDist{
		Min:     min,
		Max:     max,
		Dim:     dim,
		Spacing: spacing,
		Values:  values,
	}, nil
}
