// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"reflect"
	"testing"
)

func TestRelativeMaxima(t *testing.T) {
	tests := []struct {
		name  string
		data  []float64
		order int
		want  []int
	}{
		{"single bump", []float64{0, 1, 3, 1, 0}, 1, []int{2}},
		{"two bumps order 1", []float64{0, 2, 0, 3, 0, 2, 0}, 1, []int{1, 3, 5}},
		{"two bumps order 2", []float64{0, 2, 0, 3, 0, 2, 0}, 2, []int{3}},
		{"monotonic", []float64{0, 1, 2, 3, 4}, 1, nil},
		{"plateau is not a peak", []float64{0, 2, 2, 0}, 1, nil},
		{"endpoints excluded", []float64{5, 1, 1, 6}, 1, nil},
		{"empty", nil, 1, nil},
		{"single sample", []float64{1}, 3, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RelativeMaxima(tt.data, tt.order)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RelativeMaxima(%v, %d) = %v, want %v", tt.data, tt.order, got, tt.want)
			}
		})
	}
}

func TestRelativeMaximaSeparation(t *testing.T) {
	// Two sine lobes well beyond the separation order must both appear;
	// the picked indices must be at least order apart.
	n := 250
	order := 50
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * 2 * float64(i) / float64(n)) // two full cycles
	}

	peaks := RelativeMaxima(data, order)
	if len(peaks) != 2 {
		t.Fatalf("got peaks %v, want exactly 2", peaks)
	}
	if peaks[1]-peaks[0] < order {
		t.Errorf("peaks %v closer than order %d", peaks, order)
	}
}
