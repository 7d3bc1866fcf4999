// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"math/rand"
	"testing"
)

func TestNewSavGolValidation(t *testing.T) {
	if _, err := NewSavGol(50, 3); err == nil {
		t.Error("expected error for even window")
	}
	if _, err := NewSavGol(5, 5); err == nil {
		t.Error("expected error for order >= window")
	}
	if _, err := NewSavGol(5, -1); err == nil {
		t.Error("expected error for negative order")
	}
	if _, err := NewSavGol(51, 3); err != nil {
		t.Errorf("NewSavGol(51, 3) failed: %v", err)
	}
}

func TestSmoothReproducesPolynomials(t *testing.T) {
	// A Savitzky-Golay filter of order p reproduces any polynomial of
	// degree <= p exactly, including at the edges.
	sg, err := NewSavGol(11, 3)
	if err != nil {
		t.Fatalf("NewSavGol failed: %v", err)
	}

	n := 64
	src := make([]float64, n)
	for i := range src {
		x := float64(i)
		src[i] = 2 - 0.5*x + 0.03*x*x - 0.001*x*x*x
	}

	dst := make([]float64, n)
	sg.Smooth(dst, src)

	for i := range src {
		if math.Abs(dst[i]-src[i]) > 1e-8 {
			t.Errorf("cubic not reproduced at %d: got %v, want %v", i, dst[i], src[i])
		}
	}
}

func TestSmoothReducesNoise(t *testing.T) {
	sg, err := NewSavGol(51, 3)
	if err != nil {
		t.Fatalf("NewSavGol failed: %v", err)
	}

	rng := rand.New(rand.NewSource(7))
	n := 250
	clean := make([]float64, n)
	noisy := make([]float64, n)
	for i := range clean {
		clean[i] = math.Sin(2 * math.Pi * float64(i) / float64(n))
		noisy[i] = clean[i] + 0.05*rng.NormFloat64()
	}

	dst := make([]float64, n)
	sg.Smooth(dst, noisy)

	var before, after float64
	for i := range clean {
		before += (noisy[i] - clean[i]) * (noisy[i] - clean[i])
		after += (dst[i] - clean[i]) * (dst[i] - clean[i])
	}
	if after >= before {
		t.Errorf("smoothing did not reduce noise energy: before=%v after=%v", before, after)
	}
}

func TestSmoothShortInputPassthrough(t *testing.T) {
	sg, err := NewSavGol(51, 3)
	if err != nil {
		t.Fatalf("NewSavGol failed: %v", err)
	}
	src := []float64{1, 2, 3}
	dst := make([]float64, 3)
	sg.Smooth(dst, src)
	for i := range src {
		if dst[i] != src[i] {
			t.Errorf("short input not passed through: %v", dst)
		}
	}
}

func TestSmoothHotPath(t *testing.T) {
	sg, err := NewSavGol(51, 3)
	if err != nil {
		t.Fatalf("NewSavGol failed: %v", err)
	}
	src := make([]float64, 250)
	for i := range src {
		src[i] = float64(i % 17)
	}
	dst := make([]float64, 250)

	sg.Smooth(dst, src)
	allocs := testing.AllocsPerRun(100, func() {
		sg.Smooth(dst, src)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Smooth, got %.1f", allocs)
	}
}

func BenchmarkSmooth(b *testing.B) {
	sg, err := NewSavGol(51, 3)
	if err != nil {
		b.Fatalf("NewSavGol failed: %v", err)
	}
	src := make([]float64, 250)
	for i := range src {
		src[i] = math.Sin(float64(i) / 10)
	}
	dst := make([]float64, 250)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		sg.Smooth(dst, src)
	}
}
