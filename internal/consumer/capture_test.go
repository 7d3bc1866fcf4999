// SPDX-License-Identifier: MIT
package consumer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestCaptureRoundTrip(t *testing.T) {
	dir := t.TempDir()

	capture, err := NewCapture(dir, 160, 10)
	if err != nil {
		t.Fatalf("NewCapture failed: %v", err)
	}

	// 0.3s of silence then a velocity-5 impulse scaled by 10.
	train := make([]float64, 49)
	train[48] = 50
	if err := capture.AppendTrain(train); err != nil {
		t.Fatalf("AppendTrain failed: %v", err)
	}
	if got := capture.Samples(); got != 49 {
		t.Errorf("Samples() = %d, want 49", got)
	}
	if err := capture.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	file, err := os.Open(capture.Name())
	if err != nil {
		t.Fatalf("failed to reopen capture: %v", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		t.Fatalf("failed to decode capture: %v", err)
	}
	if decoder.SampleRate != 160 {
		t.Errorf("sample rate = %d, want 160", decoder.SampleRate)
	}
	if len(buf.Data) != 49 {
		t.Fatalf("decoded %d samples, want 49", len(buf.Data))
	}
	for i := 0; i < 48; i++ {
		if buf.Data[i] != 0 {
			t.Fatalf("sample[%d] = %d, want 0", i, buf.Data[i])
		}
	}
	// 50 / (127*10) of full scale.
	scaled := float64(50) / 1270 * 32767
	if want := int(scaled); buf.Data[48] != want {
		t.Errorf("impulse sample = %d, want %d", buf.Data[48], want)
	}
}

func TestCaptureClipsBeyondFullScale(t *testing.T) {
	dir := t.TempDir()

	capture, err := NewCapture(dir, 160, 10)
	if err != nil {
		t.Fatalf("NewCapture failed: %v", err)
	}
	if err := capture.AppendTrain([]float64{10000, -10000}); err != nil {
		t.Fatalf("AppendTrain failed: %v", err)
	}
	if err := capture.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	file, err := os.Open(capture.Name())
	if err != nil {
		t.Fatalf("failed to reopen capture: %v", err)
	}
	defer file.Close()

	buf, err := wav.NewDecoder(file).FullPCMBuffer()
	if err != nil {
		t.Fatalf("failed to decode capture: %v", err)
	}
	if buf.Data[0] != 32767 || buf.Data[1] != -32767 {
		t.Errorf("clipped samples = [%d, %d], want [32767, -32767]", buf.Data[0], buf.Data[1])
	}
}

func TestCaptureCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "captures")

	capture, err := NewCapture(dir, 160, 10)
	if err != nil {
		t.Fatalf("NewCapture failed: %v", err)
	}
	defer capture.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("capture directory not created: %v", err)
	}
}
