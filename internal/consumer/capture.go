// SPDX-License-Identifier: MIT
package consumer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Capture writes the reconstructed impulse train to a 16-bit mono WAV
// file as it is injected, so a session can be replayed offline. Full
// scale corresponds to the maximum note velocity after scaling.
type Capture struct {
	file      *os.File
	encoder   *wav.Encoder
	buf       *audio.IntBuffer
	fullScale float64
	samples   int
}

// NewCapture creates the output directory if needed and opens a
// timestamped WAV file in it.
func NewCapture(outputDir string, sampleRate, velocityScale float64) (*Capture, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}

	name := filepath.Join(outputDir,
		fmt.Sprintf("impulse-%s.wav", time.Now().Format("20060102-150405")))
	file, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}

	return &Capture{
		file:    file,
		encoder: wav.NewEncoder(file, int(sampleRate), 16, 1, 1),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: 1,
				SampleRate:  int(sampleRate),
			},
		},
		fullScale: 127 * velocityScale,
	}, nil
}

// Name reports the path of the capture file.
func (c *Capture) Name() string { return c.file.Name() }

// Samples reports how many samples have been written.
func (c *Capture) Samples() int { return c.samples }

// AppendTrain converts one impulse train to 16-bit samples and appends
// it to the file. Values beyond full scale clip.
func (c *Capture) AppendTrain(train []float64) error {
	if cap(c.buf.Data) < len(train) {
		c.buf.Data = make([]int, len(train))
	}
	c.buf.Data = c.buf.Data[:len(train)]

	for i, v := range train {
		x := v / c.fullScale
		if x > 1 {
			x = 1
		} else if x < -1 {
			x = -1
		}
		c.buf.Data[i] = int(x * 32767)
	}

	if err := c.encoder.Write(c.buf); err != nil {
		return fmt.Errorf("failed to write capture samples: %w", err)
	}
	c.samples += len(train)
	return nil
}

// Close finalizes the WAV header and closes the file.
func (c *Capture) Close() error {
	if err := c.encoder.Close(); err != nil {
		c.file.Close()
		return fmt.Errorf("failed to finalize capture file: %w", err)
	}
	if err := c.file.Close(); err != nil {
		return fmt.Errorf("failed to close capture file: %w", err)
	}
	return nil
}
