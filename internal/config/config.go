// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the oscillator network and its event pipeline. The
// numeric defaults reproduce the original interactive drum rig: a 250
// oscillator gradient between 0.25 Hz and 4 Hz, sampled at 160 Hz.
const (
	DefaultSampleRate    = 160.0
	DefaultMinFreq       = 0.25
	DefaultMaxFreq       = 4.0
	DefaultDim           = 250
	DefaultSpacing       = "linear"
	DefaultVelocityScale = 10.0
	DefaultGestureWindow = 750 * time.Millisecond

	// Smoothing and peak picking over the amplitude envelope.
	DefaultSmoothWindow = 51
	DefaultSmoothOrder  = 3
	DefaultPeakOrder    = 50

	// Bounded ingestion queue (drop-oldest when full).
	DefaultQueueSize = 256

	// DTX-style note assignments: toms excite the bank, the rim aggregates
	// into actions, the pedal switches tone sets downstream.
	DefaultGestureNote    = 15
	DefaultModeChangeNote = 46
)

// Config is the main application configuration, loaded from YAML with
// env overrides, then overlaid by command line flags.
type Config struct {
	Debug    bool   `yaml:"debug"`             // Verbose logging and debug features.
	LogLevel string `yaml:"log_level"`         // Logging level ("debug", "info", "warn", "error").
	Command  string `yaml:"command,omitempty"` // One-off command instead of running the engine (e.g. "version").

	GrFNN     GrFNNConfig     `yaml:"grfnn"`     // Oscillator network settings.
	Input     InputConfig     `yaml:"input"`     // Note filtering and categorization.
	Transport TransportConfig `yaml:"transport"` // Outbound relay / snapshot settings.
	Capture   CaptureConfig   `yaml:"capture"`   // Impulse-train WAV capture.
}

// GrFNNConfig holds the numeric model settings. All of it is injected at
// bank construction and never mutated afterwards.
type GrFNNConfig struct {
	SampleRate    float64       `yaml:"sample_rate"`    // Impulse-train sampling rate in Hz.
	MinFreq       float64       `yaml:"min_freq"`       // Lowest natural frequency in the gradient (Hz).
	MaxFreq       float64       `yaml:"max_freq"`       // Highest natural frequency in the gradient (Hz).
	Dim           int           `yaml:"dim"`            // Number of oscillators.
	Spacing       string        `yaml:"spacing"`        // Gradient spacing: "linear" or "log".
	VelocityScale float64       `yaml:"velocity_scale"` // Scale applied to note velocities before injection.
	GestureWindow time.Duration `yaml:"gesture_window"` // Aggregation window for gesture taps.
	SmoothWindow  int           `yaml:"smooth_window"`  // Savitzky-Golay window length (odd).
	SmoothOrder   int           `yaml:"smooth_order"`   // Savitzky-Golay polynomial order.
	PeakOrder     int           `yaml:"peak_order"`     // Minimum neighbor radius for peak picking.
	QueueSize     int           `yaml:"queue_size"`     // Ingestion queue capacity.

	Coefficients CoefficientsConfig `yaml:"coefficients"` // Base real coefficients of the canonical equation.
}

// CoefficientsConfig holds the base real coefficients the per-oscillator
// complex parameters are tuned from.
type CoefficientsConfig struct {
	Alpha   float64 `yaml:"alpha"`   // Dampening.
	Beta1   float64 `yaml:"beta1"`   // First amplitude compression factor.
	Beta2   float64 `yaml:"beta2"`   // Second amplitude compression factor.
	Delta1  float64 `yaml:"delta1"`  // Imaginary part mixed into beta1.
	Delta2  float64 `yaml:"delta2"`  // Imaginary part mixed into beta2.
	Epsilon float64 `yaml:"epsilon"` // Coupling strength / scale factor.
}

// InputConfig maps incoming note identifiers onto event categories. Notes
// outside the union of these sets are dropped at the boundary.
type InputConfig struct {
	ToneNotes      []int `yaml:"tone_notes"`       // Notes that excite the oscillator bank.
	GestureNote    int   `yaml:"gesture_note"`     // Note aggregated into discrete actions.
	ModeChangeNote int   `yaml:"mode_change_note"` // Note that triggers an immediate NEW_TONES action.
}

// TransportConfig holds settings for pushing derived output to observers.
type TransportConfig struct {
	RelayEnabled bool   `yaml:"relay_enabled"` // Send actions/heartbeats to the websocket relay.
	RelayURL     string `yaml:"relay_url"`     // Relay endpoint, e.g. "ws://127.0.0.1:5000/ws".

	UDPEnabled       bool          `yaml:"udp_enabled"`        // Publish periodic amplitude snapshots over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address for snapshot packets.
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between snapshot packets.
}

// CaptureConfig controls recording of the reconstructed impulse train.
type CaptureConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Write injected samples to a WAV file.
	OutputDir string `yaml:"output_dir"` // Directory for capture files.
}

// Load reads configuration from a YAML file at path. If path is empty it
// searches default locations ("config.yaml"); if no file is found the
// built-in defaults are used. Env overrides are applied after loading,
// and the result is validated.
func Load(path string) (*Config, error) {
	cfg := Config{
		Debug:    false,
		LogLevel: "info",
		GrFNN: GrFNNConfig{
			SampleRate:    DefaultSampleRate,
			MinFreq:       DefaultMinFreq,
			MaxFreq:       DefaultMaxFreq,
			Dim:           DefaultDim,
			Spacing:       DefaultSpacing,
			VelocityScale: DefaultVelocityScale,
			GestureWindow: DefaultGestureWindow,
			SmoothWindow:  DefaultSmoothWindow,
			SmoothOrder:   DefaultSmoothOrder,
			PeakOrder:     DefaultPeakOrder,
			QueueSize:     DefaultQueueSize,
			Coefficients: CoefficientsConfig{
				Alpha:   0,
				Beta1:   -1,
				Beta2:   -1,
				Delta1:  0,
				Delta2:  0,
				Epsilon: 1,
			},
		},
		Input: InputConfig{
			ToneNotes:      []int{47, 48},
			GestureNote:    DefaultGestureNote,
			ModeChangeNote: DefaultModeChangeNote,
		},
		Transport: TransportConfig{
			RelayEnabled:     false,
			RelayURL:         "ws://127.0.0.1:5000/ws",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  250 * time.Millisecond,
		},
		Capture: CaptureConfig{
			Enabled:   false,
			OutputDir: "./captures",
		},
	}

	if path == "" {
		candidates := []string{"config.yaml"}
		found := false
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				found = true
				break
			}
		}
		if !found {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return &cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the structural constraints the numeric core relies on.
// Gradient spacing itself is validated at bank construction, where an
// unrecognized kind is a fatal startup error.
func (c *Config) Validate() error {
	g := &c.GrFNN
	if g.SampleRate <= 0 {
		return fmt.Errorf("grfnn.sample_rate must be positive, got %v", g.SampleRate)
	}
	if g.Dim < 2 {
		return fmt.Errorf("grfnn.dim must be at least 2, got %d", g.Dim)
	}
	if g.MinFreq <= 0 || g.MaxFreq <= g.MinFreq {
		return fmt.Errorf("grfnn frequency bounds must satisfy 0 < min < max, got [%v, %v]",
			g.MinFreq, g.MaxFreq)
	}
	if g.VelocityScale <= 0 {
		return fmt.Errorf("grfnn.velocity_scale must be positive, got %v", g.VelocityScale)
	}
	if g.GestureWindow <= 0 {
		return fmt.Errorf("grfnn.gesture_window must be positive, got %v", g.GestureWindow)
	}
	if g.SmoothWindow%2 == 0 || g.SmoothWindow <= g.SmoothOrder {
		return fmt.Errorf("grfnn.smooth_window must be odd and larger than smooth_order, got %d/%d",
			g.SmoothWindow, g.SmoothOrder)
	}
	if g.PeakOrder < 1 {
		return fmt.Errorf("grfnn.peak_order must be at least 1, got %d", g.PeakOrder)
	}
	if g.QueueSize < 1 {
		return fmt.Errorf("grfnn.queue_size must be at least 1, got %d", g.QueueSize)
	}
	if len(c.Input.ToneNotes) == 0 {
		return fmt.Errorf("input.tone_notes must not be empty")
	}
	return nil
}

func (cfg *Config) applyEnvOverrides() {
	// GRFNN_DEBUG
	if val, ok := os.LookupEnv("GRFNN_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	// GRFNN_RELAY_ENABLED
	if val, ok := os.LookupEnv("GRFNN_RELAY_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.RelayEnabled = bVal
		}
	}
	// GRFNN_RELAY_URL
	if val, ok := os.LookupEnv("GRFNN_RELAY_URL"); ok {
		cfg.Transport.RelayURL = val
	}
	// GRFNN_UDP_ENABLED
	if val, ok := os.LookupEnv("GRFNN_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
		}
	}
	// GRFNN_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("GRFNN_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
	}
	// GRFNN_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("GRFNN_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
		}
	}
}
