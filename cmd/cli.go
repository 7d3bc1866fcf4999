// SPDX-License-Identifier: MIT
// Package cmd parses command line arguments into a validated Config.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"grfnn/internal/build"
	"grfnn/internal/config"
)

// ParseArgs loads the configuration file, overlays any explicitly set
// flags on top of it, and returns the validated result. Flags win over
// the file, the file wins over built-in defaults.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	var (
		cfg        *config.Config
		configPath string

		relay         bool
		relayURL      string
		udp           bool
		udpTarget     string
		sampleRate    float64
		dim           int
		minFreq       float64
		maxFreq       float64
		spacing       string
		velocityScale float64
		gestureWindow time.Duration
		capture       bool
		captureDir    string
		verbose       bool
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Oscillator network engine for rhythmic event streams",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("relay") {
				loaded.Transport.RelayEnabled = relay
			}
			if flags.Changed("relay-url") {
				loaded.Transport.RelayURL = relayURL
			}
			if flags.Changed("udp") {
				loaded.Transport.UDPEnabled = udp
			}
			if flags.Changed("udp-target") {
				loaded.Transport.UDPTargetAddress = udpTarget
			}
			if flags.Changed("sample-rate") {
				loaded.GrFNN.SampleRate = sampleRate
			}
			if flags.Changed("dim") {
				loaded.GrFNN.Dim = dim
			}
			if flags.Changed("min-freq") {
				loaded.GrFNN.MinFreq = minFreq
			}
			if flags.Changed("max-freq") {
				loaded.GrFNN.MaxFreq = maxFreq
			}
			if flags.Changed("spacing") {
				loaded.GrFNN.Spacing = spacing
			}
			if flags.Changed("velocity-scale") {
				loaded.GrFNN.VelocityScale = velocityScale
			}
			if flags.Changed("gesture-window") {
				loaded.GrFNN.GestureWindow = gestureWindow
			}
			if flags.Changed("capture") {
				loaded.Capture.Enabled = capture
			}
			if flags.Changed("capture-dir") {
				loaded.Capture.OutputDir = captureDir
			}
			if flags.Changed("verbose") {
				loaded.Debug = verbose
			}

			// Flag overlays can break constraints the file satisfied.
			if err := loaded.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			cfg = loaded
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			cfg = &config.Config{Command: "version"}
		},
	}
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "",
		"Path to the YAML configuration file")

	// Transport
	rootCmd.PersistentFlags().BoolVar(&relay, "relay", false,
		"Send actions and amplitude envelopes to the websocket relay")
	rootCmd.PersistentFlags().StringVar(&relayURL, "relay-url", "",
		"Websocket relay endpoint, e.g. ws://127.0.0.1:5000/ws")
	rootCmd.PersistentFlags().BoolVar(&udp, "udp", false,
		"Publish periodic amplitude snapshots over UDP")
	rootCmd.PersistentFlags().StringVar(&udpTarget, "udp-target", "",
		"Target address for UDP snapshot packets")

	// Oscillator network
	rootCmd.PersistentFlags().Float64VarP(&sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Impulse-train sampling rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&dim, "dim", "n", config.DefaultDim,
		"Number of oscillators in the frequency gradient")
	rootCmd.PersistentFlags().Float64Var(&minFreq, "min-freq", config.DefaultMinFreq,
		"Lowest natural frequency in the gradient (Hz)")
	rootCmd.PersistentFlags().Float64Var(&maxFreq, "max-freq", config.DefaultMaxFreq,
		"Highest natural frequency in the gradient (Hz)")
	rootCmd.PersistentFlags().StringVar(&spacing, "spacing", config.DefaultSpacing,
		"Gradient spacing: linear or log")
	rootCmd.PersistentFlags().Float64Var(&velocityScale, "velocity-scale", config.DefaultVelocityScale,
		"Scale applied to note velocities before injection")
	rootCmd.PersistentFlags().DurationVar(&gestureWindow, "gesture-window", config.DefaultGestureWindow,
		"Aggregation window for gesture taps")

	// Capture
	rootCmd.PersistentFlags().BoolVarP(&capture, "capture", "r", false,
		"Write the reconstructed impulse train to a WAV file")
	rootCmd.PersistentFlags().StringVarP(&captureDir, "capture-dir", "o", "",
		"Directory for capture files")

	// Debug
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	if cfg == nil {
		// --version / --help exit through cobra without running RunE.
		return nil, nil
	}
	return cfg, nil
}
