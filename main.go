// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"grfnn/cmd"
	"grfnn/internal/build"
	"grfnn/internal/consumer"
	applog "grfnn/internal/log"
	"grfnn/internal/midi"
	"grfnn/internal/transport"
	"grfnn/internal/transport/udp"
)

// main wires the event pipeline. The program flow is divided into three
// phases:
//
// 1. Startup Phase:
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Construct transport, consumer (bank + smoother), and note source
//
// 2. Concurrent Phase:
//   - Consumer worker drains the event queue and drives the bank
//   - Optional UDP publisher snapshots the amplitude envelope
//   - Note source reads stdin and feeds the queue
//
// 3. Shutdown Phase:
//   - Triggered by SIGINT/SIGTERM or an exhausted note source
//   - Stop the publisher, join the worker, flush the capture file,
//     close the transport
func main() {
	// ==================== STARTUP PHASE ====================

	if err := build.Initialize(); err != nil {
		// Build metadata is injected by the release linker; a plain
		// `go run` has none and that is fine.
		applog.Debugf("build info unavailable: %v", err)
	}

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if cfg == nil {
		// --help or --version already handled by the CLI.
		return
	}

	if cfg.Command == "version" {
		info := build.GetBuildFlags()
		fmt.Printf("%s %s (commit %s, built %s)\n", info.Name, info.Version, info.Commit, info.Time)
		return
	}

	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	} else if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	var tr transport.Transport
	if cfg.Transport.RelayEnabled {
		tr = transport.NewRelayClient(cfg.Transport.RelayURL)
	} else {
		tr = transport.NewLoggingTransport()
	}

	worker, err := consumer.New(cfg, tr)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	// ==================== CONCURRENT PHASE ====================

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	if err := worker.Start(); err != nil {
		applog.Fatalf("%v", err)
	}

	var publisher *udp.Publisher
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		defer sender.Close()

		publisher, err = udp.NewPublisher(cfg.Transport.UDPSendInterval, sender, worker)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		publisher.Start()
	}

	// Stdin is the note source: "note velocity" per line. EOF means the
	// session is over.
	processor := midi.NewProcessor(cfg.Input, worker)
	sourceDone := make(chan error, 1)
	go func() {
		sourceDone <- processor.ReadFrom(os.Stdin)
	}()

	applog.Infof("engine running; feed \"note velocity\" lines on stdin, Ctrl-C to stop")

	select {
	case <-done:
		applog.Infof("termination signal received")
	case err := <-sourceDone:
		if err != nil {
			applog.Errorf("%v", err)
		}
		applog.Infof("note source exhausted")
	}

	// ==================== SHUTDOWN PHASE ====================

	if publisher != nil {
		if err := publisher.Stop(); err != nil {
			applog.Errorf("error stopping snapshot publisher: %v", err)
		}
	}
	if err := worker.Stop(); err != nil {
		applog.Errorf("error stopping consumer: %v", err)
	}
	if err := tr.Close(); err != nil {
		applog.Errorf("error closing transport: %v", err)
	}
}
