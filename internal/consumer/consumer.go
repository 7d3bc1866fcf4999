// SPDX-License-Identifier: MIT
package consumer

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/floats"

	"grfnn/internal/analysis"
	"grfnn/internal/config"
	"grfnn/internal/grfnn"
	applog "grfnn/internal/log"
	"grfnn/internal/transport"
)

// Consumer is the single worker that owns the oscillator bank. Events
// enter through Receive on a bounded queue; the run goroutine drains it,
// excites the bank with reconstructed impulse trains, and classifies
// gesture taps when the aggregation window expires.
//
// The bank is guarded by a mutex rather than confined to the worker:
// snapshot readers (the UDP publisher) observe it between tone bursts,
// and an entire burst is applied under one lock hold so a snapshot never
// sees a half-applied train.
type Consumer struct {
	cfg *config.Config
	tr  transport.Transport

	smoother *analysis.SavGol

	mu      sync.Mutex // Guards bank across the worker and snapshot readers.
	bank    *grfnn.Bank
	capture *Capture // Owned by the run goroutine; closed after it exits.

	events  chan Event
	dropped atomic.Uint64

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Gesture accumulator, owned by the run goroutine.
	taps     int
	lastTone time.Time

	dt float64

	// Scratch buffers reused across tone emissions. Slices handed to the
	// transport are freshly allocated; these never leave the worker.
	amps     []float64
	smoothed []float64
}

// New creates a Consumer with a freshly seeded bank. The transport must
// not be nil; use transport.NewLoggingTransport when no relay is wired.
func New(cfg *config.Config, tr transport.Transport) (*Consumer, error) {
	if tr == nil {
		return nil, fmt.Errorf("consumer: transport cannot be nil")
	}

	bank, err := newBank(cfg)
	if err != nil {
		return nil, err
	}

	smoother, err := analysis.NewSavGol(cfg.GrFNN.SmoothWindow, cfg.GrFNN.SmoothOrder)
	if err != nil {
		return nil, fmt.Errorf("consumer: %w", err)
	}

	dim := bank.Dim()
	c := &Consumer{
		cfg:      cfg,
		tr:       tr,
		smoother: smoother,
		bank:     bank,
		events:   make(chan Event, cfg.GrFNN.QueueSize),
		stopChan: make(chan struct{}),
		dt:       bank.Dt(),
		amps:     make([]float64, dim),
		smoothed: make([]float64, dim),
	}

	applog.Infof("consumer: initialized (oscillators: %d, gradient: [%g, %g] Hz %s, queue: %d)",
		dim, cfg.GrFNN.MinFreq, cfg.GrFNN.MaxFreq, cfg.GrFNN.Spacing, cfg.GrFNN.QueueSize)
	return c, nil
}

// newBank builds a seeded bank from the configured gradient and
// coefficients. Also used for wholesale replacement on RESET/NEW_GRFNN.
func newBank(cfg *config.Config) (*grfnn.Bank, error) {
	g := &cfg.GrFNN

	spacing, err := grfnn.ParseSpacing(g.Spacing)
	if err != nil {
		return nil, fmt.Errorf("consumer: %w", err)
	}
	dist, err := grfnn.NewFreqDist(g.MinFreq, g.MaxFreq, g.Dim, spacing)
	if err != nil {
		return nil, fmt.Errorf("consumer: %w", err)
	}

	coeffs := grfnn.Coeffs{
		Alpha:   g.Coefficients.Alpha,
		Beta1:   g.Coefficients.Beta1,
		Beta2:   g.Coefficients.Beta2,
		Delta1:  g.Coefficients.Delta1,
		Delta2:  g.Coefficients.Delta2,
		Epsilon: g.Coefficients.Epsilon,
	}
	bank, err := grfnn.NewBank(g.SampleRate, coeffs, dist)
	if err != nil {
		return nil, fmt.Errorf("consumer: %w", err)
	}
	return bank, nil
}

// Receive enqueues an event without blocking the caller. When the queue
// is full the oldest pending event is dropped to make room, so the
// pipeline degrades by losing history rather than stalling the source.
func (c *Consumer) Receive(ev Event) {
	select {
	case c.events <- ev:
		return
	default:
	}

	select {
	case <-c.events:
		c.dropped.Add(1)
	default:
	}
	select {
	case c.events <- ev:
	default:
		c.dropped.Add(1)
	}
}

// Dropped reports how many events have been discarded under pressure.
func (c *Consumer) Dropped() uint64 { return c.dropped.Load() }

// Start launches the worker goroutine. Call exactly once.
func (c *Consumer) Start() error {
	if c.cfg.Capture.Enabled {
		capture, err := NewCapture(c.cfg.Capture.OutputDir, c.cfg.GrFNN.SampleRate, c.cfg.GrFNN.VelocityScale)
		if err != nil {
			return fmt.Errorf("consumer: %w", err)
		}
		c.capture = capture
		applog.Infof("consumer: capturing impulse train to %s", capture.Name())
	}

	c.lastTone = time.Now()
	c.wg.Add(1)
	go c.run()
	return nil
}

// Stop signals the worker to terminate, waits for it, and closes the
// capture file if one is open. Safe to call more than once.
func (c *Consumer) Stop() error {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	c.wg.Wait()

	var err error
	if c.capture != nil {
		err = c.capture.Close()
		c.capture = nil
	}
	if n := c.dropped.Load(); n > 0 {
		applog.Warnf("consumer: dropped %d events under queue pressure", n)
	}
	return err
}

// run is the worker loop. The gesture window is driven by a timer armed
// on the first tap, so an idle pipeline blocks on the channel instead of
// polling.
func (c *Consumer) run() {
	defer c.wg.Done()

	timer := time.NewTimer(c.cfg.GrFNN.GestureWindow)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case ev := <-c.events:
			c.handleEvent(ev, timer)
		case <-timer.C:
			c.flushGesture()
		}
	}
}

func (c *Consumer) handleEvent(ev Event, timer *time.Timer) {
	switch ev.Category {
	case CategoryTone:
		c.handleTone(ev)
	case CategoryGesture:
		// The timer is guaranteed idle here: it only runs while taps > 0.
		if c.taps == 0 {
			timer.Reset(c.cfg.GrFNN.GestureWindow)
		}
		c.taps++
		applog.Debugf("consumer: gesture tap %d in window", c.taps)
	case CategoryModeChange:
		if err := c.tr.Send(transport.NewActionMessage(string(ActionNewTones))); err != nil {
			applog.Warnf("consumer: failed to send %s: %v", ActionNewTones, err)
		}
	default:
		applog.Warnf("consumer: unknown event category %d", ev.Category)
	}
}

// handleTone reconstructs the silence since the previous tone as zero
// samples, injects the scaled velocity as a single impulse, and emits the
// derived amplitude envelope.
func (c *Consumer) handleTone(ev Event) {
	elapsed := ev.Time.Sub(c.lastTone).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	c.lastTone = ev.Time

	// The quotient can land a few ulps under an exact sample count
	// (0.3/0.00625 evaluates below 48), so nudge before flooring.
	pad := int(math.Floor(elapsed/c.dt + 1e-9))
	train := make([]float64, pad+1)
	train[pad] = ev.Velocity * c.cfg.GrFNN.VelocityScale

	c.mu.Lock()
	for _, s := range train {
		c.bank.Step(s)
	}
	state := c.bank.State()
	for i, z := range state {
		c.amps[i] = cmplx.Abs(z)
	}
	c.mu.Unlock()

	if c.capture != nil {
		if err := c.capture.AppendTrain(train); err != nil {
			applog.Errorf("consumer: capture write failed: %v", err)
		}
	}

	normalized := make([]float64, len(c.amps))
	if max := floats.Max(c.amps); max > 0 {
		for i, a := range c.amps {
			normalized[i] = a / max
		}
	}

	c.smoother.Smooth(c.smoothed, c.amps)
	peaks := analysis.RelativeMaxima(c.smoothed, c.cfg.GrFNN.PeakOrder)

	if err := c.tr.Send(transport.NewDataMessage(normalized, peaks)); err != nil {
		applog.Warnf("consumer: failed to send amplitude data: %v", err)
	}
	applog.Debugf("consumer: tone processed (pad: %d samples, peaks: %d)", pad, len(peaks))
}

// flushGesture classifies the accumulated taps and clears the
// accumulator. RESET and NEW_GRFNN additionally replace the bank.
func (c *Consumer) flushGesture() {
	if c.taps == 0 {
		return
	}
	action := ClassifyTaps(c.taps)
	applog.Infof("consumer: gesture window closed (taps: %d, action: %q)", c.taps, action)
	c.taps = 0

	if action == ActionNone {
		return
	}
	if err := c.tr.Send(transport.NewActionMessage(string(action))); err != nil {
		applog.Warnf("consumer: failed to send %s: %v", action, err)
	}
	if action == ActionReset || action == ActionNewGrFNN {
		c.rebuildBank()
	}
}

// rebuildBank swaps in a freshly seeded bank. On failure the existing
// bank is kept so the pipeline stays live.
func (c *Consumer) rebuildBank() {
	bank, err := newBank(c.cfg)
	if err != nil {
		applog.Errorf("consumer: bank rebuild failed, keeping existing bank: %v", err)
		return
	}
	c.mu.Lock()
	c.bank = bank
	c.mu.Unlock()
	applog.Infof("consumer: oscillator bank replaced")
}

// Dim reports the oscillator count, fixed for the process lifetime.
func (c *Consumer) Dim() int { return c.cfg.GrFNN.Dim }

// SnapshotAmplitudes writes the current amplitude envelope |z| into dst.
// It takes the bank lock, so a concurrent tone burst is observed either
// fully applied or not at all.
func (c *Consumer) SnapshotAmplitudes(dst []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.bank.State()
	if len(dst) != len(state) {
		return fmt.Errorf("consumer: snapshot buffer length %d, want %d", len(dst), len(state))
	}
	for i, z := range state {
		dst[i] = cmplx.Abs(z)
	}
	return nil
}
