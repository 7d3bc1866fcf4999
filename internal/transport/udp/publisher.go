// SPDX-License-Identifier: MIT
/*
Package udp publishes periodic amplitude snapshots of the live oscillator
bank over UDP. It is the second, read-only consumer of the bank the event
pipeline's lock discipline exists for: each snapshot is taken through the
owner's lock, so a tone burst is never observed half-applied.
*/
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	applog "grfnn/internal/log"
)

// AmplitudeSource is a locked view of the oscillator bank's amplitude
// envelope, implemented by the event consumer.
type AmplitudeSource interface {
	Dim() int
	SnapshotAmplitudes(dst []float64) error
}

// Publisher periodically snapshots the amplitude envelope, packs it into a
// binary packet, and sends it via a Sender. It runs in its own goroutine
// between Start and Stop.
type Publisher struct {
	sender   *Sender
	source   AmplitudeSource
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sequenceNum uint32

	// Pre-allocated buffers for packet construction.
	ampBuffer    []float64
	f32Buffer    []float32
	packetBuffer *bytes.Buffer
}

// NewPublisher creates a Publisher. An interval <= 0 defaults to 250ms.
func NewPublisher(interval time.Duration, sender *Sender, source AmplitudeSource) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("udp publisher: amplitude source cannot be nil")
	}
	if interval <= 0 {
		interval = 250 * time.Millisecond
		applog.Warnf("udp: invalid publish interval, defaulting to %s", interval)
	}

	dim := source.Dim()
	applog.Infof("udp: snapshot publisher initialized (interval: %s, oscillators: %d)", interval, dim)

	return &Publisher{
		sender:       sender,
		source:       source,
		interval:     interval,
		ampBuffer:    make([]float64, dim),
		f32Buffer:    make([]float32, dim),
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start begins periodic publishing. Safe to call more than once; extra
// calls are no-ops while running.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("udp: Start called but publisher already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it.
// Safe to call more than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

/*
Snapshot packet structure (BigEndian):

	+-----------------+--------+--------------+-----------------------------+
	| Field           | Type   | Size (bytes) | Description                 |
	+-----------------+--------+--------------+-----------------------------+
	| Sequence Number | uint32 | 4            | Monotonically increasing    |
	| Timestamp       | int64  | 8            | Nanoseconds since epoch     |
	| Amplitude Count | uint16 | 2            | Number of floats (N)        |
	| Amplitudes      | []f32  | N * 4        | Oscillator magnitudes |z|   |
	+-----------------+--------+--------------+-----------------------------+
*/
func (p *Publisher) buildAndSendPacket() {
	if err := p.source.SnapshotAmplitudes(p.ampBuffer); err != nil {
		applog.Errorf("udp: snapshot failed: %v", err)
		return
	}

	for i, v := range p.ampBuffer {
		p.f32Buffer[i] = float32(v)
	}

	p.sequenceNum++
	timestamp := time.Now().UnixNano()
	count := uint16(len(p.f32Buffer))

	p.packetBuffer.Reset()
	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, count)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.f32Buffer)
	}
	if err != nil {
		applog.Errorf("udp: failed to pack snapshot packet: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		applog.Debugf("udp: send failed: %v", err)
	}
}

// Close implements io.Closer by stopping the publisher.
func (p *Publisher) Close() error {
	return p.Stop()
}
