// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"fmt"
	"math"
	"net"
	"testing"
	"time"
)

// stubSource yields a fixed amplitude envelope.
type stubSource struct {
	amps []float64
	errs bool
}

func (s *stubSource) Dim() int { return len(s.amps) }

func (s *stubSource) SnapshotAmplitudes(dst []float64) error {
	if s.errs {
		return fmt.Errorf("stub snapshot failure")
	}
	copy(dst, s.amps)
	return nil
}

func TestNewPublisherValidation(t *testing.T) {
	src := &stubSource{amps: make([]float64, 4)}
	if _, err := NewPublisher(time.Second, nil, src); err == nil {
		t.Error("expected error for nil sender")
	}

	sender, err := NewSender("127.0.0.1:9099")
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	defer sender.Close()

	if _, err := NewPublisher(time.Second, sender, nil); err == nil {
		t.Error("expected error for nil source")
	}
	if _, err := NewPublisher(0, sender, src); err != nil {
		t.Errorf("zero interval must fall back to default, got error: %v", err)
	}
}

func TestPublisherPacketRoundTrip(t *testing.T) {
	// Listen on an ephemeral UDP port and decode one published packet.
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP failed: %v", err)
	}
	defer listener.Close()

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	defer sender.Close()

	src := &stubSource{amps: []float64{0.25, 0.5, 0.75, 1.0}}
	pub, err := NewPublisher(10*time.Millisecond, sender, src)
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}

	pub.Start()
	defer pub.Stop()

	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	packet := make([]byte, 2048)
	n, _, err := listener.ReadFromUDP(packet)
	if err != nil {
		t.Fatalf("no packet received: %v", err)
	}
	packet = packet[:n]

	wantLen := 4 + 8 + 2 + 4*len(src.amps)
	if n != wantLen {
		t.Fatalf("packet length = %d, want %d", n, wantLen)
	}

	seq := binary.BigEndian.Uint32(packet[0:4])
	if seq == 0 {
		t.Error("sequence number must start at 1")
	}
	ts := int64(binary.BigEndian.Uint64(packet[4:12]))
	if ts <= 0 {
		t.Errorf("timestamp = %d, want positive", ts)
	}
	count := binary.BigEndian.Uint16(packet[12:14])
	if int(count) != len(src.amps) {
		t.Fatalf("amplitude count = %d, want %d", count, len(src.amps))
	}
	for i, want := range src.amps {
		bits := binary.BigEndian.Uint32(packet[14+4*i : 18+4*i])
		got := math.Float32frombits(bits)
		if got != float32(want) {
			t.Errorf("amp[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestPublisherStartStopIdempotent(t *testing.T) {
	sender, err := NewSender("127.0.0.1:9099")
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	defer sender.Close()

	pub, err := NewPublisher(time.Hour, sender, &stubSource{amps: make([]float64, 2)})
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}

	pub.Start()
	pub.Start() // no-op while running
	if err := pub.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := pub.Stop(); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
}

func TestSenderClosed(t *testing.T) {
	sender, err := NewSender("127.0.0.1:9099")
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	if err := sender.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := sender.Close(); err != nil {
		t.Errorf("second Close must be a no-op, got %v", err)
	}
	if err := sender.Send([]byte{1, 2, 3}); err == nil {
		t.Error("Send on closed sender must fail")
	}
}
