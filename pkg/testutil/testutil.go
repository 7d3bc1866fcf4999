// SPDX-License-Identifier: MIT
// Package testutil provides shared test helpers.
package testutil

import (
	"sync"

	"grfnn/internal/transport"
)

// MockTransport records every message it is handed. Safe for concurrent
// use so worker goroutines can send while tests assert.
type MockTransport struct {
	mu       sync.Mutex
	messages []transport.Message
	closed   bool
}

var _ transport.Transport = (*MockTransport)(nil)

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (m *MockTransport) Send(msg transport.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Messages returns a copy of everything sent so far.
func (m *MockTransport) Messages() []transport.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]transport.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// MessagesWithKey returns a copy of the sent messages carrying key.
func (m *MockTransport) MessagesWithKey(key string) []transport.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []transport.Message
	for _, msg := range m.messages {
		if msg.Key == key {
			out = append(out, msg)
		}
	}
	return out
}

// Closed reports whether Close has been called.
func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
