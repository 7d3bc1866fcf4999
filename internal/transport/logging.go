// SPDX-License-Identifier: MIT
package transport

import (
	applog "grfnn/internal/log"
)

// LoggingTransport implements the Transport interface by logging messages
// instead of delivering them. It is the fallback when no relay is
// configured.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("transport: relay disabled, using logging transport")
	return &LoggingTransport{}
}

// Send logs the message at debug level. It never fails.
func (lt *LoggingTransport) Send(msg Message) error {
	applog.Debugf("transport: %s %+v", msg.Key, msg.Payload)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
