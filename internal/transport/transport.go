// SPDX-License-Identifier: MIT
/*
Package transport carries derived oscillator-bank output to downstream
observers. The relay that rebroadcasts messages to remote clients is an
external collaborator; this package only speaks its keyed message schema.
*/
package transport

// Transport defines a generic interface for emitting actions and
// heartbeats. Implementations must be safe for concurrent use and must
// not block the caller: emission is fire-and-forget, and an implementation
// that cannot deliver drops rather than stalls the event pipeline.
type Transport interface {
	Send(msg Message) error
	Close() error
}
