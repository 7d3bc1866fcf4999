// SPDX-License-Identifier: MIT
/*
Package consumer runs the event pipeline: a single long-lived worker that
owns the oscillator bank, turns incoming note events into impulse trains,
and pushes derived amplitude envelopes and discrete actions to a transport.
*/
package consumer

import "time"

// Category partitions incoming events by what the worker does with them.
type Category int

const (
	// CategoryTone excites the oscillator bank.
	CategoryTone Category = iota
	// CategoryGesture accumulates into a tap count classified at window expiry.
	CategoryGesture
	// CategoryModeChange triggers an immediate NEW_TONES action.
	CategoryModeChange
)

func (c Category) String() string {
	switch c {
	case CategoryTone:
		return "tone"
	case CategoryGesture:
		return "gesture"
	case CategoryModeChange:
		return "mode_change"
	default:
		return "unknown"
	}
}

// Event is one categorized, timestamped input. Velocity only matters for
// tone events; it is the raw note velocity before scaling.
type Event struct {
	Category Category
	Velocity float64
	Time     time.Time
}
