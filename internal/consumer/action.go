// SPDX-License-Identifier: MIT
package consumer

// Action is a discrete command derived from gesture taps, sent to
// observers verbatim as the message payload.
type Action string

const (
	ActionNone     Action = ""
	ActionLock     Action = "LOCK"
	ActionNewGrFNN Action = "NEW_GRFNN"
	ActionReset    Action = "RESET"
	ActionNewTones Action = "NEW_TONES"
)

// ClassifyTaps maps the number of gesture taps accumulated within one
// window onto an action. Counts outside 1..3 classify as none.
func ClassifyTaps(n int) Action {
	switch n {
	case 1:
		return ActionLock
	case 2:
		return ActionNewGrFNN
	case 3:
		return ActionReset
	default:
		return ActionNone
	}
}
