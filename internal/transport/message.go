// SPDX-License-Identifier: MIT
package transport

// Keys for the relay's socket endpoints. Remote observers subscribe by
// key, so these strings are wire format and must not change.
const (
	KeyAction = "GrFNN_Action"
	KeyData   = "GrFNN_Data"
)

// Message is one keyed envelope sent to the relay.
type Message struct {
	Key     string `json:"key"`
	Payload any    `json:"payload"`
}

// DataPayload is the heartbeat body: the normalized amplitude envelope and
// the indices of its well-separated peaks.
type DataPayload struct {
	Amps  []float64 `json:"amps"`
	Peaks []int     `json:"peaks"`
}

// NewActionMessage wraps a user-triggered action string.
func NewActionMessage(action string) Message {
	return Message{Key: KeyAction, Payload: action}
}

// NewDataMessage wraps a heartbeat. An empty peak set is sent as an empty
// array, not null.
func NewDataMessage(amps []float64, peaks []int) Message {
	if peaks == nil {
		peaks = []int{}
	}
	return Message{Key: KeyData, Payload: DataPayload{Amps: amps, Peaks: peaks}}
}
