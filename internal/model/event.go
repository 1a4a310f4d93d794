package model

import "time"

// Action classifies what a scale reading represents. The set is open: devices
// may report actions this service has never seen, and those are treated as
// ordinary readings.
type Action string

const (
	ActionServed    Action = "Served"
	ActionRefilled  Action = "Refilled"
	ActionHeartbeat Action = "Heartbeat"
	ActionStarting  Action = "Starting"
	ActionOffline   Action = "Offline"
)

// Priority reports whether the action marks a semantically significant state
// transition. Served and Refilled events take precedence over heartbeats when
// resolving a device's current state, regardless of arrival order.
func (a Action) Priority() bool {
	return a == ActionServed || a == ActionRefilled
}

// Event is one immutable append record from a scale. Sequence is assigned by
// the store on insert and is the only trustworthy ordering key; Timestamp is
// caller-supplied and may be skewed, duplicated, or out of order.
type Event struct {
	Sequence   int64     `json:"sequence"`
	Model      string    `json:"model"`
	DeviceID   string    `json:"device_id"`
	Timestamp  time.Time `json:"timestamp"`
	Action     Action    `json:"action"`
	Amount     float64   `json:"amount"`
	Location   string    `json:"location"`
	Ingredient string    `json:"ingredient"`
	Synced     bool      `json:"synced"`
}

// DefaultDevices is the set of scale numbers tracked in the observed
// deployment. Overridable via configuration.
var DefaultDevices = []string{"716710-0-0", "716710-1", "716710-2", "716710-3"}
