// Package cortex provides host-side access to a CortexKey acquisition
// device: a real one over a serial port, or an in-process mock that runs the
// actual firmware core against the wall clock. Both speak the same
// line-oriented wire protocol.
package cortex

import "time"

// Wire protocol commands accepted by the device.
const (
	CmdStart       = "START"     // begin streaming, cooperative profile
	CmdStop        = "STOP"      // return to idle
	CmdProfileAuth = "MOCK_AUTH" // switch to the cooperative profile
	CmdProfileImp  = "MOCK_IMP"  // switch to the adversarial profile
	CmdStatus      = "STATUS"    // query mode, profile, sample count, uptime
)

// ReadyMarker is printed by the device once its startup banner is complete.
const ReadyMarker = "CORTEXKEY_READY"

// Sample is one acquisition record from the device.
type Sample struct {
	Elapsed time.Duration // time since run start, per the device clock
	Value   float64       // signal amplitude, microvolts
	At      time.Time     // host receive time
}

// EventKind classifies non-data lines from the device.
type EventKind int

const (
	// EventStatus is a STATUS: acknowledgement or status report.
	EventStatus EventKind = iota
	// EventError is an ERROR: reply, currently only for unknown commands.
	EventError
	// EventBanner is an unsolicited human-readable line (test lifecycle
	// banners, the startup banner).
	EventBanner
	// EventReady is the startup ready marker.
	EventReady
)

// Event is one non-data line from the device.
type Event struct {
	Kind EventKind
	Text string // payload after the STATUS:/ERROR: prefix, or the whole line
	At   time.Time
}

// Device defines the interface for CortexKey devices (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Samples() <-chan Sample
	Events() <-chan Event
	Send(cmd string) error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
